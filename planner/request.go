// Copyright 2025 TripFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package planner

import (
	"strings"

	"tripflow/platform/planner/trip"
)

var validSeasons = map[string]bool{
	"spring": true, "summer": true, "autumn": true, "fall": true,
	"winter": true, "monsoon": true,
}

var validTravelTypes = map[string]bool{
	"solo": true, "couple": true, "family": true, "group": true,
}

// NormalizeRequest validates and canonicalizes an incoming request in
// place. It enforces the timing rules (a date range, or a season plus
// duration), traveler bounds, and destination precedence, and fills
// defaults for currency and travel type. Returns a *ValidationError on
// rejection.
func NormalizeRequest(req *trip.Request) error {
	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	req.Region = strings.TrimSpace(req.Region)
	req.Season = strings.ToLower(strings.TrimSpace(req.Season))
	req.TravelType = strings.ToLower(strings.TrimSpace(req.TravelType))
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	req.BudgetRange = strings.TrimSpace(req.BudgetRange)

	cleaned := req.Interests[:0]
	for _, interest := range req.Interests {
		interest = strings.ToLower(strings.TrimSpace(interest))
		if interest != "" {
			cleaned = append(cleaned, interest)
		}
	}
	req.Interests = cleaned

	if req.Origin == "" {
		return &ValidationError{Field: "origin", Reason: "is required"}
	}

	hasDates := !req.StartDate.IsZero() && !req.EndDate.IsZero()
	switch {
	case !req.StartDate.IsZero() != !req.EndDate.IsZero():
		return &ValidationError{Field: "dates", Reason: "require both start_date and end_date"}
	case hasDates && req.EndDate.Before(req.StartDate):
		return &ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	case !hasDates && req.Season == "":
		return &ValidationError{Field: "timing", Reason: "requires either a date range or a season"}
	case !hasDates && req.Season != "" && req.Duration < 1:
		return &ValidationError{Field: "duration", Reason: "is required with a season"}
	}
	if req.Season != "" && !validSeasons[req.Season] {
		return &ValidationError{Field: "season", Reason: "must be one of spring, summer, autumn, winter, monsoon"}
	}

	if req.Travelers < 1 {
		return &ValidationError{Field: "travelers", Reason: "must be at least 1"}
	}
	if req.Travelers > 20 {
		return &ValidationError{Field: "travelers", Reason: "must be at most 20"}
	}
	if req.DurationDays() > 60 {
		return &ValidationError{Field: "duration", Reason: "must be at most 60 days"}
	}
	if req.Budget < 0 {
		return &ValidationError{Field: "budget", Reason: "must not be negative"}
	}

	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.TravelType == "" {
		req.TravelType = defaultTravelType(req.Travelers)
	} else if !validTravelTypes[req.TravelType] {
		return &ValidationError{Field: "travel_type", Reason: "must be one of solo, couple, family, group"}
	}

	// Destination precedence: an explicit destination wins over a region
	// hint. The region is cleared so downstream stages see one source of
	// truth.
	if req.Destination != "" {
		req.Region = ""
	}

	return nil
}

func defaultTravelType(travelers int) string {
	switch {
	case travelers == 1:
		return "solo"
	case travelers == 2:
		return "couple"
	case travelers <= 5:
		return "family"
	default:
		return "group"
	}
}
