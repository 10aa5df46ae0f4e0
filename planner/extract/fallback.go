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

package extract

import (
	"fmt"
	"strconv"

	"tripflow/platform/planner/trip"
)

// synthesizeDestination builds a labeled placeholder overview from the
// request context alone. Placeholders are honest: fields the text never
// provided are marked as estimates, never presented as facts.
func synthesizeDestination(_ string, ctx Context) (*Result, bool) {
	name := ctx.Destination
	if name == "" {
		name = "Suggested destination"
	}
	info := trip.DestinationInfo{
		Name:        name,
		Country:     ctx.Country,
		Description: fmt.Sprintf("Overview for %s is unavailable; details below are placeholders.", name),
		Attractions: []trip.Attraction{
			{Name: "Local highlights (to be confirmed)", Type: "attraction"},
		},
		LocalTransport: trip.LocalTransport{
			Modes: []string{"public transit", "taxi", "walking"},
		},
	}
	return &Result{Destination: &DestinationResult{Info: info}}, true
}

// defaultBudgetShares is the category split applied when no usable budget
// text exists. The shares sum to 1.
var defaultBudgetShares = map[string]float64{
	"lodging":    0.35,
	"transport":  0.20,
	"food":       0.20,
	"activities": 0.15,
	"other":      0.10,
}

// synthesizeBudget distributes the target (or a per-day estimate when no
// target exists) across the canonical categories with fixed shares.
func synthesizeBudget(_ string, ctx Context) (*Result, bool) {
	target := ctx.BudgetTarget
	if target <= 0 {
		days := ctx.DurationDays
		if days < 1 {
			days = 3
		}
		travelers := ctx.Travelers
		if travelers < 1 {
			travelers = 1
		}
		// Rough mid-range placeholder: 150 per traveler per day.
		target = 150 * float64(days) * float64(travelers)
	}

	categories := make(map[string]float64, len(defaultBudgetShares))
	for _, cat := range trip.BudgetCategories {
		categories[cat] = target * defaultBudgetShares[cat]
	}
	return &Result{Budget: &BudgetResult{Categories: categories, Currency: ctx.Currency}}, true
}

// FallbackItinerary builds the deterministic template itinerary used when
// itinerary extraction fails outright: an arrival day, explore days, and a
// departure day, sized exactly to the requested duration. The orchestrator
// invokes this directly; it is not part of the extraction chain.
func FallbackItinerary(ctx Context) []trip.ItineraryDay {
	days := ctx.DurationDays
	if days < 1 {
		days = 3
	}
	dest := ctx.Destination
	if dest == "" {
		dest = "your destination"
	}

	out := make([]trip.ItineraryDay, 0, days)
	for i := 1; i <= days; i++ {
		var day trip.ItineraryDay
		switch {
		case i == 1:
			day = trip.ItineraryDay{
				Index: 1,
				Title: "Arrival",
				Activities: []trip.Activity{
					{Name: "Arrive in " + dest, Type: trip.ActivityTransit, TimeWindow: "Morning"},
					{Name: "Hotel check-in and rest", Type: trip.ActivityLodging, TimeWindow: "Afternoon"},
					{Name: "Dinner near your accommodation", Type: trip.ActivityDining, TimeWindow: "Evening"},
				},
			}
		case i == days && days > 1:
			day = trip.ItineraryDay{
				Index: i,
				Title: "Departure",
				Activities: []trip.Activity{
					{Name: "Breakfast and checkout", Type: trip.ActivityDining, TimeWindow: "Morning"},
					{Name: "Depart from " + dest, Type: trip.ActivityTransit, TimeWindow: "Afternoon"},
				},
			}
		default:
			day = trip.ItineraryDay{
				Index: i,
				Title: "Explore " + dest,
				Activities: []trip.Activity{
					{Name: "Morning sightseeing in " + dest, Type: trip.ActivityAttraction, TimeWindow: "Morning"},
					{Name: "Lunch at a local restaurant", Type: trip.ActivityDining, TimeWindow: "Afternoon"},
					{Name: "Free time and evening walk", Type: trip.ActivityGeneric, TimeWindow: "Evening"},
				},
			}
		}
		if !ctx.StartDate.IsZero() {
			day.Date = ctx.StartDate.AddDate(0, 0, i-1)
		}
		if day.Title == "Explore "+dest && days > 4 {
			day.Title += " (day " + strconv.Itoa(i) + ")"
		}
		out = append(out, day)
	}
	return out
}
