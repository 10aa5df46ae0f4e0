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
	"tripflow/platform/planner/extract"
	"tripflow/platform/planner/trip"
)

// extractContext assembles the extraction context from the request plus
// whatever destination state the pipeline has resolved so far.
func extractContext(req trip.Request, dest trip.DestinationInfo) extract.Context {
	destination := dest.Name
	if destination == "" {
		destination = req.Destination
	}
	return extract.Context{
		Destination:  destination,
		Country:      dest.Country,
		Origin:       req.Origin,
		DurationDays: req.DurationDays(),
		StartDate:    req.StartDate,
		Currency:     req.Currency,
		Travelers:    req.Travelers,
		BudgetTarget: req.BudgetTarget(),
		Interests:    req.Interests,
	}
}
