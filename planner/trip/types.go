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

// Package trip defines the domain model shared by the planning pipeline:
// requests, stage outputs, and the compiled plan.
package trip

import (
	"time"
)

// Request is the normalized user intent for a planning run.
//
// Destination resolution follows strict precedence: an explicit Destination
// beats Region, which beats "suggest one". Once resolved the destination is
// propagated unchanged to every later stage.
type Request struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination,omitempty"` // Canonical destination field
	Region      string    `json:"region,omitempty"`      // Region preference when no explicit destination
	StartDate   time.Time `json:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty"`
	Season      string    `json:"season,omitempty"`   // Alternative to explicit dates
	Duration    int       `json:"duration,omitempty"` // Days; required with Season, derived from dates otherwise
	Travelers   int       `json:"travelers"`
	Currency    string    `json:"currency"`
	Interests   []string  `json:"interests,omitempty"`
	Budget      float64   `json:"budget,omitempty"`       // Numeric budget
	BudgetRange string    `json:"budget_range,omitempty"` // e.g. "25000-35000"; alternative representation
	TravelType  string    `json:"travel_type,omitempty"`  // solo, couple, family, group
}

// Intent is the derived classification produced once by the intent stage.
// It is immutable after creation.
type Intent struct {
	Purpose        string `json:"purpose"`         // leisure, adventure, culture, business
	TravelStyle    string `json:"travel_style"`    // relaxed, packed, balanced
	BudgetCategory string `json:"budget_category"` // budget, mid-range, luxury
	EstimatedDays  int    `json:"estimated_days"`
	Complexity     string `json:"complexity"` // simple, moderate, complex
}

// Attraction is a point of interest within a destination overview.
type Attraction struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// LocalTransport describes how to get around at the destination.
type LocalTransport struct {
	Modes []string `json:"modes,omitempty"`
	Tips  string   `json:"tips,omitempty"`
}

// DestinationInfo is the resolved destination overview produced by the
// destination stage and consumed by itinerary, budget, and enrichment.
type DestinationInfo struct {
	Name           string         `json:"name"`
	Country        string         `json:"country,omitempty"`
	Description    string         `json:"description,omitempty"`
	BestTime       string         `json:"best_time,omitempty"`
	KeyAreas       []string       `json:"key_areas,omitempty"`
	Attractions    []Attraction   `json:"attractions,omitempty"`
	Transportation string         `json:"transportation,omitempty"`
	LocalTransport LocalTransport `json:"local_transport"`
}

// ActivityType classifies an itinerary activity.
type ActivityType string

const (
	ActivityLodging    ActivityType = "lodging"
	ActivityDining     ActivityType = "dining"
	ActivityAttraction ActivityType = "attraction"
	ActivityTransit    ActivityType = "transit"
	ActivityGeneric    ActivityType = "generic"
)

// Coordinates is a resolved geographic position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Activity is one entry in an itinerary day.
type Activity struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Type        ActivityType `json:"type"`
	Location    string       `json:"location,omitempty"`
	TimeWindow  string       `json:"time_window,omitempty"` // e.g. "9:00 AM - 12:00 PM"
	Duration    string       `json:"duration,omitempty"`
	Cost        float64      `json:"cost,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Notes       string       `json:"notes,omitempty"`
}

// ItineraryDay is one day of the plan. Invariant: every day carries at
// least one activity; a day with zero activities invalidates the whole
// itinerary because budget math assumes non-empty days.
type ItineraryDay struct {
	Index         int        `json:"index"` // 1-based
	Date          time.Time  `json:"date,omitempty"`
	Title         string     `json:"title"`
	Activities    []Activity `json:"activities"`
	Notes         string     `json:"notes,omitempty"`
	EstimatedCost float64    `json:"estimated_cost,omitempty"`
}

// BudgetStatus classifies the total against the requested target.
type BudgetStatus string

const (
	BudgetWithin BudgetStatus = "within"
	BudgetOver   BudgetStatus = "over"
	BudgetUnder  BudgetStatus = "under"
)

// BudgetBreakdown maps spend categories to amounts. Total always equals the
// sum of category amounts; Status and Variance are recomputed from Total vs.
// the requested target, never taken verbatim from extracted text.
type BudgetBreakdown struct {
	Categories map[string]float64 `json:"categories"` // lodging, transport, food, activities, other
	Total      float64            `json:"total"`
	PerPerson  float64            `json:"per_person"`
	PerDay     float64            `json:"per_day"`
	Currency   string             `json:"currency"`
	Status     BudgetStatus       `json:"status"`
	Variance   float64            `json:"variance"` // Signed: Total - target
}

// BudgetCategories is the fixed category set of a breakdown.
var BudgetCategories = []string{"lodging", "transport", "food", "activities", "other"}

// OptimizationSuggestion is advisory output from the optimizer stage.
type OptimizationSuggestion struct {
	Category         string  `json:"category"`
	Suggestion       string  `json:"suggestion"`
	Impact           string  `json:"impact,omitempty"`
	EstimatedSavings float64 `json:"estimated_savings,omitempty"`
}

// Plan is the compiled aggregate returned by the orchestrator. It is
// immutable once returned; a tweak re-runs the pipeline to produce a new
// Plan.
type Plan struct {
	ID          string                   `json:"id"`
	Request     Request                  `json:"request"`
	Intent      Intent                   `json:"intent"`
	Destination DestinationInfo          `json:"destination"`
	Itinerary   []ItineraryDay           `json:"itinerary"`
	Budget      BudgetBreakdown          `json:"budget"`
	Suggestions []OptimizationSuggestion `json:"suggestions,omitempty"`
	Summary     string                   `json:"summary"` // Rendered markup blob for direct display
	CreatedAt   time.Time                `json:"created_at"`
}

// DurationDays returns the trip length in days for the request: from the
// date range when both dates are set (inclusive of the start day), else the
// explicit Duration, else a 3-day default.
func (r Request) DurationDays() int {
	if !r.StartDate.IsZero() && !r.EndDate.IsZero() {
		days := int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
		if days > 0 {
			return days
		}
	}
	if r.Duration > 0 {
		return r.Duration
	}
	return 3
}

// BudgetTarget returns the numeric budget target, averaging a range string
// like "25000-35000" when no numeric budget is present. Returns 0 when the
// request carries no budget expression.
func (r Request) BudgetTarget() float64 {
	if r.Budget > 0 {
		return r.Budget
	}
	return ParseBudgetRange(r.BudgetRange)
}
