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
	"context"
	"fmt"
	"strings"

	"tripflow/platform/planner/extract"
	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
)

// ItineraryAgent builds the day-by-day schedule. Unlike the other agents it
// surfaces extraction failure to its caller: the orchestrator owns the
// whole-itinerary fallback decision because an invented schedule changes
// what the user is told, not just how it is phrased.
type ItineraryAgent struct {
	client    *llm.Client
	extractor *extract.Engine
}

// NewItineraryAgent creates an itinerary agent.
func NewItineraryAgent(client *llm.Client, extractor *extract.Engine) *ItineraryAgent {
	return &ItineraryAgent{client: client, extractor: extractor}
}

// Build produces the itinerary, normalized to exactly the requested number
// of days with every day carrying at least one activity. Returns a
// *StageError wrapping the underlying cause when neither completion nor
// extraction yields usable days.
func (a *ItineraryAgent) Build(ctx context.Context, req trip.Request, intent trip.Intent, dest trip.DestinationInfo) ([]trip.ItineraryDay, bool, error) {
	ectx := extractContext(req, dest)

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      a.prompt(req, intent, dest),
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, false, &StageError{Step: StepItinerary, Err: err}
	}

	result, err := a.extractor.Extract(resp.Text, extract.SchemaItinerary, ectx)
	if err != nil {
		return nil, false, &StageError{Step: StepItinerary, Err: err}
	}

	days := make([]trip.ItineraryDay, 0, len(result.Days))
	for _, d := range result.Days {
		days = append(days, d.Day)
	}
	days, padded := normalizeItinerary(days, ectx)
	return days, padded || result.Source != "fields", nil
}

func (a *ItineraryAgent) prompt(req trip.Request, intent trip.Intent, dest trip.DestinationInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a %d-day %s itinerary for %s", req.DurationDays(), intent.TravelStyle, dest.Name)
	if dest.Country != "" {
		fmt.Fprintf(&b, ", %s", dest.Country)
	}
	fmt.Fprintf(&b, " for %d traveler(s), interests: %s.", req.Travelers, strings.Join(req.Interests, ", "))
	if len(dest.Attractions) > 0 {
		names := make([]string, 0, len(dest.Attractions))
		for _, at := range dest.Attractions {
			names = append(names, at.Name)
		}
		fmt.Fprintf(&b, " Consider these attractions: %s.", strings.Join(names, ", "))
	}
	if target := req.BudgetTarget(); target > 0 {
		fmt.Fprintf(&b, " Total budget around %.0f %s.", target, req.Currency)
	}

	b.WriteString(`

Respond in simple HTML. For each day use a heading like "Day 1: Arrival"
followed by a <ul> where every <li> is formatted as:
9:00 AM - 12:00 PM: Activity name at Location ($cost)
Include 3-5 activities per day and an optional "Notes:" line per day.`)
	return b.String()
}

// normalizeItinerary forces the extracted days to exactly the requested
// duration: reindexed 1..N, trimmed when too long, padded with template
// days when too short, and dated from the start date when one exists. The
// padded flag reports whether any template day was inserted.
func normalizeItinerary(days []trip.ItineraryDay, ectx extract.Context) ([]trip.ItineraryDay, bool) {
	want := ectx.DurationDays
	if want < 1 {
		want = len(days)
	}
	if len(days) > want {
		days = days[:want]
	}

	padded := false
	if len(days) < want {
		template := extract.FallbackItinerary(ectx)
		for i := len(days); i < want; i++ {
			days = append(days, template[i])
			padded = true
		}
	}

	for i := range days {
		days[i].Index = i + 1
		if days[i].Title == "" {
			days[i].Title = fmt.Sprintf("Day %d", i+1)
		}
		if !ectx.StartDate.IsZero() {
			days[i].Date = ectx.StartDate.AddDate(0, 0, i)
		}
	}
	return days, padded
}
