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
	"log"
	"strings"

	"tripflow/platform/planner/extract"
	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
)

// BudgetAgent estimates the category breakdown for the planned itinerary.
// Estimation failure degrades to a fixed-share split of the target and is
// never fatal. Derived figures (total, per-person, per-day, status) are
// always recomputed locally; extracted totals are never trusted.
type BudgetAgent struct {
	client    *llm.Client
	extractor *extract.Engine
}

// NewBudgetAgent creates a budget agent.
func NewBudgetAgent(client *llm.Client, extractor *extract.Engine) *BudgetAgent {
	return &BudgetAgent{client: client, extractor: extractor}
}

// Estimate produces the budget breakdown. The degraded flag reports whether
// a fallback strategy produced the category amounts.
func (a *BudgetAgent) Estimate(ctx context.Context, req trip.Request, dest trip.DestinationInfo, itinerary []trip.ItineraryDay) (trip.BudgetBreakdown, bool) {
	ectx := extractContext(req, dest)

	var result *extract.Result
	degraded := false

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      a.prompt(req, dest, itinerary),
		MaxTokens:   600,
		Temperature: 0.3,
	})
	if err != nil {
		log.Printf("[BudgetAgent] completion failed, using fixed-share split: %v", err)
		result, _ = synthOnly(a.extractor, extract.SchemaBudget, ectx)
		degraded = true
	} else {
		result, err = a.extractor.Extract(resp.Text, extract.SchemaBudget, ectx)
		if err != nil {
			log.Printf("[BudgetAgent] extraction failed, using fixed-share split: %v", err)
			result, _ = synthOnly(a.extractor, extract.SchemaBudget, ectx)
			degraded = true
		} else if result.Source != "fields" {
			degraded = true
		}
	}

	breakdown := trip.BudgetBreakdown{
		Categories: result.Budget.Categories,
		Currency:   req.Currency,
	}
	breakdown.Recompute(req.BudgetTarget(), req.Travelers, req.DurationDays())
	return breakdown, degraded
}

func (a *BudgetAgent) prompt(req trip.Request, dest trip.DestinationInfo, itinerary []trip.ItineraryDay) string {
	activityCount := 0
	for _, day := range itinerary {
		activityCount += len(day.Activities)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Estimate a trip budget in %s for %d traveler(s) spending %d days in %s (%d planned activities).",
		req.Currency, req.Travelers, len(itinerary), dest.Name, activityCount)
	if target := req.BudgetTarget(); target > 0 {
		fmt.Fprintf(&b, " The travelers' target is %.0f %s total.", target, req.Currency)
	}
	b.WriteString(`

Respond with exactly these labeled lines and nothing else:
Accommodation: <amount>
Transport: <amount>
Food: <amount>
Activities: <amount>
Other: <amount>`)
	return b.String()
}
