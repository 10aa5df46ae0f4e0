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
	"testing"

	"tripflow/platform/planner/trip"
)

func TestParseSuggestions(t *testing.T) {
	text := `1. lodging: Switch to a guesthouse near the old town (saves $4,500)
2. food: Eat where the locals eat (saves 1200.50)
transport: Use the metro pass instead of taxis
this line has no category separator
a category with far too many words: trim it`

	got := parseSuggestions(text, 30000)
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d: %v", len(got), got)
	}

	first := got[0]
	if first.Category != "lodging" {
		t.Errorf("unexpected category %q", first.Category)
	}
	if first.Suggestion != "Switch to a guesthouse near the old town" {
		t.Errorf("savings trailer not stripped: %q", first.Suggestion)
	}
	if first.EstimatedSavings != 4500 {
		t.Errorf("expected savings 4500, got %v", first.EstimatedSavings)
	}
	if first.Impact != "high" {
		t.Errorf("4500 of 30000 should rate high impact, got %q", first.Impact)
	}

	second := got[1]
	if second.EstimatedSavings != 1200.50 {
		t.Errorf("expected savings 1200.50, got %v", second.EstimatedSavings)
	}
	if second.Impact != "medium" {
		t.Errorf("expected medium impact, got %q", second.Impact)
	}

	third := got[2]
	if third.EstimatedSavings != 0 || third.Impact != "low" {
		t.Errorf("no trailer should mean zero savings / low impact, got %v / %q",
			third.EstimatedSavings, third.Impact)
	}
}

func TestParseSuggestionsCapsAtThree(t *testing.T) {
	text := `lodging: a (saves 100)
food: b (saves 100)
transport: c (saves 100)
activities: d (saves 100)`
	if got := parseSuggestions(text, 0); len(got) != 3 {
		t.Fatalf("expected cap at 3 suggestions, got %d", len(got))
	}
}

func TestImpactForSavings(t *testing.T) {
	tests := []struct {
		savings float64
		total   float64
		want    string
	}{
		{0, 30000, "low"},
		{500, 30000, "medium"},
		{3000, 30000, "high"},
		{10000, 0, "medium"},
	}
	for _, tt := range tests {
		if got := impactForSavings(tt.savings, tt.total); got != tt.want {
			t.Errorf("impactForSavings(%v, %v) = %q, want %q", tt.savings, tt.total, got, tt.want)
		}
	}
}

func TestRuleBasedSuggestionsOverBudget(t *testing.T) {
	budget := trip.BudgetBreakdown{
		Total:    36000,
		Currency: "INR",
		Status:   trip.BudgetOver,
		Variance: 6000,
		Categories: map[string]float64{
			"lodging": 15000, "transport": 6000, "food": 8000, "activities": 5000, "other": 2000,
		},
	}
	got := ruleBasedSuggestions(budget)
	if len(got) != 2 {
		t.Fatalf("expected 2 rule-based suggestions, got %d", len(got))
	}
	if got[0].Category != "budget" || got[0].EstimatedSavings != 6000 {
		t.Errorf("unexpected over-budget suggestion %+v", got[0])
	}
	if got[1].Category != "lodging" {
		t.Errorf("expected the largest category called out, got %q", got[1].Category)
	}
}
