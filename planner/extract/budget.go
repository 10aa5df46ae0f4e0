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

import "strings"

// BudgetResult is the budget-schema extraction output. Only category
// amounts are extracted; totals and status are recomputed downstream.
type BudgetResult struct {
	Categories map[string]float64
	Currency   string
}

// categoryAliases maps label words seen in generated text to the canonical
// category set.
var categoryAliases = map[string]string{
	"lodging": "lodging", "accommodation": "lodging", "accommodations": "lodging",
	"hotel": "lodging", "hotels": "lodging", "stay": "lodging",
	"transport": "transport", "transportation": "transport", "travel": "transport",
	"flights": "transport", "flight": "transport", "transit": "transport",
	"food": "food", "dining": "food", "meals": "food", "restaurants": "food",
	"activities": "activities", "activity": "activities", "attractions": "activities",
	"sightseeing": "activities", "entertainment": "activities", "tours": "activities",
	"other": "other", "misc": "other", "miscellaneous": "other",
	"shopping": "other", "contingency": "other", "extras": "other",
}

// extractBudgetFields parses "Category: amount" lines into the canonical
// category map. Total lines are recognized but discarded; the sum is always
// recomputed. Succeeds when at least two categories carry amounts.
func extractBudgetFields(text string, ctx Context) (*Result, bool) {
	categories := make(map[string]float64)

	for _, line := range textLines(text) {
		label, value, ok := splitLabel(line)
		if !ok {
			continue
		}
		if strings.Contains(label, "total") || strings.Contains(label, "grand") {
			continue
		}
		canonical := canonicalCategory(label)
		if canonical == "" {
			continue
		}
		if amount, ok := parseBareNumber(value); ok {
			categories[canonical] += amount
		}
	}

	if len(categories) < 2 {
		return nil, false
	}
	return &Result{Budget: &BudgetResult{Categories: categories, Currency: ctx.Currency}}, true
}

// canonicalCategory resolves a label (possibly multi-word, e.g. "food &
// dining") to its canonical category, or "" when no alias matches.
func canonicalCategory(label string) string {
	if c, ok := categoryAliases[label]; ok {
		return c
	}
	for _, word := range strings.FieldsFunc(label, func(r rune) bool {
		return r == ' ' || r == '/' || r == '&' || r == '-'
	}) {
		if c, ok := categoryAliases[word]; ok {
			return c
		}
	}
	return ""
}

// minedAliases is the fixed scan order for the loose budget miner. Map
// iteration order would make mining nondeterministic.
var minedAliases = []struct{ alias, canonical string }{
	{"accommodation", "lodging"}, {"lodging", "lodging"}, {"hotel", "lodging"},
	{"transport", "transport"}, {"flight", "transport"}, {"travel", "transport"},
	{"food", "food"}, {"dining", "food"}, {"meal", "food"},
	{"activit", "activities"}, {"sightseeing", "activities"}, {"attraction", "activities"},
	{"misc", "other"}, {"other", "other"}, {"shopping", "other"},
}

// mineBudget scans any line mentioning a category word and an amount, in
// either order, requiring at least one hit.
func mineBudget(text string, ctx Context) (*Result, bool) {
	categories := make(map[string]float64)

	for _, line := range textLines(text) {
		lower := strings.ToLower(line)
		amount, ok := parseMoney(line)
		if !ok {
			continue
		}
		if strings.Contains(lower, "total") {
			continue
		}
		for _, entry := range minedAliases {
			if strings.Contains(lower, entry.alias) {
				if _, seen := categories[entry.canonical]; !seen {
					categories[entry.canonical] = amount
				}
				break
			}
		}
	}

	if len(categories) == 0 {
		return nil, false
	}
	return &Result{Budget: &BudgetResult{Categories: categories, Currency: ctx.Currency}}, true
}
