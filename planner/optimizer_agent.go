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
	"regexp"
	"strconv"
	"strings"

	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
)

// OptimizerAgent produces advisory suggestions for an over-budget or
// improvable plan. The whole stage is optional and skippable; failure
// degrades to rule-based suggestions and is never fatal.
type OptimizerAgent struct {
	client *llm.Client
}

// NewOptimizerAgent creates an optimizer agent.
func NewOptimizerAgent(client *llm.Client) *OptimizerAgent {
	return &OptimizerAgent{client: client}
}

// Suggest produces optimization suggestions for the compiled plan state.
// The degraded flag reports whether the rule-based path was used.
func (a *OptimizerAgent) Suggest(ctx context.Context, req trip.Request, budget trip.BudgetBreakdown, itinerary []trip.ItineraryDay) ([]trip.OptimizationSuggestion, bool) {
	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      a.prompt(req, budget, itinerary),
		MaxTokens:   600,
		Temperature: 0.5,
	})
	if err != nil {
		log.Printf("[OptimizerAgent] completion failed, using rule-based suggestions: %v", err)
		return ruleBasedSuggestions(budget), true
	}

	suggestions := parseSuggestions(resp.Text, budget.Total)
	if len(suggestions) == 0 {
		return ruleBasedSuggestions(budget), true
	}
	return suggestions, false
}

func (a *OptimizerAgent) prompt(req trip.Request, budget trip.BudgetBreakdown, itinerary []trip.ItineraryDay) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A %d-day trip plan totals %.0f %s (status: %s vs target).",
		len(itinerary), budget.Total, budget.Currency, budget.Status)
	fmt.Fprintf(&b, " Category spend: ")
	for i, cat := range trip.BudgetCategories {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %.0f", cat, budget.Categories[cat])
	}
	b.WriteString(`.

Suggest up to 3 improvements. Respond with one line per suggestion:
<category>: <suggestion> (saves <amount>)`)
	return b.String()
}

// savingsTrailer matches the "(saves <amount>)" suffix the prompt asks for,
// tolerating currency symbols and thousands separators.
var savingsTrailer = regexp.MustCompile(`(?i)\(\s*sav(?:es|e|ings)[:\s]*[^\d)]*([\d][\d,]*(?:\.\d+)?)[^)]*\)\s*$`)

func parseSuggestions(text string, budgetTotal float64) []trip.OptimizationSuggestion {
	var out []trip.OptimizationSuggestion
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
			continue
		}

		suggestion := strings.TrimSpace(parts[1])
		var savings float64
		if m := savingsTrailer.FindStringSubmatch(suggestion); m != nil {
			savings, _ = strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			suggestion = strings.TrimSpace(savingsTrailer.ReplaceAllString(suggestion, ""))
		}

		s := trip.OptimizationSuggestion{
			Category:         strings.ToLower(strings.TrimSpace(parts[0])),
			Suggestion:       suggestion,
			EstimatedSavings: savings,
			Impact:           impactForSavings(savings, budgetTotal),
		}
		if len(strings.Fields(s.Category)) > 3 || s.Suggestion == "" {
			continue
		}
		out = append(out, s)
		if len(out) == 3 {
			break
		}
	}
	return out
}

// impactForSavings grades a suggestion by how much of the total it would
// recover. Savings of a tenth of the budget or more rate as high.
func impactForSavings(savings, budgetTotal float64) string {
	switch {
	case savings <= 0:
		return "low"
	case budgetTotal > 0 && savings >= budgetTotal/10:
		return "high"
	default:
		return "medium"
	}
}

// ruleBasedSuggestions derives deterministic advice from the budget state
// alone: target the largest category, and call out an over-budget total.
func ruleBasedSuggestions(budget trip.BudgetBreakdown) []trip.OptimizationSuggestion {
	largest := ""
	largestAmount := 0.0
	for _, cat := range trip.BudgetCategories {
		if amount := budget.Categories[cat]; amount > largestAmount {
			largest, largestAmount = cat, amount
		}
	}

	var out []trip.OptimizationSuggestion
	if budget.Status == trip.BudgetOver {
		out = append(out, trip.OptimizationSuggestion{
			Category:         "budget",
			Suggestion:       fmt.Sprintf("The plan exceeds the target by %.0f %s; consider trimming the largest categories.", budget.Variance, budget.Currency),
			Impact:           "high",
			EstimatedSavings: budget.Variance,
		})
	}
	if largest != "" {
		out = append(out, trip.OptimizationSuggestion{
			Category:   largest,
			Suggestion: fmt.Sprintf("%s is the largest spend category; comparing a few alternatives could reduce it by 10-20%%.", strings.ToUpper(largest[:1])+largest[1:]),
			Impact:     "medium",
		})
	}
	return out
}
