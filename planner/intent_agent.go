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

	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
)

// IntentAgent classifies the trip request into purpose, style, and budget
// category. Classification failure is never fatal: the agent degrades to a
// deterministic heuristic derived from the request alone.
type IntentAgent struct {
	client *llm.Client
}

// NewIntentAgent creates an intent agent.
func NewIntentAgent(client *llm.Client) *IntentAgent {
	return &IntentAgent{client: client}
}

// Classify produces the trip intent. The returned degraded flag reports
// whether the heuristic path was used.
func (a *IntentAgent) Classify(ctx context.Context, req trip.Request) (trip.Intent, bool) {
	intent, err := a.classifyLLM(ctx, req)
	if err != nil {
		log.Printf("[IntentAgent] classification degraded to heuristics: %v", err)
		return heuristicIntent(req), true
	}
	return intent, false
}

func (a *IntentAgent) classifyLLM(ctx context.Context, req trip.Request) (trip.Intent, error) {
	prompt := fmt.Sprintf(`Classify this trip request. Respond with exactly these labeled lines and nothing else:
Purpose: one of leisure, adventure, culture, business
Style: one of relaxed, packed, balanced
Budget: one of budget, mid-range, luxury
Complexity: one of simple, moderate, complex

Request: origin %s, destination %q, region %q, %d days, %d travelers, travel type %s, interests: %s, budget target %.0f %s.`,
		req.Origin, req.Destination, req.Region, req.DurationDays(), req.Travelers,
		req.TravelType, strings.Join(req.Interests, ", "), req.BudgetTarget(), req.Currency)

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   200,
		Temperature: 0.1,
	})
	if err != nil {
		return trip.Intent{}, err
	}

	intent := heuristicIntent(req)
	matched := 0
	for _, line := range strings.Split(resp.Text, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.ToLower(strings.TrimSpace(parts[1]))
		switch label {
		case "purpose":
			if oneOf(value, "leisure", "adventure", "culture", "business") {
				intent.Purpose = value
				matched++
			}
		case "style", "travel style":
			if oneOf(value, "relaxed", "packed", "balanced") {
				intent.TravelStyle = value
				matched++
			}
		case "budget", "budget category":
			if oneOf(value, "budget", "mid-range", "luxury") {
				intent.BudgetCategory = value
				matched++
			}
		case "complexity":
			if oneOf(value, "simple", "moderate", "complex") {
				intent.Complexity = value
				matched++
			}
		}
	}
	if matched == 0 {
		return trip.Intent{}, fmt.Errorf("no recognizable classification in response")
	}
	return intent, nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// heuristicIntent derives the classification from the request alone. It is
// pure and deterministic so degraded runs stay reproducible.
func heuristicIntent(req trip.Request) trip.Intent {
	intent := trip.Intent{
		Purpose:        "leisure",
		TravelStyle:    "balanced",
		BudgetCategory: "mid-range",
		EstimatedDays:  req.DurationDays(),
		Complexity:     "simple",
	}

	for _, interest := range req.Interests {
		switch {
		case strings.Contains(interest, "hik") || strings.Contains(interest, "trek") ||
			strings.Contains(interest, "adventure") || strings.Contains(interest, "diving"):
			intent.Purpose = "adventure"
			intent.TravelStyle = "packed"
		case strings.Contains(interest, "museum") || strings.Contains(interest, "history") ||
			strings.Contains(interest, "culture") || strings.Contains(interest, "art"):
			if intent.Purpose == "leisure" {
				intent.Purpose = "culture"
			}
		case strings.Contains(interest, "beach") || strings.Contains(interest, "spa") ||
			strings.Contains(interest, "relax"):
			intent.TravelStyle = "relaxed"
		}
	}

	target := req.BudgetTarget()
	days := req.DurationDays()
	travelers := req.Travelers
	if travelers < 1 {
		travelers = 1
	}
	if target > 0 && days > 0 {
		perPersonDay := target / float64(days) / float64(travelers)
		switch {
		case perPersonDay < 75:
			intent.BudgetCategory = "budget"
		case perPersonDay > 300:
			intent.BudgetCategory = "luxury"
		}
	}

	switch {
	case days > 10 || travelers > 5:
		intent.Complexity = "complex"
	case days > 5 || req.Destination == "":
		intent.Complexity = "moderate"
	}

	return intent
}
