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

// DestinationAgent resolves and describes the trip destination. When the
// request names no destination it asks for a suggestion constrained by the
// region hint; extraction failure degrades to a synthesized overview and is
// never fatal.
type DestinationAgent struct {
	client    *llm.Client
	extractor *extract.Engine
}

// NewDestinationAgent creates a destination agent.
func NewDestinationAgent(client *llm.Client, extractor *extract.Engine) *DestinationAgent {
	return &DestinationAgent{client: client, extractor: extractor}
}

// Resolve produces the destination overview. The degraded flag reports
// whether a fallback strategy produced the result.
func (a *DestinationAgent) Resolve(ctx context.Context, req trip.Request, intent trip.Intent) (trip.DestinationInfo, bool) {
	ectx := extractContext(req, trip.DestinationInfo{})

	resp, err := a.client.Complete(ctx, llm.CompletionRequest{
		Prompt:      a.prompt(req, intent),
		MaxTokens:   1200,
		Temperature: 0.6,
	})
	if err != nil {
		log.Printf("[DestinationAgent] completion failed, synthesizing overview: %v", err)
		r, _ := synthOnly(a.extractor, extract.SchemaDestination, ectx)
		return r.Destination.Info, true
	}

	result, err := a.extractor.Extract(resp.Text, extract.SchemaDestination, ectx)
	if err != nil {
		log.Printf("[DestinationAgent] extraction failed, synthesizing overview: %v", err)
		r, _ := synthOnly(a.extractor, extract.SchemaDestination, ectx)
		return r.Destination.Info, true
	}
	return result.Destination.Info, result.Source != "fields"
}

func (a *DestinationAgent) prompt(req trip.Request, intent trip.Intent) string {
	var b strings.Builder
	if req.Destination != "" {
		fmt.Fprintf(&b, "Describe %s as a travel destination", req.Destination)
	} else if req.Region != "" {
		fmt.Fprintf(&b, "Suggest one travel destination in %s and describe it", req.Region)
	} else {
		fmt.Fprintf(&b, "Suggest one travel destination for a %s %s trip and describe it", intent.BudgetCategory, intent.Purpose)
	}
	fmt.Fprintf(&b, " for a %d-day %s trip from %s with interests: %s.\n\n",
		req.DurationDays(), req.TravelType, req.Origin, strings.Join(req.Interests, ", "))

	b.WriteString(`Respond in simple HTML with these labeled lines:
Name: <destination>
Country: <country>
Description: <two sentences>
Best Time to Visit: <season or months>
Key Areas: <comma-separated neighborhoods>
Getting Around: <comma-separated transit modes>
Transit Tips: <one sentence>

Then a heading "Attractions" followed by a <ul> of items formatted as
Name (type) - short description.`)
	return b.String()
}

// synthOnly runs just the synthesis strategy for a schema by feeding the
// engine text no field pattern or miner can use.
func synthOnly(e *extract.Engine, schema extract.Schema, ctx extract.Context) (*extract.Result, error) {
	return e.Extract(".", schema, ctx)
}
