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
	"strings"
	"testing"
	"time"

	"tripflow/platform/planner/extract"
	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
)

// stageProvider answers each stage prompt with canned text and counts
// calls. Overrides let individual tests break one stage.
type stageProvider struct {
	calls     int
	overrides map[string]func() (string, error)
}

func (p *stageProvider) Name() string    { return "staged" }
func (p *stageProvider) IsHealthy() bool { return true }

func (p *stageProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	stage := stageForPrompt(req.Prompt)
	if override, ok := p.overrides[stage]; ok {
		text, err := override()
		if err != nil {
			return nil, err
		}
		return &llm.CompletionResponse{Text: text, FinishReason: "stop"}, nil
	}
	return &llm.CompletionResponse{Text: defaultStageText(stage), FinishReason: "stop"}, nil
}

func stageForPrompt(prompt string) string {
	switch {
	case strings.HasPrefix(prompt, "Classify this trip request"):
		return "intent"
	case strings.HasPrefix(prompt, "Create a"):
		return "itinerary"
	case strings.HasPrefix(prompt, "Estimate a trip budget"):
		return "budget"
	case strings.Contains(prompt, "Suggest up to 3 improvements"):
		return "optimizer"
	default:
		return "destination"
	}
}

func defaultStageText(stage string) string {
	switch stage {
	case "intent":
		return "Purpose: culture\nStyle: balanced\nBudget: mid-range\nComplexity: simple"
	case "destination":
		return `<p>Name: Jaipur</p>
<p>Country: India</p>
<p>Description: The Pink City of Rajasthan.</p>
<p>Best Time to Visit: October to March</p>
<p>Getting Around: auto-rickshaw, metro</p>
<h3>Attractions</h3>
<ul><li>Amber Fort (fort) - Hilltop fort</li><li>Hawa Mahal (palace) - Palace of Winds</li></ul>`
	case "itinerary":
		return `<h2>Day 1: Arrival</h2>
<ul><li>Morning: Arrive and rest at Hotel Pearl</li><li>Evening: Dinner at Chokhi Dhani ($10)</li></ul>
<h2>Day 2: Forts</h2>
<ul><li>9:00 AM - 1:00 PM: Visit Amber Fort ($20)</li><li>Afternoon: Explore City Palace</li></ul>
<h2>Day 3: Departure</h2>
<ul><li>Morning: Breakfast and checkout</li><li>Afternoon: Train to Delhi</li></ul>`
	case "budget":
		return "Accommodation: 12000\nTransport: 5000\nFood: 6000\nActivities: 4000\nOther: 1000"
	default:
		return "nothing"
	}
}

func planRequest() trip.Request {
	return trip.Request{
		Origin:      "Delhi",
		Destination: "Jaipur",
		Season:      "winter",
		Duration:    3,
		Travelers:   2,
		Currency:    "INR",
		Interests:   []string{"history", "food"},
		Budget:      30000,
	}
}

func newTestOrchestrator(t *testing.T, provider llm.Provider, cache *PlanCache) *Orchestrator {
	t.Helper()
	client, err := llm.NewClient(llm.ClientConfig{Primary: provider})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	o, err := NewOrchestrator(OrchestratorConfig{
		Client:    client,
		Extractor: extract.NewEngine(),
		Cache:     cache,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}
	return o
}

func TestPlanFullRun(t *testing.T) {
	provider := &stageProvider{}
	o := newTestOrchestrator(t, provider, nil)

	var events []ProgressEvent
	plan, err := o.Plan(context.Background(), planRequest(), func(e ProgressEvent) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if plan.ID == "" {
		t.Error("plan has no ID")
	}
	if plan.Destination.Name != "Jaipur" {
		t.Errorf("unexpected destination %q", plan.Destination.Name)
	}
	if plan.Intent.Purpose != "culture" {
		t.Errorf("unexpected intent purpose %q", plan.Intent.Purpose)
	}
	if len(plan.Itinerary) != 3 {
		t.Fatalf("expected 3 days, got %d", len(plan.Itinerary))
	}
	for _, day := range plan.Itinerary {
		if len(day.Activities) == 0 {
			t.Errorf("day %d has no activities", day.Index)
		}
	}
	if plan.Budget.Total != 28000 {
		t.Errorf("expected budget total 28000, got %v", plan.Budget.Total)
	}
	if plan.Budget.Status != trip.BudgetUnder {
		t.Errorf("28000 vs a 30000 target is outside the 5%% tolerance, want under, got %s", plan.Budget.Status)
	}
	if !strings.Contains(plan.Summary, "<h2>Itinerary</h2>") || !strings.Contains(plan.Summary, "<h2>Budget</h2>") {
		t.Error("summary markup missing expected sections")
	}

	// Stored for later retrieval.
	stored, err := o.Store().Get(context.Background(), plan.ID)
	if err != nil || stored.ID != plan.ID {
		t.Errorf("plan not retrievable from store: %v", err)
	}

	wantOrder := []struct {
		step   Step
		status StepStatus
	}{
		{StepUnderstanding, StatusInProgress},
		{StepUnderstanding, StatusCompleted},
		{StepDestinations, StatusInProgress},
		{StepDestinations, StatusCompleted},
		{StepItinerary, StatusInProgress},
		{StepItinerary, StatusCompleted},
		{StepBudget, StatusInProgress},
		{StepBudget, StatusCompleted},
		{StepOptimizing, StatusSkipped},
		{StepCompiling, StatusInProgress},
		{StepCompiling, StatusCompleted},
	}
	if len(events) != len(wantOrder) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantOrder), len(events), events)
	}
	for i, want := range wantOrder {
		if events[i].Step != want.step || events[i].Status != want.status {
			t.Errorf("event %d = %s/%s, want %s/%s",
				i, events[i].Step, events[i].Status, want.step, want.status)
		}
	}
}

func TestPlanBudgetStatusRecomputed(t *testing.T) {
	provider := &stageProvider{overrides: map[string]func() (string, error){
		"budget": func() (string, error) {
			// Category amounts well over the 30000 target, plus a lying
			// total line that must be ignored.
			return "Accommodation: 30000\nTransport: 10000\nFood: 8000\nTotal: 5", nil
		},
	}}
	o := newTestOrchestrator(t, provider, nil)

	plan, err := o.Plan(context.Background(), planRequest(), nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Budget.Total != 48000 {
		t.Errorf("expected recomputed total 48000, got %v", plan.Budget.Total)
	}
	if plan.Budget.Status != trip.BudgetOver {
		t.Errorf("expected over budget, got %s", plan.Budget.Status)
	}
	if plan.Budget.Variance != 18000 {
		t.Errorf("expected variance 18000, got %v", plan.Budget.Variance)
	}
}

func TestPlanItineraryFallbackOnGarbage(t *testing.T) {
	provider := &stageProvider{overrides: map[string]func() (string, error){
		"itinerary": func() (string, error) {
			return "I am sorry, I cannot help with that.", nil
		},
	}}
	o := newTestOrchestrator(t, provider, nil)

	plan, err := o.Plan(context.Background(), planRequest(), nil)
	if err != nil {
		t.Fatalf("Plan should survive garbage itinerary output: %v", err)
	}
	if len(plan.Itinerary) != 3 {
		t.Fatalf("expected 3 template days, got %d", len(plan.Itinerary))
	}
	if plan.Itinerary[0].Title != "Arrival" || plan.Itinerary[2].Title != "Departure" {
		t.Errorf("expected template itinerary, got %q / %q",
			plan.Itinerary[0].Title, plan.Itinerary[2].Title)
	}
	for _, day := range plan.Itinerary {
		if len(day.Activities) == 0 {
			t.Errorf("template day %d has no activities", day.Index)
		}
	}
}

func TestPlanEmptyDayFallsBackToWholeTemplate(t *testing.T) {
	// Day 2 carries no activities. Salvaging days 1 and 3 would shift the
	// schedule, so the run must replace the whole itinerary with the
	// deterministic template rather than keep the model's partial days.
	provider := &stageProvider{overrides: map[string]func() (string, error){
		"itinerary": func() (string, error) {
			return `<h2>Day 1: Forts</h2>
<ul><li>9:00 AM - 1:00 PM: Visit Amber Fort ($20)</li></ul>
<h2>Day 2: Markets</h2>
<h2>Day 3: Departure</h2>
<ul><li>Morning: Breakfast and checkout</li></ul>`, nil
		},
	}}
	o := newTestOrchestrator(t, provider, nil)

	plan, err := o.Plan(context.Background(), planRequest(), nil)
	if err != nil {
		t.Fatalf("Plan should survive a partial itinerary: %v", err)
	}
	if len(plan.Itinerary) != 3 {
		t.Fatalf("expected 3 template days, got %d", len(plan.Itinerary))
	}
	if plan.Itinerary[0].Title != "Arrival" || plan.Itinerary[2].Title != "Departure" {
		t.Errorf("expected the whole template itinerary, got %q / %q",
			plan.Itinerary[0].Title, plan.Itinerary[2].Title)
	}
	for _, day := range plan.Itinerary {
		if day.Title == "Forts" || day.Title == "Markets" {
			t.Errorf("model day %q survived into the fallback itinerary", day.Title)
		}
		if len(day.Activities) == 0 {
			t.Errorf("template day %d has no activities", day.Index)
		}
	}
}

func TestPlanFailsOnRateLimitExhaustion(t *testing.T) {
	provider := &stageProvider{overrides: map[string]func() (string, error){
		"itinerary": func() (string, error) {
			return "", &llm.APIError{Provider: "staged", StatusCode: 429, Status: "RESOURCE_EXHAUSTED"}
		},
	}}
	o := newTestOrchestrator(t, provider, nil)

	var events []ProgressEvent
	_, err := o.Plan(context.Background(), planRequest(), func(e ProgressEvent) {
		events = append(events, e)
	})
	if err == nil {
		t.Fatal("expected failure when itinerary generation is rate limited out")
	}
	if !llm.IsRateLimited(err) {
		t.Errorf("expected rate-limited error, got %v", err)
	}

	last := events[len(events)-1]
	if last.Step != StepItinerary || last.Status != StatusFailed {
		t.Errorf("expected terminal itinerary/failed event, got %s/%s", last.Step, last.Status)
	}
}

func TestPlanCacheShortCircuits(t *testing.T) {
	provider := &stageProvider{}
	o := newTestOrchestrator(t, provider, NewPlanCache(time.Hour))

	first, err := o.Plan(context.Background(), planRequest(), nil)
	if err != nil {
		t.Fatalf("first Plan failed: %v", err)
	}
	callsAfterFirst := provider.calls

	// Equivalent request: different casing and a nearby budget.
	req := planRequest()
	req.Destination = "JAIPUR"
	req.Budget = 31000
	second, err := o.Plan(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("second Plan failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected cached plan %s, got %s", first.ID, second.ID)
	}
	if provider.calls != callsAfterFirst {
		t.Errorf("cache hit must not call the provider: %d -> %d", callsAfterFirst, provider.calls)
	}
}

func TestPlanValidationRejectedBeforeStages(t *testing.T) {
	provider := &stageProvider{}
	o := newTestOrchestrator(t, provider, nil)

	_, err := o.Plan(context.Background(), trip.Request{Origin: "", Travelers: 1}, nil)
	if err == nil || !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("validation failure must not reach any stage, got %d calls", provider.calls)
	}
}

func TestTweakRunsFullPipeline(t *testing.T) {
	provider := &stageProvider{}
	o := newTestOrchestrator(t, provider, nil)

	original, err := o.Plan(context.Background(), planRequest(), nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	callsAfterFirst := provider.calls

	tweaked, err := o.Tweak(context.Background(), original.ID, TweakRequest{Budget: 50000}, nil)
	if err != nil {
		t.Fatalf("Tweak failed: %v", err)
	}

	if tweaked.ID == original.ID {
		t.Error("a tweak must produce a new plan, not mutate the original")
	}
	if tweaked.Request.Budget != 50000 {
		t.Errorf("tweaked budget not applied: %v", tweaked.Request.Budget)
	}
	if provider.calls <= callsAfterFirst {
		t.Error("tweak must re-run the pipeline")
	}

	// Original remains retrievable and unchanged.
	stored, err := o.Store().Get(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("original plan lost: %v", err)
	}
	if stored.Request.Budget != 30000 {
		t.Errorf("original plan mutated: budget %v", stored.Request.Budget)
	}
}

func TestTweakUnknownPlan(t *testing.T) {
	o := newTestOrchestrator(t, &stageProvider{}, nil)
	if _, err := o.Tweak(context.Background(), "missing", TweakRequest{}, nil); err != ErrPlanNotFound {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}
