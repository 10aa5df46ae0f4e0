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
	"time"

	"github.com/google/uuid"

	"tripflow/platform/planner/extract"
	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
	"tripflow/platform/shared/logger"
)

// Orchestrator drives the planning pipeline as a forward-only state
// machine: understanding, destinations, itinerary, budget, optimizing
// (skippable), compiling. Stages never run out of order and a completed
// stage is never revisited within a run; a tweak is a full re-run against
// the modified request, never an in-place patch.
type Orchestrator struct {
	intent      *IntentAgent
	destination *DestinationAgent
	itinerary   *ItineraryAgent
	budget      *BudgetAgent
	optimizer   *OptimizerAgent

	enricher *Enricher
	cache    *PlanCache
	store    PlanStore
	metrics  *Metrics
	log      *logger.Logger

	optimizerEnabled bool
	now              func() time.Time
	newID            func() string
}

// OrchestratorConfig wires an Orchestrator. Client and Extractor are
// required; everything else has a working default.
type OrchestratorConfig struct {
	Client    *llm.Client
	Extractor *extract.Engine
	Enricher  *Enricher  // Optional: nil disables geocoding enrichment
	Cache     *PlanCache // Optional: nil disables the fingerprint cache
	Store     PlanStore  // Optional: defaults to in-memory
	Metrics   *Metrics   // Optional

	// OptimizerEnabled turns on the optimizing stage. Off by default; the
	// stage is advisory and costs one extra completion per run.
	OptimizerEnabled bool
}

// NewOrchestrator creates an orchestrator from the config.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("planner: llm client is required")
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.NewEngine()
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryPlanStore()
	}

	return &Orchestrator{
		intent:           NewIntentAgent(cfg.Client),
		destination:      NewDestinationAgent(cfg.Client, cfg.Extractor),
		itinerary:        NewItineraryAgent(cfg.Client, cfg.Extractor),
		budget:           NewBudgetAgent(cfg.Client, cfg.Extractor),
		optimizer:        NewOptimizerAgent(cfg.Client),
		enricher:         cfg.Enricher,
		cache:            cfg.Cache,
		store:            cfg.Store,
		metrics:          cfg.Metrics,
		log:              logger.New("orchestrator"),
		optimizerEnabled: cfg.OptimizerEnabled,
		now:              time.Now,
		newID:            func() string { return uuid.NewString() },
	}, nil
}

// Store exposes the plan store for the HTTP layer.
func (o *Orchestrator) Store() PlanStore { return o.store }

// Metrics exposes the pipeline metrics for the HTTP layer; nil when metrics
// are disabled.
func (o *Orchestrator) Metrics() *Metrics { return o.metrics }

// Plan runs the full pipeline for a request. Progress events are delivered
// to sink in strict pipeline order. An equivalent request completed within
// the cache TTL short-circuits to the cached plan without invoking any
// stage.
func (o *Orchestrator) Plan(ctx context.Context, req trip.Request, sink ProgressSink) (*trip.Plan, error) {
	requestID := o.newID()

	if err := NormalizeRequest(&req); err != nil {
		o.log.ErrorWithErr(requestID, "request rejected", err, nil)
		return nil, err
	}

	fp := FingerprintRequest(req)
	if o.cache != nil {
		if cached := o.cache.Get(fp); cached != nil {
			o.log.Info(requestID, "serving plan from fingerprint cache",
				map[string]interface{}{"plan_id": cached.ID})
			if o.metrics != nil {
				o.metrics.CacheLookup(true)
			}
			return cached, nil
		}
		if o.metrics != nil {
			o.metrics.CacheLookup(false)
		}
	}

	plan, err := o.run(ctx, requestID, req, sink)
	if err != nil {
		if o.metrics != nil {
			o.metrics.PlanFinished("failed")
		}
		return nil, err
	}

	if o.cache != nil {
		o.cache.Put(fp, plan)
	}
	if o.metrics != nil {
		o.metrics.PlanFinished("done")
	}
	return plan, nil
}

// run executes the stages in order. Only the itinerary stage can fail a
// run; every other stage degrades to deterministic defaults.
func (o *Orchestrator) run(ctx context.Context, requestID string, req trip.Request, sink ProgressSink) (*trip.Plan, error) {
	planID := o.newID()
	emit := func(step Step, status StepStatus, message string) {
		if sink != nil {
			sink(ProgressEvent{
				PlanID:    planID,
				Step:      step,
				Status:    status,
				Message:   message,
				Timestamp: o.now(),
			})
		}
	}
	stage := func(step Step) func(degraded bool) {
		emit(step, StatusInProgress, "")
		start := o.now()
		return func(degraded bool) {
			message := ""
			if o.metrics != nil {
				o.metrics.StageFinished(step, o.now().Sub(start).Seconds(), degraded)
			}
			if degraded {
				message = "completed via fallback"
			}
			emit(step, StatusCompleted, message)
		}
	}

	started := o.now()
	o.log.Info(requestID, "planning run started", map[string]interface{}{
		"plan_id":     planID,
		"origin":      req.Origin,
		"destination": req.Destination,
		"days":        req.DurationDays(),
	})

	done := stage(StepUnderstanding)
	intent, degraded := o.intent.Classify(ctx, req)
	done(degraded)

	done = stage(StepDestinations)
	dest, degraded := o.destination.Resolve(ctx, req, intent)
	done(degraded)
	// Destination is pinned from here on: later stages and the tweak path
	// always see the same resolved name.
	if req.Destination == "" {
		req.Destination = dest.Name
	}

	done = stage(StepItinerary)
	days, degraded, err := o.itinerary.Build(ctx, req, intent, dest)
	if err != nil {
		// The stage failed outright. The template itinerary keeps the run
		// alive unless the failure is a rate-limit exhaustion or a dead
		// context, which indicate nothing downstream would succeed either.
		if ctx.Err() != nil || llm.IsRateLimited(err) {
			emit(StepItinerary, StatusFailed, err.Error())
			o.log.ErrorWithErr(requestID, "itinerary stage failed", err,
				map[string]interface{}{"plan_id": planID})
			return nil, err
		}
		o.log.ErrorWithErr(requestID, "itinerary extraction failed, using template", err,
			map[string]interface{}{"plan_id": planID})
		days = extract.FallbackItinerary(extractContext(req, dest))
		degraded = true
	}
	done(degraded)

	done = stage(StepBudget)
	budget, degraded := o.budget.Estimate(ctx, req, dest, days)
	done(degraded)

	var suggestions []trip.OptimizationSuggestion
	if o.optimizerEnabled {
		done = stage(StepOptimizing)
		suggestions, degraded = o.optimizer.Suggest(ctx, req, budget, days)
		done(degraded)
	} else {
		emit(StepOptimizing, StatusSkipped, "optimizer disabled")
	}

	done = stage(StepCompiling)
	plan := &trip.Plan{
		ID:          planID,
		Request:     req,
		Intent:      intent,
		Destination: dest,
		Itinerary:   days,
		Budget:      budget,
		Suggestions: suggestions,
		CreatedAt:   o.now(),
	}
	if o.enricher != nil {
		o.enricher.EnrichItinerary(ctx, plan.Itinerary, dest.Name)
	}
	plan.Summary = RenderSummary(plan)
	if o.enricher != nil {
		plan.Summary = o.enricher.EnrichMarkup(plan.Summary)
	}
	if err := o.store.Save(ctx, plan); err != nil {
		o.log.ErrorWithErr(requestID, "saving plan failed", err,
			map[string]interface{}{"plan_id": planID})
	}
	done(false)

	o.log.InfoWithDuration(requestID, "planning run completed",
		float64(o.now().Sub(started).Milliseconds()),
		map[string]interface{}{"plan_id": planID, "days": len(plan.Itinerary)})
	return plan, nil
}

// TweakRequest carries the fields a tweak may override. Zero-valued fields
// leave the original request untouched.
type TweakRequest struct {
	Destination string    `json:"destination,omitempty"`
	StartDate   time.Time `json:"start_date,omitempty"`
	EndDate     time.Time `json:"end_date,omitempty"`
	Season      string    `json:"season,omitempty"`
	Duration    int       `json:"duration,omitempty"`
	Travelers   int       `json:"travelers,omitempty"`
	Budget      float64   `json:"budget,omitempty"`
	BudgetRange string    `json:"budget_range,omitempty"`
	Interests   []string  `json:"interests,omitempty"`
	TravelType  string    `json:"travel_type,omitempty"`
}

// Tweak re-plans an existing plan with the overridden fields. The original
// plan is never mutated; the result is a brand-new plan from a full
// pipeline run, since any change can invalidate every downstream stage.
func (o *Orchestrator) Tweak(ctx context.Context, planID string, tweak TweakRequest, sink ProgressSink) (*trip.Plan, error) {
	original, err := o.store.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	req := original.Request
	if tweak.Destination != "" {
		req.Destination = tweak.Destination
		req.Region = ""
	}
	if !tweak.StartDate.IsZero() {
		req.StartDate = tweak.StartDate
	}
	if !tweak.EndDate.IsZero() {
		req.EndDate = tweak.EndDate
	}
	if tweak.Season != "" {
		req.Season = tweak.Season
	}
	if tweak.Duration > 0 {
		req.Duration = tweak.Duration
	}
	if tweak.Travelers > 0 {
		req.Travelers = tweak.Travelers
	}
	if tweak.Budget > 0 {
		req.Budget = tweak.Budget
		req.BudgetRange = ""
	}
	if tweak.BudgetRange != "" {
		req.BudgetRange = tweak.BudgetRange
		req.Budget = 0
	}
	if len(tweak.Interests) > 0 {
		req.Interests = tweak.Interests
	}
	if tweak.TravelType != "" {
		req.TravelType = tweak.TravelType
	}

	return o.Plan(ctx, req, sink)
}
