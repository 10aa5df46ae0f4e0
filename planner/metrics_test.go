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

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.PlanFinished("done")
	m.PlanFinished("done")
	m.PlanFinished("failed")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.StageFinished(StepItinerary, 0.2, true)
	m.StageFinished(StepItinerary, 0.1, false)
	m.StageFinished(StepBudget, 0.05, false)

	snap := m.Snapshot()

	if snap.Plans["done"] != 2 || snap.Plans["failed"] != 1 {
		t.Errorf("unexpected plan counts: %v", snap.Plans)
	}
	if snap.CacheHits != 1 || snap.CacheMisses != 2 {
		t.Errorf("unexpected cache counts: hits %d, misses %d", snap.CacheHits, snap.CacheMisses)
	}

	if len(snap.Stages) != len(pipelineSteps) {
		t.Fatalf("expected %d stages, got %d", len(pipelineSteps), len(snap.Stages))
	}
	for i, s := range snap.Stages {
		if s.Step != pipelineSteps[i] {
			t.Errorf("stage %d: expected %s in pipeline order, got %s", i, pipelineSteps[i], s.Step)
		}
	}

	byStep := make(map[Step]StageSnapshot, len(snap.Stages))
	for _, s := range snap.Stages {
		byStep[s.Step] = s
	}
	if s := byStep[StepItinerary]; s.Runs != 2 || s.Degraded != 1 {
		t.Errorf("itinerary: expected 2 runs / 1 degraded, got %d / %d", s.Runs, s.Degraded)
	}
	if s := byStep[StepBudget]; s.Runs != 1 || s.Degraded != 0 {
		t.Errorf("budget: expected 1 run / 0 degraded, got %d / %d", s.Runs, s.Degraded)
	}
	if s := byStep[StepUnderstanding]; s.Runs != 0 {
		t.Errorf("understanding: expected 0 runs, got %d", s.Runs)
	}
	if snap.UptimeSeconds < 0 {
		t.Errorf("negative uptime %f", snap.UptimeSeconds)
	}
}
