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

import "time"

// Step identifies one stage of the planning pipeline. Steps always advance
// in declaration order; a run never revisits a completed step.
type Step string

const (
	StepUnderstanding Step = "understanding"
	StepDestinations  Step = "destinations"
	StepItinerary     Step = "itinerary"
	StepBudget        Step = "budget"
	StepOptimizing    Step = "optimizing"
	StepCompiling     Step = "compiling"
)

// pipelineSteps is the canonical order of steps in a full run.
var pipelineSteps = []Step{
	StepUnderstanding,
	StepDestinations,
	StepItinerary,
	StepBudget,
	StepOptimizing,
	StepCompiling,
}

// StepStatus is the lifecycle phase of a step within a run.
type StepStatus string

const (
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusSkipped    StepStatus = "skipped"
	StatusFailed     StepStatus = "failed"
)

// ProgressEvent is one entry in the ordered progress stream of a planning
// run. Events for a single run are emitted strictly in pipeline order.
type ProgressEvent struct {
	PlanID    string     `json:"plan_id"`
	Step      Step       `json:"step"`
	Status    StepStatus `json:"status"`
	Message   string     `json:"message,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ProgressSink receives progress events during a run. Implementations must
// tolerate being called from the pipeline goroutine; a nil sink disables
// progress reporting.
type ProgressSink func(ProgressEvent)
