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

package llm

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a deterministic provider used when no real backend is
// configured (local development) and in tests. It echoes a fixed response
// per prompt so extraction fallbacks are exercised end to end.
type StubProvider struct {
	name    string
	healthy bool

	// Respond, when set, computes the response text from the prompt.
	Respond func(prompt string) string
}

// NewStubProvider creates a stub provider.
func NewStubProvider(name string) *StubProvider {
	if name == "" {
		name = "stub"
	}
	return &StubProvider{name: name, healthy: true}
}

// Name returns the provider name.
func (s *StubProvider) Name() string { return s.name }

// IsHealthy always reports true unless toggled.
func (s *StubProvider) IsHealthy() bool { return s.healthy }

// SetHealthy toggles the reported health (test helper).
func (s *StubProvider) SetHealthy(healthy bool) { s.healthy = healthy }

// Complete returns a deterministic response.
func (s *StubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := ""
	if s.Respond != nil {
		text = s.Respond(req.Prompt)
	}
	if text == "" {
		text = fmt.Sprintf("Stub response for prompt of %d chars", len(req.Prompt))
	}

	return &CompletionResponse{
		Text:         text,
		FinishReason: "stop",
		Model:        s.name,
		Usage:        UsageStats{TotalTokens: len(text) / 4},
		Latency:      time.Millisecond,
	}, nil
}
