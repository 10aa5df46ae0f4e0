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
	"time"
)

// CompletionRequest describes a single text-generation call.
type CompletionRequest struct {
	Prompt       string  // The user prompt
	SystemPrompt string  // Optional system instruction
	MaxTokens    int     // Output length cap (0 = provider default)
	Temperature  float64 // Generation randomness (negative = provider default)
	Model        string  // Model override
	Stream       bool    // Enable incremental generation
}

// CompletionResponse is the normalized result of a completion call.
// Text is never empty on success; providers that yield no usable text
// return an error instead.
type CompletionResponse struct {
	Text         string
	FinishReason string
	Model        string
	Usage        UsageStats
	Latency      time.Duration
}

// UsageStats contains token usage statistics when the provider reports them.
type UsageStats struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// StreamChunk represents a single chunk in a streaming completion.
type StreamChunk struct {
	Type    string // "content", "done", "error"
	Content string
	Done    bool
}

// StreamHandler is a callback invoked for each stream chunk.
type StreamHandler func(chunk StreamChunk) error

// Provider is the interface implemented by each text-generation backend.
// Implementations must be safe for concurrent use.
type Provider interface {
	Name() string

	// Complete generates a completion for the given request. The context
	// carries cancellation and the wall-clock deadline.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsHealthy reports whether the provider is believed to be operational.
	IsHealthy() bool
}

// StreamingProvider extends Provider with incremental generation.
type StreamingProvider interface {
	Provider

	// CompleteStream generates a streaming completion, invoking handler for
	// each chunk. Returns the final aggregated response.
	CompleteStream(ctx context.Context, req CompletionRequest, handler StreamHandler) (*CompletionResponse, error)
}
