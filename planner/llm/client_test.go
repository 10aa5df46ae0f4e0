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
	"errors"
	"fmt"
	"testing"
	"time"
)

// scriptedProvider returns canned results in sequence.
type scriptedProvider struct {
	name    string
	healthy bool
	calls   int
	script  []func() (*CompletionResponse, error)
}

func (p *scriptedProvider) Name() string    { return p.name }
func (p *scriptedProvider) IsHealthy() bool { return p.healthy }

func (p *scriptedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if p.calls >= len(p.script) {
		return nil, fmt.Errorf("unexpected call %d", p.calls)
	}
	step := p.script[p.calls]
	p.calls++
	return step()
}

func ok(text string) func() (*CompletionResponse, error) {
	return func() (*CompletionResponse, error) {
		return &CompletionResponse{Text: text, FinishReason: "stop"}, nil
	}
}

func rateLimited() func() (*CompletionResponse, error) {
	return func() (*CompletionResponse, error) {
		return nil, &APIError{Provider: "test", StatusCode: 429, Status: "RESOURCE_EXHAUSTED"}
	}
}

func newTestClient(t *testing.T, primary, fallback Provider) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := NewClient(ClientConfig{Primary: primary, Fallback: fallback})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	var slept []time.Duration
	client.sleep = func(d time.Duration) { slept = append(slept, d) }
	return client, &slept
}

func TestCompleteSuccess(t *testing.T) {
	p := &scriptedProvider{name: "p", healthy: true, script: []func() (*CompletionResponse, error){ok("hello")}}
	client, _ := newTestClient(t, p, nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "hello" {
		t.Errorf("expected text %q, got %q", "hello", resp.Text)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call, got %d", p.calls)
	}
}

func TestCompleteRetriesRateLimitThenSucceeds(t *testing.T) {
	p := &scriptedProvider{name: "p", healthy: true, script: []func() (*CompletionResponse, error){
		rateLimited(),
		rateLimited(),
		ok("recovered"),
	}}
	client, slept := newTestClient(t, p, nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("expected recovered text, got %q", resp.Text)
	}
	if p.calls != 3 {
		t.Errorf("expected 3 calls, got %d", p.calls)
	}
	if len(*slept) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %d", len(*slept))
	}
	// Backoff grows: second delay base is double the first.
	if (*slept)[1] < (*slept)[0] {
		t.Errorf("expected non-decreasing backoff, got %v then %v", (*slept)[0], (*slept)[1])
	}
}

func TestCompleteRetryBudgetExhausted(t *testing.T) {
	p := &scriptedProvider{name: "p", healthy: true, script: []func() (*CompletionResponse, error){
		rateLimited(), rateLimited(), rateLimited(), rateLimited(),
	}}
	client, _ := newTestClient(t, p, nil)

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !IsRateLimited(err) {
		t.Errorf("expected a rate-limited error, got %v", err)
	}
	var rle *RateLimitedError
	if !errors.As(err, &rle) {
		t.Fatalf("expected *RateLimitedError, got %T", err)
	}
	if rle.Attempts != MaxRateLimitRetries+1 {
		t.Errorf("expected %d attempts, got %d", MaxRateLimitRetries+1, rle.Attempts)
	}
	if p.calls != MaxRateLimitRetries+1 {
		t.Errorf("expected %d calls, got %d", MaxRateLimitRetries+1, p.calls)
	}
}

func TestCompleteDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("connection refused")
	p := &scriptedProvider{name: "p", healthy: true, script: []func() (*CompletionResponse, error){
		func() (*CompletionResponse, error) { return nil, boom },
	}}
	client, slept := newTestClient(t, p, nil)

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 call (no retries), got %d", p.calls)
	}
	if len(*slept) != 0 {
		t.Errorf("expected no sleeps, got %d", len(*slept))
	}
}

func TestCompleteEmptyTextIsTypedError(t *testing.T) {
	p := &scriptedProvider{name: "p", healthy: true, script: []func() (*CompletionResponse, error){ok("   \n\t ")}}
	client, _ := newTestClient(t, p, nil)

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestCompleteFailsOverWhenPrimaryUnhealthy(t *testing.T) {
	primary := &scriptedProvider{name: "primary", healthy: false}
	fallback := &scriptedProvider{name: "fallback", healthy: true, script: []func() (*CompletionResponse, error){ok("from fallback")}}
	client, _ := newTestClient(t, primary, fallback)

	resp, err := client.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != "from fallback" {
		t.Errorf("expected fallback response, got %q", resp.Text)
	}
	if primary.calls != 0 {
		t.Errorf("expected primary untouched, got %d calls", primary.calls)
	}
}

func TestCompleteStreamDegradesNonStreamingProvider(t *testing.T) {
	p := &scriptedProvider{name: "p", healthy: true, script: []func() (*CompletionResponse, error){ok("chunked whole")}}
	client, _ := newTestClient(t, p, nil)

	var chunks []StreamChunk
	resp, err := client.CompleteStream(context.Background(), CompletionRequest{Prompt: "hi"}, func(c StreamChunk) error {
		chunks = append(chunks, c)
		return nil
	})
	if err != nil {
		t.Fatalf("CompleteStream failed: %v", err)
	}
	if resp.Text != "chunked whole" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if len(chunks) != 2 || chunks[0].Type != "content" || !chunks[1].Done {
		t.Errorf("expected one content chunk and one done chunk, got %+v", chunks)
	}
}

func TestIsRateLimitedRecognition(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"api 429", &APIError{StatusCode: 429}, true},
		{"resource exhausted", &APIError{StatusCode: 200, Status: "RESOURCE_EXHAUSTED"}, true},
		{"auth error", &APIError{StatusCode: 401}, false},
		{"plain error", errors.New("nope"), false},
		{"wrapped exhaustion", &RateLimitedError{Provider: "p", Attempts: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isRateLimitSignal(tt.err)
			if tt.name == "wrapped exhaustion" {
				got = IsRateLimited(tt.err)
			}
			if got != tt.want {
				t.Errorf("rate-limit recognition = %v, want %v", got, tt.want)
			}
		})
	}
}
