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
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds a single-shot completion call.
	DefaultTimeout = 30 * time.Second

	// DefaultStreamTimeout bounds an incremental (streamed) completion.
	DefaultStreamTimeout = 120 * time.Second

	// MaxRateLimitRetries is the retry budget for rate-limited calls.
	// Other failures are not retried at this layer.
	MaxRateLimitRetries = 2

	// baseBackoff is the first retry delay; doubles per attempt, plus jitter.
	baseBackoff = 500 * time.Millisecond
)

// Client wraps a primary provider (and optional fallback) with timeout and
// retry-with-backoff behavior. It guarantees that a successful call carries
// non-empty text: empty provider output is converted to ErrEmptyCompletion.
type Client struct {
	primary  Provider
	fallback Provider

	timeout       time.Duration
	streamTimeout time.Duration

	// sleep is swappable for tests.
	sleep func(time.Duration)

	mu   sync.Mutex
	rand *rand.Rand
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Primary       Provider
	Fallback      Provider      // Optional: used when the primary is unhealthy
	Timeout       time.Duration // 0 = DefaultTimeout
	StreamTimeout time.Duration // 0 = DefaultStreamTimeout
}

// NewClient creates a resilient text-generation client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Primary == nil {
		return nil, fmt.Errorf("llm: primary provider is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.StreamTimeout == 0 {
		cfg.StreamTimeout = DefaultStreamTimeout
	}

	return &Client{
		primary:       cfg.Primary,
		fallback:      cfg.Fallback,
		timeout:       cfg.Timeout,
		streamTimeout: cfg.StreamTimeout,
		sleep:         time.Sleep,
		rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Complete performs a single-shot completion with a hard wall-clock timeout.
// Rate-limit signals are retried up to MaxRateLimitRetries with exponential
// backoff plus random jitter; exhausting the budget yields a
// RateLimitedError distinguishable from generic failures.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	provider := c.pick()

	var lastErr error
	for attempt := 0; attempt <= MaxRateLimitRetries; attempt++ {
		if attempt > 0 {
			c.sleep(c.backoff(attempt))
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := provider.Complete(callCtx, req)
		cancel()

		if err == nil {
			if strings.TrimSpace(resp.Text) == "" {
				return nil, ErrEmptyCompletion
			}
			return resp, nil
		}

		lastErr = err
		if !isRateLimitSignal(err) {
			return nil, err
		}
		log.Printf("[LLM] %s rate limited (attempt %d/%d), backing off",
			provider.Name(), attempt+1, MaxRateLimitRetries+1)
	}

	return nil, &RateLimitedError{
		Provider: provider.Name(),
		Attempts: MaxRateLimitRetries + 1,
		Last:     lastErr,
	}
}

// CompleteStream performs an incremental completion with the longer stream
// timeout. Rate-limit retries apply only before the first chunk arrives;
// once streaming has begun, failures surface directly.
func (c *Client) CompleteStream(ctx context.Context, req CompletionRequest, handler StreamHandler) (*CompletionResponse, error) {
	provider := c.pick()

	streamer, ok := provider.(StreamingProvider)
	if !ok {
		// Degrade to a single-shot call delivered as one chunk.
		resp, err := c.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		if handler != nil {
			if err := handler(StreamChunk{Type: "content", Content: resp.Text}); err != nil {
				return nil, fmt.Errorf("stream handler: %w", err)
			}
			if err := handler(StreamChunk{Type: "done", Done: true}); err != nil {
				return nil, fmt.Errorf("stream handler: %w", err)
			}
		}
		return resp, nil
	}

	var lastErr error
	for attempt := 0; attempt <= MaxRateLimitRetries; attempt++ {
		if attempt > 0 {
			c.sleep(c.backoff(attempt))
		}

		started := false
		wrapped := func(chunk StreamChunk) error {
			started = true
			if handler != nil {
				return handler(chunk)
			}
			return nil
		}

		callCtx, cancel := context.WithTimeout(ctx, c.streamTimeout)
		resp, err := streamer.CompleteStream(callCtx, req, wrapped)
		cancel()

		if err == nil {
			if strings.TrimSpace(resp.Text) == "" {
				return nil, ErrEmptyCompletion
			}
			return resp, nil
		}

		lastErr = err
		if started || !isRateLimitSignal(err) {
			return nil, err
		}
	}

	return nil, &RateLimitedError{
		Provider: provider.Name(),
		Attempts: MaxRateLimitRetries + 1,
		Last:     lastErr,
	}
}

// ProviderName returns the name of the provider the next call would use.
func (c *Client) ProviderName() string {
	return c.pick().Name()
}

// IsHealthy reports whether any provider is available.
func (c *Client) IsHealthy() bool {
	if c.primary.IsHealthy() {
		return true
	}
	return c.fallback != nil && c.fallback.IsHealthy()
}

// pick returns the primary provider unless it is unhealthy and a fallback
// exists.
func (c *Client) pick() Provider {
	if !c.primary.IsHealthy() && c.fallback != nil && c.fallback.IsHealthy() {
		log.Printf("[LLM] primary provider %s unhealthy, failing over to %s",
			c.primary.Name(), c.fallback.Name())
		return c.fallback
	}
	return c.primary
}

// backoff computes the delay before retry attempt n (1-based): exponential
// growth with up to 50% random jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := baseBackoff << (attempt - 1)
	c.mu.Lock()
	jitter := time.Duration(c.rand.Int63n(int64(d) / 2))
	c.mu.Unlock()
	return d + jitter
}
