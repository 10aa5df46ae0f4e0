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

// Package gemini implements the text-generation provider backed by Google's
// Gemini REST API, with both single-shot and SSE streaming completion modes.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"tripflow/platform/planner/llm"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultAPIVersion is the Gemini API version.
	DefaultAPIVersion = "v1beta"

	// DefaultModel favors Flash for latency; itinerary generation is long
	// but not reasoning-heavy.
	DefaultModel = "gemini-2.0-flash"

	// DefaultMaxTokens is the default output cap for completions.
	DefaultMaxTokens = 4096

	// DefaultTemperature is the default generation randomness.
	DefaultTemperature = 0.7
)

// HTTPClient is an interface for HTTP client operations (enables testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider implements llm.StreamingProvider for Google Gemini.
type Provider struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	client     HTTPClient
	healthy    bool
	mu         sync.RWMutex
}

// Config contains configuration for the Gemini provider.
type Config struct {
	APIKey     string        // Required: Google API key
	BaseURL    string        // Optional: API base URL
	APIVersion string        // Optional: API version (default: v1beta)
	Model      string        // Optional: default model
	Timeout    time.Duration // Optional: HTTP client timeout
}

// NewProvider creates a new Gemini provider instance.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = llm.DefaultStreamTimeout
	}

	return &Provider{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		model:      cfg.Model,
		client:     &http.Client{Timeout: cfg.Timeout},
		healthy:    true,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

// IsHealthy returns whether the provider is healthy.
func (p *Provider) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthy && p.apiKey != ""
}

func (p *Provider) setHealthy(healthy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.healthy = healthy
}

// Complete generates a completion for the given request.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	start := time.Now()

	model, body, err := p.marshalRequest(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s",
		p.baseURL, p.apiVersion, model, p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.setHealthy(false)
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			p.setHealthy(false)
		}
		return nil, p.parseAPIError(resp.StatusCode, respBody)
	}

	p.setHealthy(true)

	var apiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text, err := extractCandidateText(apiResp)
	if err != nil {
		return nil, err
	}

	finishReason := "unknown"
	if len(apiResp.Candidates) > 0 {
		finishReason = mapFinishReason(apiResp.Candidates[0].FinishReason)
	}

	inputTokens, outputTokens := 0, 0
	if apiResp.UsageMetadata != nil {
		inputTokens = apiResp.UsageMetadata.PromptTokenCount
		outputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}

	return &llm.CompletionResponse{
		Text:         text,
		FinishReason: finishReason,
		Model:        model,
		Usage: llm.UsageStats{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
		Latency: time.Since(start),
	}, nil
}

// CompleteStream generates a streaming completion for the given request.
func (p *Provider) CompleteStream(ctx context.Context, req llm.CompletionRequest, handler llm.StreamHandler) (*llm.CompletionResponse, error) {
	start := time.Now()

	model, body, err := p.marshalRequest(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		p.baseURL, p.apiVersion, model, p.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		p.setHealthy(false)
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			p.setHealthy(false)
		}
		return nil, p.parseAPIError(resp.StatusCode, respBody)
	}

	p.setHealthy(true)

	return p.processStream(resp.Body, handler, start, model)
}

// marshalRequest builds and marshals the Gemini API request body, returning
// the resolved model name alongside the payload.
func (p *Provider) marshalRequest(req llm.CompletionRequest) (string, []byte, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	// Temperature 0.0 is valid (deterministic); negative means default.
	temperature := req.Temperature
	if temperature < 0 {
		temperature = DefaultTemperature
	}

	apiReq := map[string]any{
		"contents": []map[string]any{
			{
				"role": "user",
				"parts": []map[string]any{
					{"text": req.Prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
			"temperature":     temperature,
		},
	}

	if req.SystemPrompt != "" {
		apiReq["systemInstruction"] = map[string]any{
			"parts": []map[string]any{
				{"text": req.SystemPrompt},
			},
		}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return model, body, nil
}

// processStream processes the SSE stream from Gemini.
func (p *Provider) processStream(body io.Reader, handler llm.StreamHandler, start time.Time, model string) (*llm.CompletionResponse, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var contentBuilder strings.Builder
	var finishReason string
	var inputTokens, outputTokens int

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event geminiResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			continue // Skip malformed events
		}

		if len(event.Candidates) > 0 {
			candidate := event.Candidates[0]

			text, err := joinParts(candidate.Content.Parts)
			if err != nil {
				return nil, err
			}
			if text != "" {
				contentBuilder.WriteString(text)
				if handler != nil {
					if err := handler(llm.StreamChunk{Type: "content", Content: text}); err != nil {
						return nil, fmt.Errorf("handler error: %w", err)
					}
				}
			}

			if candidate.FinishReason != "" {
				finishReason = mapFinishReason(candidate.FinishReason)
			}
		}

		if event.UsageMetadata != nil {
			inputTokens = event.UsageMetadata.PromptTokenCount
			outputTokens = event.UsageMetadata.CandidatesTokenCount
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("stream read error: %w", err)
	}

	if handler != nil {
		if err := handler(llm.StreamChunk{Type: "done", Done: true}); err != nil {
			return nil, fmt.Errorf("handler error: %w", err)
		}
	}

	return &llm.CompletionResponse{
		Text:         contentBuilder.String(),
		FinishReason: finishReason,
		Model:        model,
		Usage: llm.UsageStats{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
		},
		Latency: time.Since(start),
	}, nil
}

// parseAPIError parses an API error response.
func (p *Provider) parseAPIError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return &llm.APIError{
			Provider:   "gemini",
			StatusCode: statusCode,
			Message:    string(body),
		}
	}

	return &llm.APIError{
		Provider:   "gemini",
		StatusCode: statusCode,
		Status:     errResp.Error.Status,
		Message:    errResp.Error.Message,
	}
}

// mapFinishReason maps Gemini finish reasons to standard reasons.
func mapFinishReason(reason string) string {
	switch reason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "max_tokens"
	case "SAFETY", "RECITATION":
		return "content_filter"
	case "OTHER":
		return "other"
	default:
		return reason
	}
}

// extractCandidateText pulls the first candidate's text, normalizing any
// non-string part payloads. No candidates or empty text is an error here,
// not an empty success.
func extractCandidateText(resp geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", llm.ErrEmptyCompletion
	}
	text, err := joinParts(resp.Candidates[0].Content.Parts)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return text, nil
}

// joinParts concatenates candidate parts. Parts are decoded loosely because
// the API has been observed returning fragment arrays and indexed-object
// pseudo-strings in place of plain text.
func joinParts(parts []json.RawMessage) (string, error) {
	var b strings.Builder
	for _, raw := range parts {
		var payload interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return "", fmt.Errorf("failed to decode candidate part: %w", err)
		}
		text, err := llm.NormalizeText(payload)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// SetHTTPClient sets a custom HTTP client for testing.
func (p *Provider) SetHTTPClient(client HTTPClient) {
	p.client = client
}

// Internal API types

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates,omitempty"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

type geminiContent struct {
	Parts []json.RawMessage `json:"parts"`
	Role  string            `json:"role"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}
