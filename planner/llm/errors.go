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
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyCompletion is returned when a provider call succeeds at the
// transport level but yields no usable text. Callers must never see an
// empty-string success.
var ErrEmptyCompletion = errors.New("llm: provider returned no usable text")

// RateLimitedError is surfaced after the retry budget for rate-limited calls
// is exhausted. It is distinguishable from generic provider failures so the
// caller can tell the user to try again later.
type RateLimitedError struct {
	Provider string
	Attempts int
	Last     error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("llm: %s rate limited after %d attempts: %v", e.Provider, e.Attempts, e.Last)
}

func (e *RateLimitedError) Unwrap() error { return e.Last }

// IsRateLimited reports whether err is (or wraps) a rate-limit exhaustion.
func IsRateLimited(err error) bool {
	var rl *RateLimitedError
	return errors.As(err, &rl)
}

// UnrecognizedShapeError is returned when a provider payload cannot be
// normalized into plain text. Normalization failure is an error, never a
// silent empty string.
type UnrecognizedShapeError struct {
	Shape string
}

func (e *UnrecognizedShapeError) Error() string {
	return fmt.Sprintf("llm: unrecognized payload shape %s", e.Shape)
}

// APIError represents an HTTP-level provider error.
type APIError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, %s): %s", e.Provider, e.StatusCode, e.Status, e.Message)
}

// IsRateLimitError reports whether this API error is a rate-limit signal.
func (e *APIError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED"
}

// IsAuthError reports whether this API error is an authentication failure.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusForbidden ||
		e.Status == "UNAUTHENTICATED" ||
		e.Status == "PERMISSION_DENIED"
}

// isRateLimitSignal reports whether err carries a provider rate-limit signal
// that is eligible for retry.
func isRateLimitSignal(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRateLimitError()
	}
	return false
}
