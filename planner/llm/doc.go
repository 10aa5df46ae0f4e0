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

// Package llm provides the text-generation client layer for the planner.
//
// The Client wraps a primary provider (Gemini by default) and an optional
// fallback (Bedrock) with hard wall-clock timeouts, bounded retry with
// exponential backoff and jitter on rate-limit signals, and defensive
// normalization of provider payload shapes. A successful completion always
// carries non-empty text; "no usable text" is a typed error, never an empty
// success.
package llm
