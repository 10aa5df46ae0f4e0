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

// Package planner is the trip planning pipeline: a forward-only
// orchestrator running intent, destination, itinerary, budget, and
// optional optimizer stages over a resilient text-generation client, with
// geocoding enrichment, a request fingerprint cache, plan persistence, and
// an HTTP/SSE surface.
package planner
