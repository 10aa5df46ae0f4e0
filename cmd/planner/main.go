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

// Package main is the entry point for the TripFlow Planner service.
//
// The Planner turns a trip request into a compiled day-by-day plan:
// - Classifies intent and resolves the destination
// - Generates and extracts an itinerary, budget, and suggestions
// - Enriches locations with coordinates
// - Caches completed plans by request fingerprint
//
// Usage:
//
//	./planner
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	CONFIG_FILE - Optional YAML configuration file
//	GEMINI_API_KEY - Google Gemini API key (optional; stub provider without it)
//	BEDROCK_REGION - AWS Bedrock fallback region (optional)
//	POSTGRES_DSN - PostgreSQL connection string (optional; in-memory without it)
//	REDIS_ADDR - Redis address for rate limiting (optional)
//	GEOCODER_URL - Nominatim-compatible geocoding endpoint (optional)
package main

import (
	"tripflow/platform/planner"
)

func main() {
	planner.Run()
}
