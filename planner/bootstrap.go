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

import (
	"log"
	"os"

	"github.com/go-redis/redis/v8"

	"tripflow/platform/planner/extract"
	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/llm/gemini"
)

// Run wires the full planner service from configuration and serves HTTP
// until the listener fails. It is the single entry point used by
// cmd/planner.
func Run() {
	cfg, err := LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("FATAL: loading configuration: %v", err)
	}

	var primary llm.Provider
	if cfg.GeminiAPIKey != "" {
		provider, err := gemini.NewProvider(gemini.Config{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			log.Fatalf("FATAL: building gemini provider: %v", err)
		}
		primary = provider
	} else {
		log.Printf("[Planner] no GEMINI_API_KEY set, using deterministic stub provider")
		primary = llm.NewStubProvider("stub")
	}

	var fallback llm.Provider
	if cfg.BedrockRegion != "" {
		bedrock, err := llm.NewBedrockProvider(cfg.BedrockRegion, cfg.BedrockModel)
		if err != nil {
			log.Printf("[Planner] bedrock fallback unavailable: %v", err)
		} else {
			fallback = bedrock
		}
	}

	client, err := llm.NewClient(llm.ClientConfig{
		Primary:  primary,
		Fallback: fallback,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("FATAL: building llm client: %v", err)
	}

	var store PlanStore = NewMemoryPlanStore()
	if cfg.PostgresDSN != "" {
		pgStore, err := NewPostgresPlanStore(cfg.PostgresDSN)
		if err != nil {
			log.Printf("[Planner] postgres unavailable, using in-memory store: %v", err)
		} else {
			store = pgStore
		}
	}
	defer store.Close()

	var enricher *Enricher
	if cfg.GeocoderEnabled {
		enricher = NewEnricher(NewNominatimGeocoder(cfg.GeocoderURL))
	}

	var limiter *RateLimiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = NewRateLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
	}

	orchestrator, err := NewOrchestrator(OrchestratorConfig{
		Client:           client,
		Extractor:        extract.NewEngine(),
		Enricher:         enricher,
		Cache:            NewPlanCache(cfg.CacheTTL),
		Store:            store,
		Metrics:          NewMetrics(nil),
		OptimizerEnabled: cfg.OptimizerEnabled,
	})
	if err != nil {
		log.Fatalf("FATAL: building orchestrator: %v", err)
	}

	server := NewServer(orchestrator, limiter)
	if err := server.ListenAndServe(cfg.Port); err != nil {
		log.Fatalf("FATAL: http server: %v", err)
	}
}
