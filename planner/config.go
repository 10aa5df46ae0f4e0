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
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the planner service configuration. Values load from an
// optional YAML file first, then environment variables override
// field-by-field, so a deployment can carry a base file plus per-instance
// env tweaks.
type Config struct {
	Port string `yaml:"port"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	BedrockRegion string `yaml:"bedrock_region"`
	BedrockModel  string `yaml:"bedrock_model"`

	LLMTimeout time.Duration `yaml:"llm_timeout"`

	GeocoderURL     string `yaml:"geocoder_url"`
	GeocoderEnabled bool   `yaml:"geocoder_enabled"`

	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`

	CacheTTL         time.Duration `yaml:"cache_ttl"`
	RateLimit        int           `yaml:"rate_limit"`
	RateLimitWindow  time.Duration `yaml:"rate_limit_window"`
	OptimizerEnabled bool          `yaml:"optimizer_enabled"`
}

// LoadConfig builds the configuration from the optional YAML file at path
// (skipped when path is empty or missing) overlaid with environment
// variables.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Port:            "8080",
		GeocoderEnabled: true,
		CacheTTL:        DefaultCacheTTL,
		RateLimit:       30,
		RateLimitWindow: time.Minute,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.BedrockRegion = getEnv("BEDROCK_REGION", cfg.BedrockRegion)
	cfg.BedrockModel = getEnv("BEDROCK_MODEL", cfg.BedrockModel)
	cfg.GeocoderURL = getEnv("GEOCODER_URL", cfg.GeocoderURL)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)

	cfg.GeocoderEnabled = getEnvBool("GEOCODER_ENABLED", cfg.GeocoderEnabled)
	cfg.OptimizerEnabled = getEnvBool("OPTIMIZER_ENABLED", cfg.OptimizerEnabled)
	cfg.RateLimit = getEnvInt("RATE_LIMIT", cfg.RateLimit)

	if d := getEnvDuration("LLM_TIMEOUT", cfg.LLMTimeout); d > 0 {
		cfg.LLMTimeout = d
	}
	if d := getEnvDuration("CACHE_TTL", cfg.CacheTTL); d > 0 {
		cfg.CacheTTL = d
	}
	if d := getEnvDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow); d > 0 {
		cfg.RateLimitWindow = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
