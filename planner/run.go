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
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"tripflow/platform/shared/logger"
)

// Server is the HTTP front of the planner.
type Server struct {
	orchestrator *Orchestrator
	limiter      *RateLimiter
	log          *logger.Logger
}

// NewServer creates the HTTP server layer.
func NewServer(orchestrator *Orchestrator, limiter *RateLimiter) *Server {
	return &Server{
		orchestrator: orchestrator,
		limiter:      limiter,
		log:          logger.New("http"),
	}
}

// Handler builds the full routed handler with CORS and rate limiting
// applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)   // JSON snapshot
	r.Handle("/prometheus", promhttp.Handler()).Methods(http.MethodGet) // Prometheus native format

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/plan", s.handlePlan).Methods(http.MethodPost)
	api.HandleFunc("/plan/stream", s.handlePlanStream).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/plan/{id}", s.handleGetPlan).Methods(http.MethodGet)
	api.HandleFunc("/plan/{id}/tweak", s.handleTweak).Methods(http.MethodPost)
	api.HandleFunc("/plans", s.handleListPlans).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE streams stay open past any write deadline
		IdleTimeout:  120 * time.Second,
	}
	s.log.Info("", "planner listening", map[string]interface{}{"port": port})
	return srv.ListenAndServe()
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			key := clientKey(r)
			if !s.limiter.Allow(r.Context(), key) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
