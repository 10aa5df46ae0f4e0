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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"tripflow/platform/planner/llm"
	"tripflow/platform/planner/trip"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func statusForPlanError(err error) (int, string) {
	switch {
	case IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	case llm.IsRateLimited(err):
		return http.StatusServiceUnavailable, "upstream text generation is rate limited, retry later"
	case errors.Is(err, ErrPlanNotFound):
		return http.StatusNotFound, "plan not found"
	default:
		return http.StatusBadGateway, "planning failed: " + err.Error()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "tripflow-planner",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics serves the JSON counter snapshot; native Prometheus format
// lives at /prometheus.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.orchestrator.Metrics()
	if m == nil {
		writeJSON(w, http.StatusOK, MetricsSnapshot{})
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req trip.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	plan, err := s.orchestrator.Plan(r.Context(), req, nil)
	if err != nil {
		status, msg := statusForPlanError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	plan, err := s.orchestrator.Store().Get(r.Context(), id)
	if err != nil {
		status, msg := statusForPlanError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	plans, err := s.orchestrator.Store().List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing plans failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans, "count": len(plans)})
}

func (s *Server) handleTweak(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var tweak TweakRequest
	if err := json.NewDecoder(r.Body).Decode(&tweak); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	plan, err := s.orchestrator.Tweak(r.Context(), id, tweak, nil)
	if err != nil {
		status, msg := statusForPlanError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// handlePlanStream runs a plan while pushing progress over SSE. Events are
// framed as "event: <type>\ndata: <json>\n\n" with types connected,
// progress, itinerary-day, complete, and error, in that lifecycle order.
func (s *Server) handlePlanStream(w http.ResponseWriter, r *http.Request) {
	var req trip.Request
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	} else {
		req = requestFromQuery(r)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	send("connected", map[string]string{"status": "connected"})

	// Events funnel through a channel so SSE writes happen on the handler
	// goroutine only.
	events := make(chan ProgressEvent, 16)
	type outcome struct {
		plan *trip.Plan
		err  error
	}
	result := make(chan outcome, 1)

	// The run outlives the client. A disconnect cancels r.Context(), which
	// must only stop the SSE writes: the pipeline still finishes so the
	// plan is compiled, cached, and stored for the next request.
	runCtx := context.WithoutCancel(r.Context())
	go func() {
		plan, err := s.orchestrator.Plan(runCtx, req, func(e ProgressEvent) {
			events <- e
		})
		close(events)
		result <- outcome{plan: plan, err: err}
	}()

	for e := range events {
		send("progress", e)
	}

	out := <-result
	if out.err != nil {
		status, msg := statusForPlanError(out.err)
		send("error", map[string]interface{}{"error": msg, "status": status})
		return
	}

	for _, day := range out.plan.Itinerary {
		send("itinerary-day", day)
	}
	send("complete", out.plan)
}

// requestFromQuery builds a trip request from SSE query parameters so
// browser EventSource clients (GET-only) can stream.
func requestFromQuery(r *http.Request) trip.Request {
	q := r.URL.Query()
	req := trip.Request{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
		Region:      q.Get("region"),
		Season:      q.Get("season"),
		Currency:    q.Get("currency"),
		BudgetRange: q.Get("budget_range"),
		TravelType:  q.Get("travel_type"),
	}
	if v := q.Get("duration"); v != "" {
		req.Duration, _ = strconv.Atoi(v)
	}
	if v := q.Get("travelers"); v != "" {
		req.Travelers, _ = strconv.Atoi(v)
	}
	if v := q.Get("budget"); v != "" {
		req.Budget, _ = strconv.ParseFloat(v, 64)
	}
	if v := q.Get("start_date"); v != "" {
		req.StartDate, _ = time.Parse("2006-01-02", v)
	}
	if v := q.Get("end_date"); v != "" {
		req.EndDate, _ = time.Parse("2006-01-02", v)
	}
	if v := q.Get("interests"); v != "" {
		req.Interests = strings.Split(v, ",")
	}
	return req
}
