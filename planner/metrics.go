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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline instruments. Every counter is kept twice: as a
// Prometheus instrument for scraping and as a plain counter behind the JSON
// /metrics snapshot.
type Metrics struct {
	PlansTotal    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageDegraded *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter

	mu            sync.RWMutex
	startedAt     time.Time
	plansByStatus map[string]int64
	cacheHits     int64
	cacheMisses   int64
	stageRuns     map[Step]int64
	stageDegraded map[Step]int64
}

// MetricsSnapshot is the JSON shape served by the /metrics endpoint.
type MetricsSnapshot struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	Plans         map[string]int64 `json:"plans"`
	CacheHits     int64            `json:"cache_hits"`
	CacheMisses   int64            `json:"cache_misses"`
	Stages        []StageSnapshot  `json:"stages"`
}

// StageSnapshot reports one pipeline stage's run and degradation counts.
type StageSnapshot struct {
	Step     Step  `json:"step"`
	Runs     int64 `json:"runs"`
	Degraded int64 `json:"degraded"`
}

// NewMetrics creates and registers the pipeline metrics on the given
// registerer (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		PlansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripflow_planner_plans_total",
			Help: "Planning runs by terminal status.",
		}, []string{"status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripflow_planner_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"step"}),
		StageDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripflow_planner_stage_degraded_total",
			Help: "Stages completed via a fallback strategy.",
		}, []string{"step"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripflow_planner_cache_hits_total",
			Help: "Requests served from the fingerprint cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tripflow_planner_cache_misses_total",
			Help: "Requests that ran the full pipeline.",
		}),
		startedAt:     time.Now(),
		plansByStatus: make(map[string]int64),
		stageRuns:     make(map[Step]int64),
		stageDegraded: make(map[Step]int64),
	}
	reg.MustRegister(m.PlansTotal, m.StageDuration, m.StageDegraded, m.CacheHits, m.CacheMisses)

	// Pre-create the per-step series so every stage appears in scrapes and
	// snapshots from the first request on.
	for _, step := range pipelineSteps {
		m.StageDuration.WithLabelValues(string(step))
		m.StageDegraded.WithLabelValues(string(step))
	}
	return m
}

// PlanFinished records a planning run's terminal status ("done" or
// "failed").
func (m *Metrics) PlanFinished(status string) {
	m.PlansTotal.WithLabelValues(status).Inc()
	m.mu.Lock()
	m.plansByStatus[status]++
	m.mu.Unlock()
}

// StageFinished records one stage's duration and whether it completed via a
// fallback.
func (m *Metrics) StageFinished(step Step, seconds float64, degraded bool) {
	m.StageDuration.WithLabelValues(string(step)).Observe(seconds)
	if degraded {
		m.StageDegraded.WithLabelValues(string(step)).Inc()
	}
	m.mu.Lock()
	m.stageRuns[step]++
	if degraded {
		m.stageDegraded[step]++
	}
	m.mu.Unlock()
}

// CacheLookup records a fingerprint cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
	m.mu.Lock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
	m.mu.Unlock()
}

// Snapshot returns the current counters for the JSON /metrics endpoint.
// Stages are listed in pipeline order.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		UptimeSeconds: time.Since(m.startedAt).Seconds(),
		Plans:         make(map[string]int64, len(m.plansByStatus)),
		CacheHits:     m.cacheHits,
		CacheMisses:   m.cacheMisses,
		Stages:        make([]StageSnapshot, 0, len(pipelineSteps)),
	}
	for status, n := range m.plansByStatus {
		snap.Plans[status] = n
	}
	for _, step := range pipelineSteps {
		snap.Stages = append(snap.Stages, StageSnapshot{
			Step:     step,
			Runs:     m.stageRuns[step],
			Degraded: m.stageDegraded[step],
		})
	}
	return snap
}
