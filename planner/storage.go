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
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"tripflow/platform/planner/trip"
)

// PlanStore persists compiled plans for later retrieval and tweaking.
type PlanStore interface {
	Save(ctx context.Context, plan *trip.Plan) error
	Get(ctx context.Context, id string) (*trip.Plan, error)
	List(ctx context.Context, limit int) ([]*trip.Plan, error)
	Close() error
}

// MemoryPlanStore is the default store for development and tests.
type MemoryPlanStore struct {
	mu    sync.RWMutex
	plans map[string]*trip.Plan
}

// NewMemoryPlanStore creates an empty in-memory store.
func NewMemoryPlanStore() *MemoryPlanStore {
	return &MemoryPlanStore{plans: make(map[string]*trip.Plan)}
}

// Save stores a plan by ID.
func (s *MemoryPlanStore) Save(_ context.Context, plan *trip.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
	return nil
}

// Get returns the plan with the given ID or ErrPlanNotFound.
func (s *MemoryPlanStore) Get(_ context.Context, id string) (*trip.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// List returns up to limit plans, newest first.
func (s *MemoryPlanStore) List(_ context.Context, limit int) ([]*trip.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*trip.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryPlanStore) Close() error { return nil }

// PostgresPlanStore persists plans as JSON documents in a single table.
type PostgresPlanStore struct {
	db *sql.DB
}

const plansSchema = `
CREATE TABLE IF NOT EXISTS trip_plans (
	id          TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trip_plans_created_at ON trip_plans (created_at DESC);
`

// NewPostgresPlanStore opens a connection pool and ensures the schema
// exists.
func NewPostgresPlanStore(dsn string) (*PostgresPlanStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, plansSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresPlanStore{db: db}, nil
}

// NewPostgresPlanStoreFromDB wraps an existing handle (test helper).
func NewPostgresPlanStoreFromDB(db *sql.DB) *PostgresPlanStore {
	return &PostgresPlanStore{db: db}
}

// Save upserts the plan document.
func (s *PostgresPlanStore) Save(ctx context.Context, plan *trip.Plan) error {
	if plan.ID == "" {
		return fmt.Errorf("plan has no ID")
	}
	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshaling plan: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trip_plans (id, destination, document, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET destination = $2, document = $3`,
		plan.ID, plan.Destination.Name, doc, plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}
	return nil
}

// Get loads a plan document by ID.
func (s *PostgresPlanStore) Get(ctx context.Context, id string) (*trip.Plan, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM trip_plans WHERE id = $1`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan %s: %w", id, err)
	}
	var plan trip.Plan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", id, err)
	}
	return &plan, nil
}

// List returns up to limit plans, newest first.
func (s *PostgresPlanStore) List(ctx context.Context, limit int) ([]*trip.Plan, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT document FROM trip_plans ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var out []*trip.Plan
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		var plan trip.Plan
		if err := json.Unmarshal(doc, &plan); err != nil {
			return nil, fmt.Errorf("decoding plan row: %w", err)
		}
		out = append(out, &plan)
	}
	return out, rows.Err()
}

// Close closes the connection pool.
func (s *PostgresPlanStore) Close() error { return s.db.Close() }
