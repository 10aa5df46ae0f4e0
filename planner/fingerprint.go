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
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"tripflow/platform/planner/trip"
)

// DefaultCacheTTL is how long a completed plan satisfies equivalent
// requests.
const DefaultCacheTTL = 24 * time.Hour

// budgetEquivalenceTolerance is the relative budget difference within which
// two otherwise-identical requests are considered the same trip.
const budgetEquivalenceTolerance = 0.10

// destinationAliases folds common alternate spellings into one canonical
// form so equivalent requests fingerprint identically.
var destinationAliases = map[string]string{
	"nyc":           "new york",
	"new york city": "new york",
	"bombay":        "mumbai",
	"bengaluru":     "bangalore",
	"saigon":        "ho chi minh city",
	"peking":        "beijing",
	"la":            "los angeles",
	"sf":            "san francisco",
}

// Fingerprint is the canonical identity of a planning request. Base covers
// every field except the budget; Budget is compared separately with a
// tolerance so a numeric budget and a range string averaging nearby are
// equivalent.
type Fingerprint struct {
	Base   string
	Budget float64
	Hash   uint64
}

// FingerprintRequest canonicalizes a request and hashes it. Field order,
// interest order, whitespace, and case never affect the result.
func FingerprintRequest(req trip.Request) Fingerprint {
	canonPlace := func(s string) string {
		s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
		if alias, ok := destinationAliases[s]; ok {
			return alias
		}
		return s
	}

	interests := make([]string, 0, len(req.Interests))
	seen := make(map[string]bool)
	for _, i := range req.Interests {
		i = strings.ToLower(strings.TrimSpace(i))
		if i != "" && !seen[i] {
			seen[i] = true
			interests = append(interests, i)
		}
	}
	sort.Strings(interests)

	date := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02")
	}

	base := strings.Join([]string{
		"o=" + canonPlace(req.Origin),
		"d=" + canonPlace(req.Destination),
		"r=" + canonPlace(req.Region),
		"sd=" + date(req.StartDate),
		"ed=" + date(req.EndDate),
		"se=" + canonSeason(req.Season),
		fmt.Sprintf("du=%d", req.DurationDays()),
		fmt.Sprintf("t=%d", req.Travelers),
		"c=" + strings.ToUpper(strings.TrimSpace(req.Currency)),
		"i=" + strings.Join(interests, ","),
		"tt=" + strings.ToLower(strings.TrimSpace(req.TravelType)),
	}, "|")

	budget := req.BudgetTarget()

	h := fnv.New64a()
	h.Write([]byte(base))
	fmt.Fprintf(h, "|b=%.0f", math.Round(budget/100)*100)

	return Fingerprint{Base: base, Budget: budget, Hash: h.Sum64()}
}

func canonSeason(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "fall" {
		return "autumn"
	}
	return s
}

// Equivalent reports whether two fingerprints denote the same trip: equal
// canonical bases and budget targets within the tolerance. A zero budget
// only matches another zero budget.
func (f Fingerprint) Equivalent(other Fingerprint) bool {
	if f.Base != other.Base {
		return false
	}
	if f.Budget == 0 || other.Budget == 0 {
		return f.Budget == other.Budget
	}
	larger := math.Max(f.Budget, other.Budget)
	return math.Abs(f.Budget-other.Budget)/larger <= budgetEquivalenceTolerance
}

type cacheEntry struct {
	fingerprint Fingerprint
	plan        *trip.Plan
	expiresAt   time.Time
}

// PlanCache is an in-memory fingerprint-to-plan cache with a fixed TTL.
// Expired entries are evicted lazily on access; there is no background
// sweeper. Lookups that miss on the hash fall back to a linear tolerance
// scan so near-equal budgets still hit.
type PlanCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]*cacheEntry
	now     func() time.Time
}

// NewPlanCache creates a cache with the given TTL (DefaultCacheTTL when
// non-positive).
func NewPlanCache(ttl time.Duration) *PlanCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PlanCache{
		ttl:     ttl,
		entries: make(map[uint64]*cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached plan for an equivalent request, or nil.
func (c *PlanCache) Get(fp Fingerprint) *trip.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()

	if e, ok := c.entries[fp.Hash]; ok {
		if now.After(e.expiresAt) {
			delete(c.entries, fp.Hash)
		} else if fp.Equivalent(e.fingerprint) {
			return e.plan
		}
	}

	// Tolerance scan: a nearby budget hashes differently but still counts
	// as the same trip.
	for hash, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, hash)
			continue
		}
		if fp.Equivalent(e.fingerprint) {
			return e.plan
		}
	}
	return nil
}

// Put stores a completed plan under its request fingerprint.
func (c *PlanCache) Put(fp Fingerprint, plan *trip.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp.Hash] = &cacheEntry{
		fingerprint: fp,
		plan:        plan,
		expiresAt:   c.now().Add(c.ttl),
	}
}

// Len reports the live entry count (test helper; expired entries may still
// be counted until touched).
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
