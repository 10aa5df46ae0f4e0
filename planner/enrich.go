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
	"fmt"
	"html"
	"log"
	"regexp"
	"strings"
	"sync"

	"tripflow/platform/planner/trip"
)

// Enricher attaches coordinates to itinerary locations. Every lookup
// failure is non-fatal: an unresolvable place simply stays without
// coordinates. Resolved places are cached in memory with fuzzy matching so
// repeated names across days cost one lookup.
type Enricher struct {
	geocoder Geocoder

	mu    sync.RWMutex
	cache map[string]trip.Coordinates
	miss  map[string]bool
}

// NewEnricher creates an enricher backed by the given geocoder.
func NewEnricher(geocoder Geocoder) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		cache:    make(map[string]trip.Coordinates),
		miss:     make(map[string]bool),
	}
}

// strippablePrefixes are leading words that change a place string without
// changing the place.
var strippablePrefixes = []string{"the ", "a ", "visit ", "explore ", "near ", "hotel "}

func normalizePlace(place string) string {
	return strings.Join(strings.Fields(strings.ToLower(place)), " ")
}

// lookupCache tries the cache with progressively fuzzier matching: the
// exact normalized key, the key with a strippable prefix removed, then a
// substring scan in both directions (guarded by a minimum length so "fort"
// does not match everything).
func (e *Enricher) lookupCache(key string) (trip.Coordinates, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if c, ok := e.cache[key]; ok {
		return c, true
	}
	for _, prefix := range strippablePrefixes {
		if strings.HasPrefix(key, prefix) {
			if c, ok := e.cache[key[len(prefix):]]; ok {
				return c, true
			}
		}
	}
	if len(key) >= 6 {
		for cached, c := range e.cache {
			if len(cached) >= 6 && (strings.Contains(cached, key) || strings.Contains(key, cached)) {
				return c, true
			}
		}
	}
	return trip.Coordinates{}, false
}

// resolve returns coordinates for a place, consulting the cache first and
// remembering misses so a failing place is looked up at most once per run
// batch.
func (e *Enricher) resolve(ctx context.Context, place, destination string) (trip.Coordinates, bool) {
	key := normalizePlace(place)
	if key == "" {
		return trip.Coordinates{}, false
	}

	if c, ok := e.lookupCache(key); ok {
		return c, true
	}

	e.mu.RLock()
	missed := e.miss[key]
	e.mu.RUnlock()
	if missed {
		return trip.Coordinates{}, false
	}

	query := place
	if destination != "" && !strings.Contains(key, normalizePlace(destination)) {
		query = place + ", " + destination
	}
	coords, err := e.geocoder.Geocode(ctx, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		log.Printf("[Enricher] geocode miss for %q: %v", place, err)
		e.miss[key] = true
		return trip.Coordinates{}, false
	}
	e.cache[key] = coords
	return coords, true
}

// EnrichItinerary resolves coordinates for every activity that names a
// location. The itinerary is modified in place; days and activities without
// locations are untouched.
func (e *Enricher) EnrichItinerary(ctx context.Context, days []trip.ItineraryDay, destination string) {
	for di := range days {
		for ai := range days[di].Activities {
			a := &days[di].Activities[ai]
			if a.Location == "" || a.Coordinates != nil {
				continue
			}
			if coords, ok := e.resolve(ctx, a.Location, destination); ok {
				c := coords
				a.Coordinates = &c
			}
		}
	}
}

var locationSpanPattern = regexp.MustCompile(`<span data-location="([^"]*)">`)

// EnrichMarkup injects data-lat/data-lon attributes into the summary's
// location spans for places already resolved in the cache. Unresolved spans
// pass through unchanged; the operation is idempotent.
func (e *Enricher) EnrichMarkup(markup string) string {
	return locationSpanPattern.ReplaceAllStringFunc(markup, func(tag string) string {
		m := locationSpanPattern.FindStringSubmatch(tag)
		if m == nil {
			return tag
		}
		place := html.UnescapeString(m[1])
		coords, ok := e.lookupCache(normalizePlace(place))
		if !ok {
			return tag
		}
		return fmt.Sprintf(`<span data-location="%s" data-lat="%.6f" data-lon="%.6f">`, m[1], coords.Lat, coords.Lon)
	})
}
