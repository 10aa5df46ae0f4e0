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

package extract

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Schema selects the target structure of an extraction pass.
type Schema string

const (
	SchemaDestination Schema = "destination"
	SchemaItinerary   Schema = "itinerary"
	SchemaBudget      Schema = "budget"
)

// ErrUnusableInput is returned when the raw text itself is fundamentally
// unusable (empty or blank). Low-quality but present text never produces
// this error; it degrades through the strategy chain instead.
var ErrUnusableInput = errors.New("extract: input text is empty or unusable")

// ErrNoStructure is returned when every strategy for the schema came up
// empty. For the itinerary schema this propagates to the orchestrator, which
// owns the whole-itinerary fallback policy; other schemas synthesize
// placeholders before this can surface.
var ErrNoStructure = errors.New("extract: no usable structure found")

// Context carries the accumulated trip state a strategy may need to fill
// gaps or synthesize placeholders.
type Context struct {
	Destination  string
	Country      string
	Origin       string
	DurationDays int
	StartDate    time.Time
	Currency     string
	Travelers    int
	BudgetTarget float64
	Interests    []string
}

// Result is the structured output of an extraction pass. Exactly one of the
// schema fields is populated, according to the requested schema.
type Result struct {
	Destination *DestinationResult
	Days        []DayResult
	Budget      *BudgetResult

	// Source records which strategy produced the result: "fields", "miner",
	// or "fallback".
	Source string
}

// strategy attempts one way of building a Result. Returning (nil, false)
// means "nothing usable, try the next one"; strategies do not error.
type strategy struct {
	name string
	run  func(text string, ctx Context) (*Result, bool)
}

// Engine converts sanitized semi-structured markup into schema results via
// an ordered strategy list composed by first success. Extraction is
// deterministic: identical input yields identical output.
type Engine struct {
	sanitizer  *Sanitizer
	strategies map[Schema][]strategy
}

// NewEngine creates an extraction engine with the default strategy chains.
func NewEngine() *Engine {
	e := &Engine{
		sanitizer:  NewSanitizer(),
		strategies: make(map[Schema][]strategy),
	}

	e.strategies[SchemaDestination] = []strategy{
		{name: "fields", run: extractDestinationFields},
		{name: "miner", run: mineDestination},
		{name: "fallback", run: synthesizeDestination},
	}
	e.strategies[SchemaItinerary] = []strategy{
		{name: "fields", run: extractItineraryFields},
		{name: "miner", run: mineItinerary},
		// No synthesis here: an unextractable itinerary is rejected whole
		// and the orchestrator substitutes the deterministic template.
	}
	e.strategies[SchemaBudget] = []strategy{
		{name: "fields", run: extractBudgetFields},
		{name: "miner", run: mineBudget},
		{name: "fallback", run: synthesizeBudget},
	}

	return e
}

// Extract runs the strategy chain for the schema over the raw text. The raw
// text is fence-stripped and sanitized first; strategies then see cleaned
// markup. Returns ErrUnusableInput for blank input and ErrNoStructure when
// the chain is exhausted (itinerary only, given its chain has no synthesis
// step).
func (e *Engine) Extract(raw string, schema Schema, ctx Context) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrUnusableInput
	}

	chain, ok := e.strategies[schema]
	if !ok {
		return nil, fmt.Errorf("extract: unknown schema %q", schema)
	}

	text := StripFences(raw)
	text = e.sanitizer.Sanitize(text)

	for _, s := range chain {
		if result, ok := s.run(text, ctx); ok {
			result.Source = s.name
			if s.name != "fields" {
				log.Printf("[Extract] schema=%s degraded to strategy=%s", schema, s.name)
			}
			return result, nil
		}
	}

	return nil, ErrNoStructure
}
