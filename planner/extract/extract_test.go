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
	"reflect"
	"strings"
	"testing"
	"time"

	"tripflow/platform/planner/trip"
)

func testContext() Context {
	return Context{
		Destination:  "Jaipur",
		Country:      "India",
		Origin:       "Delhi",
		DurationDays: 3,
		StartDate:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Currency:     "INR",
		Travelers:    2,
		BudgetTarget: 30000,
		Interests:    []string{"history", "food"},
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"html fence", "```html\n<h2>Day 1</h2>\n```", "<h2>Day 1</h2>"},
		{"bare fence", "```\nplain text\n```", "plain text"},
		{"no fence", "<h2>Day 1</h2>", "<h2>Day 1</h2>"},
		{"fence marker mid-text untouched", "before ``` after", "before ``` after"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripFences(tt.input)
			if got != tt.want {
				t.Errorf("StripFences = %q, want %q", got, tt.want)
			}
			// Idempotent: stripping twice equals stripping once.
			if again := StripFences(got); again != got {
				t.Errorf("StripFences not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestSanitizeRemovesActiveContent(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name    string
		input   string
		banned  []string
		keep    []string
	}{
		{
			name:   "script block",
			input:  `<p>safe</p><script>alert("x")</script><p>more</p>`,
			banned: []string{"<script", "alert"},
			keep:   []string{"<p>safe</p>", "<p>more</p>"},
		},
		{
			name:   "event handler",
			input:  `<li onclick="steal()">Visit fort</li>`,
			banned: []string{"onclick", "steal"},
			keep:   []string{"Visit fort"},
		},
		{
			name:   "javascript url",
			input:  `<li><a href="javascript:evil()">Museum</a></li>`,
			banned: []string{"javascript:"},
			keep:   []string{"Museum"},
		},
		{
			name:   "non-structural tag dropped, text kept",
			input:  `<blink>Day 1</blink><h2>Day 2</h2>`,
			banned: []string{"<blink>"},
			keep:   []string{"Day 1", "<h2>Day 2</h2>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			for _, b := range tt.banned {
				if strings.Contains(got, b) {
					t.Errorf("sanitized output still contains %q: %s", b, got)
				}
			}
			for _, k := range tt.keep {
				if !strings.Contains(got, k) {
					t.Errorf("sanitized output lost %q: %s", k, got)
				}
			}
			if again := s.Sanitize(got); again != got {
				t.Errorf("Sanitize not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestExtractDestinationFields(t *testing.T) {
	raw := `<h2>Destination</h2>
<p>Name: Jaipur</p>
<p>Country: India</p>
<p>Description: The Pink City, famous for its forts and palaces.</p>
<p>Best Time to Visit: October to March</p>
<p>Key Areas: Old City, Amer, C-Scheme</p>
<p>Getting Around: auto-rickshaw, metro, walking</p>
<p>Transit Tips: Agree on rickshaw fares before boarding.</p>
<h3>Attractions</h3>
<ul>
<li>Amber Fort (fort) - Hilltop fort with mirror palace</li>
<li>Hawa Mahal (palace) - The Palace of Winds</li>
<li>City Palace - Royal residence and museum</li>
</ul>`

	e := NewEngine()
	result, err := e.Extract(raw, SchemaDestination, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Source != "fields" {
		t.Fatalf("expected fields strategy, got %s", result.Source)
	}

	info := result.Destination.Info
	if info.Name != "Jaipur" || info.Country != "India" {
		t.Errorf("unexpected name/country: %q/%q", info.Name, info.Country)
	}
	if info.BestTime != "October to March" {
		t.Errorf("unexpected best time %q", info.BestTime)
	}
	if !reflect.DeepEqual(info.KeyAreas, []string{"Old City", "Amer", "C-Scheme"}) {
		t.Errorf("unexpected key areas %v", info.KeyAreas)
	}
	if len(info.LocalTransport.Modes) != 3 {
		t.Errorf("unexpected transport modes %v", info.LocalTransport.Modes)
	}
	if len(info.Attractions) != 3 {
		t.Fatalf("expected 3 attractions, got %d: %+v", len(info.Attractions), info.Attractions)
	}
	if info.Attractions[0].Name != "Amber Fort" || info.Attractions[0].Type != "fort" {
		t.Errorf("unexpected first attraction %+v", info.Attractions[0])
	}
	if info.Attractions[2].Type != "attraction" {
		t.Errorf("expected default type for untyped attraction, got %q", info.Attractions[2].Type)
	}
}

func TestExtractDestinationFallsBackToSynthesis(t *testing.T) {
	e := NewEngine()
	result, err := e.Extract("!!", SchemaDestination, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("expected fallback strategy, got %s", result.Source)
	}
	info := result.Destination.Info
	if info.Name != "Jaipur" {
		t.Errorf("expected context destination, got %q", info.Name)
	}
	if !strings.Contains(info.Description, "unavailable") {
		t.Errorf("placeholder description should say it is unavailable: %q", info.Description)
	}
}

func TestExtractItineraryDays(t *testing.T) {
	raw := "```html\n" + `<h2>Day 1: Forts and Palaces</h2>
<ul>
<li>9:00 AM - 12:00 PM: Visit Amber Fort at Amer Road ($20)</li>
<li>1:00 PM - 2:00 PM: Lunch at Chokhi Dhani</li>
<li>3:00 PM - 6:00 PM: Explore City Palace ($15)</li>
</ul>
<p>Notes: Wear comfortable shoes.</p>
<h2>Day 2: Markets</h2>
<ul>
<li>Morning: Shop at Johari Bazaar</li>
<li>Evening: Dinner at a rooftop restaurant</li>
</ul>` + "\n```"

	e := NewEngine()
	result, err := e.Extract(raw, SchemaItinerary, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Source != "fields" {
		t.Fatalf("expected fields strategy, got %s", result.Source)
	}
	if len(result.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(result.Days))
	}

	day1 := result.Days[0].Day
	if day1.Index != 1 || day1.Title != "Forts and Palaces" {
		t.Errorf("unexpected day 1 header: %d %q", day1.Index, day1.Title)
	}
	if len(day1.Activities) != 3 {
		t.Fatalf("expected 3 activities on day 1, got %d", len(day1.Activities))
	}

	first := day1.Activities[0]
	if first.TimeWindow != "9:00 AM - 12:00 PM" {
		t.Errorf("unexpected time window %q", first.TimeWindow)
	}
	if first.Name != "Visit Amber Fort" {
		t.Errorf("unexpected activity name %q", first.Name)
	}
	if first.Location != "Amer Road" {
		t.Errorf("unexpected location %q", first.Location)
	}
	if first.Cost != 20 {
		t.Errorf("unexpected cost %v", first.Cost)
	}
	if first.Type != trip.ActivityAttraction {
		t.Errorf("unexpected type %q", first.Type)
	}
	if day1.Activities[1].Type != trip.ActivityDining {
		t.Errorf("expected dining type, got %q", day1.Activities[1].Type)
	}
	if day1.Notes != "Wear comfortable shoes." {
		t.Errorf("unexpected notes %q", day1.Notes)
	}
	if day1.EstimatedCost != 35 {
		t.Errorf("expected day cost 35, got %v", day1.EstimatedCost)
	}

	day2 := result.Days[1].Day
	if day2.Activities[0].TimeWindow != "Morning" {
		t.Errorf("expected time-of-day window, got %q", day2.Activities[0].TimeWindow)
	}
}

func TestExtractItineraryMinerOnLooseText(t *testing.T) {
	raw := `Here is a rough plan for your trip.
9:00 AM - 11:00 AM: Walk the old town
12:00 PM - 1:00 PM: Lunch at the market
2:00 PM - 5:00 PM: Visit the museum
6:00 PM - 8:00 PM: Sunset viewpoint
Some closing remarks about the weather.`

	e := NewEngine()
	result, err := e.Extract(raw, SchemaItinerary, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Source != "miner" {
		t.Fatalf("expected miner strategy, got %s", result.Source)
	}
	total := 0
	for _, d := range result.Days {
		if len(d.Day.Activities) == 0 {
			t.Errorf("mined day %d has no activities", d.Day.Index)
		}
		total += len(d.Day.Activities)
	}
	if total != 4 {
		t.Errorf("expected 4 mined activities, got %d", total)
	}
}

func TestExtractItineraryEmptyDayRejectsWhole(t *testing.T) {
	// Day 2 has a header but no activity lines. Salvaging days 1 and 3
	// would shift day 3 to index 2 and rewrite its date, so the whole
	// extraction must fail instead.
	raw := `<h2>Day 1: Forts</h2>
<ul><li>9:00 AM - 12:00 PM: Visit Amber Fort ($20)</li></ul>
<h2>Day 2: Markets</h2>
<h2>Day 3: Departure</h2>
<ul><li>Morning: Breakfast and checkout</li></ul>`

	e := NewEngine()
	_, err := e.Extract(raw, SchemaItinerary, testContext())
	if !errors.Is(err, ErrNoStructure) {
		t.Fatalf("expected ErrNoStructure, got %v", err)
	}
}

func TestExtractItineraryMinerDeclinesDayHeaders(t *testing.T) {
	// Time-prefixed lines alone would satisfy the miner, but the "Day N"
	// headers mean the text carried a day structure that already failed
	// field extraction. The miner must not rebuild a partial schedule.
	raw := `Day 1: Arrival
Day 2:
9:00 AM - 11:00 AM: Walk the old town
12:00 PM - 1:00 PM: Lunch at the market`

	if _, ok := mineItinerary(raw, testContext()); ok {
		t.Fatal("miner must decline text containing day headers")
	}
}

func TestExtractItineraryNoStructureErrors(t *testing.T) {
	e := NewEngine()
	_, err := e.Extract("nothing resembling a schedule here", SchemaItinerary, testContext())
	if !errors.Is(err, ErrNoStructure) {
		t.Fatalf("expected ErrNoStructure, got %v", err)
	}
}

func TestExtractEmptyInputErrors(t *testing.T) {
	e := NewEngine()
	for _, schema := range []Schema{SchemaDestination, SchemaItinerary, SchemaBudget} {
		if _, err := e.Extract("   \n\t  ", schema, testContext()); !errors.Is(err, ErrUnusableInput) {
			t.Errorf("schema %s: expected ErrUnusableInput, got %v", schema, err)
		}
	}
}

func TestExtractBudgetFields(t *testing.T) {
	raw := `<ul>
<li>Accommodation: ₹12,000</li>
<li>Transport: 5000</li>
<li>Food: ₹6,000</li>
<li>Activities: 4000</li>
<li>Other: 1000</li>
<li>Total: ₹99,999</li>
</ul>`

	e := NewEngine()
	result, err := e.Extract(raw, SchemaBudget, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Source != "fields" {
		t.Fatalf("expected fields strategy, got %s", result.Source)
	}

	cats := result.Budget.Categories
	if cats["lodging"] != 12000 {
		t.Errorf("expected lodging 12000, got %v", cats["lodging"])
	}
	if cats["transport"] != 5000 || cats["food"] != 6000 || cats["activities"] != 4000 || cats["other"] != 1000 {
		t.Errorf("unexpected categories %v", cats)
	}
	// Extracted totals are discarded.
	if _, ok := cats["total"]; ok {
		t.Error("total must not survive as a category")
	}
}

func TestExtractBudgetSynthesisSharesSumToTarget(t *testing.T) {
	e := NewEngine()
	result, err := e.Extract("??", SchemaBudget, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Source != "fallback" {
		t.Fatalf("expected fallback strategy, got %s", result.Source)
	}
	sum := 0.0
	for _, v := range result.Budget.Categories {
		sum += v
	}
	if sum < 29999 || sum > 30001 {
		t.Errorf("expected shares summing to target 30000, got %v", sum)
	}
}

func TestExtractIdempotent(t *testing.T) {
	raw := `<h2>Day 1: Arrival</h2><ul><li>Morning: Arrive and check in to hotel</li></ul>`
	e := NewEngine()

	first, err := e.Extract(raw, SchemaItinerary, testContext())
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := e.Extract(raw, SchemaItinerary, testContext())
	if err != nil {
		t.Fatalf("second Extract failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction not deterministic:\nfirst: %+v\nsecond: %+v", first, second)
	}
}

func TestFallbackItinerary(t *testing.T) {
	ctx := testContext()
	ctx.DurationDays = 4
	days := FallbackItinerary(ctx)

	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	if days[0].Title != "Arrival" {
		t.Errorf("expected arrival first, got %q", days[0].Title)
	}
	if days[3].Title != "Departure" {
		t.Errorf("expected departure last, got %q", days[3].Title)
	}
	for i, d := range days {
		if d.Index != i+1 {
			t.Errorf("day %d has index %d", i, d.Index)
		}
		if len(d.Activities) == 0 {
			t.Errorf("day %d has no activities", d.Index)
		}
		wantDate := ctx.StartDate.AddDate(0, 0, i)
		if !d.Date.Equal(wantDate) {
			t.Errorf("day %d date %v, want %v", d.Index, d.Date, wantDate)
		}
	}

	// Deterministic: same context, same output.
	if !reflect.DeepEqual(days, FallbackItinerary(ctx)) {
		t.Error("fallback itinerary not deterministic")
	}
}

func TestClassifyActivity(t *testing.T) {
	tests := []struct {
		text string
		want trip.ActivityType
	}{
		{"Check in to the Grand Hotel", trip.ActivityLodging},
		{"Lunch at a street food market", trip.ActivityDining},
		{"Train to the coast", trip.ActivityTransit},
		{"Visit the national museum", trip.ActivityAttraction},
		{"Free time", trip.ActivityGeneric},
	}
	for _, tt := range tests {
		if got := ClassifyActivity(tt.text); got != tt.want {
			t.Errorf("ClassifyActivity(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
