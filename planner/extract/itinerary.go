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
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tripflow/platform/planner/trip"
)

// DayResult is one extracted itinerary day.
type DayResult struct {
	Day trip.ItineraryDay
}

var (
	dayHeaderPattern = regexp.MustCompile(`(?i)\bday\s+(\d{1,2})\b\s*[:.\-–—]?\s*(.*)`)
	atLocationSplit  = regexp.MustCompile(`(?i)\s+(?:at|in|near)\s+`)
	costSuffix       = regexp.MustCompile(`\s*[\(\[][^)\]]*[\d][^)\]]*[\)\]]\s*$`)
)

// extractItineraryFields parses "Day N" sections out of the sanitized
// markup. Each section's lines become activities: leading time windows,
// trailing parenthesized costs, and "at <location>" phrases are peeled off.
// Succeeds only when every recovered day carries at least one activity;
// a single empty day fails the extraction outright.
func extractItineraryFields(text string, ctx Context) (*Result, bool) {
	lines := textLines(text)

	type section struct {
		index int
		title string
		lines []string
		notes string
	}
	var sections []*section
	var current *section

	for _, line := range lines {
		if m := dayHeaderPattern.FindStringSubmatch(line); m != nil && isDayHeader(line) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 || n > 60 {
				continue
			}
			current = &section{index: n, title: strings.TrimSpace(m[2])}
			sections = append(sections, current)
			continue
		}
		if current == nil {
			continue
		}
		if label, value, ok := splitLabel(line); ok && (label == "notes" || label == "note" || label == "tip" || label == "tips") {
			if current.notes != "" {
				current.notes += " "
			}
			current.notes += value
			continue
		}
		current.lines = append(current.lines, line)
	}

	if len(sections) == 0 {
		return nil, false
	}

	var days []DayResult
	for _, sec := range sections {
		day := trip.ItineraryDay{
			Index: sec.index,
			Title: sec.title,
			Notes: sec.notes,
		}
		for _, line := range sec.lines {
			if a, ok := parseActivityLine(line); ok {
				day.Activities = append(day.Activities, a)
			}
		}
		// One empty day invalidates the whole extraction: dropping it
		// would silently shift every later day to an earlier index and
		// date. The caller falls back to the full template instead.
		if len(day.Activities) == 0 {
			return nil, false
		}
		for _, a := range day.Activities {
			day.EstimatedCost += a.Cost
		}
		days = append(days, DayResult{Day: day})
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Day.Index < days[j].Day.Index
	})
	return &Result{Days: days}, true
}

// isDayHeader distinguishes a "Day 3: ..." section header from prose that
// merely mentions a day ("on day 3 you could...").
func isDayHeader(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(lower, "day ")
}

// parseActivityLine parses one activity line of the form
//
//	9:00 AM - 12:00 PM: Visit Amber Fort at Amer Road ($20)
//
// with every component after the name optional. Lines too short to name an
// activity are rejected.
func parseActivityLine(line string) (trip.Activity, bool) {
	a := trip.Activity{}

	window, rest, _ := splitTimePrefix(line)
	a.TimeWindow = window

	if cost, ok := parseMoney(rest); ok {
		a.Cost = cost
	}
	rest = strings.TrimSpace(costSuffix.ReplaceAllString(rest, ""))

	if parts := atLocationSplit.Split(rest, 2); len(parts) == 2 {
		rest = strings.TrimSpace(parts[0])
		a.Location = strings.TrimSpace(parts[1])
	}

	// "Name - description" split on the first dash after the name.
	if idx := strings.Index(rest, " - "); idx > 0 {
		a.Name = strings.TrimSpace(rest[:idx])
		a.Description = strings.TrimSpace(rest[idx+3:])
	} else {
		a.Name = rest
	}

	if len(a.Name) < 3 {
		return trip.Activity{}, false
	}
	a.Type = ClassifyActivity(a.Name + " " + a.Description)
	return a, true
}

var activityTypeKeywords = []struct {
	t        trip.ActivityType
	keywords []string
}{
	{trip.ActivityLodging, []string{"hotel", "check-in", "check in", "checkout", "check-out", "hostel", "resort", "guesthouse", "accommodation", "stay"}},
	{trip.ActivityDining, []string{"lunch", "dinner", "breakfast", "restaurant", "cafe", "food", "eat", "cuisine", "street food", "brunch"}},
	{trip.ActivityTransit, []string{"flight", "train", "bus", "transfer", "taxi", "drive", "airport", "depart", "arrive", "commute", "ferry"}},
	{trip.ActivityAttraction, []string{"visit", "museum", "fort", "palace", "temple", "tour", "explore", "beach", "park", "gallery", "market", "monument", "hike", "show"}},
}

// ClassifyActivity maps free text to an activity type by keyword, with
// generic as the default. Classification is deterministic: the first
// matching category in a fixed priority order wins.
func ClassifyActivity(text string) trip.ActivityType {
	lower := strings.ToLower(text)
	for _, group := range activityTypeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.t
			}
		}
	}
	return trip.ActivityGeneric
}

// mineItinerary is the loose strategy: with no "Day N" structure present it
// collects time-prefixed lines in document order and buckets them into days
// of up to three activities, capped at the requested duration.
func mineItinerary(text string, ctx Context) (*Result, bool) {
	lines := textLines(text)

	// Text carrying "Day N" headers claimed a structure the field strategy
	// already rejected. Mining loose lines out of it would rebuild a
	// partial schedule from an itinerary that was invalid as a whole.
	for _, line := range lines {
		if isDayHeader(line) && dayHeaderPattern.MatchString(line) {
			return nil, false
		}
	}

	var activities []trip.Activity
	for _, line := range lines {
		if _, _, ok := splitTimePrefix(line); !ok {
			continue
		}
		if a, ok := parseActivityLine(line); ok {
			activities = append(activities, a)
		}
	}
	if len(activities) == 0 {
		return nil, false
	}

	perDay := 3
	var days []DayResult
	for i := 0; i < len(activities); i += perDay {
		end := i + perDay
		if end > len(activities) {
			end = len(activities)
		}
		day := trip.ItineraryDay{
			Index:      len(days) + 1,
			Title:      "Day " + strconv.Itoa(len(days)+1),
			Activities: activities[i:end],
		}
		for _, a := range day.Activities {
			day.EstimatedCost += a.Cost
		}
		days = append(days, DayResult{Day: day})
		if ctx.DurationDays > 0 && len(days) >= ctx.DurationDays {
			break
		}
	}
	return &Result{Days: days}, true
}
