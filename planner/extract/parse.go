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
	"strconv"
	"strings"
)

var (
	moneyPattern = regexp.MustCompile(`(?i)(?:USD|EUR|GBP|INR|Rs\.?|\$|€|£|₹)\s*([\d,]+(?:\.\d+)?)|([\d,]+(?:\.\d+)?)\s*(?:USD|EUR|GBP|INR)`)

	timeWindowPattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s*(?:AM|PM)?)\s*(?:-|–|to)\s*(\d{1,2}(?::\d{2})?\s*(?:AM|PM))\b`)
	timeOfDayPattern  = regexp.MustCompile(`(?i)^(morning|afternoon|evening|night)\b`)

	labelPattern = regexp.MustCompile(`(?i)^([A-Za-z][A-Za-z /&-]{1,40}?)\s*[:：]\s*(.+)$`)
)

// parseMoney extracts the first currency-marked amount from a line.
// Returns (0, false) when the line carries no recognizable amount.
func parseMoney(s string) (float64, bool) {
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	raw := m[1]
	if raw == "" {
		raw = m[2]
	}
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// parseBareNumber parses a line that is just an amount, optionally marked
// with a currency symbol.
func parseBareNumber(s string) (float64, bool) {
	if v, ok := parseMoney(s); ok {
		return v, true
	}
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// splitTimePrefix separates a leading time window (or time-of-day word) from
// the rest of a line: "9:00 AM - 12:00 PM: Visit the fort" yields
// ("9:00 AM - 12:00 PM", "Visit the fort", true).
func splitTimePrefix(line string) (window, rest string, ok bool) {
	if loc := timeWindowPattern.FindStringIndex(line); loc != nil && loc[0] == 0 {
		window = strings.TrimSpace(line[:loc[1]])
		rest = strings.TrimLeft(line[loc[1]:], " :-–\t")
		return window, strings.TrimSpace(rest), true
	}
	if m := timeOfDayPattern.FindString(line); m != "" {
		rest = strings.TrimLeft(line[len(m):], " :-–\t")
		if rest != "" {
			word := strings.ToLower(m)
			return strings.ToUpper(word[:1]) + word[1:], strings.TrimSpace(rest), true
		}
	}
	return "", line, false
}

// splitLabel breaks a "Label: value" line into its normalized lowercase
// label and trimmed value.
func splitLabel(line string) (label, value string, ok bool) {
	m := labelPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(m[1])), strings.TrimSpace(m[2]), true
}

// splitList breaks a comma- or semicolon-separated value into trimmed items.
func splitList(value string) []string {
	var items []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}
