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

package trip

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// budgetWithinTolerance is the fraction of the target within which a total
// still counts as "within" budget.
const budgetWithinTolerance = 0.05

var rangePattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)`)

// ParseBudgetRange averages a budget range string such as "25000-35000" or
// "25000 to 35000". A single number parses to itself. Returns 0 when the
// string carries no usable amount.
func ParseBudgetRange(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	// Strip currency symbols and thousands separators before matching.
	cleaned := strings.NewReplacer(",", "", "$", "", "€", "", "£", "", "₹", "").Replace(s)

	if m := rangePattern.FindStringSubmatch(cleaned); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil && hi >= lo {
			return (lo + hi) / 2
		}
	}

	numPattern := regexp.MustCompile(`\d+(?:\.\d+)?`)
	if m := numPattern.FindString(cleaned); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}
	return 0
}

// Recompute rebuilds the derived fields of a breakdown from its category
// amounts. Extracted totals are never trusted: Total is always the category
// sum, and Status/Variance always derive from Total vs. target.
func (b *BudgetBreakdown) Recompute(target float64, travelers, days int) {
	if b.Categories == nil {
		b.Categories = make(map[string]float64)
	}

	total := 0.0
	for _, amount := range b.Categories {
		total += amount
	}
	b.Total = round2(total)

	if travelers < 1 {
		travelers = 1
	}
	if days < 1 {
		days = 1
	}
	b.PerPerson = round2(b.Total / float64(travelers))
	b.PerDay = round2(b.Total / float64(days))

	if target <= 0 {
		b.Status = BudgetWithin
		b.Variance = 0
		return
	}

	b.Variance = round2(b.Total - target)
	switch {
	case math.Abs(b.Variance) <= target*budgetWithinTolerance:
		b.Status = BudgetWithin
	case b.Variance > 0:
		b.Status = BudgetOver
	default:
		b.Status = BudgetUnder
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
