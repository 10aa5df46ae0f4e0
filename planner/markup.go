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
	"html"
	"strings"

	"tripflow/platform/planner/trip"
)

// RenderSummary compiles the plan into a single display-ready markup blob:
// destination overview, day-by-day itinerary, transport tips, and the
// budget table. All text content is escaped; the only markup in the output
// is what the renderer itself emits.
func RenderSummary(plan *trip.Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>%s</h1>\n", esc(titleFor(plan)))

	dest := plan.Destination
	if dest.Description != "" {
		fmt.Fprintf(&b, "<p>%s</p>\n", esc(dest.Description))
	}
	if dest.BestTime != "" {
		fmt.Fprintf(&b, "<p><strong>Best time to visit:</strong> %s</p>\n", esc(dest.BestTime))
	}

	b.WriteString("<h2>Itinerary</h2>\n")
	for _, day := range plan.Itinerary {
		title := day.Title
		if title == "" {
			title = fmt.Sprintf("Day %d", day.Index)
		} else if !strings.HasPrefix(strings.ToLower(title), "day ") {
			title = fmt.Sprintf("Day %d: %s", day.Index, title)
		}
		fmt.Fprintf(&b, "<h3>%s</h3>\n<ul>\n", esc(title))
		for _, a := range day.Activities {
			b.WriteString("<li>")
			if a.TimeWindow != "" {
				fmt.Fprintf(&b, "<strong>%s:</strong> ", esc(a.TimeWindow))
			}
			b.WriteString(esc(a.Name))
			if a.Location != "" {
				fmt.Fprintf(&b, ` <span data-location="%s">at %s</span>`, esc(a.Location), esc(a.Location))
			}
			if a.Cost > 0 {
				fmt.Fprintf(&b, " (%s %.0f)", esc(plan.Budget.Currency), a.Cost)
			}
			b.WriteString("</li>\n")
		}
		b.WriteString("</ul>\n")
		if day.Notes != "" {
			fmt.Fprintf(&b, "<p><em>%s</em></p>\n", esc(day.Notes))
		}
	}

	if len(dest.LocalTransport.Modes) > 0 || dest.LocalTransport.Tips != "" {
		b.WriteString("<h2>Getting Around</h2>\n")
		if len(dest.LocalTransport.Modes) > 0 {
			fmt.Fprintf(&b, "<p>%s</p>\n", esc(strings.Join(dest.LocalTransport.Modes, ", ")))
		}
		if dest.LocalTransport.Tips != "" {
			fmt.Fprintf(&b, "<p>%s</p>\n", esc(dest.LocalTransport.Tips))
		}
	}

	b.WriteString("<h2>Budget</h2>\n<table>\n<tr><th>Category</th><th>Amount</th></tr>\n")
	for _, cat := range trip.BudgetCategories {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%.2f</td></tr>\n", esc(cat), plan.Budget.Categories[cat])
	}
	fmt.Fprintf(&b, "<tr><th>Total</th><th>%.2f %s</th></tr>\n</table>\n", plan.Budget.Total, esc(plan.Budget.Currency))
	fmt.Fprintf(&b, "<p>%.2f per person, %.2f per day. Status: %s.</p>\n",
		plan.Budget.PerPerson, plan.Budget.PerDay, plan.Budget.Status)

	if len(plan.Suggestions) > 0 {
		b.WriteString("<h2>Suggestions</h2>\n<ul>\n")
		for _, s := range plan.Suggestions {
			fmt.Fprintf(&b, "<li><strong>%s:</strong> %s</li>\n", esc(s.Category), esc(s.Suggestion))
		}
		b.WriteString("</ul>\n")
	}

	return b.String()
}

func titleFor(plan *trip.Plan) string {
	name := plan.Destination.Name
	if name == "" {
		name = "Your Trip"
	}
	return fmt.Sprintf("%d-Day Trip to %s", len(plan.Itinerary), name)
}

func esc(s string) string {
	return html.EscapeString(s)
}
