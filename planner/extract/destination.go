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
	"strings"

	"tripflow/platform/planner/trip"
)

// DestinationResult is the destination-schema extraction output.
type DestinationResult struct {
	Info trip.DestinationInfo
}

var attractionLinePattern = regexp.MustCompile(`^(.+?)\s*(?:\(([^)]+)\))?\s*(?:[-–—:]\s*(.+))?$`)

// extractDestinationFields parses "Label: value" pairs and an attractions
// list out of the sanitized markup. Succeeds when at least a destination
// name is recovered.
func extractDestinationFields(text string, ctx Context) (*Result, bool) {
	info := trip.DestinationInfo{}
	lines := textLines(text)

	inAttractions := false
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "attractions") || strings.HasPrefix(lower, "top attractions") ||
			strings.HasPrefix(lower, "key attractions") || strings.HasPrefix(lower, "highlights") {
			inAttractions = true
			continue
		}

		label, value, ok := splitLabel(line)
		if !ok {
			if inAttractions {
				if a, ok := parseAttractionLine(line); ok {
					info.Attractions = append(info.Attractions, a)
				}
			}
			continue
		}

		switch {
		case label == "name" || label == "destination" || label == "city":
			inAttractions = false
			if info.Name == "" {
				info.Name = value
			}
		case label == "country":
			inAttractions = false
			info.Country = value
		case label == "description" || label == "overview" || label == "about":
			inAttractions = false
			info.Description = value
		case strings.HasPrefix(label, "best time"):
			inAttractions = false
			info.BestTime = value
		case strings.HasPrefix(label, "key area") || strings.HasPrefix(label, "neighborhood") || strings.HasPrefix(label, "area"):
			inAttractions = false
			info.KeyAreas = splitList(value)
		case label == "transportation" || label == "getting there":
			inAttractions = false
			info.Transportation = value
		case strings.HasPrefix(label, "getting around") || strings.HasPrefix(label, "local transport") || strings.HasPrefix(label, "transit mode"):
			inAttractions = false
			info.LocalTransport.Modes = splitList(value)
		case strings.HasPrefix(label, "transit tip") || strings.HasPrefix(label, "transport tip"):
			inAttractions = false
			info.LocalTransport.Tips = value
		default:
			// An attraction list can also arrive as "Name: description"
			// entries under the attractions header.
			if inAttractions {
				name := label
				if idx := strings.Index(line, ":"); idx > 0 {
					name = strings.TrimSpace(line[:idx])
				}
				info.Attractions = append(info.Attractions, trip.Attraction{
					Name:        name,
					Type:        "attraction",
					Description: value,
				})
			}
		}
	}

	if info.Name == "" {
		return nil, false
	}
	fillDestinationDefaults(&info, ctx)
	return &Result{Destination: &DestinationResult{Info: info}}, true
}

// parseAttractionLine parses "Name (type) - description" list items, with
// both the type and description optional.
func parseAttractionLine(line string) (trip.Attraction, bool) {
	m := attractionLinePattern.FindStringSubmatch(line)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return trip.Attraction{}, false
	}
	a := trip.Attraction{
		Name:        strings.TrimSpace(m[1]),
		Type:        strings.ToLower(strings.TrimSpace(m[2])),
		Description: strings.TrimSpace(m[3]),
	}
	if a.Type == "" {
		a.Type = "attraction"
	}
	// Reject lines that are clearly prose, not list items.
	if len(strings.Fields(a.Name)) > 8 {
		return trip.Attraction{}, false
	}
	return a, true
}

// mineDestination recovers a minimal overview from loose prose: the first
// non-trivial line becomes the description, and capitalized list items
// become attractions. The destination name comes from the request context.
func mineDestination(text string, ctx Context) (*Result, bool) {
	if ctx.Destination == "" {
		return nil, false
	}

	lines := textLines(text)
	if len(lines) == 0 {
		return nil, false
	}

	info := trip.DestinationInfo{
		Name:    ctx.Destination,
		Country: ctx.Country,
	}
	for _, line := range lines {
		if info.Description == "" && len(line) > 40 {
			info.Description = line
			continue
		}
		if a, ok := parseAttractionLine(line); ok && a.Description != "" {
			info.Attractions = append(info.Attractions, a)
		}
	}

	if info.Description == "" && len(info.Attractions) == 0 {
		return nil, false
	}
	fillDestinationDefaults(&info, ctx)
	return &Result{Destination: &DestinationResult{Info: info}}, true
}

func fillDestinationDefaults(info *trip.DestinationInfo, ctx Context) {
	if info.Name == "" {
		info.Name = ctx.Destination
	}
	if len(info.LocalTransport.Modes) == 0 {
		info.LocalTransport.Modes = []string{"public transit", "taxi", "walking"}
	}
}
