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

package llm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Providers occasionally hand back content in shapes other than a plain
// string: a list of text fragments, fragment objects, or an object whose
// keys are numeric string indices simulating a string. NormalizeText
// converts each recognized shape deterministically to canonical text.
// Unrecognized shapes are a typed error, not a silent stringify.
func NormalizeText(payload interface{}) (string, error) {
	switch v := payload.(type) {
	case nil:
		return "", &UnrecognizedShapeError{Shape: "nil"}

	case string:
		return v, nil

	case []interface{}:
		return joinFragments(v)

	case []string:
		return strings.Join(v, ""), nil

	case map[string]interface{}:
		// Fragment object: {"text": "..."} or {"content": "..."}
		if s, ok := fragmentText(v); ok {
			return s, nil
		}
		// Pseudo-string: {"0": "H", "1": "i", ...}
		if s, ok := indexedString(v); ok {
			return s, nil
		}
		return "", &UnrecognizedShapeError{Shape: fmt.Sprintf("map with keys %v", mapKeys(v))}

	default:
		return "", &UnrecognizedShapeError{Shape: fmt.Sprintf("%T", payload)}
	}
}

// joinFragments concatenates an array of string or fragment-object elements.
// A single unrecognized element fails the whole normalization.
func joinFragments(items []interface{}) (string, error) {
	var b strings.Builder
	for i, item := range items {
		switch frag := item.(type) {
		case string:
			b.WriteString(frag)
		case map[string]interface{}:
			s, ok := fragmentText(frag)
			if !ok {
				return "", &UnrecognizedShapeError{Shape: fmt.Sprintf("fragment[%d] map with keys %v", i, mapKeys(frag))}
			}
			b.WriteString(s)
		default:
			return "", &UnrecognizedShapeError{Shape: fmt.Sprintf("fragment[%d] %T", i, item)}
		}
	}
	return b.String(), nil
}

func fragmentText(m map[string]interface{}) (string, bool) {
	for _, key := range []string{"text", "content"} {
		if raw, ok := m[key]; ok {
			if s, ok := raw.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// indexedString reassembles {"0": "a", "1": "b"} into "ab". Every key must
// parse as a non-negative integer and every value must be a string.
func indexedString(m map[string]interface{}) (string, bool) {
	if len(m) == 0 {
		return "", false
	}

	type part struct {
		idx int
		val string
	}
	parts := make([]part, 0, len(m))
	for k, raw := range m {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			return "", false
		}
		s, ok := raw.(string)
		if !ok {
			return "", false
		}
		parts = append(parts, part{idx: idx, val: s})
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].idx < parts[j].idx })

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.val)
	}
	return b.String(), true
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
