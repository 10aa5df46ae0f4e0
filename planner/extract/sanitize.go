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
	"html"
	"regexp"
	"strings"
)

var (
	fenceOpenPattern  = regexp.MustCompile("^\\s*```[a-zA-Z]*\\s*\n?")
	fenceClosePattern = regexp.MustCompile("\n?\\s*```\\s*$")

	scriptBlockPattern  = regexp.MustCompile(`(?is)<(script|style|iframe|object|embed)\b[^>]*>.*?</\s*(script|style|iframe|object|embed)\s*>`)
	danglingScriptOpen  = regexp.MustCompile(`(?is)<(script|style|iframe|object|embed)\b[^>]*>`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	scriptURLPattern    = regexp.MustCompile(`(?i)\s+(href|src)\s*=\s*("javascript:[^"]*"|'javascript:[^']*'|javascript:[^\s>]+)`)

	tagPattern = regexp.MustCompile(`</?([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)
)

// structuralTags is the safelist of tags that survive sanitization. Anything
// else is dropped while its inner text is kept.
var structuralTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true,
	"p": true, "br": true, "hr": true,
	"ul": true, "ol": true, "li": true,
	"strong": true, "b": true, "em": true, "i": true,
	"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
	"div": true, "span": true,
}

// StripFences removes a surrounding Markdown code fence (```html ... ``` or
// a bare ```) from generated text. Text without a fence passes through
// unchanged, so the operation is idempotent.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return text
	}
	trimmed = fenceOpenPattern.ReplaceAllString(trimmed, "")
	trimmed = fenceClosePattern.ReplaceAllString(trimmed, "")
	return trimmed
}

// Sanitizer strips active content and non-structural markup from generated
// text before extraction. Sanitizing already-clean text is a no-op.
type Sanitizer struct{}

// NewSanitizer creates a sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize removes script/style/iframe blocks, inline event handlers, and
// javascript: URLs, then drops every tag outside the structural safelist
// while preserving its inner text.
func (s *Sanitizer) Sanitize(text string) string {
	text = scriptBlockPattern.ReplaceAllString(text, "")
	text = danglingScriptOpen.ReplaceAllString(text, "")
	text = eventHandlerPattern.ReplaceAllString(text, "")
	text = scriptURLPattern.ReplaceAllString(text, "")

	text = tagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		m := tagPattern.FindStringSubmatch(tag)
		if m == nil {
			return ""
		}
		if structuralTags[strings.ToLower(m[1])] {
			return tag
		}
		return ""
	})

	return text
}

// blockBreakPattern converts block-level tag boundaries to newlines when
// flattening markup to plain lines.
var blockBreakPattern = regexp.MustCompile(`(?i)<br\s*/?>|</(p|li|h1|h2|h3|h4|tr|div)>`)

// textLines flattens sanitized markup into trimmed, non-empty plain-text
// lines. Tags become line breaks (block-level) or disappear (inline), and
// HTML entities are decoded.
func textLines(markup string) []string {
	text := blockBreakPattern.ReplaceAllString(markup, "\n")
	text = tagPattern.ReplaceAllString(text, "")
	text = html.UnescapeString(text)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		// Bullet markers from Markdown-ish output.
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// plainText flattens markup to a single trimmed string.
func plainText(markup string) string {
	text := tagPattern.ReplaceAllString(markup, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
