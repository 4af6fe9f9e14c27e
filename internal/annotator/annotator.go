// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package annotator renders a text with its final matches replaced by a
// tagged display value.
package annotator

import (
	"fmt"
	"sort"
	"strings"

	"privacy-sentinel/internal/detector"
)

// TagFunc wraps the display value of a match.
type TagFunc func(m detector.Match, display string) string

// HTMLTag produces the span element consumed by browser front ends.
func HTMLTag(m detector.Match, display string) string {
	return fmt.Sprintf(`<span class="pii-%s" data-confidence="%.2f">%s</span>`, m.Category, m.Confidence, display)
}

// PlainTag emits the display value with no markup.
func PlainTag(_ detector.Match, display string) string {
	return display
}

// BracketTag emits "[Category:display]", useful in plain-text reports.
func BracketTag(m detector.Match, display string) string {
	return "[" + string(m.Category) + ":" + display + "]"
}

// Render replaces every match with its HTML-tagged raw or masked value.
func Render(text string, matches []detector.Match, masked bool) string {
	return RenderWith(text, matches, masked, HTMLTag)
}

// Redact returns text with every match replaced by its masked value.
func Redact(text string, matches []detector.Match) string {
	return RenderWith(text, matches, true, PlainTag)
}

// RenderWith applies matches from the highest start offset down so that
// offsets of matches not yet applied stay valid. Matches whose span falls
// outside the text or overlaps an already applied match are skipped.
func RenderWith(text string, matches []detector.Match, masked bool, tag TagFunc) string {
	if len(matches) == 0 {
		return text
	}
	if tag == nil {
		tag = PlainTag
	}

	ordered := make([]detector.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Span.Start > ordered[j].Span.Start
	})

	pieces := make([]string, 0, 2*len(ordered)+1)
	limit := len(text)
	for _, m := range ordered {
		if !m.Span.Valid(len(text)) || m.Span.End > limit {
			continue
		}
		pieces = append(pieces, text[m.Span.End:limit], tag(m, m.Display(masked)))
		limit = m.Span.Start
	}
	pieces = append(pieces, text[:limit])

	var b strings.Builder
	for i := len(pieces) - 1; i >= 0; i-- {
		b.WriteString(pieces[i])
	}
	return b.String()
}

var lineBreaks = strings.NewReplacer("\r\n", "<br/>", "\n", "<br/>")

// LineBreaks converts newlines for HTML display.
func LineBreaks(s string) string {
	return lineBreaks.Replace(s)
}
