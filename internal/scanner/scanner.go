// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scanner runs obfuscation recovery and the pattern catalog over a
// text and returns every accepted candidate. Candidates may overlap; the
// resolver package produces the final list.
package scanner

import (
	"regexp"
	"strings"

	"privacy-sentinel/internal/catalog"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/masker"
	"privacy-sentinel/internal/recovery"
)

// urlToken matches a scheme:// token up to the next blank or quote.
var urlToken = regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.\-]*://[^\s<>"']*`)

// Scanner holds the per-call settings of a scan. It keeps no state between
// calls and is safe for concurrent use.
type Scanner struct {
	entries    []catalog.Entry
	window     int
	enabled    map[detector.Category]bool
	noRecovery bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithContextWindow sets the number of characters inspected on each side
// of a candidate.
func WithContextWindow(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithCategories restricts the scan to the given categories. An empty set
// enables every category.
func WithCategories(enabled map[detector.Category]bool) Option {
	return func(s *Scanner) {
		if len(enabled) > 0 {
			s.enabled = enabled
		}
	}
}

// WithoutRecovery disables the obfuscation recovery pass.
func WithoutRecovery() Option {
	return func(s *Scanner) { s.noRecovery = true }
}

// New returns a Scanner over the full catalog.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		entries: catalog.Entries(),
		window:  detector.DefaultContextWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns unresolved candidates: recovered values first, then the
// pattern hits of each category in catalog order.
func (s *Scanner) Scan(text string) []detector.Match {
	matches := []detector.Match{}
	if strings.TrimSpace(text) == "" {
		return matches
	}

	urls := urlSpans(text)

	var recovered []detector.Span
	if !s.noRecovery {
		for _, m := range recovery.Recover(text) {
			if !s.categoryEnabled(m.Category) || overlapsAny(m.Span, urls) {
				continue
			}
			recovered = append(recovered, m.Span)
			matches = append(matches, m)
		}
	}

	for _, entry := range s.entries {
		if !s.categoryEnabled(entry.Category) {
			continue
		}
		for _, c := range entry.FindAll(text) {
			if overlapsAny(c.Span, urls) || containedInAny(c.Span, recovered) {
				continue
			}
			if !s.contextSatisfied(text, entry, c) {
				continue
			}
			matches = append(matches, detector.Match{
				Category:    entry.Category,
				RawValue:    c.Value,
				MaskedValue: masker.Mask(c.Value, entry.Category),
				Span:        c.Span,
				Confidence:  detector.DefaultConfidence,
				Source:      detector.SourcePattern,
			})
		}
	}
	return matches
}

func (s *Scanner) categoryEnabled(c detector.Category) bool {
	return s.enabled == nil || s.enabled[c]
}

func (s *Scanner) contextSatisfied(text string, entry catalog.Entry, c catalog.Candidate) bool {
	if !entry.RequiresContext {
		return true
	}
	if detector.ContextWaived(text, entry.Category, c.Span.Start, c.Value) {
		return true
	}
	return detector.HasContext(text, c.Span.Start, entry.Keywords, s.window)
}

func urlSpans(text string) []detector.Span {
	var out []detector.Span
	for _, loc := range urlToken.FindAllStringIndex(text, -1) {
		out = append(out, detector.Span{Start: loc[0], End: loc[1]})
	}
	return out
}

func overlapsAny(span detector.Span, spans []detector.Span) bool {
	for _, o := range spans {
		if span.Overlaps(o) {
			return true
		}
	}
	return false
}

func containedInAny(span detector.Span, spans []detector.Span) bool {
	for _, o := range spans {
		if o.Contains(span) {
			return true
		}
	}
	return false
}
