// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"privacy-sentinel/internal/annotator"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/observability"
	"privacy-sentinel/internal/resolver"
	"privacy-sentinel/internal/scanner"
	"privacy-sentinel/internal/summary"
	"privacy-sentinel/internal/supplemental"
)

// DefaultCollaboratorTimeout bounds one supplemental call when no timeout
// is configured
const DefaultCollaboratorTimeout = 10 * time.Second

// Engine runs the detection pipeline: native scan, optional supplemental
// candidates, conflict resolution and optional validation. An Engine is
// safe for concurrent use.
type Engine struct {
	scanner   *scanner.Scanner
	detector  supplemental.Detector
	validator supplemental.Validator
	timeout   time.Duration
	enabled   map[detector.Category]bool
	observer  *observability.StandardObserver
}

type engineOptions struct {
	detector   supplemental.Detector
	validator  supplemental.Validator
	timeout    time.Duration
	categories map[detector.Category]bool
	window     int
	observer   *observability.StandardObserver
}

// Option configures an Engine
type Option func(*engineOptions)

// WithSupplemental adds a supplemental candidate source
func WithSupplemental(d supplemental.Detector) Option {
	return func(o *engineOptions) { o.detector = d }
}

// WithValidator adds a confidence validator applied to final matches
func WithValidator(v supplemental.Validator) Option {
	return func(o *engineOptions) { o.validator = v }
}

// WithCollaboratorTimeout bounds each supplemental detection call and the
// whole validation pass
func WithCollaboratorTimeout(d time.Duration) Option {
	return func(o *engineOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithCategories restricts detection to the given categories. A nil or
// empty set enables all.
func WithCategories(set map[detector.Category]bool) Option {
	return func(o *engineOptions) { o.categories = set }
}

// WithContextWindow sets the keyword look-back distance in characters
func WithContextWindow(n int) Option {
	return func(o *engineOptions) { o.window = n }
}

// WithObserver sets the observer used for timing and logging
func WithObserver(obs *observability.StandardObserver) Option {
	return func(o *engineOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// NewEngine creates an Engine. Without options it runs the native scan
// only, over every category.
func NewEngine(opts ...Option) *Engine {
	o := engineOptions{
		timeout:  DefaultCollaboratorTimeout,
		window:   detector.DefaultContextWindow,
		observer: observability.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	scanOpts := []scanner.Option{scanner.WithContextWindow(o.window)}
	var enabled map[detector.Category]bool
	if len(o.categories) > 0 {
		enabled = make(map[detector.Category]bool, len(o.categories))
		for c, on := range o.categories {
			enabled[c] = on
		}
		scanOpts = append(scanOpts, scanner.WithCategories(enabled))
	}

	return &Engine{
		scanner:   scanner.New(scanOpts...),
		detector:  o.detector,
		validator: o.validator,
		timeout:   o.timeout,
		enabled:   enabled,
		observer:  o.observer,
	}
}

// Observer returns the engine's observer
func (e *Engine) Observer() *observability.StandardObserver {
	return e.observer
}

// Detect returns the final, non-overlapping matches for text sorted by
// start offset. Collaborator failures are logged and never fail detection.
func (e *Engine) Detect(ctx context.Context, text string) []detector.Match {
	finish := e.observer.StartTiming("engine", "detect", "")

	candidates := e.scanner.Scan(text)
	native := len(candidates)
	added := 0
	if e.detector != nil && strings.TrimSpace(text) != "" {
		extra := e.supplementalCandidates(ctx, text)
		added = len(extra)
		candidates = append(candidates, extra...)
	}

	matches := resolver.Resolve(candidates)
	if e.validator != nil && len(matches) > 0 {
		matches = e.validate(ctx, matches)
	}

	finish(true, map[string]interface{}{
		"native_candidates":       native,
		"supplemental_candidates": added,
		"matches":                 len(matches),
		"text_bytes":              len(text),
	})
	return matches
}

func (e *Engine) supplementalCandidates(ctx context.Context, text string) []detector.Match {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var step func(bool, string)
	if e.observer.DebugObserver != nil {
		step = e.observer.DebugObserver.StartStep("engine", "supplemental detection", "")
	}

	cands, err := e.detector.Detect(ctx, text)
	if err != nil {
		e.observer.Logger().Warn().Err(err).Msg("supplemental detection failed; continuing with native matches")
		if step != nil {
			step(false, err.Error())
		}
		return nil
	}

	matches := supplemental.ToMatches(text, cands)
	if e.enabled != nil {
		kept := matches[:0]
		for _, m := range matches {
			if e.enabled[m.Category] {
				kept = append(kept, m)
			}
		}
		matches = kept
	}
	if step != nil {
		step(true, fmt.Sprintf("%d candidates, %d occurrences", len(cands), len(matches)))
	}
	return matches
}

// validate scores every match. Invalid verdicts drop the match; errors and
// unscored verdicts keep its current confidence.
func (e *Engine) validate(ctx context.Context, matches []detector.Match) []detector.Match {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out := make([]detector.Match, 0, len(matches))
	failures := 0
	for _, m := range matches {
		verdict, err := e.validator.Validate(ctx, m.RawValue, m.Category)
		if err != nil {
			failures++
			out = append(out, m)
			continue
		}
		if !verdict.Valid {
			continue
		}
		// A verdict without a score keeps the detector's confidence.
		if verdict.Confidence > 0 {
			m.Confidence = clamp(verdict.Confidence)
		}
		out = append(out, m)
	}
	if failures > 0 {
		e.observer.Logger().Warn().Int("failures", failures).Int("matches", len(matches)).
			Msg("confidence validation incomplete; unvalidated matches keep default confidence")
	}
	return out
}

// Summarize aggregates matches per category
func (e *Engine) Summarize(matches []detector.Match) []summary.Summary {
	return summary.Summarize(matches)
}

// Render returns text with every match wrapped in a highlight tag
func (e *Engine) Render(text string, matches []detector.Match, masked bool) string {
	return annotator.Render(text, matches, masked)
}

func clamp(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
