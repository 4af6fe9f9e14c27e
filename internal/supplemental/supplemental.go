// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package supplemental defines the optional external collaborators of the
// engine: a detector that proposes extra (category, value) candidates and a
// validator that scores a single finding. Both are reached through an
// explicit handle; there is no process-wide client.
package supplemental

import (
	"context"
	"errors"
	"strings"

	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/masker"
)

var (
	// ErrCollaboratorUnavailable wraps transport, auth and quota failures.
	ErrCollaboratorUnavailable = errors.New("supplemental collaborator unavailable")
	// ErrMalformedResponse is returned when a reply cannot be parsed.
	ErrMalformedResponse = errors.New("malformed collaborator response")
)

// Candidate is a literal value proposed by a collaborator.
type Candidate struct {
	Category detector.Category `json:"type"`
	Value    string            `json:"value"`
}

// Detector proposes candidates for a text.
type Detector interface {
	Detect(ctx context.Context, text string) ([]Candidate, error)
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(ctx context.Context, text string) ([]Candidate, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, text string) ([]Candidate, error) {
	return f(ctx, text)
}

// Verdict is a validator's opinion of one finding.
type Verdict struct {
	Valid      bool    `json:"isValid"`
	Confidence float64 `json:"confidence"`
}

// Validator scores a single value against its supposed category.
type Validator interface {
	Validate(ctx context.Context, value string, category detector.Category) (Verdict, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, value string, category detector.Category) (Verdict, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, value string, category detector.Category) (Verdict, error) {
	return f(ctx, value, category)
}

// Noop is a Detector and Validator that never contributes anything.
type Noop struct{}

// Detect returns no candidates.
func (Noop) Detect(context.Context, string) ([]Candidate, error) { return nil, nil }

// Validate accepts the value at the default confidence.
func (Noop) Validate(context.Context, string, detector.Category) (Verdict, error) {
	return Verdict{Valid: true, Confidence: detector.DefaultConfidence}, nil
}

// Occurrences returns every position of value in text, including
// overlapping ones.
func Occurrences(text, value string) []detector.Span {
	if value == "" {
		return nil
	}
	var out []detector.Span
	for from := 0; from <= len(text)-len(value); {
		i := strings.Index(text[from:], value)
		if i < 0 {
			break
		}
		start := from + i
		out = append(out, detector.Span{Start: start, End: start + len(value)})
		from = start + 1
	}
	return out
}

// ToMatches turns candidates into matches, one per literal occurrence.
// Candidates with a category outside the closed set or an empty value are
// dropped, as are values that do not occur in text.
func ToMatches(text string, candidates []Candidate) []detector.Match {
	var out []detector.Match
	for _, c := range candidates {
		if !c.Category.Valid() || strings.TrimSpace(c.Value) == "" {
			continue
		}
		masked := masker.Mask(c.Value, c.Category)
		for _, span := range Occurrences(text, c.Value) {
			out = append(out, detector.Match{
				Category:    c.Category,
				RawValue:    c.Value,
				MaskedValue: masked,
				Span:        span,
				Confidence:  detector.DefaultConfidence,
				Source:      detector.SourceSupplemental,
			})
		}
	}
	return out
}
