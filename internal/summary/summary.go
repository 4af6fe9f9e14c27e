// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package summary reduces a match list to per-category counts.
package summary

import (
	"privacy-sentinel/internal/detector"
)

// Severity is the risk level attached to a category.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Summary is the aggregate of one category within a match list.
type Summary struct {
	Category          detector.Category `json:"category" yaml:"category"`
	Count             int               `json:"count" yaml:"count"`
	AverageConfidence float64           `json:"average_confidence" yaml:"average_confidence"`
	Severity          Severity          `json:"severity" yaml:"severity"`
}

// Summarize returns one entry per category present, in order of first
// occurrence. A match without a confidence counts as the default.
func Summarize(matches []detector.Match) []Summary {
	out := []Summary{}
	index := make(map[detector.Category]int)
	totals := []float64{}

	for _, m := range matches {
		i, ok := index[m.Category]
		if !ok {
			i = len(out)
			index[m.Category] = i
			out = append(out, Summary{Category: m.Category, Severity: SeverityFor(m.Category)})
			totals = append(totals, 0)
		}
		conf := m.Confidence
		if conf <= 0 {
			conf = detector.DefaultConfidence
		}
		out[i].Count++
		totals[i] += conf
	}

	for i := range out {
		out[i].AverageConfidence = totals[i] / float64(out[i].Count)
	}
	return out
}

// SeverityFor returns the risk level of category c. Financial and
// government identifiers are high, contact details and dates of birth are
// medium, everything else is low.
func SeverityFor(c detector.Category) Severity {
	switch c {
	case detector.Aadhaar, detector.CreditCard, detector.BankAccount, detector.Passport, detector.DriversLicense:
		return SeverityHigh
	case detector.Email, detector.Mobile, detector.Birthday:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Total returns the number of matches a summary list accounts for.
func Total(summaries []Summary) int {
	n := 0
	for _, s := range summaries {
		n += s.Count
	}
	return n
}

// Highest returns the most severe level present, or "" for an empty list.
func Highest(summaries []Summary) Severity {
	var best Severity
	for _, s := range summaries {
		switch {
		case s.Severity == SeverityHigh:
			return SeverityHigh
		case s.Severity == SeverityMedium:
			best = SeverityMedium
		case best == "":
			best = s.Severity
		}
	}
	return best
}
