// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"strings"
	"time"

	"privacy-sentinel/internal/annotator"
	"privacy-sentinel/internal/core"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/formatters"
	"privacy-sentinel/internal/summary"
)

// JSONResponse represents the top-level response structure for JSON/YAML output
type JSONResponse struct {
	ScanID     string           `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	Source     string           `json:"source,omitempty" yaml:"source,omitempty"`
	Total      int              `json:"total" yaml:"total"`
	Results    []JSONMatch      `json:"results" yaml:"results"`
	Summary    []JSONSummary    `json:"summary" yaml:"summary"`
	Suppressed []JSONSuppressed `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Rendered   string           `json:"rendered,omitempty" yaml:"rendered,omitempty"`
}

// JSONMatch represents a single match in JSON/YAML format. Value holds the
// raw text only when ShowMatch is set and the masked text otherwise.
type JSONMatch struct {
	Category        detector.Category `json:"category" yaml:"category"`
	Value           string            `json:"value" yaml:"value"`
	MaskedValue     string            `json:"masked_value" yaml:"masked_value"`
	Normalized      string            `json:"normalized,omitempty" yaml:"normalized,omitempty"`
	Confidence      float64           `json:"confidence" yaml:"confidence"`
	ConfidenceLevel string            `json:"confidence_level" yaml:"confidence_level"`
	Severity        summary.Severity  `json:"severity" yaml:"severity"`
	Source          detector.Source   `json:"source,omitempty" yaml:"source,omitempty"`
	Span            detector.Span     `json:"span" yaml:"span"`
	CharSpan        detector.Span     `json:"char_span" yaml:"char_span"`
	LineNumber      int               `json:"line_number" yaml:"line_number"`
	FullLine        string            `json:"full_line,omitempty" yaml:"full_line,omitempty"`
	BeforeText      string            `json:"before_text,omitempty" yaml:"before_text,omitempty"`
	AfterText       string            `json:"after_text,omitempty" yaml:"after_text,omitempty"`
}

// JSONSummary is one row of the per-category summary
type JSONSummary struct {
	Category          detector.Category `json:"category" yaml:"category"`
	Count             int               `json:"count" yaml:"count"`
	AverageConfidence float64           `json:"average_confidence" yaml:"average_confidence"`
	Severity          summary.Severity  `json:"severity" yaml:"severity"`
}

// JSONSuppressed is a suppressed finding. The raw value is never emitted.
type JSONSuppressed struct {
	Category     detector.Category `json:"category" yaml:"category"`
	MaskedValue  string            `json:"masked_value" yaml:"masked_value"`
	Span         detector.Span     `json:"span" yaml:"span"`
	LineNumber   int               `json:"line_number" yaml:"line_number"`
	SuppressedBy string            `json:"suppressed_by" yaml:"suppressed_by"`
	RuleReason   string            `json:"rule_reason" yaml:"rule_reason"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// FilterMatchesByConfidence filters matches based on confidence level settings
func FilterMatchesByConfidence(matches []detector.Match, options formatters.FormatterOptions) []detector.Match {
	return core.FilterByConfidence(matches, options.ConfidenceLevel)
}

// GetConfidenceLevel returns the confidence level as an upper-case label
func GetConfidenceLevel(confidence float64) string {
	return strings.ToUpper(core.ConfidenceLevel(confidence))
}

// DisplayValue returns the value a report may show for m
func DisplayValue(m detector.Match, options formatters.FormatterOptions) string {
	return m.Display(!options.ShowMatch)
}

// MatchContext returns the line around m. Unless ShowMatch is set the line
// is redacted and the before/after snippets are omitted.
func MatchContext(text string, m detector.Match, all []detector.Match, options formatters.FormatterOptions) detector.ContextInfo {
	info := detector.NewContextExtractor().Extract(text, m.Span)
	if options.ShowMatch || info.FullLine == "" {
		return info
	}

	lineStart := strings.LastIndexByte(text[:m.Span.Start], '\n') + 1
	lineEnd := lineStart + len(info.FullLine)
	var inLine []detector.Match
	for _, other := range all {
		if other.Span.Start >= lineStart && other.Span.End <= lineEnd {
			other.Span = detector.Span{Start: other.Span.Start - lineStart, End: other.Span.End - lineStart}
			inLine = append(inLine, other)
		}
	}
	return detector.ContextInfo{
		LineNumber: info.LineNumber,
		FullLine:   annotator.Redact(info.FullLine, inLine),
	}
}

// ConvertToJSONFormat converts a report to the JSON/YAML structure
func ConvertToJSONFormat(report *formatters.Report, options formatters.FormatterOptions) JSONResponse {
	matches := FilterMatchesByConfidence(report.Matches, options)

	results := make([]JSONMatch, 0, len(matches))
	for _, m := range matches {
		jm := JSONMatch{
			Category:        m.Category,
			Value:           DisplayValue(m, options),
			MaskedValue:     m.MaskedValue,
			Confidence:      m.Confidence,
			ConfidenceLevel: GetConfidenceLevel(m.Confidence),
			Severity:        summary.SeverityFor(m.Category),
			Source:          m.Source,
			Span:            m.Span,
			CharSpan:        m.Span.Runes(report.Text),
		}
		if options.ShowMatch {
			jm.Normalized = m.Normalized
		}

		ctx := MatchContext(report.Text, m, report.Matches, options)
		jm.LineNumber = ctx.LineNumber
		if options.Verbose {
			jm.FullLine = ctx.FullLine
			jm.BeforeText = ctx.BeforeText
			jm.AfterText = ctx.AfterText
		}
		results = append(results, jm)
	}

	sums := summary.Summarize(matches)
	jsonSums := make([]JSONSummary, 0, len(sums))
	for _, s := range sums {
		jsonSums = append(jsonSums, JSONSummary(s))
	}

	var suppressed []JSONSuppressed
	for _, s := range report.Suppressed {
		suppressed = append(suppressed, JSONSuppressed{
			Category:     s.Match.Category,
			MaskedValue:  s.Match.MaskedValue,
			Span:         s.Match.Span,
			LineNumber:   detector.NewContextExtractor().Extract(report.Text, s.Match.Span).LineNumber,
			SuppressedBy: s.SuppressedBy,
			RuleReason:   s.RuleReason,
			ExpiresAt:    s.ExpiresAt,
		})
	}

	resp := JSONResponse{
		ScanID:     report.ScanID,
		Source:     report.Source,
		Total:      len(results),
		Results:    results,
		Summary:    jsonSums,
		Suppressed: suppressed,
	}
	if options.ShowRendered {
		resp.Rendered = report.Rendered
	}
	return resp
}
