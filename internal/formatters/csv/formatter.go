// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"fmt"
	"strings"

	"privacy-sentinel/internal/formatters"
	"privacy-sentinel/internal/formatters/shared"
	"privacy-sentinel/internal/summary"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(report *formatters.Report, options formatters.FormatterOptions) (string, error) {
	matches := shared.FilterMatchesByConfidence(report.Matches, options)

	headers := []string{"Source", "Category", "Severity", "Confidence Level", "Confidence", "Line", "Start", "End", "Char Start", "Char End", "Value"}
	if options.Verbose {
		headers = append(headers, "Line Text")
	}
	rows := []string{strings.Join(headers, ",")}

	for _, m := range matches {
		charSpan := m.Span.Runes(report.Text)
		ctx := shared.MatchContext(report.Text, m, report.Matches, options)
		row := []string{
			f.escapeCSVField(report.Source),
			f.escapeCSVField(string(m.Category)),
			string(summary.SeverityFor(m.Category)),
			shared.GetConfidenceLevel(m.Confidence),
			fmt.Sprintf("%.2f", m.Confidence),
			fmt.Sprintf("%d", ctx.LineNumber),
			fmt.Sprintf("%d", m.Span.Start),
			fmt.Sprintf("%d", m.Span.End),
			fmt.Sprintf("%d", charSpan.Start),
			fmt.Sprintf("%d", charSpan.End),
			f.escapeCSVField(shared.DisplayValue(m, options)),
		}
		if options.Verbose {
			row = append(row, f.escapeCSVField(ctx.FullLine))
		}
		rows = append(rows, strings.Join(row, ","))
	}

	for _, s := range report.Suppressed {
		m := s.Match
		charSpan := m.Span.Runes(report.Text)
		row := []string{
			f.escapeCSVField(report.Source),
			f.escapeCSVField(string(m.Category)),
			string(summary.SeverityFor(m.Category)),
			"SUPPRESSED",
			fmt.Sprintf("%.2f", m.Confidence),
			"",
			fmt.Sprintf("%d", m.Span.Start),
			fmt.Sprintf("%d", m.Span.End),
			fmt.Sprintf("%d", charSpan.Start),
			fmt.Sprintf("%d", charSpan.End),
			f.escapeCSVField(m.MaskedValue),
		}
		if options.Verbose {
			row = append(row, f.escapeCSVField(s.SuppressedBy+": "+s.RuleReason))
		}
		rows = append(rows, strings.Join(row, ","))
	}

	return strings.Join(rows, "\n") + "\n", nil
}

// escapeCSVField properly escapes a field for CSV format and prevents CSV injection
func (f *Formatter) escapeCSVField(field string) string {
	field = f.sanitizeFormulaInjection(field)

	// If field contains comma, quote, or newline, wrap in quotes and escape internal quotes
	if strings.ContainsAny(field, ",\"\n\r") {
		return "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
	}
	return field
}

// sanitizeFormulaInjection prefixes values a spreadsheet would evaluate as
// a formula
func (f *Formatter) sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@':
		return "'" + field
	}
	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
