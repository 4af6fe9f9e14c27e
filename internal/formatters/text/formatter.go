// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"
	"time"

	"privacy-sentinel/internal/annotator"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/formatters"
	"privacy-sentinel/internal/formatters/shared"
	"privacy-sentinel/internal/summary"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct{}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

// palette holds the colors of one Format call
type palette map[string]*color.Color

func newPalette(noColor bool) palette {
	p := palette{
		"green":   color.New(color.FgGreen),
		"yellow":  color.New(color.FgYellow),
		"red":     color.New(color.FgRed),
		"cyan":    color.New(color.FgCyan),
		"magenta": color.New(color.FgMagenta),
		"blue":    color.New(color.FgBlue),
		"white":   color.New(color.FgWhite, color.Bold),
		"dim":     color.New(color.Faint),
		"mark":    color.New(color.FgBlack, color.BgYellow),
	}
	if noColor {
		for _, c := range p {
			c.DisableColor()
		}
	}
	return p
}

func (f *Formatter) Format(report *formatters.Report, options formatters.FormatterOptions) (string, error) {
	colors := newPalette(options.NoColor)
	matches := shared.FilterMatchesByConfidence(report.Matches, options)

	var b strings.Builder
	switch {
	case len(report.Matches) == 0 && len(report.Suppressed) == 0:
		b.WriteString("No PII found.\n")
	case len(matches) == 0 && len(report.Suppressed) == 0:
		b.WriteString("No matches found at the specified confidence levels.\n")
	default:
		width := f.valueColumnWidth(matches, options)
		f.appendHeaders(&b, colors, width)
		for _, m := range matches {
			f.appendMatchLine(&b, colors, report, m, width, options)
		}
		for _, s := range report.Suppressed {
			f.appendSuppressedLine(&b, colors, report, s, width)
		}
	}

	if len(matches) > 0 {
		b.WriteString("\n")
		f.appendSummary(&b, colors, summary.Summarize(matches))
	}

	if options.ShowRendered && report.Text != "" {
		b.WriteString("\n")
		colors["white"].Fprintf(&b, "=== Rendered Text ===\n")
		b.WriteString(f.highlight(report.Text, matches, colors, options))
		if !strings.HasSuffix(report.Text, "\n") {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// appendHeaders adds column headers to the string builder
func (f *Formatter) appendHeaders(b *strings.Builder, colors palette, width int) {
	header := fmt.Sprintf("%-8s %-8s %-16s %-6s %-10s %-13s %-*s\n",
		"LEVEL", "RISK", "CATEGORY", "CONF", "LINE", "CHARS", width, "VALUE")
	colors["white"].Fprint(b, header)
	colors["white"].Fprint(b, strings.Repeat("-", len(header)-1)+"\n")
}

// valueColumnWidth sizes the value column to the longest displayed value,
// capped at 40 characters
func (f *Formatter) valueColumnWidth(matches []detector.Match, options formatters.FormatterOptions) int {
	width := 10
	for _, m := range matches {
		if n := len([]rune(flatten(shared.DisplayValue(m, options)))); n > width {
			width = n
		}
	}
	if width > 40 {
		width = 40
	}
	return width
}

func (f *Formatter) appendMatchLine(b *strings.Builder, colors palette, report *formatters.Report, m detector.Match, width int, options formatters.FormatterOptions) {
	level := shared.GetConfidenceLevel(m.Confidence)
	levelColor := colors["green"]
	switch level {
	case "HIGH":
		levelColor = colors["red"]
	case "MEDIUM":
		levelColor = colors["yellow"]
	}

	ctx := shared.MatchContext(report.Text, m, report.Matches, options)
	chars := m.Span.Runes(report.Text)

	levelColor.Fprintf(b, "[%-6s]", level)
	b.WriteString(" ")
	f.severityColor(colors, summary.SeverityFor(m.Category)).Fprintf(b, "%-8s", summary.SeverityFor(m.Category))
	b.WriteString(" ")
	colors["cyan"].Fprintf(b, "%-16s", m.Category)
	b.WriteString(" ")
	colors["blue"].Fprintf(b, "%-6.2f", m.Confidence)
	b.WriteString(" ")
	colors["magenta"].Fprintf(b, "line %-5d", ctx.LineNumber)
	b.WriteString(" ")
	fmt.Fprintf(b, "%-13s", fmt.Sprintf("%d-%d", chars.Start, chars.End))
	b.WriteString(" ")
	b.WriteString(pad(truncate(flatten(shared.DisplayValue(m, options)), width), width))
	if m.Source != "" && m.Source != detector.SourcePattern {
		colors["dim"].Fprintf(b, " (%s)", m.Source)
	}
	b.WriteString("\n")

	if options.Verbose && ctx.FullLine != "" {
		colors["dim"].Fprintf(b, "         %s\n", flatten(ctx.FullLine))
	}
}

func (f *Formatter) appendSuppressedLine(b *strings.Builder, colors palette, report *formatters.Report, s detector.SuppressedMatch, width int) {
	m := s.Match
	chars := m.Span.Runes(report.Text)
	line := detector.NewContextExtractor().Extract(report.Text, m.Span).LineNumber
	colors["dim"].Fprintf(b, "[%-6s] %-8s %-16s %-6.2f line %-5d %-13s %s  %s: %s (%s)\n",
		"SUPP", summary.SeverityFor(m.Category), m.Category, m.Confidence, line,
		fmt.Sprintf("%d-%d", chars.Start, chars.End), pad(truncate(m.MaskedValue, width), width),
		s.SuppressedBy, s.RuleReason, formatExpirationStatus(s.ExpiresAt))
}

func (f *Formatter) appendSummary(b *strings.Builder, colors palette, sums []summary.Summary) {
	colors["white"].Fprintf(b, "%-16s %-6s %-9s %s\n", "CATEGORY", "COUNT", "AVG CONF", "RISK")
	for _, s := range sums {
		colors["cyan"].Fprintf(b, "%-16s", s.Category)
		fmt.Fprintf(b, " %-6d %-9.2f ", s.Count, s.AverageConfidence)
		f.severityColor(colors, s.Severity).Fprintf(b, "%s\n", s.Severity)
	}
	highest := summary.Highest(sums)
	fmt.Fprintf(b, "Total: %d matches in %d categories, highest risk: ", summary.Total(sums), len(sums))
	f.severityColor(colors, highest).Fprintf(b, "%s\n", highest)
}

func (f *Formatter) severityColor(colors palette, s summary.Severity) *color.Color {
	switch s {
	case summary.SeverityHigh:
		return colors["red"]
	case summary.SeverityMedium:
		return colors["yellow"]
	}
	return colors["green"]
}

// highlight renders text with each match shown as [Category:value]
func (f *Formatter) highlight(text string, matches []detector.Match, colors palette, options formatters.FormatterOptions) string {
	return annotator.RenderWith(text, matches, !options.ShowMatch, func(m detector.Match, display string) string {
		return colors["mark"].Sprint(annotator.BracketTag(m, display))
	})
}

// formatExpirationStatus returns a human-readable expiration status
func formatExpirationStatus(expiresAt *time.Time) string {
	if expiresAt == nil {
		return "never expires"
	}
	if time.Now().After(*expiresAt) {
		return "expired"
	}
	days := int(time.Until(*expiresAt).Hours() / 24)
	switch days {
	case 0:
		return "expires today"
	case 1:
		return "expires in 1 day"
	}
	return fmt.Sprintf("expires in %d days", days)
}

func flatten(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s)
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
