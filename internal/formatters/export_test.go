// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/formatters"
	_ "privacy-sentinel/internal/formatters/csv"
	_ "privacy-sentinel/internal/formatters/json"
	_ "privacy-sentinel/internal/formatters/text"
	_ "privacy-sentinel/internal/formatters/yaml"
)

// sampleReport holds one email on line 2 preceded by a multi-byte name.
func sampleReport() *formatters.Report {
	text := "Résumé of Zoë\nmail: zoe@example.com\n"
	start := strings.Index(text, "zoe@example.com")
	return &formatters.Report{
		ScanID: "scan-1",
		Source: "cv.txt",
		Text:   text,
		Matches: []detector.Match{{
			Category:    detector.Email,
			RawValue:    "zoe@example.com",
			MaskedValue: "z****@e****",
			Span:        detector.Span{Start: start, End: start + len("zoe@example.com")},
			Confidence:  detector.DefaultConfidence,
			Source:      detector.SourcePattern,
		}},
	}
}

func TestRegistryListsFormats(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "text", "yaml"}, formatters.List())
	info := formatters.GetFormatInfo("json")
	assert.Equal(t, "application/json", info.MimeType)
	assert.Equal(t, ".json", info.Extension)
	assert.Empty(t, formatters.GetFormatInfo("sarif").Name)
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := formatters.Export("xml", sampleReport(), formatters.FormatterOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv, json, text, yaml")
}

func TestExport_JSONMasksByDefault(t *testing.T) {
	out, err := formatters.Export("json", sampleReport(), formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.NotContains(t, out, "zoe@example.com")

	var resp struct {
		Total   int `json:"total"`
		Results []struct {
			Value      string        `json:"value"`
			Level      string        `json:"confidence_level"`
			Severity   string        `json:"severity"`
			LineNumber int           `json:"line_number"`
			Span       detector.Span `json:"span"`
			CharSpan   detector.Span `json:"char_span"`
		} `json:"results"`
		Summary []struct {
			Category string `json:"category"`
			Count    int    `json:"count"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Total)
	r := resp.Results[0]
	assert.Equal(t, "z****@e****", r.Value)
	assert.Equal(t, "MEDIUM", r.Level)
	assert.Equal(t, "medium", r.Severity)
	assert.Equal(t, 2, r.LineNumber)
	assert.Equal(t, r.Span.Start-3, r.CharSpan.Start, "three two-byte runes precede the match")
	require.Len(t, resp.Summary, 1)
	assert.Equal(t, "Email", resp.Summary[0].Category)
}

func TestExport_JSONShowMatchVerbose(t *testing.T) {
	out, err := formatters.Export("json", sampleReport(), formatters.FormatterOptions{ShowMatch: true, Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, out, `"value": "zoe@example.com"`)
	assert.Contains(t, out, `"full_line": "mail: zoe@example.com"`)
	assert.Contains(t, out, `"before_text": "mail: "`)
}

func TestExport_VerboseLineIsRedacted(t *testing.T) {
	out, err := formatters.Export("yaml", sampleReport(), formatters.FormatterOptions{Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, out, "mail: z****@e****")
	assert.NotContains(t, out, "zoe@example.com")
	assert.NotContains(t, out, "before_text")
}

func TestExport_ConfidenceFilter(t *testing.T) {
	out, err := formatters.Export("json", sampleReport(), formatters.FormatterOptions{
		ConfidenceLevel: map[string]bool{"high": true},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 0`)
}

func TestExport_CSV(t *testing.T) {
	report := sampleReport()
	report.Suppressed = []detector.SuppressedMatch{{
		Match: detector.Match{
			Category:    detector.Mobile,
			RawValue:    "+91 9876543210",
			MaskedValue: "+91 ******3210",
			Span:        detector.Span{Start: 0, End: 1},
			Confidence:  detector.DefaultConfidence,
		},
		SuppressedBy: "SUP-1",
		RuleReason:   "test, fixture",
	}}

	out, err := formatters.Export("csv", report, formatters.FormatterOptions{Verbose: true})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Source,Category,Severity"))
	assert.Contains(t, lines[1], "cv.txt,Email,medium,MEDIUM,0.80,2,")
	assert.Contains(t, lines[1], "z****@e****")
	assert.Contains(t, lines[2], "SUPPRESSED")
	assert.Contains(t, lines[2], "'+91 ******3210", "formula characters are neutralized")
	assert.Contains(t, lines[2], `"SUP-1: test, fixture"`)
	assert.NotContains(t, out, "9876543210")
}

func TestExport_Text(t *testing.T) {
	out, err := formatters.Export("text", sampleReport(), formatters.FormatterOptions{NoColor: true, ShowRendered: true})
	require.NoError(t, err)
	assert.Contains(t, out, "[MEDIUM] medium   Email")
	assert.Contains(t, out, "line 2")
	assert.Contains(t, out, "z****@e****")
	assert.Contains(t, out, "Total: 1 matches in 1 categories, highest risk: medium")
	assert.Contains(t, out, "=== Rendered Text ===\nRésumé of Zoë\nmail: [Email:z****@e****]\n")
	assert.NotContains(t, out, "zoe@example.com")
}

func TestExport_TextEmpty(t *testing.T) {
	out, err := formatters.Export("text", &formatters.Report{Text: "nothing here"}, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "No PII found.\n", out)
}
