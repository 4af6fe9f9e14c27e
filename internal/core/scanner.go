// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"privacy-sentinel/internal/annotator"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/ingest"
	"privacy-sentinel/internal/observability"
	"privacy-sentinel/internal/summary"
	"privacy-sentinel/internal/suppressions"

	"github.com/google/uuid"
)

// ScanConfig holds configuration for scanning operations.
type ScanConfig struct {
	// Engine runs detection; nil uses a native-only engine.
	Engine *Engine
	// FilePath is read by ScanFile.
	FilePath string
	// Text is scanned by ScanText; Source labels it in reports.
	Text   string
	Source string
	Ingest ingest.Options
	// Render adds an annotated rendition of the text to the result.
	Render bool
	Masked bool
	// SuppressionManager, when non-nil, is applied to matches before returning.
	SuppressionManager *suppressions.SuppressionManager
}

// ScanResult holds the results of a scanning operation.
type ScanResult struct {
	ScanID            string                     `json:"scan_id" yaml:"scan_id"`
	Source            string                     `json:"source" yaml:"source"`
	Text              string                     `json:"-" yaml:"-"`
	Document          *ingest.Document           `json:"document,omitempty" yaml:"document,omitempty"`
	Matches           []detector.Match           `json:"matches" yaml:"matches"`
	SuppressedMatches []detector.SuppressedMatch `json:"suppressed_matches,omitempty" yaml:"suppressed_matches,omitempty"`
	Summary           []summary.Summary          `json:"summary" yaml:"summary"`
	Rendered          string                     `json:"rendered,omitempty" yaml:"rendered,omitempty"`
	Duration          time.Duration              `json:"-" yaml:"-"`
}

// ScanText detects, suppresses, summarizes and optionally renders
// scanConfig.Text.
func ScanText(ctx context.Context, scanConfig ScanConfig) (*ScanResult, error) {
	source := scanConfig.Source
	if source == "" {
		source = "text"
	}
	return scan(ctx, scanConfig, source, scanConfig.Text, nil), nil
}

// ScanFile performs the core scanning logic shared by the CLI and the web
// server: ingest, detect, suppress, summarize, render.
func ScanFile(ctx context.Context, scanConfig ScanConfig) (*ScanResult, error) {
	if scanConfig.FilePath == "" {
		return nil, errors.New("no file to scan")
	}
	doc, err := ingest.Extract(scanConfig.FilePath, scanConfig.Ingest)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", scanConfig.FilePath, err)
	}
	return scan(ctx, scanConfig, scanConfig.FilePath, doc.Text, doc), nil
}

// ScanDocument runs the scan over an already extracted document.
func ScanDocument(ctx context.Context, scanConfig ScanConfig, doc *ingest.Document) *ScanResult {
	return scan(ctx, scanConfig, doc.Path, doc.Text, doc)
}

func scan(ctx context.Context, scanConfig ScanConfig, source, text string, doc *ingest.Document) *ScanResult {
	start := time.Now()
	engine := scanConfig.Engine
	if engine == nil {
		engine = NewEngine()
	}

	matches := engine.Detect(ctx, text)
	var suppressed []detector.SuppressedMatch
	if scanConfig.SuppressionManager != nil {
		matches, suppressed = scanConfig.SuppressionManager.Apply(matches)
		scanConfig.SuppressionManager.MarkSeen(suppressed)
	}

	result := &ScanResult{
		ScanID:            uuid.NewString(),
		Source:            source,
		Text:              text,
		Document:          doc,
		Matches:           matches,
		SuppressedMatches: suppressed,
		Summary:           summary.Summarize(matches),
	}
	if scanConfig.Render {
		result.Rendered = annotator.Render(text, matches, scanConfig.Masked)
	}
	result.Duration = time.Since(start)

	engine.Observer().LogOperation(observabilityRecord(result))
	return result
}

// ParseCategories converts "all", "" or a comma-separated list of category
// names into an enabled set. Unknown names are an error.
func ParseCategories(list string) (map[detector.Category]bool, error) {
	result := make(map[detector.Category]bool)
	trimmed := strings.TrimSpace(list)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		for _, c := range detector.Categories() {
			result[c] = true
		}
		return result, nil
	}

	var unknown []string
	for _, name := range strings.Split(trimmed, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, ok := detector.ParseCategory(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		result[c] = true
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown categories: %s", strings.Join(unknown, ", "))
	}
	return result, nil
}

// ParseConfidenceLevels converts a comma-separated confidence level string into a map.
// "all" or empty string enables every level.
func ParseConfidenceLevels(levels string) map[string]bool {
	result := map[string]bool{
		"high":   false,
		"medium": false,
		"low":    false,
	}

	if levels == "all" || levels == "" {
		result["high"] = true
		result["medium"] = true
		result["low"] = true
		return result
	}

	for _, level := range strings.Split(levels, ",") {
		switch l := strings.ToLower(strings.TrimSpace(level)); l {
		case "high", "medium", "low":
			result[l] = true
		}
	}

	return result
}

// ConfidenceLevel buckets a confidence score into high, medium or low.
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "high"
	case confidence >= 0.6:
		return "medium"
	}
	return "low"
}

// FilterByConfidence keeps matches whose confidence bucket is enabled.
func FilterByConfidence(matches []detector.Match, levels map[string]bool) []detector.Match {
	out := make([]detector.Match, 0, len(matches))
	for _, m := range matches {
		if levels[ConfidenceLevel(m.Confidence)] {
			out = append(out, m)
		}
	}
	return out
}

func observabilityRecord(result *ScanResult) observability.OperationData {
	return observability.OperationData{
		Component:  "core",
		Operation:  "scan",
		RequestID:  result.ScanID,
		Target:     result.Source,
		DurationMs: result.Duration.Milliseconds(),
		Success:    true,
		Metadata: map[string]interface{}{
			"matches":    len(result.Matches),
			"suppressed": len(result.SuppressedMatches),
			"categories": len(result.Summary),
		},
	}
}
