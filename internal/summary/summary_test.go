// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-sentinel/internal/detector"
)

func TestSummarize(t *testing.T) {
	matches := []detector.Match{
		{Category: detector.Mobile, Confidence: 0.8},
		{Category: detector.Email, Confidence: 0.9},
		{Category: detector.Mobile, Confidence: 0.6},
		{Category: detector.Email},
	}
	got := Summarize(matches)
	require.Len(t, got, 2)

	assert.Equal(t, detector.Mobile, got[0].Category, "first occurrence order")
	assert.Equal(t, 2, got[0].Count)
	assert.InDelta(t, 0.7, got[0].AverageConfidence, 1e-9)
	assert.Equal(t, SeverityMedium, got[0].Severity)

	assert.Equal(t, detector.Email, got[1].Category)
	assert.InDelta(t, 0.85, got[1].AverageConfidence, 1e-9, "missing confidence counts as default")

	assert.Equal(t, len(matches), Total(got))
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 0, Total(got))
	assert.Equal(t, Severity(""), Highest(got))
}

func TestSeverityFor(t *testing.T) {
	tests := map[detector.Category]Severity{
		detector.Aadhaar:        SeverityHigh,
		detector.CreditCard:     SeverityHigh,
		detector.BankAccount:    SeverityHigh,
		detector.Passport:       SeverityHigh,
		detector.DriversLicense: SeverityHigh,
		detector.Email:          SeverityMedium,
		detector.Mobile:         SeverityMedium,
		detector.Birthday:       SeverityMedium,
		detector.Name:           SeverityLow,
		detector.Address:        SeverityLow,
	}
	for c, want := range tests {
		assert.Equal(t, want, SeverityFor(c), c)
	}
}

func TestHighest(t *testing.T) {
	assert.Equal(t, SeverityLow, Highest([]Summary{{Severity: SeverityLow}}))
	assert.Equal(t, SeverityMedium, Highest([]Summary{{Severity: SeverityLow}, {Severity: SeverityMedium}}))
	assert.Equal(t, SeverityHigh, Highest([]Summary{{Severity: SeverityMedium}, {Severity: SeverityHigh}, {Severity: SeverityLow}}))
}
