// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Category identifies a kind of personally identifiable information.
// The set is closed: every category has a catalog entry, a keyword set
// and a masking rule.
type Category string

const (
	Name           Category = "Name"
	Mobile         Category = "Mobile"
	Email          Category = "Email"
	Aadhaar        Category = "Aadhaar"
	CreditCard     Category = "CreditCard"
	BankAccount    Category = "BankAccount"
	Address        Category = "Address"
	Birthday       Category = "Birthday"
	Passport       Category = "Passport"
	DriversLicense Category = "DriversLicense"
)

var allCategories = []Category{
	Name, Mobile, Email, Aadhaar, CreditCard,
	BankAccount, Address, Birthday, Passport, DriversLicense,
}

// Categories returns every category in registration order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a category name case-insensitively. Separators such
// as spaces, underscores and hyphens are ignored so "credit_card" and
// "Drivers License" resolve as well.
func ParseCategory(s string) (Category, bool) {
	key := normalizeCategoryKey(s)
	if key == "" {
		return "", false
	}
	for _, c := range allCategories {
		if normalizeCategoryKey(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

func normalizeCategoryKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '\'':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Source records which pass produced a match.
type Source string

const (
	SourcePattern      Source = "pattern"
	SourceRecovered    Source = "recovered"
	SourceSupplemental Source = "supplemental"
)

// DefaultConfidence is assigned to every candidate until an external
// validator scores it.
const DefaultConfidence = 0.8

// Span is a half-open [Start, End) byte range into the scanned text.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the span width in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Valid reports whether the span is non-empty and lies within a text of
// textLen bytes.
func (s Span) Valid(textLen int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= textLen
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && s.End >= o.End
}

// Runes converts the byte span into code point offsets within text.
func (s Span) Runes(text string) Span {
	if !s.Valid(len(text)) {
		return s
	}
	start := utf8.RuneCountInString(text[:s.Start])
	return Span{Start: start, End: start + utf8.RuneCountInString(text[s.Start:s.End])}
}

// Match is a detected PII occurrence. RawValue is the literal substring of
// the scanned text at Span; Normalized is set only for recovered matches.
type Match struct {
	Category    Category `json:"category" yaml:"category"`
	RawValue    string   `json:"raw_value" yaml:"raw_value"`
	MaskedValue string   `json:"masked_value" yaml:"masked_value"`
	Span        Span     `json:"span" yaml:"span"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Source      Source   `json:"source,omitempty" yaml:"source,omitempty"`
	Normalized  string   `json:"normalized,omitempty" yaml:"normalized,omitempty"`
}

// Display returns the masked or raw value depending on mode.
func (m Match) Display(masked bool) string {
	if masked {
		return m.MaskedValue
	}
	return m.RawValue
}

// SuppressedMatch represents a finding that was suppressed by a rule
type SuppressedMatch struct {
	Match        Match      `json:"finding" yaml:"finding"`
	SuppressedBy string     `json:"suppressed_by" yaml:"suppressed_by"`
	RuleReason   string     `json:"rule_reason" yaml:"rule_reason"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired      bool       `json:"expired" yaml:"expired"`
}
