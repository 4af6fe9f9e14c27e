// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiresContext(t *testing.T) {
	for _, c := range []Category{Email, Aadhaar, CreditCard} {
		assert.False(t, RequiresContext(c), c)
	}
	for _, c := range []Category{Name, Mobile, BankAccount, Address, Birthday, Passport, DriversLicense} {
		assert.True(t, RequiresContext(c), c)
	}
}

func TestContextWaived(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category Category
		value    string
		want     bool
	}{
		{"name at start", "John Smith called", Name, "John Smith", true},
		{"name after period", "Hello. John Smith called", Name, "John Smith", true},
		{"name after question mark", "Who?\nJohn Smith", Name, "John Smith", true},
		{"name mid sentence", "I met John Smith", Name, "John Smith", false},
		{"name after period without space", "end.John Smith", Name, "John Smith", false},
		{"mobile with prefix", "+91 9876543210", Mobile, "+91 9876543210", true},
		{"mobile without prefix", "call 9876543210", Mobile, "9876543210", false},
		{"bank account never waived", "123456789012", BankAccount, "123456789012", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := strings.Index(tt.text, tt.value)
			assert.Equal(t, tt.want, ContextWaived(tt.text, tt.category, start, tt.value))
		})
	}
}

func TestHasContext(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		value    string
		keywords []string
		window   int
		want     bool
	}{
		{
			name:     "keyword before",
			text:     "My bank details: 123456789012",
			value:    "123456789012",
			keywords: []string{"account", "bank"},
			want:     true,
		},
		{
			name:     "keyword after",
			text:     "123456789012 is my account",
			value:    "123456789012",
			keywords: []string{"account"},
			want:     true,
		},
		{
			name:     "case folded",
			text:     "PASSPORT A1234567",
			value:    "A1234567",
			keywords: []string{"passport"},
			want:     true,
		},
		{
			name:     "keyword outside window",
			text:     "account" + strings.Repeat(" ", 60) + "123456789012",
			value:    "123456789012",
			keywords: []string{"account"},
			want:     false,
		},
		{
			name:     "label shape beyond window",
			text:     "permanent_residential_address_of_the_applicant_as_registered:   12 MG Road",
			value:    "12 MG Road",
			keywords: []string{"address"},
			window:   10,
			want:     true,
		},
		{
			name:     "label with equals",
			text:     "user_dob = 01/02/1990",
			value:    "01/02/1990",
			keywords: []string{"dob"},
			window:   1,
			want:     true,
		},
		{
			name:     "label not matching",
			text:     "reference: 123456789012",
			value:    "123456789012",
			keywords: []string{"account"},
			want:     false,
		},
		{
			name:     "no keywords",
			text:     "anything 12",
			value:    "12",
			keywords: nil,
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := strings.Index(tt.text, tt.value)
			assert.Equal(t, tt.want, HasContext(tt.text, start, tt.keywords, tt.window))
		})
	}
}

func TestHasContextRuneWindow(t *testing.T) {
	// Multi-byte characters count as one character each.
	text := "bank" + strings.Repeat("é", 45) + " 123456789012"
	start := strings.Index(text, "1234")
	assert.True(t, HasContext(text, start, []string{"bank"}, 50))
}

func TestContextExtractor(t *testing.T) {
	text := "first line\nMy email is john@example.com today\nlast"
	start := strings.Index(text, "john@")
	span := Span{Start: start, End: start + len("john@example.com")}

	info := NewContextExtractor().WithContextChars(6).Extract(text, span)
	assert.Equal(t, 2, info.LineNumber)
	assert.Equal(t, "My email is john@example.com today", info.FullLine)
	assert.Equal(t, "il is ", info.BeforeText)
	assert.Equal(t, " today", info.AfterText)

	assert.Equal(t, ContextInfo{}, NewContextExtractor().Extract(text, Span{Start: 10, End: 5}))
}
