// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/resolver"
)

func byCategory(matches []detector.Match, c detector.Category) []detector.Match {
	var out []detector.Match
	for _, m := range matches {
		if m.Category == c {
			out = append(out, m)
		}
	}
	return out
}

func TestScanContactLine(t *testing.T) {
	text := "Contact John Smith at john.smith@example.com or 9876543210"
	got := New().Scan(text)

	emails := byCategory(got, detector.Email)
	require.Len(t, emails, 1)
	assert.Equal(t, "john.smith@example.com", emails[0].RawValue)

	mobiles := byCategory(got, detector.Mobile)
	require.Len(t, mobiles, 1)
	assert.Equal(t, "9876543210", mobiles[0].RawValue)
	assert.Equal(t, "******3210", mobiles[0].MaskedValue)

	names := byCategory(got, detector.Name)
	require.Len(t, names, 1)
	assert.Contains(t, names[0].RawValue, "John Smith")

	assert.Empty(t, byCategory(got, detector.BankAccount), "no bank keyword nearby")

	for _, m := range got {
		assert.Equal(t, m.RawValue, text[m.Span.Start:m.Span.End])
		assert.Equal(t, detector.DefaultConfidence, m.Confidence)
	}
}

func TestScanAadhaarWithoutContext(t *testing.T) {
	text := "The reference for the file is 234567890123 as discussed."
	got := byCategory(New().Scan(text), detector.Aadhaar)
	require.Len(t, got, 1)
	assert.Equal(t, "234567890123", got[0].RawValue)
	assert.Equal(t, "AAAAAAAAAAAA", got[0].MaskedValue)
}

func TestScanSpacedCardIsRecovered(t *testing.T) {
	text := "my card is 4 1 1 1 1 1 1 1 1 1 1 1 1 2 3 4 ok"
	got := New().Scan(text)

	cards := byCategory(got, detector.CreditCard)
	require.Len(t, cards, 1)
	assert.Equal(t, detector.SourceRecovered, cards[0].Source)
	assert.Equal(t, "4111111111111234", cards[0].Normalized)
	assert.Greater(t, cards[0].Span.Len(), 20)
	assert.Empty(t, byCategory(got, detector.Aadhaar), "pieces of a recovered span are not reported again")
}

func TestScanObfuscatedEmail(t *testing.T) {
	text := "name at example dot com"
	got := New().Scan(text)
	require.Len(t, got, 1)
	assert.Equal(t, detector.Email, got[0].Category)
	assert.Equal(t, text, got[0].RawValue)
	assert.Equal(t, "****@****.***", got[0].MaskedValue)
}

func TestScanSkipsURLs(t *testing.T) {
	text := "Call my phone via https://mail.example.com/9876543210"
	got := New().Scan(text)
	assert.Empty(t, byCategory(got, detector.Mobile))

	// The same number outside the URL is reported.
	got = New().Scan("phone 9876543210 or https://mail.example.com/")
	assert.Len(t, byCategory(got, detector.Mobile), 1)
}

func TestScanContextGates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category detector.Category
		want     int
	}{
		{"bank account with keyword", "Bank account: 001234567890", detector.BankAccount, 1},
		{"bank account without keyword", "Order 001234567890 shipped", detector.BankAccount, 0},
		{"passport with keyword", "Passport no K1234567", detector.Passport, 1},
		{"passport without keyword", "Ticket K1234567", detector.Passport, 0},
		{"birthday with keyword", "DOB 15/08/1990", detector.Birthday, 1},
		{"birthday without keyword", "Invoice 15/08/1990", detector.Birthday, 0},
		{"mobile with international prefix", "reach +91 9876543210", detector.Mobile, 1},
		{"name mid sentence without keyword", "we met Mary Jones", detector.Name, 0},
		{"name with keyword", "full name Mary Jones", detector.Name, 1},
		{"address with keyword", "Home address 221 Baker Street", detector.Address, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := byCategory(New().Scan(tt.text), tt.category)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestScanOptions(t *testing.T) {
	text := "email a@b.io, aadhaar 2345 6789 0123"

	got := New(WithCategories(map[detector.Category]bool{detector.Email: true})).Scan(text)
	require.Len(t, got, 1)
	assert.Equal(t, detector.Email, got[0].Category)

	// Without recovery the spaced card is still found by its plain pattern
	// only when separators are single characters.
	got = New(WithoutRecovery()).Scan("card 4 1 1 1 1 1 1 1 1 1 1 1 1 2 3 4")
	assert.Len(t, byCategory(got, detector.CreditCard), 1)

	keyword := "account"
	far := keyword + strings.Repeat(" ", 60) + "001234567890"
	assert.Empty(t, byCategory(New().Scan(far), detector.BankAccount))
	assert.Len(t, byCategory(New(WithContextWindow(80)).Scan(far), detector.BankAccount), 1)
}

func TestScanEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		got := New().Scan(text)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestScanDomesticPrefixMobile(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		raw      string
		category detector.Category
	}{
		{"spaced prefix", "Mobile: 91 9876543210", "91 9876543210", detector.Mobile},
		{"joined prefix", "Mobile: 919876543210", "919876543210", detector.Mobile},
		{"dashed prefix", "phone 91-9876543210", "91-9876543210", detector.Mobile},
		{"aadhaar label keeps aadhaar", "Aadhaar: 919876543210", "919876543210", detector.Aadhaar},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.Resolve(New().Scan(tt.text))
			require.Len(t, got, 1)
			assert.Equal(t, tt.category, got[0].Category)
			assert.Equal(t, tt.raw, got[0].RawValue)
			assert.Equal(t, detector.SourcePattern, got[0].Source)
		})
	}
}
