// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"Email", Email, true},
		{"email", Email, true},
		{"credit_card", CreditCard, true},
		{"Drivers License", DriversLicense, true},
		{"driver's-license", DriversLicense, true},
		{" BANKACCOUNT ", BankAccount, true},
		{"SSN", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoriesAreValidAndOrdered(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 10)
	assert.Equal(t, Name, cats[0])
	assert.Equal(t, DriversLicense, cats[9])
	for _, c := range cats {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("Phone").Valid())

	cats[0] = "mutated"
	assert.Equal(t, Name, Categories()[0], "Categories must return a copy")
}

func TestSpan(t *testing.T) {
	a := Span{Start: 5, End: 30}
	b := Span{Start: 10, End: 20}
	c := Span{Start: 30, End: 35}

	assert.True(t, a.Contains(b))
	assert.False(t, b.Contains(a))
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c), "half-open spans that touch do not overlap")
	assert.Equal(t, 25, a.Len())
	assert.True(t, a.Valid(30))
	assert.False(t, a.Valid(29))
	assert.False(t, Span{Start: 3, End: 3}.Valid(10))
}

func TestSpanRunes(t *testing.T) {
	text := "héllo wörld"
	// "wörld" starts after "héllo " which is 7 bytes and 6 runes.
	s := Span{Start: 7, End: 13}
	require.Equal(t, "wörld", text[s.Start:s.End])
	assert.Equal(t, Span{Start: 6, End: 11}, s.Runes(text))
}

func TestMatchDisplay(t *testing.T) {
	m := Match{RawValue: "9876543210", MaskedValue: "******3210"}
	assert.Equal(t, "9876543210", m.Display(false))
	assert.Equal(t, "******3210", m.Display(true))
}
