// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-sentinel/internal/detector"
)

func cand(c detector.Category, start, end int, src detector.Source) detector.Match {
	return detector.Match{Category: c, Span: detector.Span{Start: start, End: end}, Source: src}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   []detector.Match
		want []detector.Match
	}{
		{
			name: "nested candidate dropped",
			in: []detector.Match{
				cand(detector.BankAccount, 10, 20, detector.SourcePattern),
				cand(detector.Address, 5, 30, detector.SourcePattern),
			},
			want: []detector.Match{cand(detector.Address, 5, 30, detector.SourcePattern)},
		},
		{
			name: "identical spans keep earlier registration",
			in: []detector.Match{
				cand(detector.CreditCard, 0, 16, detector.SourcePattern),
				cand(detector.BankAccount, 0, 16, detector.SourcePattern),
				cand(detector.BankAccount, 0, 16, detector.SourceSupplemental),
			},
			want: []detector.Match{cand(detector.CreditCard, 0, 16, detector.SourcePattern)},
		},
		{
			name: "partial overlap keeps earliest start",
			in: []detector.Match{
				cand(detector.Mobile, 8, 20, detector.SourcePattern),
				cand(detector.Name, 0, 10, detector.SourcePattern),
			},
			want: []detector.Match{cand(detector.Name, 0, 10, detector.SourcePattern)},
		},
		{
			name: "same start prefers longer",
			in: []detector.Match{
				cand(detector.Aadhaar, 3, 15, detector.SourcePattern),
				cand(detector.CreditCard, 3, 19, detector.SourcePattern),
			},
			want: []detector.Match{cand(detector.CreditCard, 3, 19, detector.SourcePattern)},
		},
		{
			name: "disjoint sorted by start",
			in: []detector.Match{
				cand(detector.Email, 30, 40, detector.SourcePattern),
				cand(detector.Name, 0, 10, detector.SourcePattern),
				cand(detector.Mobile, 10, 20, detector.SourcePattern),
			},
			want: []detector.Match{
				cand(detector.Name, 0, 10, detector.SourcePattern),
				cand(detector.Mobile, 10, 20, detector.SourcePattern),
				cand(detector.Email, 30, 40, detector.SourcePattern),
			},
		},
		{
			name: "contained in a candidate that later loses a partial overlap",
			in: []detector.Match{
				cand(detector.Name, 3, 8, detector.SourcePattern),
				cand(detector.Address, 5, 30, detector.SourcePattern),
				cand(detector.BankAccount, 10, 20, detector.SourcePattern),
			},
			want: []detector.Match{cand(detector.Name, 3, 8, detector.SourcePattern)},
		},
		{
			name: "empty spans ignored",
			in:   []detector.Match{cand(detector.Name, 4, 4, detector.SourcePattern)},
			want: []detector.Match{},
		},
		{
			name: "nil input",
			in:   nil,
			want: []detector.Match{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, NonOverlapping(got))
		})
	}
}

func TestResolveDoesNotModifyInput(t *testing.T) {
	in := []detector.Match{
		cand(detector.Email, 30, 40, detector.SourcePattern),
		cand(detector.Name, 0, 10, detector.SourcePattern),
	}
	snapshot := append([]detector.Match(nil), in...)
	Resolve(in)
	assert.Equal(t, snapshot, in)
}

func TestResolveIsIdempotent(t *testing.T) {
	in := []detector.Match{
		cand(detector.Address, 5, 30, detector.SourcePattern),
		cand(detector.BankAccount, 10, 20, detector.SourcePattern),
		cand(detector.Email, 31, 40, detector.SourcePattern),
	}
	once := Resolve(in)
	assert.Equal(t, once, Resolve(once))
}

func TestResolveRandomPoolsNeverOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cats := detector.Categories()
	for round := 0; round < 200; round++ {
		var pool []detector.Match
		for i := 0; i < 20; i++ {
			start := rng.Intn(100)
			pool = append(pool, cand(cats[rng.Intn(len(cats))], start, start+1+rng.Intn(20), detector.SourcePattern))
		}
		got := Resolve(pool)
		require.True(t, NonOverlapping(got), "round %d", round)
		require.NotEmpty(t, got)
	}
}
