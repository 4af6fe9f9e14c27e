// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resolver turns an unresolved candidate pool into the final match
// list: sorted by start, with no two spans overlapping.
package resolver

import (
	"sort"

	"privacy-sentinel/internal/detector"
)

// Resolve drops every candidate whose span lies inside another candidate's
// span, keeping the earlier-registered one when two spans are identical.
// Remaining partial overlaps are settled in favour of the earliest start.
// Slice order of candidates is their registration order. The input is not
// modified.
func Resolve(candidates []detector.Match) []detector.Match {
	out := []detector.Match{}
	if len(candidates) == 0 {
		return out
	}

	survivors := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if c.Span.Len() <= 0 || contained(i, candidates) {
			continue
		}
		survivors = append(survivors, i)
	}

	sort.SliceStable(survivors, func(a, b int) bool {
		x, y := candidates[survivors[a]].Span, candidates[survivors[b]].Span
		if x.Start != y.Start {
			return x.Start < y.Start
		}
		return x.Len() > y.Len()
	})

	end := -1
	for _, i := range survivors {
		c := candidates[i]
		if c.Span.Start < end {
			continue
		}
		out = append(out, c)
		end = c.Span.End
	}
	return out
}

// contained reports whether candidate i loses to a container. A strictly
// larger container always wins; an identical span wins only if it was
// registered first.
func contained(i int, candidates []detector.Match) bool {
	span := candidates[i].Span
	for j, other := range candidates {
		if j == i || !other.Span.Contains(span) {
			continue
		}
		if other.Span != span || j < i {
			return true
		}
	}
	return false
}

// NonOverlapping reports whether matches are sorted by start and pairwise
// disjoint.
func NonOverlapping(matches []detector.Match) bool {
	for i := 1; i < len(matches); i++ {
		if matches[i].Span.Start < matches[i-1].Span.End {
			return false
		}
	}
	return true
}
