// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package annotator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"privacy-sentinel/internal/detector"
)

func match(text, value string, c detector.Category, masked string) detector.Match {
	start := strings.Index(text, value)
	return detector.Match{
		Category:    c,
		RawValue:    value,
		MaskedValue: masked,
		Span:        detector.Span{Start: start, End: start + len(value)},
		Confidence:  0.8,
	}
}

func TestRender(t *testing.T) {
	text := "mail a@b.io or call 9876543210\nbye"
	matches := []detector.Match{
		match(text, "a@b.io", detector.Email, "a****@b****"),
		match(text, "9876543210", detector.Mobile, "******3210"),
	}

	assert.Equal(t,
		`mail <span class="pii-Email" data-confidence="0.80">a@b.io</span> or call `+
			`<span class="pii-Mobile" data-confidence="0.80">9876543210</span>`+"\nbye",
		Render(text, matches, false))

	assert.Equal(t,
		`mail <span class="pii-Email" data-confidence="0.80">a****@b****</span> or call `+
			`<span class="pii-Mobile" data-confidence="0.80">******3210</span>`+"\nbye",
		Render(text, matches, true))
}

func TestRenderOrderIndependent(t *testing.T) {
	text := "a@b.io 9876543210 c@d.io"
	forward := []detector.Match{
		match(text, "a@b.io", detector.Email, "x"),
		match(text, "9876543210", detector.Mobile, "yy"),
		match(text, "c@d.io", detector.Email, "zzz"),
	}
	reversed := []detector.Match{forward[2], forward[0], forward[1]}

	assert.Equal(t, "x yy zzz", Redact(text, forward))
	assert.Equal(t, Redact(text, forward), Redact(text, reversed))
	assert.Equal(t, Render(text, forward, true), Render(text, forward, true), "deterministic")
}

func TestRenderEmptyMatches(t *testing.T) {
	for _, text := range []string{"", "plain text", "line\nbreak"} {
		assert.Equal(t, text, Render(text, nil, true))
		assert.Equal(t, text, Render(text, []detector.Match{}, false))
	}
}

func TestRenderSkipsBadSpans(t *testing.T) {
	text := "0123456789"
	matches := []detector.Match{
		{Category: detector.Name, RawValue: "23456", MaskedValue: "N", Span: detector.Span{Start: 2, End: 7}},
		{Category: detector.Name, RawValue: "56", MaskedValue: "O", Span: detector.Span{Start: 5, End: 7}},
		{Category: detector.Name, MaskedValue: "X", Span: detector.Span{Start: 8, End: 20}},
		{Category: detector.Name, MaskedValue: "Y", Span: detector.Span{Start: -1, End: 1}},
	}
	// The span starting at 5 is applied first and the overlapping one at 2
	// is skipped.
	assert.Equal(t, "01234O789", Redact(text, matches))
}

func TestRenderWithTags(t *testing.T) {
	text := "dob 15/08/1990"
	m := match(text, "15/08/1990", detector.Birthday, "BB/BB/BBBB")
	assert.Equal(t, "dob [Birthday:BB/BB/BBBB]", RenderWith(text, []detector.Match{m}, true, BracketTag))
	assert.Equal(t, "dob 15/08/1990", RenderWith(text, []detector.Match{m}, false, nil))
}

func TestLineBreaks(t *testing.T) {
	assert.Equal(t, "a<br/>b<br/>c", LineBreaks("a\nb\r\nc"))
}
