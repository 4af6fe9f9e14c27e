// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultContextWindow is the number of characters inspected on each side
// of a candidate when looking for context keywords.
const DefaultContextWindow = 50

// RequiresContext reports whether candidates of category c must be backed
// by a nearby keyword before they are accepted.
func RequiresContext(c Category) bool {
	switch c {
	case Email, Aadhaar, CreditCard:
		return false
	case Name, Mobile, BankAccount, Address, Birthday, Passport, DriversLicense:
		return true
	default:
		return true
	}
}

// ContextWaived reports whether a category-specific override lets the
// candidate through without a keyword. Names at the start of the text or
// of a sentence, and mobile numbers carrying an international prefix, are
// accepted on shape alone.
func ContextWaived(text string, c Category, start int, value string) bool {
	switch c {
	case Name:
		return start == 0 || followsSentenceEnd(text[:start])
	case Mobile:
		return strings.Contains(value, "+")
	}
	return false
}

func followsSentenceEnd(prefix string) bool {
	trimmed := strings.TrimRightFunc(prefix, unicode.IsSpace)
	if len(trimmed) == len(prefix) || trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// HasContext reports whether any keyword appears in the window characters
// on either side of start, or whether the candidate is the value of a
// "label: value" / "label = value" pair whose label names a keyword.
func HasContext(text string, start int, keywords []string, window int) bool {
	if len(keywords) == 0 || start < 0 || start > len(text) {
		return false
	}
	if window <= 0 {
		window = DefaultContextWindow
	}

	from, to := windowBounds(text, start, window)
	region := strings.ToLower(text[from:to])
	for _, kw := range keywords {
		if kw != "" && strings.Contains(region, strings.ToLower(kw)) {
			return true
		}
	}

	label, ok := precedingLabel(text[:start])
	if !ok {
		return false
	}
	return labelNamesKeyword(label, keywords)
}

// windowBounds walks n runes back and forward from pos, clipped to the
// text, and returns byte offsets on rune boundaries.
func windowBounds(text string, pos, n int) (int, int) {
	from := pos
	for i := 0; i < n && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := pos
	for i := 0; i < n && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	return from, to
}

// precedingLabel returns the label of a "label:" or "label =" that ends
// right before the candidate, ignoring blanks between separator and value.
func precedingLabel(prefix string) (string, bool) {
	trimmed := strings.TrimRight(prefix, " \t")
	if trimmed == "" {
		return "", false
	}
	sep := trimmed[len(trimmed)-1]
	if sep != ':' && sep != '=' {
		return "", false
	}
	label := trimmed[:len(trimmed)-1]
	if i := strings.LastIndexAny(label, "\n;,|{}()[]\""); i >= 0 {
		label = label[i+1:]
	}
	label = strings.TrimSpace(label)
	return label, label != ""
}

var labelReplacer = strings.NewReplacer("_", " ", "-", " ", ".", " ")

func labelNamesKeyword(label string, keywords []string) bool {
	raw := strings.ToLower(label)
	spaced := labelReplacer.Replace(raw)
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(raw, kw) || strings.Contains(spaced, kw) {
			return true
		}
	}
	return false
}

// ContextInfo stores the text around a match for verbose reporting
type ContextInfo struct {
	BeforeText string `json:"before,omitempty" yaml:"before,omitempty"`
	AfterText  string `json:"after,omitempty" yaml:"after,omitempty"`
	FullLine   string `json:"line,omitempty" yaml:"line,omitempty"`
	LineNumber int    `json:"line_number" yaml:"line_number"`
}

// ContextExtractor extracts report context around a match
type ContextExtractor struct {
	// Number of characters before and after the match to include
	ContextChars int
}

// NewContextExtractor creates a new context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{ContextChars: DefaultContextWindow}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	ce.ContextChars = chars
	return ce
}

// Extract returns the line holding span, its 1-based number, and up to
// ContextChars characters on either side of the match within that line.
func (ce *ContextExtractor) Extract(text string, span Span) ContextInfo {
	if !span.Valid(len(text)) {
		return ContextInfo{}
	}
	lineStart := strings.LastIndexByte(text[:span.Start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[span.End:], '\n'); i >= 0 {
		lineEnd = span.End + i
	}

	info := ContextInfo{
		LineNumber: strings.Count(text[:span.Start], "\n") + 1,
		FullLine:   text[lineStart:max(lineEnd, span.End)],
	}

	from, _ := windowBounds(text, span.Start, ce.ContextChars)
	_, to := windowBounds(text, span.End, ce.ContextChars)
	info.BeforeText = text[max(from, lineStart):span.Start]
	if lineEnd >= span.End {
		info.AfterText = text[span.End:min(to, lineEnd)]
	}
	return info
}
