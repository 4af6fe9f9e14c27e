// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package recovery finds deliberately disguised values, such as
// "name at domain dot com" or card numbers with a space between every
// digit, and reports them in normalized form. The raw value of a recovered
// match is always the literal disguised text.
package recovery

import (
	"regexp"
	"strings"
	"unicode"

	"privacy-sentinel/internal/catalog"
	"privacy-sentinel/internal/detector"
	"privacy-sentinel/internal/masker"
)

const (
	atSep  = `(?:\s*[\[\(\{<]?\s*\bat\b\s*[\]\)\}>]?\s*|@)`
	dotSep = `(?:\s*[\[\(\{<]?\s*\bdot\b\s*[\]\)\}>]?\s*|\.)`
)

var (
	wordEmail = regexp.MustCompile(`(?i)\b([a-z0-9_%+-]+(?:` + dotSep + `[a-z0-9_%+-]+)*)` +
		atSep + `([a-z0-9-]+(?:` + dotSep + `[a-z0-9-]+)*` + dotSep + `[a-z]{2,})\b`)
	dotToken = regexp.MustCompile(`(?i)` + dotSep)
	leadAt   = regexp.MustCompile(`(?i)^` + atSep)

	spacedDigits = regexp.MustCompile(`\b\d(?:[ \t]+\d|\d)+\b`)
)

const minSpacedDigits = 8

// Recover returns every disguised value found in text, word-separated
// emails first and spaced digit runs second. Spans are byte offsets.
func Recover(text string) []detector.Match {
	var out []detector.Match
	out = append(out, recoverEmails(text)...)
	out = append(out, recoverDigits(text)...)
	return out
}

func recoverEmails(text string) []detector.Match {
	var out []detector.Match
	for _, loc := range emailLocations(text) {
		if touchesAt(text, loc[0], loc[1]) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		local := text[loc[2]:loc[3]]
		domain := text[loc[4]:loc[5]]

		normalized := dotToken.ReplaceAllLiteralString(local, ".") + "@" +
			dotToken.ReplaceAllLiteralString(domain, ".")
		if normalized == raw || !strings.Contains(normalized, "@") || !strings.Contains(normalized, ".") {
			continue
		}
		out = append(out, detector.Match{
			Category:    detector.Email,
			RawValue:    raw,
			MaskedValue: masker.Mask(raw, detector.Email),
			Span:        detector.Span{Start: loc[0], End: loc[1]},
			Confidence:  detector.DefaultConfidence,
			Source:      detector.SourceRecovered,
			Normalized:  strings.ToLower(normalized),
		})
	}
	return out
}

// emailLocations returns the submatch indexes of every word-separated
// address. When a hit's domain is itself followed by "at", as in
// "me at john dot doe at gmail dot com", the address starting at that
// domain is taken instead.
func emailLocations(text string) [][]int {
	var out [][]int
	for pos := 0; pos < len(text); {
		loc := wordEmail.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		if leadAt.MatchString(text[loc[5]:]) {
			if next := wordEmail.FindStringSubmatchIndex(text[loc[4]:]); next != nil && next[0] == 0 {
				pos = loc[4]
				continue
			}
		}
		out = append(out, loc)
		pos = loc[1]
	}
	return out
}

// touchesAt reports whether the hit is glued to a literal address, as in
// "Smith at john.smith@example.com".
func touchesAt(text string, start, end int) bool {
	return (start > 0 && text[start-1] == '@') || (end < len(text) && text[end] == '@')
}

func recoverDigits(text string) []detector.Match {
	var out []detector.Match
	for _, loc := range spacedDigits.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		if !strings.ContainsAny(raw, " \t") {
			continue
		}
		digits := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, raw)
		if len(digits) < minSpacedDigits {
			continue
		}

		category, ok := classifyDigits(digits)
		if !ok || claimedByOther(raw, category) {
			continue
		}
		out = append(out, detector.Match{
			Category:    category,
			RawValue:    raw,
			MaskedValue: masker.Mask(raw, category),
			Span:        detector.Span{Start: loc[0], End: loc[1]},
			Confidence:  detector.DefaultConfidence,
			Source:      detector.SourceRecovered,
			Normalized:  digits,
		})
	}
	return out
}

// claimedByOther reports whether the pattern of a category other than c
// matches raw exactly, as "91 9876543210" is a Mobile number rather than a
// spaced Aadhaar. Such runs are left to the catalog, which also checks
// their context.
func claimedByOther(raw string, c detector.Category) bool {
	for _, e := range catalog.Entries() {
		if e.Category == c {
			continue
		}
		if loc := e.Pattern.FindStringIndex(raw); loc != nil && loc[0] == 0 && loc[1] == len(raw) {
			return true
		}
	}
	return false
}

// classifyDigits applies the numeric length rules to a whitespace-free
// digit string.
func classifyDigits(digits string) (detector.Category, bool) {
	switch n := len(digits); {
	case n >= 13 && n <= 19:
		return detector.CreditCard, true
	case n == 12 && digits[0] >= '2' && digits[0] <= '9':
		return detector.Aadhaar, true
	}
	return "", false
}
