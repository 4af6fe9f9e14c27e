// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the static table of PII categories: the literal
// pattern that finds syntactic candidates and the keywords that supply
// context for ambiguous ones.
package catalog

import (
	"regexp"

	"privacy-sentinel/internal/detector"
)

// Entry describes one category.
type Entry struct {
	Category        detector.Category
	Pattern         *regexp.Regexp
	Keywords        []string
	RequiresContext bool
}

// Candidate is a syntactic hit before context evaluation.
type Candidate struct {
	Value string
	Span  detector.Span
}

var entries = []Entry{
	{
		Category: detector.Name,
		Pattern:  regexp.MustCompile(`\b([A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,2})\b`),
		Keywords: []string{"name", "user", "full name", "username"},
	},
	{
		Category: detector.Mobile,
		Pattern:  regexp.MustCompile(`(?:\+\d{1,3}[\-\s]?[6-9]\d{9}|\b(?:91[\-\s]?)?[6-9]\d{9})\b`),
		Keywords: []string{"mobile", "phone", "contact", "whatsapp"},
	},
	{
		Category: detector.Email,
		Pattern:  regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		Keywords: []string{"email", "e-mail", "contact@"},
	},
	{
		Category: detector.Aadhaar,
		Pattern:  regexp.MustCompile(`\b[2-9]\d{3}[\s-]?\d{4}[\s-]?\d{4}\b`),
		Keywords: []string{"aadhaar", "uid", "unique id"},
	},
	{
		Category: detector.CreditCard,
		Pattern:  regexp.MustCompile(`\b\d(?:[ -]?\d){12,18}\b`),
		Keywords: []string{"card", "credit", "debit", "visa"},
	},
	{
		Category: detector.BankAccount,
		Pattern:  regexp.MustCompile(`\b\d{9,18}\b`),
		Keywords: []string{"account", "bank", "iban"},
	},
	{
		Category: detector.Address,
		Pattern:  regexp.MustCompile(`(?i)\b\d{1,4}[\s,.-]*(?:[\w\s,.-]+?)(?:road|street|avenue|lane|city|town|village|nagar)\b`),
		Keywords: []string{"address", "location", "residence", "home"},
	},
	{
		Category: detector.Birthday,
		Pattern: regexp.MustCompile(`\b(?:(?:(?:0?[1-9]|[12]\d|3[01])[/\-.](?:0?[1-9]|1[0-2])[/\-.]\d{4})` +
			`|(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},\s+\d{4})` +
			`|(?:\d{4}[/\-.](?:0?[1-9]|1[0-2])[/\-.](?:0?[1-9]|[12]\d|3[01])))\b`),
		Keywords: []string{"birthday", "dob", "date of birth", "born"},
	},
	{
		Category: detector.Passport,
		Pattern:  regexp.MustCompile(`\b[A-Z]{1,3}[0-9]{6,9}\b`),
		Keywords: []string{"passport", "passport no", "travel document"},
	},
	{
		Category: detector.DriversLicense,
		Pattern:  regexp.MustCompile(`\b[A-Z]{2}[0-9]{1,2}[\s-]?[0-9]{4}[\s-]?[0-9]{5,7}\b|\b[A-Z]{2}[0-9]{11,13}\b`),
		Keywords: []string{"license", "licence", "dl", "driver's license", "driving license"},
	},
}

func init() {
	for i := range entries {
		entries[i].RequiresContext = detector.RequiresContext(entries[i].Category)
	}
}

// Entries returns the catalog in registration order. Registration order
// breaks ties between candidates with identical spans.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Lookup returns the entry for category c.
func Lookup(c detector.Category) (Entry, bool) {
	for _, e := range entries {
		if e.Category == c {
			return e, true
		}
	}
	return Entry{}, false
}

// Keywords returns the context keywords of category c.
func Keywords(c detector.Category) []string {
	e, _ := Lookup(c)
	return e.Keywords
}

// FindAll scans text for every non-overlapping hit of the entry's pattern.
// The value of a hit is its first non-empty capture group, or the whole
// match when the pattern captures nothing.
func (e Entry) FindAll(text string) []Candidate {
	var out []Candidate
	for _, loc := range e.Pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 && loc[g+1] > loc[g] {
				start, end = loc[g], loc[g+1]
				break
			}
		}
		if end <= start {
			continue
		}
		out = append(out, Candidate{
			Value: text[start:end],
			Span:  detector.Span{Start: start, End: end},
		})
	}
	return out
}
