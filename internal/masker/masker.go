// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package masker turns a detected value into its redacted display form.
// Each category has one structure-preserving rule that reveals at most a
// fixed prefix or suffix. Values too short to keep that reveal window are
// masked completely.
package masker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"privacy-sentinel/internal/detector"
)

// ObfuscatedEmailMask is the display form of an email address that does
// not carry a literal '@'.
const ObfuscatedEmailMask = "****@****.***"

const (
	hiddenChar      = '*'
	aadhaarSentinel = 'A'
	cardSentinel    = 'C'
	birthSentinel   = 'B'
	addressMarker   = "&&"
)

var addressNumber = regexp.MustCompile(`\b\d+\b`)

// Mask returns the redacted form of value for category c. It panics when c
// is outside the closed category set; callers holding untrusted category
// names must check Category.Valid first.
func Mask(value string, c detector.Category) string {
	switch c {
	case detector.Name:
		return keepEnds(value, 2, 0)
	case detector.Mobile, detector.BankAccount:
		return keepLastDigits(value, 4, hiddenChar)
	case detector.Email:
		return maskEmail(value)
	case detector.Aadhaar:
		return replaceDigits(value, aadhaarSentinel)
	case detector.CreditCard:
		return keepLastDigits(value, 4, cardSentinel)
	case detector.Address:
		return addressNumber.ReplaceAllLiteralString(value, addressMarker)
	case detector.Birthday:
		return replaceDigits(value, birthSentinel)
	case detector.Passport:
		return keepEnds(value, 2, 2)
	case detector.DriversLicense:
		return keepEnds(value, 3, 2)
	default:
		panic(fmt.Sprintf("masker: no masking rule for category %q", string(c)))
	}
}

// keepEnds keeps head leading and tail trailing characters and hides the
// rest. Values no longer than head+tail are hidden entirely.
func keepEnds(value string, head, tail int) string {
	runes := []rune(value)
	if len(runes) <= head+tail {
		return strings.Repeat(string(hiddenChar), len(runes))
	}
	var b strings.Builder
	b.Grow(len(value))
	b.WriteString(string(runes[:head]))
	b.WriteString(strings.Repeat(string(hiddenChar), len(runes)-head-tail))
	b.WriteString(string(runes[len(runes)-tail:]))
	return b.String()
}

// keepLastDigits replaces every digit except the last keep with sentinel,
// leaving separators in place. With keep or fewer digits all are replaced.
func keepLastDigits(value string, keep int, sentinel rune) string {
	digits := 0
	for i := 0; i < len(value); i++ {
		if isDigit(value[i]) {
			digits++
		}
	}
	hide := digits - keep
	if digits <= keep {
		hide = digits
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if hide > 0 && r >= '0' && r <= '9' {
			b.WriteRune(sentinel)
			hide--
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func replaceDigits(value string, sentinel rune) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return sentinel
		}
		return r
	}, value)
}

// maskEmail keeps the first character of the local part and of the domain.
func maskEmail(value string) string {
	at := strings.LastIndexByte(value, '@')
	if at <= 0 || at == len(value)-1 {
		return ObfuscatedEmailMask
	}
	local, domain := value[:at], value[at+1:]
	first, _ := utf8.DecodeRuneInString(local)
	domainFirst, _ := utf8.DecodeRuneInString(domain)
	return string(first) + "****@" + string(domainFirst) + "****"
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
