// Package util provides shared string helpers used across the codebase.
package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SplitCSV splits a comma-separated string into a slice, trimming whitespace.
// Returns nil for empty strings.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// Punctuation removed from identifiers after title-casing.
const strippedPunct = "-_./()#%&'\""

var titler = cases.Title(language.English)

// SanitizeIdentifier converts a header field or file base name into a form
// safe to use as a table or column name: each word is title-cased, then
// whitespace and punctuation are removed. The same mapping is applied when
// creating the table and when generating every insert statement, so callers
// must never quote raw header text directly.
//
// Examples:
//
//	"order id"    -> "OrderId"
//	"unit-price"  -> "UnitPrice"
//	"Total (net)" -> "TotalNet"
//	"2nd col"     -> "X2NdCol"
func SanitizeIdentifier(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	// Stripped punctuation acts as a word boundary so "unit-price"
	// title-cases both halves before the dash is removed.
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedPunct, r) {
			return ' '
		}
		return r
	}, name)

	var sb strings.Builder
	for _, word := range strings.Fields(mapped) {
		sb.WriteString(titler.String(word))
	}
	out := sb.String()
	if out == "" {
		return ""
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "X" + out
	}
	return out
}
