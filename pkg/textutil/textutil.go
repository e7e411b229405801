// Package textutil provides common text helpers shared by the pipeline stages.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeWhitespace replaces runs of whitespace with a single space.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate truncates a string to max length, appending an ellipsis.
func Truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}

	return s[:maxLength] + "..."
}

// SwapBrackets replaces square brackets with parentheses. Square brackets
// delimit placeholders in raw templates, so values must not carry them.
func SwapBrackets(s string) string {
	s = strings.ReplaceAll(s, "[", "(")
	s = strings.ReplaceAll(s, "]", ")")

	return s
}

// StartsWithVowel reports whether the first rune of s is an English vowel.
func StartsWithVowel(s string) bool {
	if s == "" {
		return false
	}

	first, _ := utf8.DecodeRuneInString(s)

	switch unicode.ToLower(first) {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}

	return false
}

// TitleCase upper-cases the first letter of every word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// FoldKey normalizes a string for dictionary lookups: NFKC form, lower case,
// surrounding whitespace removed.
func FoldKey(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// TrimIndex removes a trailing numeric index from a placeholder key, so
// "PERSON2" resolves to the entity type "PERSON".
func TrimIndex(s string) string {
	return strings.TrimRight(s, "0123456789")
}
