// Package collate builds comparison keys for entity names.
//
// Two names are considered equal when they only differ in letter case or in
// diacritics, so "Ärger", "arger" and "ARGER" all share one key. Keys are
// plain strings and compare with strings.Compare, which keeps the sorted name
// indices in internal/store simple.
package collate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key returns the collation key of name.
func Key(name string) string {
	// Transformers and casers keep state, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return cases.Fold().String(stripped)
}

// Equal reports whether a and b collate equal.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// Compare orders a and b by their collation keys.
func Compare(a, b string) int {
	return strings.Compare(Key(a), Key(b))
}

// Length returns the number of characters (not bytes) in s.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Trimmed reports whether s has no leading or trailing whitespace.
func Trimmed(s string) bool {
	return strings.TrimSpace(s) == s
}

// HasControl reports whether s contains a control character.
func HasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
