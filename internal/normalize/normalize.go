// Package normalize canonicalizes free text for category matching.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Decompose accented letters and drop the combining marks, so "PRISÃO" and
// "PRISAO" normalize to the same key.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

// Text returns the canonical form of s: accents stripped, everything except
// ASCII letters, digits and whitespace removed, upper-cased and trimmed.
// Empty input yields the empty string; callers treat that as "no category".
func Text(s string) string {
	if s == "" {
		return ""
	}
	stripped, _, err := transform.String(stripAccents, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
