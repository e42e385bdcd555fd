// Package normalize canonicalizes free-text track metadata so that
// equivalent titles and artists compare equal.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics decomposes to NFD, strips combining marks and recomposes,
// so "Beyoncé" and "Beyonce" fold to the same string.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text returns the canonical form of s: diacritics folded, lowercased,
// punctuation collapsed to spaces, runs of whitespace collapsed to a single
// space, leading/trailing whitespace removed. It is total (never fails) and
// idempotent. Empty or whitespace-only input yields "".
func Text(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
