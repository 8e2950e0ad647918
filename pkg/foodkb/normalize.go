package foodkb

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize produces the canonical comparison form of a food name:
// lower-cased, accents folded (Crêpe -> crepe), punctuation dropped,
// hyphens and slashes treated as word breaks, runs of whitespace collapsed
// to a single space. Idempotent; empty input maps to the empty string.
//
// The original text is kept elsewhere for display; this form exists only
// for matching.
func Normalize(s string) string {
	folded, _, _ := transform.String(foldAccents, strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '/':
			pendingSpace = true
		default:
			// Other punctuation carries no meaning in a food name.
		}
	}
	return b.String()
}
