package pipeline

import (
	"regexp"
	"strings"

	"github.com/platewise/menulens/pkg/match"
)

// pricedLine splits "name — 12,000원" style menu lines into a name part and
// a trailing price part. The price must start with a currency sign or digit
// so hyphenated dish names are not cut in half.
var pricedLine = regexp.MustCompile(`^(.+?)\s*[:\x{2013}\x{2014}-]\s*([$€£₩¥₹]?\s*\d[^\n]*)$`)

// ParseScanText splits raw OCR text into one RawToken per non-empty line,
// peeling off a trailing price when the line looks like "name — price".
// Confidence is 1 because plain text carries no per-token OCR estimate;
// callers with real OCR output should build tokens themselves.
//
// One token per line is assumed; fusing a food name spanning several OCR
// lines is the extraction service's job, not handled here.
func ParseScanText(text string) []match.RawToken {
	var tokens []match.RawToken
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tok := match.RawToken{Text: line, Confidence: 1, Position: len(tokens)}
		if m := pricedLine.FindStringSubmatch(line); m != nil {
			tok.Text = strings.TrimSpace(m[1])
			tok.PriceText = strings.TrimSpace(m[2])
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
