// Package names normalizes human name fragments into the form used for
// mailbox local-parts: Unicode-decomposed, accents and whitespace removed,
// lowercased.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and drops the combining marks, turning
// "José" into "Jose".
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize returns text with accents and whitespace removed, lowercased.
// Empty input yields empty output.
func Normalize(text string) string {
	out, _, err := transform.String(stripMarks, text)
	if err != nil {
		// Transform failure leaves the input usable as-is.
		out = text
	}
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Initial returns the first character of the normalized text, or "" for
// empty input.
func Initial(text string) string {
	n := Normalize(text)
	if n == "" {
		return ""
	}
	for _, r := range n {
		return string(r)
	}
	return ""
}
