// Package slug turns free text into lowercase, hyphen-separated tokens that are
// safe to compare against filenames.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	hyphens  = regexp.MustCompile(`-+`)
)

// Make normalizes s: diacritics, combining or spacing (´ ^ `), are stripped, letters lowercased and every run of
// characters outside [a-z0-9] becomes a single hyphen. Leading and trailing
// hyphens are trimmed. Make is total and idempotent.
func Make(s string) string {
	stripped, _, err := transform.String(stripMarks(), s)
	if err != nil {
		// transform only fails on invalid chains; fall back to the raw input.
		stripped = s
	}

	out := strings.ToLower(stripped)
	out = nonAlnum.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")
	return hyphens.ReplaceAllString(out, "-")
}

func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Diacritic)), norm.NFC)
}
