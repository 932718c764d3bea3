package workflow

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops the combining marks, so "Leão"
// becomes "Leao" before the ASCII filter runs.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// GenerateSlug derives a URL-safe identifier from a post title: lowercased,
// diacritics stripped, punctuation removed, whitespace runs collapsed to
// single hyphens, duplicate hyphens collapsed, leading/trailing hyphens
// trimmed. Degenerate input yields an empty string; uniqueness is the
// caller's responsibility.
func GenerateSlug(title string) string {
	lower := strings.ToLower(title)
	if stripped, _, err := transform.String(deaccent, lower); err == nil {
		lower = stripped
	}

	var b strings.Builder
	b.Grow(len(lower))
	lastHyphen := true // suppress leading hyphens
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		// anything else is punctuation and dropped
	}
	return strings.TrimRight(b.String(), "-")
}
