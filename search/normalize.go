package search

import "strings"

// Normalize canonicalizes free text into comparable tokens: ASCII letters are
// lower-cased, every byte outside [a-z0-9] becomes a separator, and the
// result is split on runs of separators. Empty or whitespace-only input
// yields no tokens.
//
// Non-ASCII letters are treated as separators; case folding is ASCII only so
// the result never depends on locale.
func Normalize(text string) []string {
	return strings.Fields(NormalizeField(text))
}

// NormalizeField returns the normalized form of an indexable field: its
// tokens joined by single spaces.
func NormalizeField(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSpace := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
