package validation

import (
	"strings"
	"unicode"
)

// MaxQueryLength bounds a search query in runes.
const MaxQueryLength = 64

// SanitizeQuery trims a search query, folds control characters and runs of
// whitespace into single spaces and caps its length. The result is empty when
// nothing searchable is left.
func SanitizeQuery(input string) string {
	var b strings.Builder
	space := false
	n := 0
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			space = true
			continue
		}
		if n >= MaxQueryLength {
			break
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
			n++
		}
		space = false
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}
