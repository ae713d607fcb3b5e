package diagnostic

import (
	"strings"
	"unicode"
)

// normalizeQuery produces the canonical form used as cache and trending key:
// lowercased, punctuation collapsed to single spaces.
func normalizeQuery(q string) string {
	lowered := strings.ToLower(strings.TrimSpace(q))
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			builder.WriteRune(' ')
			lastSpace = true
		}
	}
	normalized := strings.TrimSpace(builder.String())
	return strings.Join(strings.Fields(normalized), " ")
}
