// Package normalize cleans up caller-supplied text before it is validated and stored.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text returns s in Unicode NFC form with control characters removed, runs of
// whitespace collapsed to a single space, and surrounding whitespace trimmed.
// "  The Hobbit \n" -> "The Hobbit".
func Text(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r):
			continue
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	return b.String()
}

// TextPtr applies Text to a non-nil pointer and returns a pointer to the result.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}

// Token trims surrounding whitespace from an opaque identifier without altering its interior.
func Token(s string) string {
	return strings.TrimSpace(s)
}
