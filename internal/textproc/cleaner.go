package textproc

import (
	"strings"
	"unicode"
)

// Clean collapses whitespace runs to a single space, strips
// non-printable characters and trims the result. It is total and
// idempotent, so it can be applied per chunk without coordination.
func Clean(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	inSpace := false
	for _, r := range content {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if !unicode.IsPrint(r) {
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
