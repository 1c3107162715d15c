// Package render holds text helpers shared by the TUI views.
package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// Sanitize drops invalid UTF-8 and control characters other than tab, and
// turns non-breaking spaces into plain ones. Tag metadata goes through it
// before it reaches the terminal.
func Sanitize(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return r
		case r == '\u00a0':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// TruncateEllipsis sanitizes s and cuts it to maxWidth cells, ending in "…"
// when anything was removed. Wide runes count as two cells.
func TruncateEllipsis(s string, maxWidth int) string {
	return runewidth.Truncate(Sanitize(s), maxWidth, ellipsis)
}
