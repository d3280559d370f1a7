package artifact

import (
	"strings"
	"unicode"
)

// Sanitize replaces characters that are illegal in file paths on common
// filesystems with an underscore and trims surrounding whitespace and dots.
func Sanitize(segment string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, segment)
	return strings.Trim(strings.TrimSpace(cleaned), ".")
}

// alphanumeric strips every character that is not an ASCII letter or digit
func alphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}
