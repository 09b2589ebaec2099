package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxLength bounds free text taken from command options.
const DefaultMaxLength = 1000

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Trim removes leading and trailing whitespace from the string.
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// TrimToLower trims and lowercases in one step.
func TrimToLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MaxLength cuts s to at most maxLen runes.
func MaxLength(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen])
}

// RemoveExtraWhitespace collapses runs of whitespace into a single space.
func RemoveExtraWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// RemoveControlChars drops control characters except newline, carriage return and tab.
func RemoveControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// SingleLine replaces line breaks with spaces and collapses whitespace.
func SingleLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	return RemoveExtraWhitespace(s)
}

// ChatText keeps ASCII letters, digits, whitespace and the characters "-_.@",
// cuts the result to maxLen runes, then trims it.
// A non-positive maxLen means DefaultMaxLength.
//
// Markdown, mentions and emoji are stripped, so the output is safe to echo
// into an embed field.
func ChatText(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	kept := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '-', r == '.', r == '@':
			return r
		case unicode.IsSpace(r):
			return r
		}
		return -1
	}, s)

	return strings.TrimSpace(MaxLength(kept, maxLen))
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return TrimToLower(s)
}
