package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace reduces every whitespace run (spaces, tabs, newlines) to
// a single space and trims the result.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// Truncate shortens text to at most max runes, appending "..." when text was
// removed. Non-positive max returns the trimmed text unchanged.
func Truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// MaskSecret replaces every occurrence of secret in text with "***" so the
// result is safe to log. Empty secrets leave the text unchanged.
func MaskSecret(text, secret string) string {
	if secret == "" {
		return text
	}
	return strings.ReplaceAll(text, secret, "***")
}
