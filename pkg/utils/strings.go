package utils

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// ContainsAny checks if the text contains any of the given keywords
func ContainsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// ContainsFold checks two strings for bidirectional substring containment,
// ignoring case. Either string containing the other counts as a match.
func ContainsFold(a, b string) bool {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	return strings.Contains(la, lb) || strings.Contains(lb, la)
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and
// trims the result
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
