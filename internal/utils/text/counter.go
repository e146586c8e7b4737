// Package text provides small string utilities shared by the scraper, the
// import pipeline and the text-generation providers.
package text

import "strings"

// CountRunes counts the number of Unicode characters (runes) in the given text.
//
// Examples:
//
//	CountRunes("hello")     // returns 5
//	CountRunes("café")      // returns 4
//	CountRunes("")          // returns 0
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate shortens s to at most n runes and appends suffix when something
// was cut. The suffix is not counted towards n.
//
//	Truncate("Sacramento", 3, "...") // "Sac..."
func Truncate(s string, n int, suffix string) string {
	if n < 0 {
		n = 0
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + suffix
}

// CollapseWhitespace replaces every run of whitespace with a single space and
// trims the ends.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
