package common

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HasAny returns true if s contains any of the substrings, ignoring case.
func HasAny(s string, subs ...string) bool {
	folded := Lower(s)
	for _, sub := range subs {
		if strings.Contains(folded, Lower(sub)) {
			return true
		}
	}
	return false
}

// Lower lower-cases s with Unicode-aware rules.
// Casers keep state, so a fresh one is built per call.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Title capitalizes each word of s, e.g. "new york" -> "New York".
func Title(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
