// Package triggers decides whether free text activates a skill and runs the
// trigger tests a skill declares in tests/examples.yaml.
package triggers

import "strings"

// Matches reports whether any keyword occurs in text, ignoring case. An
// empty keyword set never matches.
func Matches(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// MatchedKeywords returns the keywords that occur in text, in keyword order.
func MatchedKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	matched := make([]string, 0)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			matched = append(matched, keyword)
		}
	}
	return matched
}
