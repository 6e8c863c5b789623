// Package utils provides small helpers shared across skillkit: skill name
// filtering, text truncation for reports, and polling helpers used by tests.
package utils

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Truncate shortens s to at most max runes. Longer strings keep the first
// max-3 runes followed by "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 3 {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-3]) + "..."
}

// Plural returns singular when n is one and plural otherwise.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// Dedupe returns the distinct non-empty strings in values, trimmed and sorted.
func Dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
