package utils

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// NameFilter selects skills by name. Patterns are either exact names or
// glob patterns such as "jikime-marketing-*" or "*-{seo,ads}".
type NameFilter struct {
	exact        map[string]bool
	globPatterns []glob.Glob
	rawPatterns  []string
}

// NewNameFilter compiles the given patterns. Empty patterns are ignored and
// a filter without patterns matches every name.
func NewNameFilter(patterns ...string) (*NameFilter, error) {
	f := &NameFilter{
		exact:        make(map[string]bool),
		globPatterns: make([]glob.Glob, 0),
		rawPatterns:  make([]string, 0),
	}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if !strings.ContainsAny(p, "*?[{") {
			f.exact[p] = true
			continue
		}

		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid skill pattern %q", p)
		}
		f.globPatterns = append(f.globPatterns, g)
		f.rawPatterns = append(f.rawPatterns, p)
	}

	return f, nil
}

// Empty reports whether the filter has no patterns.
func (f *NameFilter) Empty() bool {
	return f == nil || (len(f.exact) == 0 && len(f.globPatterns) == 0)
}

// Match reports whether name is selected.
func (f *NameFilter) Match(name string) bool {
	if f.Empty() {
		return true
	}

	if f.exact[name] {
		return true
	}

	for _, g := range f.globPatterns {
		if g.Match(name) {
			return true
		}
	}

	return false
}

// Patterns returns the configured patterns, exact names first.
func (f *NameFilter) Patterns() []string {
	if f == nil {
		return nil
	}

	result := make([]string, 0, len(f.exact)+len(f.rawPatterns))
	for name := range f.exact {
		result = append(result, name)
	}
	return append(result, f.rawPatterns...)
}
