package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "abcdefghij", 8, "abcde..."},
		{"runes", "ééééééééé", 6, "ééé..."},
		{"tiny max", "abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.max))
		})
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "skill", Plural(1, "skill", "skills"))
	assert.Equal(t, "skills", Plural(0, "skill", "skills"))
	assert.Equal(t, "skills", Plural(3, "skill", "skills"))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"ads", "seo"}, Dedupe([]string{"seo", " ads ", "", "seo"}))
	assert.Empty(t, Dedupe(nil))
}
