package frontmatter

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("header and body", func(t *testing.T) {
		header, body, err := Split("---\nname: a\n---\n# Title\n")
		require.NoError(t, err)
		assert.Equal(t, "name: a", header)
		assert.Equal(t, "# Title\n", body)
	})

	t.Run("tolerates trailing whitespace and CRLF", func(t *testing.T) {
		header, body, err := Split("---  \r\nname: a\r\n---\r\nbody")
		require.NoError(t, err)
		assert.Equal(t, "name: a\r", header)
		assert.Equal(t, "body", body)
	})

	t.Run("empty header", func(t *testing.T) {
		header, body, err := Split("---\n---\nbody")
		require.NoError(t, err)
		assert.Empty(t, header)
		assert.Equal(t, "body", body)
	})

	t.Run("missing opening delimiter", func(t *testing.T) {
		_, _, err := Split("name: a\n---\n")
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("leading blank line", func(t *testing.T) {
		_, _, err := Split("\n---\nname: a\n---\n")
		assert.ErrorIs(t, err, ErrNoHeader)
	})

	t.Run("missing closing delimiter", func(t *testing.T) {
		_, _, err := Split("---\nname: a\n")
		assert.True(t, errors.Is(err, ErrNoHeader))
	})

	t.Run("closing line must be exactly the delimiter", func(t *testing.T) {
		_, _, err := Split("---\nname: a\n----\n")
		assert.ErrorIs(t, err, ErrNoHeader)
	})
}

func TestParseScalars(t *testing.T) {
	h, err := Parse(`---
name: proto-seo-basic
description: "Optimizes pages: for search engines"
version: 1.0.0
user-invocable: yes
priority: 3
weight: 0.5
# a comment

empty:
---
Body`)
	require.NoError(t, err)

	assert.Equal(t, Record{
		"name":           "proto-seo-basic",
		"description":    "Optimizes pages: for search engines",
		"version":        "1.0.0",
		"user-invocable": true,
		"priority":       3,
		"weight":         0.5,
		"empty":          nil,
	}, h.Record)
	assert.Equal(t, "Body", h.Body)
	assert.Empty(t, h.Issues)
	assert.True(t, h.Record.Has("empty"))
}

func TestParseLists(t *testing.T) {
	t.Run("indented dash items", func(t *testing.T) {
		rec, issues := ParseRecord("tags:\n  - seo\n  - \"marketing\"\nname: x")
		assert.Empty(t, issues)
		assert.Equal(t, []string{"seo", "marketing"}, rec["tags"])
		assert.Equal(t, "x", rec["name"])
	})

	t.Run("zero-indent dash items under a bare key", func(t *testing.T) {
		rec, issues := ParseRecord("tags:\n- seo\n- search\nversion: 1.0.0")
		assert.Empty(t, issues)
		assert.Equal(t, []string{"seo", "search"}, rec["tags"])
		assert.Equal(t, "1.0.0", rec["version"])
	})

	t.Run("inline list", func(t *testing.T) {
		rec, _ := ParseRecord("allowed-tools: [Read, Write, 'Bash']")
		assert.Equal(t, []string{"Read", "Write", "Bash"}, rec["allowed-tools"])
	})

	t.Run("dash items keep their text uncoerced", func(t *testing.T) {
		rec, _ := ParseRecord("versions:\n  - 14\n  - true")
		assert.Equal(t, []string{"14", "true"}, rec["versions"])
	})

	t.Run("dash item containing a colon", func(t *testing.T) {
		rec, issues := ParseRecord("examples:\n  - run: fast")
		assert.Empty(t, issues)
		assert.Equal(t, []string{"run: fast"}, rec["examples"])
	})
}

func TestParseNestedMapping(t *testing.T) {
	h, err := Parse(`---
name: proto-seo-basic
triggers:
  keywords:
    - seo
  phases:
    - plan
    - bogus
  priority: ~5
progressive_disclosure:
  enabled: true
  level1_tokens: ~100
  level2_tokens: ~4000
context: fork
---
`)
	require.NoError(t, err)
	assert.Empty(t, h.Issues)

	triggers, ok := h.Record.Map("triggers")
	require.True(t, ok)
	assert.Equal(t, []string{"seo"}, triggers.List("keywords"))
	assert.Equal(t, []string{"plan", "bogus"}, triggers.List("phases"))
	assert.Equal(t, 5, triggers["priority"])

	pd, ok := h.Record.Map("progressive_disclosure")
	require.True(t, ok)
	assert.Equal(t, Record{"enabled": true, "level1_tokens": 100, "level2_tokens": 4000}, pd)
	assert.Equal(t, "fork", h.Record["context"])
	assert.Equal(t, 2, h.Record.Depth())
}

func TestParseNestedListSameColumn(t *testing.T) {
	rec, issues := ParseRecord("triggers:\n  keywords:\n  - seo\n  - rank\n  agents: [writer]")
	assert.Empty(t, issues)
	assert.Equal(t, Record{
		"keywords": []string{"seo", "rank"},
		"agents":   []string{"writer"},
	}, rec["triggers"])
}

func TestParseEmptyNestedList(t *testing.T) {
	rec, _ := ParseRecord("triggers:\n  keywords:\nname: x")
	assert.Equal(t, Record{"keywords": []string{}}, rec["triggers"])
	assert.Equal(t, "x", rec["name"])
}

func TestParseEdgeCases(t *testing.T) {
	t.Run("indented pair after a scalar is reported and kept at top level", func(t *testing.T) {
		rec, issues := ParseRecord("name: x\n  extra: y")
		require.Len(t, issues, 1)
		assert.Equal(t, 3, issues[0].Line)
		assert.Contains(t, issues[0].Reason, "no owning key")
		assert.Equal(t, Record{"name": "x", "extra": "y"}, rec)
	})

	t.Run("empty dash item in a nested list is dropped", func(t *testing.T) {
		rec, issues := ParseRecord("triggers:\n  keywords:\n    - seo\n    -")
		require.Len(t, issues, 1)
		assert.Equal(t, 5, issues[0].Line)
		assert.Contains(t, issues[0].Reason, "empty list item")
		assert.Equal(t, Record{"keywords": []string{"seo"}}, rec["triggers"])
	})

	t.Run("empty dash items in a top-level list are dropped", func(t *testing.T) {
		rec, issues := ParseRecord("tags:\n-\n- \"\"\n- a")
		assert.Len(t, issues, 2)
		assert.Equal(t, []string{"a"}, rec["tags"])
	})

	t.Run("dash item under a scalar key is reported", func(t *testing.T) {
		rec, issues := ParseRecord("name: x\n  - stray")
		require.Len(t, issues, 1)
		assert.Equal(t, 3, issues[0].Line)
		assert.Contains(t, issues[0].Reason, "no owning key")
		assert.Equal(t, Record{"name": "x"}, rec)
	})

	t.Run("dash item at column zero cannot join a nested list", func(t *testing.T) {
		rec, issues := ParseRecord("triggers:\n  keywords:\n- seo")
		require.Len(t, issues, 1)
		assert.Equal(t, Record{"keywords": []string{}}, rec["triggers"])
	})

	t.Run("dash item after a nested scalar is reported", func(t *testing.T) {
		rec, issues := ParseRecord("progressive_disclosure:\n  enabled: true\n  - oops")
		require.Len(t, issues, 1)
		assert.Equal(t, Record{"enabled": true}, rec["progressive_disclosure"])
	})

	t.Run("key after list items is reported", func(t *testing.T) {
		rec, issues := ParseRecord("tags:\n  - a\n  nested: b")
		require.Len(t, issues, 1)
		assert.Equal(t, []string{"a"}, rec["tags"])
	})

	t.Run("line without a colon is reported", func(t *testing.T) {
		_, issues := ParseRecord("just words")
		require.Len(t, issues, 1)
		assert.Equal(t, "just words", issues[0].Text)
	})

	t.Run("empty key is reported", func(t *testing.T) {
		rec, issues := ParseRecord(": value")
		require.Len(t, issues, 1)
		assert.Empty(t, rec)
	})
}

func TestParseNestingNeverExceedsTwo(t *testing.T) {
	rec, issues := ParseRecord(`triggers:
  keywords:
    deeper:
      deepest: x
        - item
  phases: [plan]`)

	assert.LessOrEqual(t, rec.Depth(), 2)
	assert.NotEmpty(t, issues)

	triggers, ok := rec.Map("triggers")
	require.True(t, ok)
	for key, v := range triggers {
		_, isRecord := v.(Record)
		assert.False(t, isRecord, "nested key %s must not hold a mapping", key)
	}
	assert.Equal(t, "x", triggers["deepest"])
	assert.Equal(t, []string{"plan"}, triggers["phases"])
}

func TestParseIsIdempotent(t *testing.T) {
	doc := "---\nname: a\ntriggers:\n  keywords: [x, y]\n  phases:\n    - plan\ntags:\n- t1\n---\nbody"

	first, err := Parse(doc)
	require.NoError(t, err)
	second, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseNoHeader(t *testing.T) {
	h, err := Parse("# Just markdown\n")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestIssueString(t *testing.T) {
	issue := Issue{Line: 4, Text: "oops", Reason: "line is neither a key nor a list item"}
	assert.True(t, strings.HasPrefix(issue.String(), "line 4: "))
}
