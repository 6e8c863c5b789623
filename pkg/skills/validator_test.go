package skills

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longBody = "Body text here that is definitely over one hundred characters long to avoid the short-content warning."

func newProtoValidator() *Validator {
	return NewValidator(WithNamePrefix("proto"))
}

func warningFields(r Result) []string {
	fields := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		fields = append(fields, w.Field)
	}
	return fields
}

func TestValidateMinimalHeader(t *testing.T) {
	doc := "---\nname: proto-seo-basic\ndescription: Optimizes pages for search engines\nversion: 1.0.0\n---\n" + longBody

	result := newProtoValidator().ValidateDocument("proto-seo-basic", doc)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.ElementsMatch(t, []string{
		"tags",
		"triggers.keywords",
		"progressive_disclosure.level1_tokens",
		"progressive_disclosure.level2_tokens",
	}, warningFields(result))
}

func TestValidateVersion(t *testing.T) {
	doc := "---\nname: proto-seo-basic\ndescription: Optimizes pages for search engines\nversion: v2\n---\n" + longBody

	t.Run("non-framework skill", func(t *testing.T) {
		result := newProtoValidator().ValidateDocument("proto-seo-basic", doc)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "version", result.Errors[0].Field)
		assert.Equal(t, SeverityError, result.Errors[0].Severity)
		assert.False(t, result.Valid)
	})

	t.Run("framework skill demotes to warning", func(t *testing.T) {
		result := newProtoValidator().ValidateDocument("proto-nextjs@14", doc)
		assert.Empty(t, result.ErrorsFor("version"))
		require.Len(t, result.WarningsFor("version"), 1)
		assert.Contains(t, result.WarningsFor("version")[0].Message, "allowed for framework skills")
	})

	t.Run("framework keyword in identifier", func(t *testing.T) {
		result := newProtoValidator().ValidateDocument("proto-lang-framework-go", doc)
		assert.Empty(t, result.ErrorsFor("version"))
	})

	t.Run("numeric versions are checked as text", func(t *testing.T) {
		floatDoc := strings.Replace(doc, "version: v2", "version: 1.0", 1)
		result := newProtoValidator().ValidateDocument("proto-seo-basic", floatDoc)
		require.Len(t, result.ErrorsFor("version"), 1)
		assert.Contains(t, result.ErrorsFor("version")[0].Message, "'1.0'")
	})
}

func TestValidateNestedTriggersWithPhases(t *testing.T) {
	doc := `---
name: proto-seo-basic
description: Optimizes pages for search engines
version: 1.0.0
tags: [seo]
triggers:
  keywords:
    - seo
  phases:
    - plan
    - bogus
progressive_disclosure:
  enabled: true
  level1_tokens: ~100
  level2_tokens: ~3000
---
` + longBody

	result := newProtoValidator().ValidateDocument("proto-seo-basic", doc)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "triggers.phases", result.Errors[0].Field)
	assert.Contains(t, result.Errors[0].Message, "'bogus'")
	for _, phase := range ValidPhases {
		assert.Contains(t, result.Errors[0].Message, phase)
	}
	assert.Empty(t, result.Warnings)
}

func TestValidateRequiredFields(t *testing.T) {
	result := newProtoValidator().ValidateDocument("proto-seo-basic", "---\ntags: [a]\n---\n"+longBody)

	assert.False(t, result.Valid)
	for _, field := range RequiredFields {
		require.Len(t, result.ErrorsFor(field), 1, field)
		assert.Contains(t, result.ErrorsFor(field)[0].Message, "'"+field+"' is missing")
	}
}

func TestValidateRequiredFieldMonotonicity(t *testing.T) {
	v := newProtoValidator()
	without := v.ValidateDocument("proto-seo-basic", "---\nname: proto-seo-basic\nversion: 1.0.0\n---\n"+longBody)
	with := v.ValidateDocument("proto-seo-basic", "---\nname: proto-seo-basic\nversion: 1.0.0\ndescription: A long enough description\n---\n"+longBody)

	assert.Len(t, without.ErrorsFor("description"), 1)
	assert.LessOrEqual(t, len(with.ErrorsFor("description")), len(without.ErrorsFor("description")))
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		identifier  string
		wantError   bool
		wantWarning bool
	}{
		{"valid", "proto-seo-basic", "proto-seo-basic", false, false},
		{"versioned", "proto-nextjs-app@14.2", "proto-nextjs-app@14.2", false, false},
		{"wrong prefix", "other-seo-basic", "other-seo-basic", true, false},
		{"uppercase domain", "proto-SEO-basic", "proto-SEO-basic", true, false},
		{"missing name segment", "proto-seo", "proto-seo", true, false},
		{"folder mismatch", "proto-seo-basic", "seo-basic", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "---\nname: " + tt.value + "\ndescription: A long enough description\nversion: 1.0.0\n---\n" + longBody
			result := newProtoValidator().ValidateDocument(tt.identifier, doc)
			assert.Equal(t, tt.wantError, len(result.ErrorsFor("name")) > 0)
			assert.Equal(t, tt.wantWarning, len(result.WarningsFor("name")) > 0)
		})
	}
}

func TestValidateDefaultPrefix(t *testing.T) {
	v := NewValidator()
	assert.Equal(t, DefaultNamePrefix, v.NamePrefix())

	doc := "---\nname: jikime-marketing-seo\ndescription: A long enough description\nversion: 1.0.0\n---\n" + longBody
	result := v.ValidateDocument("jikime-marketing-seo", doc)
	assert.Empty(t, result.ErrorsFor("name"))
}

func TestValidateDescription(t *testing.T) {
	base := "---\nname: proto-seo-basic\nversion: 1.0.0\ndescription: %s\n---\n" + longBody

	short := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", "too short", 1))
	require.Len(t, short.ErrorsFor("description"), 1)
	assert.Contains(t, short.ErrorsFor("description")[0].Message, "too short")
	assert.Empty(t, short.WarningsFor("description"))

	long := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", strings.Repeat("d", 501), 1))
	assert.Empty(t, long.ErrorsFor("description"))
	require.Len(t, long.WarningsFor("description"), 1)
	assert.Contains(t, long.WarningsFor("description")[0].Message, "501 chars")

	empty := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", "", 1))
	assert.Empty(t, empty.ErrorsFor("description"))
}

func TestValidateTags(t *testing.T) {
	base := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\n%s---\n" + longBody

	tests := []struct {
		name        string
		tags        string
		wantError   bool
		wantWarning bool
	}{
		{"absent", "", false, true},
		{"empty inline list", "tags: []\n", false, true},
		{"bare key", "tags:\n", false, true},
		{"dash list", "tags:\n  - seo\n", false, false},
		{"scalar", "tags: seo\n", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", tt.tags, 1))
			assert.Equal(t, tt.wantError, len(result.ErrorsFor("tags")) > 0)
			assert.Equal(t, tt.wantWarning, len(result.WarningsFor("tags")) > 0)
		})
	}
}

func TestValidateTriggersScalarPhase(t *testing.T) {
	doc := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\ntriggers:\n  keywords: [seo]\n  phases: deploy\n---\n" + longBody

	result := newProtoValidator().ValidateDocument("proto-seo-basic", doc)
	require.Len(t, result.ErrorsFor("triggers.phases"), 1)
	assert.Contains(t, result.ErrorsFor("triggers.phases")[0].Message, "'deploy'")
	assert.Empty(t, result.WarningsFor("triggers.keywords"))
}

func TestValidateProgressiveDisclosure(t *testing.T) {
	base := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\n%s---\n" + longBody

	tests := []struct {
		name     string
		block    string
		warnings int
	}{
		{"absent", "", 2},
		{"disabled", "progressive_disclosure:\n  enabled: false\n", 0},
		{"enabled by default", "progressive_disclosure:\n  level1_tokens: ~100\n", 1},
		{"complete", "progressive_disclosure:\n  enabled: true\n  level1_tokens: ~100\n  level2_tokens: 2000\n", 0},
		{"not a mapping", "progressive_disclosure: on\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", tt.block, 1))
			count := len(result.WarningsFor("progressive_disclosure.level1_tokens")) +
				len(result.WarningsFor("progressive_disclosure.level2_tokens"))
			assert.Equal(t, tt.warnings, count)
		})
	}
}

func TestValidateContext(t *testing.T) {
	base := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\ncontext: %s\n---\n" + longBody

	for _, ctxValue := range ValidContexts {
		result := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", ctxValue, 1))
		assert.Empty(t, result.ErrorsFor("context"), ctxValue)
	}

	result := newProtoValidator().ValidateDocument("proto-seo-basic", strings.Replace(base, "%s", "shared", 1))
	require.Len(t, result.ErrorsFor("context"), 1)
	assert.Contains(t, result.ErrorsFor("context")[0].Message, "fork, main, isolated")
}

func TestValidateContent(t *testing.T) {
	header := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\n---\n"

	empty := newProtoValidator().ValidateDocument("proto-seo-basic", header+"\n   \n")
	require.Len(t, empty.WarningsFor("content"), 1)
	assert.Equal(t, "No content after frontmatter", empty.WarningsFor("content")[0].Message)

	short := newProtoValidator().ValidateDocument("proto-seo-basic", header+"# Short\n")
	require.Len(t, short.WarningsFor("content"), 1)
	assert.Equal(t, "Very little content after frontmatter", short.WarningsFor("content")[0].Message)

	full := newProtoValidator().ValidateDocument("proto-seo-basic", header+longBody)
	assert.Empty(t, full.WarningsFor("content"))
}

func TestValidateNoHeader(t *testing.T) {
	for name, doc := range map[string]string{
		"no delimiters": "# Title\n" + longBody,
		"empty header":  "---\n---\n" + longBody,
	} {
		t.Run(name, func(t *testing.T) {
			result := newProtoValidator().ValidateDocument("proto-seo-basic", doc)
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Equal(t, "frontmatter", result.Errors[0].Field)
			assert.Empty(t, result.Warnings)
		})
	}
}

func TestValidateReportsParserIssues(t *testing.T) {
	doc := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\nstray line\n---\n" + longBody

	result := newProtoValidator().ValidateDocument("proto-seo-basic", doc)
	assert.True(t, result.Valid)
	require.Len(t, result.WarningsFor("frontmatter"), 1)
	assert.Contains(t, result.WarningsFor("frontmatter")[0].Message, "line 5")
}

func TestValidateYAMLCompat(t *testing.T) {
	doc := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\nnote: a: b\n---\n" + longBody

	lenient := newProtoValidator().ValidateDocument("proto-seo-basic", doc)
	assert.Empty(t, lenient.WarningsFor("frontmatter"))

	strict := NewValidator(WithNamePrefix("proto"), WithYAMLCompat(true)).ValidateDocument("proto-seo-basic", doc)
	require.Len(t, strict.WarningsFor("frontmatter"), 1)
	assert.Contains(t, strict.WarningsFor("frontmatter")[0].Message, "not valid YAML")
	assert.True(t, strict.Valid)
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()

	missing := newProtoValidator().ValidateFile("proto-seo-basic", filepath.Join(dir, FileName))
	require.Len(t, missing.Errors, 1)
	assert.Equal(t, "file", missing.Errors[0].Field)
	assert.Equal(t, "SKILL.md not found", missing.Errors[0].Message)

	path := filepath.Join(dir, FileName)
	doc := "---\nname: proto-seo-basic\ndescription: A long enough description\nversion: 1.0.0\n---\n" + longBody
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	result := newProtoValidator().ValidateFile("proto-seo-basic", path)
	assert.True(t, result.Valid)
	assert.Equal(t, "proto-seo-basic", result.Skill)
}

func TestResultHelpers(t *testing.T) {
	result := Result{
		Errors:   []Finding{{Field: "a", Severity: SeverityError}},
		Warnings: []Finding{{Field: "b", Severity: SeverityWarning}, {Field: "a", Severity: SeverityWarning}},
	}

	assert.Len(t, result.Findings(), 3)
	assert.Equal(t, SeverityError, result.Findings()[0].Severity)
	assert.Len(t, result.WarningsFor("a"), 1)
	assert.Equal(t, "[a] boom", Finding{Field: "a", Message: "boom"}.String())
}
