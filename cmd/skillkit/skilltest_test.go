package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillkit/pkg/triggers"
)

const failingExamples = `keywords: [golang]
should_trigger:
  - "write some rust"
test_1_name: Missing expected
test_1_input: golang
`

func TestRunTest(t *testing.T) {
	t.Run("passing suite", func(t *testing.T) {
		setupSkills(t, map[string]string{
			"jikime-lang-go/SKILL.md":            validSkill,
			"jikime-lang-go/tests/examples.yaml": goExamples,
			"jikime-lang-rust/SKILL.md":          validSkill,
			"_template/SKILL.md":                 validSkill,
			"_template/tests/examples.yaml":      failingExamples,
		})
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		config := NewTestConfig()
		config.Verbose = true
		require.NoError(t, runTest(cmd, config))

		assert.Contains(t, out.String(), "✓ jikime-lang-go\n    Tests: 1/1\n    Triggers: 2/2\n")
		assert.Contains(t, out.String(), "○ jikime-lang-rust (no tests)")
		assert.Contains(t, out.String(), "Skills: 2 total, 1 with tests")
		assert.Contains(t, out.String(), "All tests PASSED")
		assert.NotContains(t, out.String(), "_template")
	})

	t.Run("failing suite", func(t *testing.T) {
		setupSkills(t, map[string]string{
			"jikime-lang-go/SKILL.md":            validSkill,
			"jikime-lang-go/tests/examples.yaml": failingExamples,
		})
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		err := runTest(cmd, NewTestConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tests failed: jikime-lang-go")

		assert.Contains(t, out.String(), "✗ jikime-lang-go")
		assert.Contains(t, out.String(), "Tests: 0/1")
		assert.Contains(t, out.String(), "Triggers: 0/1")
		assert.Contains(t, out.String(), "Missing: expected")
		assert.Contains(t, out.String(), "Some tests FAILED")
	})

	t.Run("no tests anywhere passes", func(t *testing.T) {
		setupSkills(t, map[string]string{"jikime-lang-go/SKILL.md": validSkill})
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		require.NoError(t, runTest(cmd, NewTestConfig()))
		assert.Contains(t, out.String(), "No tests found. Add tests/examples.yaml to skills.")
	})

	t.Run("json output", func(t *testing.T) {
		setupSkills(t, map[string]string{
			"jikime-lang-go/SKILL.md":            validSkill,
			"jikime-lang-go/tests/examples.yaml": goExamples,
		})
		captureOutput(t)
		cmd, stdout := newTestCommand(t)

		config := NewTestConfig()
		config.JSON = true
		require.NoError(t, runTest(cmd, config))

		var reports []triggers.Report
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &reports))
		require.Len(t, reports, 1)
		assert.Equal(t, "jikime-lang-go", reports[0].Skill)
		assert.True(t, reports[0].Passed())
	})
}
