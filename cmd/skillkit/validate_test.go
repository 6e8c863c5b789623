package main

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillkit/pkg/history"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

func TestGetValidateConfigFromFlags(t *testing.T) {
	require.NoError(t, validateCmd.Flags().Set("skill", "jikime-lang-*"))
	require.NoError(t, validateCmd.Flags().Set("verbose", "true"))
	t.Cleanup(func() {
		_ = validateCmd.Flags().Set("verbose", "false")
		_ = validateCmd.Flags().Set("skill", "")
	})

	config := getValidateConfigFromFlags(validateCmd)
	assert.Equal(t, []string{"jikime-lang-*"}, config.Skills)
	assert.True(t, config.Verbose)
	assert.False(t, config.Record)
}

func TestRunValidate(t *testing.T) {
	t.Run("all valid", func(t *testing.T) {
		setupSkills(t, map[string]string{"jikime-lang-go/SKILL.md": validSkill})
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		err := runValidate(cmd, NewValidateConfig())
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Total: 1 | Passed: 1 | Failed: 0")
		assert.Contains(t, out.String(), "✓ Validation PASSED")
		assert.NotContains(t, out.String(), "✓ jikime-lang-go\n")
	})

	t.Run("failures exit non-zero", func(t *testing.T) {
		setupSkills(t, map[string]string{
			"jikime-lang-go/SKILL.md": validSkill,
			"lang-rust/SKILL.md":      invalidSkill,
			"jikime-lang-empty/.keep": "",
			".hidden/SKILL.md":        invalidSkill,
			"_template/SKILL.md":      invalidSkill,
		})
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		err := runValidate(cmd, NewValidateConfig())
		require.Error(t, err)

		var failure *runFailure
		require.True(t, errors.As(err, &failure))
		assert.Contains(t, err.Error(), "lang-rust")
		assert.Contains(t, err.Error(), "jikime-lang-empty")
		assert.Contains(t, err.Error(), "_template")

		assert.Contains(t, out.String(), "✗ lang-rust")
		assert.Contains(t, out.String(), "    ERROR: [version]")
		assert.Contains(t, out.String(), "    ERROR: [file] SKILL.md not found")
		assert.Contains(t, out.String(), "Total: 4 | Passed: 1 | Failed: 3")
		assert.NotContains(t, out.String(), ".hidden")
	})

	t.Run("json output", func(t *testing.T) {
		setupSkills(t, map[string]string{"jikime-lang-go/SKILL.md": validSkill})
		captureOutput(t)
		cmd, stdout := newTestCommand(t)

		config := NewValidateConfig()
		config.JSON = true
		require.NoError(t, runValidate(cmd, config))

		var results []skills.Result
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
		require.Len(t, results, 1)
		assert.True(t, results[0].Valid)
	})

	t.Run("records history", func(t *testing.T) {
		setupSkills(t, map[string]string{"lang-rust/SKILL.md": invalidSkill})
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		config := NewValidateConfig()
		config.Record = true
		require.Error(t, runValidate(cmd, config))
		assert.Contains(t, out.String(), "Recorded run ")

		require.NoError(t, withHistory(cmd.Context(), func(store *history.Store) error {
			runs, err := store.ListRuns(cmd.Context(), 10)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, history.CommandValidate, runs[0].Command)
			assert.Equal(t, 1, runs[0].Failed)
			return nil
		}))
	})

	t.Run("no skills", func(t *testing.T) {
		setupSkills(t, nil)
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		require.NoError(t, runValidate(cmd, NewValidateConfig()))
		assert.Contains(t, out.String(), "No skills found")
	})
}
