package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillkit/pkg/history"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

func seedRun(t *testing.T) *history.Run {
	t.Helper()
	ctx := context.Background()

	store, err := history.Open(ctx, viper.GetString("history.db_path"))
	require.NoError(t, err)
	defer store.Close()

	results := []history.SkillResult{
		{Skill: "jikime-lang-go", Passed: true},
		{
			Skill:      "lang-rust",
			ErrorCount: 1,
			Findings: []skills.Finding{
				{Field: "name", Message: "must start with 'jikime-'", Severity: skills.SeverityError},
			},
		},
	}
	run, err := store.Record(ctx, history.CommandValidate, skillsDir(), time.Now().Add(-time.Second), results)
	require.NoError(t, err)
	return run
}

func TestRecordRun(t *testing.T) {
	t.Run("skipped unless requested", func(t *testing.T) {
		setupSkills(t, nil)
		out := captureOutput(t)

		recordRun(context.Background(), false, history.CommandValidate, time.Now(), nil)
		assert.Empty(t, out.String())
	})

	t.Run("recorded with flag", func(t *testing.T) {
		setupSkills(t, nil)
		out := captureOutput(t)

		recordRun(context.Background(), true, history.CommandTest, time.Now(),
			[]history.SkillResult{{Skill: "jikime-lang-go", Passed: true}})
		assert.Contains(t, out.String(), "Recorded run ")

		cmd, cmdOut := newTestCommand(t)
		require.NoError(t, withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryList(cmd, store, &HistoryListConfig{Limit: 10, JSON: true})
		}))

		var runs []history.Run
		require.NoError(t, json.Unmarshal(cmdOut.Bytes(), &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, history.CommandTest, runs[0].Command)
		assert.Equal(t, 1, runs[0].Passed)
	})

	t.Run("recorded by config", func(t *testing.T) {
		setupSkills(t, nil)
		viper.Set("history.enabled", true)
		out := captureOutput(t)

		recordRun(context.Background(), false, history.CommandValidate, time.Now(), nil)
		assert.Contains(t, out.String(), "Recorded run ")
	})
}

func TestRunHistoryList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		setupSkills(t, nil)
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		require.NoError(t, withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryList(cmd, store, NewHistoryListConfig())
		}))
		assert.Contains(t, out.String(), "No runs recorded yet")
	})

	t.Run("table", func(t *testing.T) {
		setupSkills(t, nil)
		run := seedRun(t)
		cmd, cmdOut := newTestCommand(t)

		require.NoError(t, withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryList(cmd, store, NewHistoryListConfig())
		}))
		assert.Contains(t, cmdOut.String(), "ID")
		assert.Contains(t, cmdOut.String(), "SKILLS DIR")
		assert.Contains(t, cmdOut.String(), shortID(run.ID))
		assert.Contains(t, cmdOut.String(), "validate")
	})
}

func TestRunHistoryShow(t *testing.T) {
	setupSkills(t, nil)
	run := seedRun(t)

	t.Run("by prefix", func(t *testing.T) {
		out := captureOutput(t)
		cmd, _ := newTestCommand(t)

		require.NoError(t, withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryShow(cmd, store, shortID(run.ID), false)
		}))
		assert.Contains(t, out.String(), "Run "+run.ID)
		assert.Contains(t, out.String(), "Command:  validate")
		assert.Contains(t, out.String(), "✓ jikime-lang-go")
		assert.Contains(t, out.String(), "✗ lang-rust")
		assert.Contains(t, out.String(), "ERROR: [name] must start with 'jikime-'")
		assert.Contains(t, out.String(), "Total: 2 | Passed: 1 | Failed: 1")
	})

	t.Run("json", func(t *testing.T) {
		cmd, cmdOut := newTestCommand(t)

		require.NoError(t, withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryShow(cmd, store, run.ID, true)
		}))

		var detail history.RunDetail
		require.NoError(t, json.Unmarshal(cmdOut.Bytes(), &detail))
		assert.Equal(t, run.ID, detail.ID)
		assert.Len(t, detail.Results, 2)
	})

	t.Run("unknown id", func(t *testing.T) {
		cmd, _ := newTestCommand(t)

		err := withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryShow(cmd, store, "ffffffff", false)
		})
		require.ErrorIs(t, err, history.ErrRunNotFound)
	})
}

func TestGetHistoryListConfigFromFlags(t *testing.T) {
	config := getHistoryListConfigFromFlags(historyListCmd)
	assert.Equal(t, NewHistoryListConfig(), config)
}
