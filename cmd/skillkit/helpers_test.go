package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

const validSkill = `---
name: jikime-lang-go
description: Go language patterns and idioms for backend services
version: 1.0.0
tags: ["go", "backend"]
triggers:
  keywords: ["golang", "goroutine"]
---

# Go

Prefer small interfaces, explicit error returns and context propagation on
every blocking call. Keep goroutines owned by a clear parent.
`

const invalidSkill = `---
name: lang-rust
description: short
version: one
---

# Rust
`

const goExamples = `keywords:
  - golang
should_trigger:
  - "write a golang service"
should_not_trigger:
  - "bake a cake"
test_1_name: Basic
test_1_input: golang http handler
test_1_expected: uses the skill
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// setupSkills creates a skills directory and points the configuration at it.
func setupSkills(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	for rel, content := range files {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(rel)), content)
	}

	viper.Set("skills_dir", dir)
	viper.Set("history.db_path", filepath.Join(t.TempDir(), "history.db"))
	return dir
}

// captureOutput routes presenter output into a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	prev := presenter.SetDefault(presenter.NewWithOptions(&out, &out, presenter.ColorNever))
	t.Cleanup(func() { presenter.SetDefault(prev) })
	return &out
}

func newTestCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)
	return cmd, &out
}

func skillPath(dir, id string) string {
	return filepath.Join(dir, id, skills.FileName)
}
