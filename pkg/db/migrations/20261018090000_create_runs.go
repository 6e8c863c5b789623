package migrations

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillkit/pkg/db"
)

// Migration20261018090000CreateRuns creates the runs and skill_results tables.
func Migration20261018090000CreateRuns() db.Migration {
	return db.Migration{
		Version:     20261018090000,
		Description: "Create runs and skill_results tables",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					command TEXT NOT NULL,
					skills_dir TEXT NOT NULL,
					started_at TEXT NOT NULL,
					finished_at TEXT NOT NULL,
					total INTEGER NOT NULL,
					passed INTEGER NOT NULL,
					failed INTEGER NOT NULL
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create runs table")
			}

			if _, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS skill_results (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
					skill TEXT NOT NULL,
					passed BOOLEAN NOT NULL,
					error_count INTEGER NOT NULL DEFAULT 0,
					warning_count INTEGER NOT NULL DEFAULT 0,
					tests_run INTEGER NOT NULL DEFAULT 0,
					tests_passed INTEGER NOT NULL DEFAULT 0,
					triggers_run INTEGER NOT NULL DEFAULT 0,
					triggers_passed INTEGER NOT NULL DEFAULT 0,
					findings TEXT NOT NULL DEFAULT '[]',
					outcomes TEXT NOT NULL DEFAULT '[]'
				)
			`); err != nil {
				return errors.Wrap(err, "failed to create skill_results table")
			}

			return nil
		},
		Down: func(tx *sql.Tx) error {
			if _, err := tx.Exec("DROP TABLE IF EXISTS skill_results"); err != nil {
				return errors.Wrap(err, "failed to drop skill_results table")
			}
			if _, err := tx.Exec("DROP TABLE IF EXISTS runs"); err != nil {
				return errors.Wrap(err, "failed to drop runs table")
			}
			return nil
		},
	}
}
