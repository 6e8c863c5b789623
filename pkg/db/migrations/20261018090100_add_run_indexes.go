package migrations

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillkit/pkg/db"
)

// Migration20261018090100AddRunIndexes indexes runs by start time and
// results by run and skill.
func Migration20261018090100AddRunIndexes() db.Migration {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_skill_results_run_id ON skill_results(run_id)",
		"CREATE INDEX IF NOT EXISTS idx_skill_results_skill ON skill_results(skill)",
	}

	return db.Migration{
		Version:     20261018090100,
		Description: "Add run and result indexes",
		Up: func(tx *sql.Tx) error {
			for _, stmt := range indexes {
				if _, err := tx.Exec(stmt); err != nil {
					return errors.Wrapf(err, "failed to execute %q", stmt)
				}
			}
			return nil
		},
		Down: func(tx *sql.Tx) error {
			for _, name := range []string{"idx_skill_results_skill", "idx_skill_results_run_id", "idx_runs_started_at"} {
				if _, err := tx.Exec("DROP INDEX IF EXISTS " + name); err != nil {
					return errors.Wrapf(err, "failed to drop index %s", name)
				}
			}
			return nil
		},
	}
}
