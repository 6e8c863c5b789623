// Package history records validate and test runs in SQLite so results can
// be compared over time.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillkit/pkg/db"
	"github.com/jingkaihe/skillkit/pkg/db/migrations"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/triggers"
)

// ErrRunNotFound is returned when no run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// Store persists runs and their per-skill results.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens the history database at dbPath, creating and migrating it as
// needed. An empty path uses db.DefaultDBPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		var err error
		if dbPath, err = db.DefaultDBPath(); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.OpenMigrated(ctx, dbPath, migrations.All())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open history database %s", dbPath)
	}

	logger.G(ctx).WithField("path", dbPath).Debug("opened history database")
	return NewStore(sqlDB), nil
}

// NewStore wraps an already migrated database.
func NewStore(sqlDB *sqlx.DB) *Store {
	return &Store{db: sqlDB, now: time.Now}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run with its results and returns it with a fresh ID.
func (s *Store) Record(ctx context.Context, command, skillsDir string, startedAt time.Time, results []SkillResult) (*Run, error) {
	run := Run{
		ID:         uuid.NewString(),
		Command:    command,
		SkillsDir:  skillsDir,
		StartedAt:  startedAt,
		FinishedAt: s.now(),
		Total:      len(results),
	}
	for _, r := range results {
		if r.Passed {
			run.Passed++
		} else {
			run.Failed++
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, command, skills_dir, started_at, finished_at, total, passed, failed)
		VALUES (:id, :command, :skills_dir, :started_at, :finished_at, :total, :passed, :failed)
	`, toDBRun(run)); err != nil {
		return nil, errors.Wrap(err, "failed to insert run")
	}

	for _, r := range results {
		row := dbSkillResult{
			RunID:          run.ID,
			Skill:          r.Skill,
			Passed:         r.Passed,
			ErrorCount:     r.ErrorCount,
			WarningCount:   r.WarningCount,
			TestsRun:       r.TestsRun,
			TestsPassed:    r.TestsPassed,
			TriggersRun:    r.TriggersRun,
			TriggersPassed: r.TriggersPassed,
			Findings:       JSONField[[]skills.Finding]{Data: r.Findings},
			Outcomes:       JSONField[[]triggers.Outcome]{Data: r.Outcomes},
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO skill_results (
				run_id, skill, passed, error_count, warning_count,
				tests_run, tests_passed, triggers_run, triggers_passed, findings, outcomes
			) VALUES (
				:run_id, :skill, :passed, :error_count, :warning_count,
				:tests_run, :tests_passed, :triggers_run, :triggers_passed, :findings, :outcomes
			)
		`, row); err != nil {
			return nil, errors.Wrapf(err, "failed to insert result for %s", r.Skill)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit run")
	}

	return &run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT id, command, skills_dir, started_at, finished_at, total, passed, failed FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []dbRun
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := fromDBRun(row)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetRun loads a run and its results. The ID may be a unique prefix.
func (s *Store) GetRun(ctx context.Context, id string) (*RunDetail, error) {
	var rows []dbRun
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT id, command, skills_dir, started_at, finished_at, total, passed, failed FROM runs WHERE id LIKE ? || '%' LIMIT 2", id); err != nil {
		return nil, errors.Wrap(err, "failed to load run")
	}

	switch len(rows) {
	case 0:
		return nil, errors.Wrapf(ErrRunNotFound, "no run matches %q", id)
	case 2:
		return nil, errors.Errorf("run id %q is ambiguous", id)
	}

	run, err := fromDBRun(rows[0])
	if err != nil {
		return nil, err
	}

	var results []dbSkillResult
	if err := s.db.SelectContext(ctx, &results, `
		SELECT run_id, skill, passed, error_count, warning_count,
			tests_run, tests_passed, triggers_run, triggers_passed, findings, outcomes
		FROM skill_results WHERE run_id = ? ORDER BY skill
	`, run.ID); err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "failed to load run results")
	}

	detail := &RunDetail{Run: run, Results: make([]SkillResult, 0, len(results))}
	for _, r := range results {
		detail.Results = append(detail.Results, r.toSkillResult())
	}
	return detail, nil
}

// DeleteRun removes a run and its results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "failed to delete run")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrapf(ErrRunNotFound, "no run matches %q", id)
	}
	return nil
}
