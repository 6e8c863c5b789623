package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillkit/pkg/history"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
)

// skillsDir returns the configured skills directory.
func skillsDir() string {
	return viper.GetString("skills_dir")
}

// recordRun stores a run in the history database when recording was
// requested by flag or by history.enabled. Recording failures are reported
// but do not fail the run.
func recordRun(ctx context.Context, record bool, command string, startedAt time.Time, results []history.SkillResult) {
	if !record && !viper.GetBool("history.enabled") {
		return
	}

	store, err := history.Open(ctx, viper.GetString("history.db_path"))
	if err != nil {
		presenter.Error(err, "failed to open run history")
		return
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.G(ctx).WithError(cerr).Warn("failed to close history database")
		}
	}()

	run, err := store.Record(ctx, command, skillsDir(), startedAt, results)
	if err != nil {
		presenter.Error(err, "failed to record run")
		return
	}

	logger.G(ctx).WithField("run", run.ID).Debug("recorded run")
	presenter.Info(fmt.Sprintf("Recorded run %s", shortID(run.ID)))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// failureFor builds the runFailure returned when any skill failed.
func failureFor(summary string, failed []string) error {
	if len(failed) == 0 {
		return nil
	}

	var merr *multierror.Error
	for _, name := range failed {
		merr = multierror.Append(merr, fmt.Errorf("%s", name))
	}
	merr.ErrorFormat = func(errs []error) string {
		names := make([]string, 0, len(errs))
		for _, e := range errs {
			names = append(names, e.Error())
		}
		return fmt.Sprintf("%s: %s", summary, strings.Join(names, ", "))
	}
	return &runFailure{err: merr}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
