package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillkit/pkg/history"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

// HistoryListConfig holds configuration for the history list command
type HistoryListConfig struct {
	Limit int
	JSON  bool
}

// NewHistoryListConfig creates a new HistoryListConfig with default values
func NewHistoryListConfig() *HistoryListConfig {
	return &HistoryListConfig{
		Limit: 20,
		JSON:  false,
	}
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded validate and test runs",
	Long: `Runs are recorded with --record, or always when history.enabled is set.
The database lives at ~/.skillkit/history.db unless history.db_path says
otherwise.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryList(cmd, store, getHistoryListConfigFromFlags(cmd))
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the per-skill results of a run",
	Long:  `Show a run by its ID or any unambiguous ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withHistory(cmd.Context(), func(store *history.Store) error {
			return runHistoryShow(cmd, store, args[0], asJSON)
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(store *history.Store) error {
			if err := store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			presenter.Success(fmt.Sprintf("Deleted run %s", args[0]))
			return nil
		})
	},
}

func init() {
	defaults := NewHistoryListConfig()
	historyListCmd.Flags().IntP("limit", "n", defaults.Limit, "Maximum number of runs to list")
	historyListCmd.Flags().Bool("json", defaults.JSON, "Print runs as JSON")
	historyShowCmd.Flags().Bool("json", false, "Print the run as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func getHistoryListConfigFromFlags(cmd *cobra.Command) *HistoryListConfig {
	config := NewHistoryListConfig()

	if limit, err := cmd.Flags().GetInt("limit"); err == nil {
		config.Limit = limit
	}
	if asJSON, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = asJSON
	}

	return config
}

func withHistory(ctx context.Context, fn func(*history.Store) error) error {
	store, err := history.Open(ctx, viper.GetString("history.db_path"))
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func runHistoryList(cmd *cobra.Command, store *history.Store, config *HistoryListConfig) error {
	runs, err := store.ListRuns(cmd.Context(), config.Limit)
	if err != nil {
		return err
	}

	if config.JSON {
		return writeJSON(cmd.OutOrStdout(), runs)
	}

	if len(runs) == 0 {
		presenter.Info("No runs recorded yet. Use --record with validate or test.")
		return nil
	}

	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

func printRuns(out io.Writer, runs []history.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMMAND\tSTARTED\tTOTAL\tPASSED\tFAILED\tSKILLS DIR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			shortID(r.ID), r.Command, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Total, r.Passed, r.Failed, r.SkillsDir)
	}
	w.Flush()
}

func runHistoryShow(cmd *cobra.Command, store *history.Store, id string, asJSON bool) error {
	detail, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), detail)
	}

	p := presenter.Default()
	p.Section(fmt.Sprintf("Run %s", detail.ID))
	p.Info(fmt.Sprintf("Command:  %s", detail.Command))
	p.Info(fmt.Sprintf("Dir:      %s", detail.SkillsDir))
	p.Info(fmt.Sprintf("Started:  %s", detail.StartedAt.Local().Format("2006-01-02 15:04:05")))
	p.Info(fmt.Sprintf("Duration: %s", detail.FinishedAt.Sub(detail.StartedAt).Round(time.Millisecond)))
	p.Info("")

	for _, r := range detail.Results {
		if r.Passed {
			p.Success(r.Skill)
		} else {
			p.Failure(r.Skill)
		}

		switch detail.Command {
		case history.CommandTest:
			p.Detail(4, fmt.Sprintf("Tests: %d/%d", r.TestsPassed, r.TestsRun))
			p.Detail(4, fmt.Sprintf("Triggers: %d/%d", r.TriggersPassed, r.TriggersRun))
			for _, o := range r.Outcomes {
				if !o.Passed {
					p.Detail(6, fmt.Sprintf("✗ %s: %s", o.Name, o.Message))
				}
			}
		default:
			for _, f := range r.Findings {
				label := "WARN: "
				if f.Severity == skills.SeverityError {
					label = "ERROR:"
				}
				p.Detail(4, fmt.Sprintf("%s %s", label, f))
			}
		}
	}

	p.Separator()
	p.Info(fmt.Sprintf("Total: %d | Passed: %d | Failed: %d", detail.Total, detail.Passed, detail.Failed))
	return nil
}
