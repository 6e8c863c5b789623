package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillkit/pkg/history"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/telemetry"
	"github.com/jingkaihe/skillkit/pkg/triggers"
)

// TestConfig holds configuration for the test command
type TestConfig struct {
	Skills  []string
	Verbose bool
	Record  bool
	JSON    bool
}

// NewTestConfig creates a new TestConfig with default values
func NewTestConfig() *TestConfig {
	return &TestConfig{
		Skills:  []string{},
		Verbose: false,
		Record:  false,
		JSON:    false,
	}
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run trigger test cases from tests/examples.yaml",
	Long: `Evaluate each skill's tests/examples.yaml: numbered test cases must be
well-formed, should_trigger prompts must hit a trigger keyword and
should_not_trigger prompts must not. Folders starting with '.' or '_' are
skipped. Skills without an examples file are reported but do not fail.

Examples:
  skillkit test
  skillkit test --skill jikime-lang-go -v`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTest(cmd, getTestConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewTestConfig()
	testCmd.Flags().StringSliceP("skill", "s", defaults.Skills, "Skill names or glob patterns to test")
	testCmd.Flags().BoolP("verbose", "v", defaults.Verbose, "Show every outcome and skills without tests")
	testCmd.Flags().Bool("record", defaults.Record, "Record the run in the history database")
	testCmd.Flags().Bool("json", defaults.JSON, "Print reports as JSON")
}

func getTestConfigFromFlags(cmd *cobra.Command) *TestConfig {
	config := NewTestConfig()

	if patterns, err := cmd.Flags().GetStringSlice("skill"); err == nil {
		config.Skills = patterns
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil {
		config.Verbose = verbose
	}
	if record, err := cmd.Flags().GetBool("record"); err == nil {
		config.Record = record
	}
	if asJSON, err := cmd.Flags().GetBool("json"); err == nil {
		config.JSON = asJSON
	}

	return config
}

// evaluateSkills evaluates the examples of every folder the discovery finds.
func evaluateSkills(ctx context.Context, d *skills.Discovery) ([]triggers.Report, error) {
	var reports []triggers.Report

	err := telemetry.WithSpan(ctx, "skills.test", func(ctx context.Context) error {
		folders, err := d.Folders(ctx)
		if err != nil {
			return err
		}
		telemetry.SetAttributes(ctx, telemetry.AttrCount.Int(len(folders)))

		reports, err = skills.Collect(ctx, d.Concurrency(), folders, func(ctx context.Context, f skills.Folder) (triggers.Report, error) {
			r, err := triggers.EvaluateSkill(f.Directory)
			if err != nil {
				return triggers.Report{}, err
			}
			r.Skill = f.ID
			logger.G(logger.WithSkill(ctx, f.ID)).
				WithField("has_tests", r.HasTests).
				WithField("passed", r.Passed()).
				Debug("evaluated skill")
			return r, nil
		})
		return err
	}, telemetry.AttrCommand.String("test"), telemetry.AttrDir.String(skillsDirs(d)))

	return reports, err
}

func runTest(cmd *cobra.Command, config *TestConfig) error {
	ctx := cmd.Context()
	startedAt := time.Now()

	d, err := skills.NewDiscoveryFromConfig(ctx, skills.DefaultExclude, config.Skills...)
	if err != nil {
		return err
	}

	reports, err := evaluateSkills(ctx, d)
	if err != nil {
		return err
	}

	failed := make([]string, 0)
	for _, r := range reports {
		if r.HasTests && !r.Passed() {
			failed = append(failed, r.Skill)
		}
	}

	if config.JSON {
		if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
			return err
		}
	} else {
		p := presenter.Default()
		p.Info(fmt.Sprintf("Testing skills in %s", skillsDirs(d)))
		p.Info("")
		for _, r := range reports {
			presenter.TestReport(p, r, config.Verbose)
		}
		presenter.TestTotals(p, reports)
	}

	recordRun(ctx, config.Record, history.CommandTest, startedAt, history.FromReports(reports))

	return failureFor("tests failed", failed)
}
