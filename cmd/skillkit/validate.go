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
	"github.com/jingkaihe/skillkit/pkg/utils"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	Skills  []string
	Verbose bool
	Record  bool
	JSON    bool
}

// NewValidateConfig creates a new ValidateConfig with default values
func NewValidateConfig() *ValidateConfig {
	return &ValidateConfig{
		Skills:  []string{},
		Verbose: false,
		Record:  false,
		JSON:    false,
	}
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate SKILL.md headers against the skill schema",
	Long: `Validate every skill folder in the skills directory. Each folder must
contain a SKILL.md whose header declares a well-formed name, description and
version. Hidden folders are skipped.

Examples:
  skillkit validate
  skillkit validate --skill 'jikime-lang-*' -v
  skillkit validate --record`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runValidate(cmd, getValidateConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewValidateConfig()
	validateCmd.Flags().StringSliceP("skill", "s", defaults.Skills, "Skill names or glob patterns to validate")
	validateCmd.Flags().BoolP("verbose", "v", defaults.Verbose, "Show passing skills and all warnings")
	validateCmd.Flags().Bool("record", defaults.Record, "Record the run in the history database")
	validateCmd.Flags().Bool("json", defaults.JSON, "Print results as JSON")
}

func getValidateConfigFromFlags(cmd *cobra.Command) *ValidateConfig {
	config := NewValidateConfig()

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

// validateSkills validates every folder the discovery finds. A folder
// without SKILL.md yields a failing result.
func validateSkills(ctx context.Context, d *skills.Discovery, v *skills.Validator) ([]skills.Result, error) {
	var results []skills.Result

	err := telemetry.WithSpan(ctx, "skills.validate", func(ctx context.Context) error {
		folders, err := d.Folders(ctx)
		if err != nil {
			return err
		}
		telemetry.SetAttributes(ctx, telemetry.AttrCount.Int(len(folders)))

		results, err = skills.Collect(ctx, d.Concurrency(), folders, func(ctx context.Context, f skills.Folder) (skills.Result, error) {
			r := v.ValidateFile(f.ID, f.SkillPath())
			logger.G(logger.WithSkill(ctx, f.ID)).
				WithField("errors", len(r.Errors)).
				WithField("warnings", len(r.Warnings)).
				Debug("validated skill")
			telemetry.AddEvent(ctx, "skill.validated",
				telemetry.AttrSkill.String(f.ID),
				telemetry.AttrValid.Bool(r.Valid),
				telemetry.AttrErrors.Int(len(r.Errors)),
				telemetry.AttrWarnings.Int(len(r.Warnings)),
			)
			return r, nil
		})
		return err
	}, telemetry.AttrCommand.String("validate"), telemetry.AttrDir.String(skillsDirs(d)))

	return results, err
}

func skillsDirs(d *skills.Discovery) string {
	dirs := d.SkillDirs()
	if len(dirs) == 1 {
		return dirs[0]
	}
	return fmt.Sprint(dirs)
}

func runValidate(cmd *cobra.Command, config *ValidateConfig) error {
	ctx := cmd.Context()
	startedAt := time.Now()

	d, err := skills.NewDiscoveryFromConfig(ctx, skills.HiddenOnly, config.Skills...)
	if err != nil {
		return err
	}

	results, err := validateSkills(ctx, d, skills.NewValidatorFromConfig())
	if err != nil {
		return err
	}

	if len(results) == 0 {
		presenter.Warning(fmt.Sprintf("No skills found in %s", skillsDirs(d)))
		return nil
	}

	failed := make([]string, 0)
	for _, r := range results {
		if !r.Valid {
			failed = append(failed, r.Skill)
		}
	}

	if config.JSON {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		p := presenter.Default()
		p.Info(fmt.Sprintf("Validating %d %s in %s", len(results), utils.Plural(len(results), "skill", "skills"), skillsDirs(d)))
		p.Info("")
		for _, r := range results {
			presenter.ValidationResult(p, r, config.Verbose)
		}
		presenter.ValidationTotals(p, len(results), len(results)-len(failed), len(failed))
	}

	recordRun(ctx, config.Record, history.CommandValidate, startedAt, history.FromValidation(results))

	return failureFor("validation failed", failed)
}
