package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/utils"
)

// DisclosureConfig holds configuration for the disclosure command
type DisclosureConfig struct {
	Skills []string
	DryRun bool
}

// NewDisclosureConfig creates a new DisclosureConfig with default values
func NewDisclosureConfig() *DisclosureConfig {
	return &DisclosureConfig{
		Skills: []string{},
		DryRun: false,
	}
}

var disclosureCmd = &cobra.Command{
	Use:   "disclosure",
	Short: "Add progressive disclosure settings to skill headers",
	Long: `Insert a progressive_disclosure block into every SKILL.md header that lacks
one. level2_tokens is estimated from the document length and clamped to
2000..10000. Skills that already declare the block are left untouched.

Examples:
  skillkit disclosure --dry-run
  skillkit disclosure --skill 'jikime-lang-*'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisclosure(cmd, getDisclosureConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewDisclosureConfig()
	disclosureCmd.Flags().StringSliceP("skill", "s", defaults.Skills, "Skill names or glob patterns to update")
	disclosureCmd.Flags().Bool("dry-run", defaults.DryRun, "Print a diff instead of writing files")
}

func getDisclosureConfigFromFlags(cmd *cobra.Command) *DisclosureConfig {
	config := NewDisclosureConfig()

	if patterns, err := cmd.Flags().GetStringSlice("skill"); err == nil {
		config.Skills = patterns
	}
	if dryRun, err := cmd.Flags().GetBool("dry-run"); err == nil {
		config.DryRun = dryRun
	}

	return config
}

func runDisclosure(cmd *cobra.Command, config *DisclosureConfig) error {
	ctx := cmd.Context()

	d, err := skills.NewDiscoveryFromConfig(ctx, skills.DefaultExclude, config.Skills...)
	if err != nil {
		return err
	}

	folders, err := d.Folders(ctx)
	if err != nil {
		return err
	}

	updated, skipped := 0, 0
	failed := make([]string, 0)
	for _, f := range folders {
		if _, err := os.Stat(f.SkillPath()); os.IsNotExist(err) {
			logger.G(logger.WithSkill(ctx, f.ID)).Debug("no SKILL.md, skipping")
			continue
		}

		change, err := skills.ApplyDisclosure(f.SkillPath(), config.DryRun)
		if err != nil {
			logger.G(logger.WithSkill(ctx, f.ID)).WithError(err).Debug("failed to apply progressive disclosure")
			presenter.Failure(fmt.Sprintf("%s: %v", f.ID, err))
			failed = append(failed, f.ID)
			continue
		}

		if !change.Updated {
			skipped++
			presenter.Info(fmt.Sprintf("○ %s (already configured)", f.ID))
			continue
		}

		updated++
		if config.DryRun {
			fmt.Fprint(cmd.OutOrStdout(), change.Diff())
			continue
		}
		presenter.Success(f.ID)
	}

	verb := "Updated"
	if config.DryRun {
		verb = "Would update"
	}
	presenter.Separator()
	presenter.Info(fmt.Sprintf("%s %d %s, %d already configured",
		verb, updated, utils.Plural(updated, "skill", "skills"), skipped))

	return failureFor("progressive disclosure failed", failed)
}
