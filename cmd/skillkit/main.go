package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
)

func init() {
	viper.SetDefault("skills_dir", skills.DefaultSkillsDir)
	viper.SetDefault("validation.name_prefix", skills.DefaultNamePrefix)
	viper.SetDefault("scan.concurrency", 0)
	viper.SetDefault("history.enabled", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")

	viper.SetEnvPrefix("SKILLKIT")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillkit")
	viper.AddConfigPath(".")

	// A missing config file is fine.
	_ = viper.ReadInConfig()
}

// runFailure marks a run whose report has already been printed. main exits
// non-zero without printing it again.
type runFailure struct {
	err error
}

func (f *runFailure) Error() string { return f.err.Error() }
func (f *runFailure) Unwrap() error { return f.err }

var rootCmd = &cobra.Command{
	Use:   "skillkit",
	Short: "Validate, test and catalog agent skill documents",
	Long: `skillkit checks SKILL.md documents against the skill schema, evaluates
their trigger test cases, and generates catalogs of everything installed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Configure(viper.GetString("log_level"), viper.GetString("log_format")); err != nil {
			return err
		}
		presenter.SetQuiet(viper.GetBool("quiet"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialise tracing")
			return nil
		}
		shutdownTracing = shutdown
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("skills-dir", skills.DefaultSkillsDir, "Directory containing skill folders")
	flags.String("name-prefix", skills.DefaultNamePrefix, "Product prefix every skill name starts with")
	flags.Bool("yaml-compat", false, "Also check headers with a full YAML parser")
	flags.StringSlice("exclude", nil, "Folder patterns to skip (overrides the per-command default)")
	flags.Int("concurrency", 0, "Skills processed in parallel (0 uses the CPU count)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "fmt", "Log format (fmt, json)")
	flags.BoolP("quiet", "q", false, "Only print errors")

	_ = viper.BindPFlag("skills_dir", flags.Lookup("skills-dir"))
	_ = viper.BindPFlag("validation.name_prefix", flags.Lookup("name-prefix"))
	_ = viper.BindPFlag("validation.yaml_compat", flags.Lookup("yaml-compat"))
	_ = viper.BindPFlag("scan.exclude", flags.Lookup("exclude"))
	_ = viper.BindPFlag("scan.concurrency", flags.Lookup("concurrency"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))

	rootCmd.AddCommand(withTracing(validateCmd))
	rootCmd.AddCommand(withTracing(testCmd))
	rootCmd.AddCommand(withTracing(catalogCmd))
	rootCmd.AddCommand(withTracing(disclosureCmd))
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx := context.Background()

	err := rootCmd.ExecuteContext(ctx)

	if serr := shutdownTracing(ctx); serr != nil {
		logger.G(ctx).WithError(serr).Warn("failed to flush traces")
	}

	if err != nil {
		var failure *runFailure
		if errors.As(err, &failure) {
			logger.G(ctx).WithError(err).Debug("run failed")
		} else {
			presenter.Error(err, "")
		}
		os.Exit(1)
	}
}
