package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillkit/pkg/catalog"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/telemetry"
	"github.com/jingkaihe/skillkit/pkg/utils"
)

// CatalogConfig holds configuration for the catalog command
type CatalogConfig struct {
	OutputDir string
	Print     string
}

// NewCatalogConfig creates a new CatalogConfig with default values
func NewCatalogConfig() *CatalogConfig {
	return &CatalogConfig{
		OutputDir: ".",
		Print:     "",
	}
}

// Validate checks the print format
func (c *CatalogConfig) Validate() error {
	switch c.Print {
	case "", "yaml", "markdown":
		return nil
	default:
		return errors.Errorf("invalid print format %q, must be one of: yaml, markdown", c.Print)
	}
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Generate the YAML and Markdown skill catalogs",
	Long: `Generate skills-catalog.yaml and docs/skills-catalog.md from the headers of
every skill. Skills are grouped by domain, the first name segment after the
product prefix, and indexed by trigger keyword.

Examples:
  skillkit catalog
  skillkit catalog --output-dir ./out
  skillkit catalog --print markdown`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCatalog(cmd, getCatalogConfigFromFlags(cmd))
	},
}

func init() {
	defaults := NewCatalogConfig()
	catalogCmd.Flags().StringP("output-dir", "o", defaults.OutputDir, "Directory the catalog files are written under")
	catalogCmd.Flags().String("print", defaults.Print, "Print one catalog to stdout instead of writing files (yaml, markdown)")
}

func getCatalogConfigFromFlags(cmd *cobra.Command) *CatalogConfig {
	config := NewCatalogConfig()

	if dir, err := cmd.Flags().GetString("output-dir"); err == nil {
		config.OutputDir = dir
	}
	if format, err := cmd.Flags().GetString("print"); err == nil {
		config.Print = format
	}

	return config
}

// buildCatalog loads every skill and decodes it into a catalog.
func buildCatalog(ctx context.Context, d *skills.Discovery, prefix string, now time.Time) (*catalog.Catalog, error) {
	var c *catalog.Catalog

	err := telemetry.WithSpan(ctx, "skills.catalog", func(ctx context.Context) error {
		loaded, err := d.LoadSkills(ctx)
		if err != nil {
			return err
		}
		c = catalog.New(catalog.FromSkills(ctx, loaded, prefix), now)
		telemetry.SetAttributes(ctx, telemetry.AttrCount.Int(len(c.Entries)))
		return nil
	}, telemetry.AttrCommand.String("catalog"), telemetry.AttrDir.String(skillsDirs(d)))

	return c, err
}

func runCatalog(cmd *cobra.Command, config *CatalogConfig) error {
	ctx := cmd.Context()
	if err := config.Validate(); err != nil {
		return err
	}

	d, err := skills.NewDiscoveryFromConfig(ctx, skills.HiddenOnly)
	if err != nil {
		return err
	}

	prefix := skills.NewValidatorFromConfig().NamePrefix()
	c, err := buildCatalog(ctx, d, prefix, time.Now())
	if err != nil {
		return err
	}

	switch config.Print {
	case "yaml":
		return c.WriteYAML(cmd.OutOrStdout())
	case "markdown":
		return c.WriteMarkdown(cmd.OutOrStdout())
	}

	presenter.Info(fmt.Sprintf("Found %d %s in %d %s",
		len(c.Entries), utils.Plural(len(c.Entries), "skill", "skills"),
		len(c.Domains()), utils.Plural(len(c.Domains()), "domain", "domains")))

	yamlPath, mdPath, err := c.WriteFiles(config.OutputDir)
	if err != nil {
		return err
	}

	presenter.Success(fmt.Sprintf("Generated: %s", yamlPath))
	presenter.Success(fmt.Sprintf("Generated: %s", mdPath))
	return nil
}
