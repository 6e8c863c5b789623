package skills

import (
	"context"

	"github.com/spf13/viper"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/utils"
)

// NewDiscoveryFromConfig builds a Discovery from the skills_dir, scan.exclude
// and scan.concurrency settings, restricted to the given name patterns.
// defaultExclude applies when scan.exclude is not configured; nil keeps
// DefaultExclude.
func NewDiscoveryFromConfig(ctx context.Context, defaultExclude []string, patterns ...string) (*Discovery, error) {
	filter, err := utils.NewNameFilter(patterns...)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithFilter(filter)}

	if dir := viper.GetString("skills_dir"); dir != "" {
		opts = append(opts, WithSkillDirs(dir))
	}
	switch {
	case viper.IsSet("scan.exclude"):
		opts = append(opts, WithExclude(viper.GetStringSlice("scan.exclude")...))
	case defaultExclude != nil:
		opts = append(opts, WithExclude(defaultExclude...))
	}
	opts = append(opts, WithConcurrency(viper.GetInt("scan.concurrency")))

	d, err := NewDiscovery(opts...)
	if err != nil {
		return nil, err
	}

	logger.G(ctx).
		WithField("dirs", d.SkillDirs()).
		WithField("filter", filter.Patterns()).
		WithField("exclude", d.exclude).
		Debug("configured skill discovery")

	return d, nil
}

// NewValidatorFromConfig builds a Validator from the validation settings.
func NewValidatorFromConfig() *Validator {
	return NewValidator(
		WithNamePrefix(viper.GetString("validation.name_prefix")),
		WithYAMLCompat(viper.GetBool("validation.yaml_compat")),
	)
}
