// Package catalog builds the machine-readable and human-readable skill
// catalogs from parsed SKILL.md headers.
package catalog

import (
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
)

const (
	// DefaultVersion is used when a header omits version.
	DefaultVersion = "1.0.0"
	// DefaultContext is used when a header omits context.
	DefaultContext = "fork"
	// DefaultAgent is used when a header omits agent.
	DefaultAgent = "general-purpose"

	unknownDomain = "unknown"
)

// Entry is the catalog view of one skill.
type Entry struct {
	Name                  string         `mapstructure:"name" json:"name" yaml:"name" jsonschema:"description=Skill name of the form <prefix>-<domain>-<name>"`
	Folder                string         `mapstructure:"-" json:"folder" yaml:"folder" jsonschema:"description=Folder the skill lives in"`
	Domain                string         `mapstructure:"-" json:"domain" yaml:"domain" jsonschema:"description=First name segment after the prefix"`
	Description           string         `mapstructure:"description" json:"description" yaml:"description"`
	Version               string         `mapstructure:"version" json:"version" yaml:"version" jsonschema:"default=1.0.0"`
	Tags                  []string       `mapstructure:"tags" json:"tags" yaml:"tags,omitempty"`
	Triggers              map[string]any `mapstructure:"triggers" json:"triggers,omitempty" yaml:"triggers,omitempty"`
	ProgressiveDisclosure map[string]any `mapstructure:"progressive_disclosure" json:"progressive_disclosure,omitempty" yaml:"progressive_disclosure,omitempty"`
	UserInvocable         bool           `mapstructure:"user-invocable" json:"user_invocable" yaml:"user_invocable"`
	Context               string         `mapstructure:"context" json:"context" yaml:"context" jsonschema:"enum=fork,enum=main,enum=isolated,default=fork"`
	Agent                 string         `mapstructure:"agent" json:"agent" yaml:"agent" jsonschema:"default=general-purpose"`
	AllowedTools          []string       `mapstructure:"allowed-tools" json:"allowed_tools" yaml:"allowed_tools,omitempty"`
}

// Keywords returns the entry's trigger keywords.
func (e Entry) Keywords() []string {
	switch kw := e.Triggers["keywords"].(type) {
	case []string:
		return kw
	case string:
		if kw == "" {
			return nil
		}
		return []string{kw}
	default:
		return nil
	}
}

// DomainOf derives the domain from a skill name: the prefix and its dash
// are removed and the first remaining dash-separated segment is returned.
func DomainOf(name, prefix string) string {
	rest := strings.TrimPrefix(name, prefix+"-")
	domain, _, _ := strings.Cut(rest, "-")
	if domain == "" {
		return unknownDomain
	}
	return domain
}

// FromRecord decodes a header record into an Entry. Absent or null fields
// take the catalog defaults and the name falls back to the folder.
func FromRecord(folder, prefix string, rec frontmatter.Record) (Entry, error) {
	entry := Entry{
		Name:                  folder,
		Folder:                folder,
		Version:               DefaultVersion,
		Tags:                  []string{},
		Triggers:              map[string]any{},
		ProgressiveDisclosure: map[string]any{},
		Context:               DefaultContext,
		Agent:                 DefaultAgent,
		AllowedTools:          []string{},
	}

	input := make(map[string]any, len(rec))
	for key, value := range rec.Plain() {
		if value == nil {
			continue
		}
		input[key] = value
	}
	for _, key := range []string{"triggers", "progressive_disclosure"} {
		if _, ok := input[key].(map[string]any); !ok {
			delete(input, key)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &entry,
		WeaklyTypedInput: true,
		DecodeHook:       scalarHook,
	})
	if err != nil {
		return entry, errors.Wrap(err, "failed to create entry decoder")
	}

	if err := decoder.Decode(input); err != nil {
		return entry, errors.Wrapf(err, "failed to decode header of %s", folder)
	}

	entry.Domain = DomainOf(entry.Name, prefix)
	return entry, nil
}

// scalarHook renders coerced values the way they were written: floats keep
// their decimal point and any value is accepted for a boolean field.
func scalarHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.String:
		if from.Kind() == reflect.Float64 || from.Kind() == reflect.Bool {
			return frontmatter.Format(data), nil
		}
	case reflect.Bool:
		if from.Kind() != reflect.Bool {
			return frontmatter.Truthy(data), nil
		}
	}
	return data, nil
}
