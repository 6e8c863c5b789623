package catalog

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type yamlCatalog struct {
	Version     string                `yaml:"version"`
	GeneratedAt string                `yaml:"generated_at"`
	TotalSkills int                   `yaml:"total_skills"`
	Domains     map[string]yamlDomain `yaml:"domains"`
	Skills      []yamlSkill           `yaml:"skills"`
}

type yamlDomain struct {
	Count  int      `yaml:"count"`
	Skills []string `yaml:"skills"`
}

type yamlSkill struct {
	Name          string   `yaml:"name"`
	Domain        string   `yaml:"domain"`
	Description   string   `yaml:"description"`
	Version       string   `yaml:"version"`
	UserInvocable bool     `yaml:"user_invocable"`
	Tags          []string `yaml:"tags,omitempty,flow"`
}

// WriteYAML renders the machine-readable catalog: domains with their skill
// counts, then every skill sorted by name.
func (c *Catalog) WriteYAML(w io.Writer) error {
	doc := yamlCatalog{
		Version:     catalogFormatVersion,
		GeneratedAt: c.GeneratedAt.Format(time.RFC3339),
		TotalSkills: len(c.Entries),
		Domains:     make(map[string]yamlDomain),
		Skills:      make([]yamlSkill, 0, len(c.Entries)),
	}

	for domain, entries := range c.ByDomain() {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		sort.Strings(names)
		doc.Domains[domain] = yamlDomain{Count: len(names), Skills: names}
	}

	for _, e := range SortedByName(c.Entries) {
		doc.Skills = append(doc.Skills, yamlSkill{
			Name:          e.Name,
			Domain:        e.Domain,
			Description:   e.Description,
			Version:       e.Version,
			UserInvocable: e.UserInvocable,
			Tags:          limit(e.Tags, yamlTagLimit),
		})
	}

	if _, err := fmt.Fprintf(w, "# Skills Catalog\n# Auto-generated on %s\n\n", c.GeneratedAt.Format("2006-01-02 15:04")); err != nil {
		return errors.Wrap(err, "failed to write catalog header")
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "failed to encode catalog")
	}
	return enc.Close()
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
