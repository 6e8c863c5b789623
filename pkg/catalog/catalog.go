package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/utils"
)

const (
	yamlTagLimit         = 5
	markdownTagLimit     = 3
	descriptionLimit     = 60
	previewLimit         = 3
	keywordIndexLimit    = 50
	catalogFormatVersion = "1.0.0"
)

// Catalog is the set of entries a catalog is rendered from.
type Catalog struct {
	GeneratedAt time.Time
	Entries     []Entry
}

// New builds a catalog. Entries keep their folder order; renderers sort
// where the output calls for it.
func New(entries []Entry, generatedAt time.Time) *Catalog {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Folder < sorted[j].Folder
	})
	return &Catalog{GeneratedAt: generatedAt, Entries: sorted}
}

// FromSkills decodes loaded skills into entries. Skills without a header
// record, or whose header cannot be decoded, are skipped with a warning.
func FromSkills(ctx context.Context, loaded []*skills.Skill, prefix string) []Entry {
	entries := make([]Entry, 0, len(loaded))
	for _, s := range loaded {
		if s.Header == nil || len(s.Header.Record) == 0 {
			logger.G(ctx).WithField("skill", s.ID).Warn("no valid frontmatter, skipping")
			continue
		}
		entry, err := FromRecord(s.ID, prefix, s.Header.Record)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", s.ID).Warn("failed to decode frontmatter, skipping")
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// Domains returns the domain names in sorted order.
func (c *Catalog) Domains() []string {
	domains := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		domains = append(domains, e.Domain)
	}
	return utils.Dedupe(domains)
}

// ByDomain groups entries by domain, keeping catalog order within a group.
func (c *Catalog) ByDomain() map[string][]Entry {
	groups := make(map[string][]Entry)
	for _, e := range c.Entries {
		groups[e.Domain] = append(groups[e.Domain], e)
	}
	return groups
}

// SortedByName returns the entries sorted by skill name.
func SortedByName(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// KeywordIndex maps each lower-cased trigger keyword to the skills that
// declare it, in catalog order.
func (c *Catalog) KeywordIndex() map[string][]string {
	index := make(map[string][]string)
	for _, e := range c.Entries {
		for _, kw := range e.Keywords() {
			key := strings.ToLower(kw)
			index[key] = append(index[key], e.Name)
		}
	}
	return index
}
