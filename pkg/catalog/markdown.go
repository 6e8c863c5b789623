package catalog

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jingkaihe/skillkit/pkg/utils"
)

// WriteMarkdown renders the human-readable catalog: a domain overview,
// one table per domain and a keyword index.
func (c *Catalog) WriteMarkdown(w io.Writer) error {
	var b strings.Builder
	title := cases.Title(language.English)
	groups := c.ByDomain()
	domains := c.Domains()

	b.WriteString("# Skills Catalog\n\n")
	fmt.Fprintf(&b, "> Auto-generated on %s\n", c.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "> Total Skills: **%d**\n\n", len(c.Entries))

	b.WriteString("## Overview\n\n")
	b.WriteString("| Domain | Count | Skills |\n")
	b.WriteString("|--------|-------|--------|\n")
	for _, domain := range domains {
		entries := groups[domain]
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		fmt.Fprintf(&b, "| **%s** | %d | %s |\n", domain, len(entries), preview(names, " more"))
	}
	b.WriteString("\n---\n\n")

	for _, domain := range domains {
		entries := SortedByName(groups[domain])
		fmt.Fprintf(&b, "## %s Skills (%d)\n\n", title.String(domain), len(entries))
		b.WriteString("| Skill | Description | Tags | Invocable |\n")
		b.WriteString("|-------|-------------|------|-----------|\n")
		for _, e := range entries {
			tags := "-"
			if len(e.Tags) > 0 {
				tags = strings.Join(limit(e.Tags, markdownTagLimit), ", ")
			}
			invocable := "No"
			if e.UserInvocable {
				invocable = "Yes"
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", e.Name, utils.Truncate(e.Description, descriptionLimit), tags, invocable)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n## Keyword Index\n\n")
	b.WriteString("| Keyword | Skills |\n")
	b.WriteString("|---------|--------|\n")

	index := c.KeywordIndex()
	keywords := make([]string, 0, len(index))
	for kw := range index {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	for _, kw := range limit(keywords, keywordIndexLimit) {
		fmt.Fprintf(&b, "| %s | %s |\n", kw, preview(index[kw], ""))
	}
	if len(keywords) > keywordIndexLimit {
		fmt.Fprintf(&b, "| ... | +%d more keywords |\n", len(keywords)-keywordIndexLimit)
	}

	b.WriteString("\n---\n\n*Generated by `skillkit catalog`*")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(err, "failed to write markdown catalog")
	}
	return nil
}

// preview renders up to three names as code spans followed by "+N" and the
// suffix when more remain.
func preview(names []string, suffix string) string {
	shown := limit(names, previewLimit)
	quoted := make([]string, 0, len(shown))
	for _, n := range shown {
		quoted = append(quoted, "`"+n+"`")
	}
	out := strings.Join(quoted, ", ")
	if len(names) > previewLimit {
		out += fmt.Sprintf(" +%d%s", len(names)-previewLimit, suffix)
	}
	return out
}
