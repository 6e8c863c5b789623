// Package skills validates and discovers skill packages. A skill is a
// directory containing a SKILL.md file whose metadata header describes the
// skill's name, purpose, version and trigger configuration, followed by the
// Markdown instructions the agent loads on demand.
package skills

import (
	"fmt"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
)

// FileName is the standard skill definition filename.
const FileName = "SKILL.md"

// Skill is a discovered skill directory.
type Skill struct {
	ID        string // Folder name, used as the skill identifier
	Directory string // Full path to the skill directory
	Path      string // Full path to SKILL.md
	Header    *frontmatter.Header
}

// Name returns the declared name, falling back to the folder identifier.
func (s *Skill) Name() string {
	if s.Header != nil {
		if name := s.Header.Record.Text("name"); name != "" {
			return name
		}
	}
	return s.ID
}

// Severity classifies a finding.
type Severity string

const (
	// SeverityError findings make a skill invalid.
	SeverityError Severity = "error"
	// SeverityWarning findings are advisory.
	SeverityWarning Severity = "warning"
)

// Finding is a single validation error or warning.
type Finding struct {
	Skill    string   `json:"skill"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s", f.Field, f.Message)
}

// Result is the validation outcome for one skill.
type Result struct {
	Skill    string    `json:"skill"`
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// Findings returns errors followed by warnings.
func (r Result) Findings() []Finding {
	all := make([]Finding, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	return append(all, r.Warnings...)
}

// ErrorsFor returns the errors reported on field.
func (r Result) ErrorsFor(field string) []Finding {
	return filterField(r.Errors, field)
}

// WarningsFor returns the warnings reported on field.
func (r Result) WarningsFor(field string) []Finding {
	return filterField(r.Warnings, field)
}

func filterField(findings []Finding, field string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Field == field {
			out = append(out, f)
		}
	}
	return out
}
