package skills

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
)

// DefaultNamePrefix is the product prefix every skill name starts with.
const DefaultNamePrefix = "jikime"

const (
	minDescriptionLength = 10
	maxDescriptionLength = 500
	minContentLength     = 100
)

var (
	// RequiredFields must be declared in every header.
	RequiredFields = []string{"name", "description", "version"}

	// ValidPhases lists the development phases a trigger may name.
	ValidPhases = []string{"plan", "run", "sync", "implement", "review", "test", "debug"}

	// ValidContexts lists the execution contexts a skill may request.
	ValidContexts = []string{"fork", "main", "isolated"}

	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
)

// Validator checks parsed headers against the skill schema.
type Validator struct {
	namePrefix  string
	namePattern *regexp.Regexp
	yamlCompat  bool
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithNamePrefix sets the product prefix required at the start of names.
func WithNamePrefix(prefix string) ValidatorOption {
	return func(v *Validator) {
		if prefix != "" {
			v.namePrefix = prefix
		}
	}
}

// WithYAMLCompat enables a second pass that checks the header is also
// accepted by a full YAML parser.
func WithYAMLCompat(enabled bool) ValidatorOption {
	return func(v *Validator) {
		v.yamlCompat = enabled
	}
}

// NewValidator creates a validator with the default name prefix.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{namePrefix: DefaultNamePrefix}
	for _, opt := range opts {
		opt(v)
	}
	v.namePattern = regexp.MustCompile(`^` + regexp.QuoteMeta(v.namePrefix) + `-[a-z]+-[a-z0-9@.-]+$`)
	return v
}

// NamePrefix returns the configured product prefix.
func (v *Validator) NamePrefix() string {
	return v.namePrefix
}

// ValidateFile reads and validates a SKILL.md file.
func (v *Validator) ValidateFile(identifier, path string) Result {
	content, err := os.ReadFile(path)
	if err != nil {
		c := newCollector(identifier)
		if os.IsNotExist(err) {
			c.errorf("file", "%s not found", FileName)
		} else {
			c.errorf("file", "failed to read %s: %v", FileName, err)
		}
		return c.result()
	}
	return v.ValidateDocument(identifier, string(content))
}

// ValidateDocument parses and validates a full document. A document without
// a usable header yields a single frontmatter error.
func (v *Validator) ValidateDocument(identifier, doc string) Result {
	h, err := frontmatter.Parse(doc)
	if err != nil || len(h.Record) == 0 {
		c := newCollector(identifier)
		c.errorf("frontmatter", "No valid YAML frontmatter found")
		return c.result()
	}
	return v.Validate(identifier, h)
}

// Validate applies every field rule to the header. The identifier is the
// skill folder name. Rules are independent and all findings accumulate.
func (v *Validator) Validate(identifier string, h *frontmatter.Header) Result {
	c := newCollector(identifier)
	rec := h.Record

	v.checkRequired(c, rec)
	v.checkName(c, rec, identifier)
	v.checkDescription(c, rec)
	v.checkVersion(c, rec, identifier)
	v.checkTags(c, rec)
	v.checkTriggers(c, rec)
	v.checkProgressiveDisclosure(c, rec)
	v.checkContext(c, rec)
	v.checkContent(c, h.Body)

	for _, issue := range h.Issues {
		c.warnf("frontmatter", "Ignored %s", issue)
	}

	if v.yamlCompat {
		if err := checkYAMLCompat(h.Raw); err != nil {
			c.warnf("frontmatter", "%v", err)
		}
	}

	return c.result()
}

func (v *Validator) checkRequired(c *collector, rec frontmatter.Record) {
	for _, field := range RequiredFields {
		if !rec.Has(field) {
			c.errorf(field, "Required field '%s' is missing", field)
		}
	}
}

func (v *Validator) checkName(c *collector, rec frontmatter.Record, identifier string) {
	if !frontmatter.Truthy(rec.Get("name")) {
		return
	}

	name := rec.Text("name")
	if !v.namePattern.MatchString(name) {
		c.errorf("name", "Name '%s' doesn't match pattern '%s-{domain}-{name}'", name, v.namePrefix)
	}
	if name != identifier {
		c.warnf("name", "Name '%s' doesn't match folder name '%s'", name, identifier)
	}
}

func (v *Validator) checkDescription(c *collector, rec frontmatter.Record) {
	if !frontmatter.Truthy(rec.Get("description")) {
		return
	}

	length := utf8.RuneCountInString(rec.Text("description"))
	if length < minDescriptionLength {
		c.errorf("description", "Description is too short (min %d chars)", minDescriptionLength)
	}
	if length > maxDescriptionLength {
		c.warnf("description", "Description is very long (%d chars, recommended max %d)", length, maxDescriptionLength)
	}
}

func (v *Validator) checkVersion(c *collector, rec frontmatter.Record, identifier string) {
	if !frontmatter.Truthy(rec.Get("version")) {
		return
	}

	version := rec.Text("version")
	if semverPattern.MatchString(version) {
		return
	}

	if isFrameworkSkill(identifier) {
		c.warnf("version", "Version '%s' is not semver (allowed for framework skills)", version)
		return
	}
	c.errorf("version", "Version '%s' is not valid semver", version)
}

// isFrameworkSkill reports whether the identifier names a versioned
// framework skill such as nextjs@14, which may use non-semver versions.
func isFrameworkSkill(identifier string) bool {
	return strings.Contains(identifier, "@") || strings.Contains(identifier, "framework")
}

func (v *Validator) checkTags(c *collector, rec frontmatter.Record) {
	tags := rec.Get("tags")
	if !frontmatter.Truthy(tags) {
		c.warnf("tags", "No tags defined")
		return
	}
	if _, ok := tags.([]string); !ok {
		c.errorf("tags", "Tags must be an array")
	}
}

func (v *Validator) checkTriggers(c *collector, rec frontmatter.Record) {
	triggers, ok := nestedOrEmpty(rec, "triggers")
	if !ok {
		return
	}

	if !frontmatter.Truthy(triggers.Get("keywords")) {
		c.warnf("triggers.keywords", "No trigger keywords defined")
	}

	for _, phase := range asList(triggers.Get("phases")) {
		if !contains(ValidPhases, phase) {
			c.errorf("triggers.phases", "Invalid phase '%s'. Valid: %s", phase, strings.Join(ValidPhases, ", "))
		}
	}
}

func (v *Validator) checkProgressiveDisclosure(c *collector, rec frontmatter.Record) {
	pd, ok := nestedOrEmpty(rec, "progressive_disclosure")
	if !ok || !pd.Bool("enabled", true) {
		return
	}

	for _, field := range []string{"level1_tokens", "level2_tokens"} {
		if pd.Get(field) == nil {
			c.warnf("progressive_disclosure."+field, "%s not specified", field)
		}
	}
}

func (v *Validator) checkContext(c *collector, rec frontmatter.Record) {
	if !frontmatter.Truthy(rec.Get("context")) {
		return
	}

	context := rec.Text("context")
	if !contains(ValidContexts, context) {
		c.errorf("context", "Invalid context '%s'. Valid: %s", context, strings.Join(ValidContexts, ", "))
	}
}

func (v *Validator) checkContent(c *collector, body string) {
	content := strings.TrimSpace(body)
	switch {
	case content == "":
		c.warnf("content", "No content after frontmatter")
	case utf8.RuneCountInString(content) < minContentLength:
		c.warnf("content", "Very little content after frontmatter")
	}
}

// nestedOrEmpty returns the nested mapping under key. An absent key counts
// as an empty mapping; a key holding anything else reports false.
func nestedOrEmpty(rec frontmatter.Record, key string) (frontmatter.Record, bool) {
	if !rec.Has(key) {
		return frontmatter.Record{}, true
	}
	return rec.Map(key)
}

// asList treats a scalar as a one-item list.
func asList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case nil:
		return nil
	default:
		if !frontmatter.Truthy(val) {
			return nil
		}
		return []string{frontmatter.Format(val)}
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type collector struct {
	skill    string
	errors   []Finding
	warnings []Finding
}

func newCollector(skill string) *collector {
	return &collector{skill: skill, errors: []Finding{}, warnings: []Finding{}}
}

func (c *collector) errorf(field, format string, args ...any) {
	c.errors = append(c.errors, Finding{
		Skill:    c.skill,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
	})
}

func (c *collector) warnf(field, format string, args ...any) {
	c.warnings = append(c.warnings, Finding{
		Skill:    c.skill,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityWarning,
	})
}

func (c *collector) result() Result {
	return Result{
		Skill:    c.skill,
		Valid:    len(c.errors) == 0,
		Errors:   c.errors,
		Warnings: c.warnings,
	}
}
