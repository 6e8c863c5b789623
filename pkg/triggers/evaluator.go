package triggers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
)

const probeLabelLength = 25

// Outcome is the result of one test case or trigger probe.
type Outcome struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Report aggregates the outcomes for one skill.
type Report struct {
	Skill          string    `json:"skill"`
	HasTests       bool      `json:"has_tests"`
	Keywords       []string  `json:"keywords,omitempty"`
	TestsRun       int       `json:"tests_run"`
	TestsPassed    int       `json:"tests_passed"`
	TriggersRun    int       `json:"triggers_run"`
	TriggersPassed int       `json:"triggers_passed"`
	Outcomes       []Outcome `json:"outcomes"`
}

// Passed reports whether every test case and every probe passed.
func (r Report) Passed() bool {
	return r.TestsPassed == r.TestsRun && r.TriggersPassed == r.TriggersRun
}

// Failures returns the failing outcomes in order.
func (r Report) Failures() []Outcome {
	failed := make([]Outcome, 0)
	for _, o := range r.Outcomes {
		if !o.Passed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Evaluate runs the suite against its keywords, falling back to the
// header's trigger keywords when the suite declares none.
func Evaluate(suite *Suite, headerKeywords []string) Report {
	keywords := suite.Keywords
	if len(keywords) == 0 {
		keywords = headerKeywords
	}

	r := Report{
		HasTests: true,
		Keywords: keywords,
		Outcomes: make([]Outcome, 0),
	}

	for _, c := range suite.Cases {
		r.TestsRun++

		if c.Input == "" || c.Expected == "" {
			missing := make([]string, 0, 2)
			if c.Input == "" {
				missing = append(missing, "input")
			}
			if c.Expected == "" {
				missing = append(missing, "expected")
			}
			r.add(c.Name, false, "Missing: "+strings.Join(missing, ", "))
			continue
		}

		r.TestsPassed++
		r.add(c.Name, true, "Test case well-formed")

		// Trigger consistency is reported but does not affect the counts.
		if len(keywords) > 0 && !Matches(c.Input, keywords) {
			r.add(c.Name+" - trigger check", false, "Input doesn't trigger any keyword")
		}
	}

	for _, probe := range suite.ShouldTrigger {
		r.TriggersRun++
		name := fmt.Sprintf("Trigger: '%s...'", label(probe))
		if Matches(probe, keywords) {
			r.TriggersPassed++
			r.add(name, true, "Correctly triggers")
		} else {
			r.add(name, false, "Should trigger but doesn't")
		}
	}

	for _, probe := range suite.ShouldNotTrigger {
		r.TriggersRun++
		name := fmt.Sprintf("No-trigger: '%s...'", label(probe))
		if !Matches(probe, keywords) {
			r.TriggersPassed++
			r.add(name, true, "Correctly doesn't trigger")
		} else {
			r.add(name, false, "Should not trigger but does")
		}
	}

	return r
}

func (r *Report) add(name string, passed bool, message string) {
	r.Outcomes = append(r.Outcomes, Outcome{Name: name, Passed: passed, Message: message})
}

func label(s string) string {
	runes := []rune(s)
	if len(runes) > probeLabelLength {
		return string(runes[:probeLabelLength])
	}
	return s
}

// HeaderKeywords returns triggers.keywords from a parsed header.
func HeaderKeywords(h *frontmatter.Header) []string {
	if h == nil {
		return nil
	}
	triggers, ok := h.Record.Map("triggers")
	if !ok {
		return nil
	}
	return triggers.List("keywords")
}

// EvaluateSkill loads a skill directory's examples file and evaluates it.
// A directory without an examples file yields a report with HasTests false.
func EvaluateSkill(dir string) (Report, error) {
	skill := filepath.Base(dir)

	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ExamplesFile)))
	if err != nil {
		if os.IsNotExist(err) {
			return Report{Skill: skill, Outcomes: []Outcome{}}, nil
		}
		return Report{}, errors.Wrapf(err, "failed to read examples for %s", skill)
	}

	var keywords []string
	if doc, err := os.ReadFile(filepath.Join(dir, "SKILL.md")); err == nil {
		if h, err := frontmatter.Parse(string(doc)); err == nil {
			keywords = HeaderKeywords(h)
		}
	}

	r := Evaluate(ParseSuite(string(content)), keywords)
	r.Skill = skill
	return r, nil
}
