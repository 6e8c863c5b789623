package presenter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/triggers"
)

func failingResult() skills.Result {
	return skills.Result{
		Skill: "proto-lang-go",
		Valid: false,
		Errors: []skills.Finding{
			{Field: "name", Message: "Missing required field: name", Severity: skills.SeverityError},
		},
		Warnings: []skills.Finding{
			{Field: "tags", Message: "Tags should be a list", Severity: skills.SeverityWarning},
		},
	}
}

func TestValidationResult(t *testing.T) {
	t.Run("failing skill lists errors and warnings", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		ValidationResult(p, failingResult(), false)

		assert.Equal(t,
			"✗ proto-lang-go\n"+
				"    ERROR: [name] Missing required field: name\n"+
				"    WARN:  [tags] Tags should be a list\n",
			output.String())
	})

	t.Run("passing skill is silent unless verbose", func(t *testing.T) {
		r := skills.Result{
			Skill:    "proto-lang-go",
			Valid:    true,
			Warnings: []skills.Finding{{Field: "version", Message: "Version should follow semver format: 1.0"}},
		}

		p, output, _ := newTestPresenter()
		ValidationResult(p, r, false)
		assert.Empty(t, output.String())

		ValidationResult(p, r, true)
		assert.Equal(t,
			"✓ proto-lang-go\n    WARN:  [version] Version should follow semver format: 1.0\n",
			output.String())
	})
}

func TestValidationTotals(t *testing.T) {
	p, output, _ := newTestPresenter()
	ValidationTotals(p, 3, 2, 1)
	assert.Contains(t, output.String(), "Total: 3 | Passed: 2 | Failed: 1\n")
	assert.Contains(t, output.String(), "✗ Validation FAILED\n")

	output.Reset()
	ValidationTotals(p, 2, 2, 0)
	assert.Contains(t, output.String(), "✓ Validation PASSED\n")
}

func sampleReport(passed bool) triggers.Report {
	r := triggers.Report{
		Skill:          "proto-lang-go",
		HasTests:       true,
		TestsRun:       1,
		TestsPassed:    1,
		TriggersRun:    1,
		TriggersPassed: 1,
		Outcomes: []triggers.Outcome{
			{Name: "Test 1", Passed: true, Message: "Triggered by: ['golang']"},
			{Name: "Trigger: 'write golang code'", Passed: true, Message: "Correctly triggered"},
		},
	}
	if !passed {
		r.TriggersPassed = 0
		r.Outcomes[1] = triggers.Outcome{Name: "Trigger: 'write golang code'", Passed: false, Message: "Should trigger but didn't"}
	}
	return r
}

func TestTestReport(t *testing.T) {
	t.Run("passing skill hides outcomes", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		TestReport(p, sampleReport(true), false)
		assert.Equal(t, "✓ proto-lang-go\n    Tests: 1/1\n    Triggers: 1/1\n", output.String())
	})

	t.Run("failing skill lists failures only", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		TestReport(p, sampleReport(false), false)
		assert.Equal(t,
			"✗ proto-lang-go\n    Tests: 1/1\n    Triggers: 0/1\n"+
				"      ✗ Trigger: 'write golang code': Should trigger but didn't\n",
			output.String())
	})

	t.Run("verbose lists every outcome", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		TestReport(p, sampleReport(false), true)
		assert.Contains(t, output.String(), "      ✓ Test 1: Triggered by: ['golang']\n")
		assert.Contains(t, output.String(), "      ✗ Trigger: 'write golang code'")
	})

	t.Run("no tests", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		r := triggers.Report{Skill: "proto-lang-rust"}
		TestReport(p, r, false)
		assert.Empty(t, output.String())

		TestReport(p, r, true)
		assert.Equal(t, "○ proto-lang-rust (no tests)\n", output.String())
	})
}

func TestTestTotals(t *testing.T) {
	t.Run("all passed", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		ok := TestTotals(p, []triggers.Report{sampleReport(true), {Skill: "other"}})
		assert.True(t, ok)
		assert.Contains(t, output.String(), "Skills: 2 total, 1 with tests\n")
		assert.Contains(t, output.String(), "Tests: 1/1 passed\n")
		assert.Contains(t, output.String(), "Triggers: 1/1 passed\n")
		assert.Contains(t, output.String(), "✓ All tests PASSED\n")
	})

	t.Run("some failed", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		ok := TestTotals(p, []triggers.Report{sampleReport(false)})
		assert.False(t, ok)
		assert.Contains(t, output.String(), "✗ Some tests FAILED\n")
	})

	t.Run("no tests", func(t *testing.T) {
		p, output, _ := newTestPresenter()
		ok := TestTotals(p, []triggers.Report{{Skill: "a"}})
		assert.True(t, ok)
		assert.Contains(t, output.String(), "No tests found. Add tests/examples.yaml to skills.")
	})
}
