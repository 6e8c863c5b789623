package presenter

import (
	"fmt"

	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/triggers"
)

// ValidationResult prints one skill's validation outcome. Passing skills
// are only listed when verbose. Warnings are listed for failing skills and
// when verbose.
func ValidationResult(p Presenter, r skills.Result, verbose bool) {
	if r.Valid {
		if verbose {
			p.Success(r.Skill)
		}
	} else {
		p.Failure(r.Skill)
		for _, f := range r.Errors {
			p.Detail(4, fmt.Sprintf("ERROR: %s", f))
		}
	}

	if verbose || !r.Valid {
		for _, f := range r.Warnings {
			p.Detail(4, fmt.Sprintf("WARN:  %s", f))
		}
	}
}

// ValidationTotals prints the summary line and verdict of a validate run.
func ValidationTotals(p Presenter, total, passed, failed int) {
	p.Info("")
	p.Separator()
	p.Info(fmt.Sprintf("Total: %d | Passed: %d | Failed: %d", total, passed, failed))
	p.Info("")
	if failed > 0 {
		p.Failure("Validation FAILED")
	} else {
		p.Success("Validation PASSED")
	}
}

// TestReport prints one skill's trigger test outcome. Passing outcomes are
// only listed when verbose.
func TestReport(p Presenter, r triggers.Report, verbose bool) {
	if !r.HasTests {
		if verbose {
			p.Info(fmt.Sprintf("○ %s (no tests)", r.Skill))
		}
		return
	}

	passed := r.Passed()
	if passed {
		p.Success(r.Skill)
	} else {
		p.Failure(r.Skill)
	}
	p.Detail(4, fmt.Sprintf("Tests: %d/%d", r.TestsPassed, r.TestsRun))
	p.Detail(4, fmt.Sprintf("Triggers: %d/%d", r.TriggersPassed, r.TriggersRun))

	if !verbose && passed {
		return
	}
	for _, o := range r.Outcomes {
		if o.Passed && !verbose {
			continue
		}
		symbol := "✗"
		if o.Passed {
			symbol = "✓"
		}
		p.Detail(6, fmt.Sprintf("%s %s: %s", symbol, o.Name, o.Message))
	}
}

// TestTotals aggregates a test run and prints its summary. It reports
// whether the run passed; a run without any tests passes.
func TestTotals(p Presenter, reports []triggers.Report) bool {
	var withTests, testsRun, testsPassed, triggersRun, triggersPassed int
	for _, r := range reports {
		if !r.HasTests {
			continue
		}
		withTests++
		testsRun += r.TestsRun
		testsPassed += r.TestsPassed
		triggersRun += r.TriggersRun
		triggersPassed += r.TriggersPassed
	}

	p.Info("")
	p.Separator()
	p.Info(fmt.Sprintf("Skills: %d total, %d with tests", len(reports), withTests))
	p.Info(fmt.Sprintf("Tests: %d/%d passed", testsPassed, testsRun))
	p.Info(fmt.Sprintf("Triggers: %d/%d passed", triggersPassed, triggersRun))

	if withTests == 0 {
		p.Info("")
		p.Warning("No tests found. Add tests/examples.yaml to skills.")
		return true
	}

	p.Info("")
	if testsPassed == testsRun && triggersPassed == triggersRun {
		p.Success("All tests PASSED")
		return true
	}
	p.Failure("Some tests FAILED")
	return false
}
