package history

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/triggers"
)

// JSONField stores a value as a JSON text column.
type JSONField[T any] struct {
	Data T
}

// Scan implements the sql.Scanner interface for reading from database
func (j *JSONField[T]) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.Errorf("cannot scan %T into JSONField", value)
	}

	return json.Unmarshal(raw, &j.Data)
}

// Value implements the driver.Valuer interface for writing to database
func (j JSONField[T]) Value() (driver.Value, error) {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Command names recorded with each run.
const (
	CommandValidate = "validate"
	CommandTest     = "test"
)

// Run is one recorded validate or test invocation.
type Run struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	SkillsDir  string    `json:"skills_dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
}

// SkillResult is the recorded outcome for one skill in a run.
type SkillResult struct {
	Skill          string             `json:"skill"`
	Passed         bool               `json:"passed"`
	ErrorCount     int                `json:"error_count"`
	WarningCount   int                `json:"warning_count"`
	TestsRun       int                `json:"tests_run"`
	TestsPassed    int                `json:"tests_passed"`
	TriggersRun    int                `json:"triggers_run"`
	TriggersPassed int                `json:"triggers_passed"`
	Findings       []skills.Finding   `json:"findings"`
	Outcomes       []triggers.Outcome `json:"outcomes"`
}

// RunDetail is a run together with its per-skill results.
type RunDetail struct {
	Run
	Results []SkillResult `json:"results"`
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type dbRun struct {
	ID         string `db:"id"`
	Command    string `db:"command"`
	SkillsDir  string `db:"skills_dir"`
	StartedAt  string `db:"started_at"`
	FinishedAt string `db:"finished_at"`
	Total      int    `db:"total"`
	Passed     int    `db:"passed"`
	Failed     int    `db:"failed"`
}

type dbSkillResult struct {
	RunID          string                        `db:"run_id"`
	Skill          string                        `db:"skill"`
	Passed         bool                          `db:"passed"`
	ErrorCount     int                           `db:"error_count"`
	WarningCount   int                           `db:"warning_count"`
	TestsRun       int                           `db:"tests_run"`
	TestsPassed    int                           `db:"tests_passed"`
	TriggersRun    int                           `db:"triggers_run"`
	TriggersPassed int                           `db:"triggers_passed"`
	Findings       JSONField[[]skills.Finding]   `db:"findings"`
	Outcomes       JSONField[[]triggers.Outcome] `db:"outcomes"`
}

func fromDBRun(r dbRun) (Run, error) {
	started, err := time.Parse(timeLayout, r.StartedAt)
	if err != nil {
		return Run{}, errors.Wrap(err, "failed to parse started_at")
	}
	finished, err := time.Parse(timeLayout, r.FinishedAt)
	if err != nil {
		return Run{}, errors.Wrap(err, "failed to parse finished_at")
	}
	return Run{
		ID:         r.ID,
		Command:    r.Command,
		SkillsDir:  r.SkillsDir,
		StartedAt:  started,
		FinishedAt: finished,
		Total:      r.Total,
		Passed:     r.Passed,
		Failed:     r.Failed,
	}, nil
}

func toDBRun(r Run) dbRun {
	return dbRun{
		ID:         r.ID,
		Command:    r.Command,
		SkillsDir:  r.SkillsDir,
		StartedAt:  r.StartedAt.UTC().Format(timeLayout),
		FinishedAt: r.FinishedAt.UTC().Format(timeLayout),
		Total:      r.Total,
		Passed:     r.Passed,
		Failed:     r.Failed,
	}
}

func (r dbSkillResult) toSkillResult() SkillResult {
	findings := r.Findings.Data
	if findings == nil {
		findings = []skills.Finding{}
	}
	outcomes := r.Outcomes.Data
	if outcomes == nil {
		outcomes = []triggers.Outcome{}
	}
	return SkillResult{
		Skill:          r.Skill,
		Passed:         r.Passed,
		ErrorCount:     r.ErrorCount,
		WarningCount:   r.WarningCount,
		TestsRun:       r.TestsRun,
		TestsPassed:    r.TestsPassed,
		TriggersRun:    r.TriggersRun,
		TriggersPassed: r.TriggersPassed,
		Findings:       findings,
		Outcomes:       outcomes,
	}
}

// FromValidation converts validation results into skill results.
func FromValidation(results []skills.Result) []SkillResult {
	out := make([]SkillResult, 0, len(results))
	for _, r := range results {
		out = append(out, SkillResult{
			Skill:        r.Skill,
			Passed:       r.Valid,
			ErrorCount:   len(r.Errors),
			WarningCount: len(r.Warnings),
			Findings:     r.Findings(),
			Outcomes:     []triggers.Outcome{},
		})
	}
	return out
}

// FromReports converts trigger test reports into skill results. Skills
// without tests are left out.
func FromReports(reports []triggers.Report) []SkillResult {
	out := make([]SkillResult, 0, len(reports))
	for _, r := range reports {
		if !r.HasTests {
			continue
		}
		out = append(out, SkillResult{
			Skill:          r.Skill,
			Passed:         r.Passed(),
			TestsRun:       r.TestsRun,
			TestsPassed:    r.TestsPassed,
			TriggersRun:    r.TriggersRun,
			TriggersPassed: r.TriggersPassed,
			Findings:       []skills.Finding{},
			Outcomes:       r.Outcomes,
		})
	}
	return out
}
