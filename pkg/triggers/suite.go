package triggers

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
)

// ExamplesFile is the companion test file, relative to the skill directory.
const ExamplesFile = "tests/examples.yaml"

var caseKeyPattern = regexp.MustCompile(`^test_(\d+)_`)

// Case is a numbered test case.
type Case struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Input    string `json:"input,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Suite is the parsed content of a skill's examples file.
type Suite struct {
	Keywords         []string `json:"keywords,omitempty"`
	ShouldTrigger    []string `json:"should_trigger,omitempty"`
	ShouldNotTrigger []string `json:"should_not_trigger,omitempty"`
	Cases            []Case   `json:"cases,omitempty"`
}

// ParseSuite reads the flat examples format: "key: value" pairs at column 0
// and "- item" entries under a bare "key:". Unknown keys are ignored.
func ParseSuite(content string) *Suite {
	values := parseFlat(content)

	suite := &Suite{
		Keywords:         listValue(values["keywords"]),
		ShouldTrigger:    listValue(values["should_trigger"]),
		ShouldNotTrigger: listValue(values["should_not_trigger"]),
		Cases:            make([]Case, 0),
	}

	numbers := make(map[int]bool)
	for key := range values {
		m := caseKeyPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			numbers[n] = true
		}
	}

	sorted := make([]int, 0, len(numbers))
	for n := range numbers {
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	for _, n := range sorted {
		prefix := "test_" + strconv.Itoa(n) + "_"
		name := scalarValue(values[prefix+"name"])
		if name == "" {
			name = "Test " + strconv.Itoa(n)
		}
		suite.Cases = append(suite.Cases, Case{
			Number:   n,
			Name:     name,
			Input:    scalarValue(values[prefix+"input"]),
			Expected: scalarValue(values[prefix+"expected"]),
		})
	}

	return suite
}

func parseFlat(content string) map[string]any {
	values := make(map[string]any)
	listKey := ""

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t\r")
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}

		if stripped == "-" || strings.HasPrefix(stripped, "- ") {
			if listKey != "" {
				item := frontmatter.Unquote(strings.TrimSpace(strings.TrimPrefix(stripped, "-")))
				if item != "" {
					values[listKey] = append(values[listKey].([]string), item)
				}
			}
			continue
		}

		listKey = ""
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		if val == "" {
			listKey = key
			values[key] = []string{}
			continue
		}
		values[key] = val
	}

	return values
}

// listValue accepts a dash list, an inline [a, b] list or a single scalar.
func listValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case string:
		if list, ok := frontmatter.Coerce(val).([]string); ok {
			return list
		}
		return []string{frontmatter.Unquote(val)}
	default:
		return nil
	}
}

func scalarValue(v any) string {
	s, _ := v.(string)
	return frontmatter.Unquote(s)
}
