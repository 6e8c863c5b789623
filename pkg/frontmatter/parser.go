// Package frontmatter parses the metadata header at the top of SKILL.md
// documents. It understands the small markup subset those headers use:
// scalar key/value pairs, one level of nested mapping, and lists written
// either as dash items or inline [a, b] lists. Anchors, block scalars,
// multi-document streams and flow mappings are deliberately unsupported.
package frontmatter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Delimiter opens and closes the metadata header.
const Delimiter = "---"

// ErrNoHeader is returned when a document does not start with a delimited
// metadata header.
var ErrNoHeader = errors.New("no metadata header found")

// Header is the parsed form of a document header.
type Header struct {
	Record Record
	// Raw is the header text between the delimiters.
	Raw string
	// Body is everything after the closing delimiter, untrimmed.
	Body string
	// Issues lists header lines the parser could not place.
	Issues []Issue
}

// Issue describes a header line that was ignored or only partially
// understood.
type Issue struct {
	Line   int
	Text   string
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s (%q)", i.Line, i.Reason, i.Text)
}

// Split separates a document into its header text and body. The first line
// must be the delimiter and the header ends at the next line that is exactly
// the delimiter. Trailing whitespace and carriage returns on the delimiter
// lines are tolerated.
func Split(doc string) (header string, body string, err error) {
	lines := strings.Split(doc, "\n")
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return "", "", ErrNoHeader
	}

	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), nil
		}
	}

	return "", "", errors.Wrap(ErrNoHeader, "closing delimiter not found")
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}

// Parse extracts and parses the header of doc. It fails only when the
// header delimiters are missing; lines it cannot place are reported as
// Issues on the returned Header.
func Parse(doc string) (*Header, error) {
	raw, body, err := Split(doc)
	if err != nil {
		return nil, err
	}

	record, issues := ParseRecord(raw)
	return &Header{
		Record: record,
		Raw:    raw,
		Body:   body,
		Issues: issues,
	}, nil
}

// ParseRecord parses header text (without delimiters) into a Record. Line
// numbers in the returned issues count the opening delimiter as line 1.
func ParseRecord(text string) (Record, []Issue) {
	acc := newAccumulator()
	for i, line := range strings.Split(text, "\n") {
		acc.consume(i+2, line)
	}
	acc.flush()
	return acc.record, acc.issues
}

type parseState int

const (
	// stateIdle means no top-level key can receive indented content.
	stateIdle parseState = iota
	// statePending means a bare "key:" line is waiting for a list or mapping.
	statePending
	// stateTopList means the pending key has received dash items.
	stateTopList
	// stateNestedMap means the key owns a nested mapping.
	stateNestedMap
	// stateNestedList means a nested key is receiving dash items.
	stateNestedList
)

// accumulator carries the parse state through the fold over header lines.
type accumulator struct {
	record Record
	issues []Issue
	state  parseState

	key  string
	list []string

	nested       Record
	nestedKey    string
	nestedIndent int
}

func newAccumulator() *accumulator {
	return &accumulator{record: Record{}}
}

func (a *accumulator) consume(lineNo int, line string) {
	line = strings.TrimRight(line, "\r")
	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.HasPrefix(stripped, "#") {
		return
	}

	indent := len(line) - len(strings.TrimLeft(line, " \t"))

	switch {
	case isListItem(stripped):
		a.addItem(lineNo, indent, stripped)
	case !strings.Contains(stripped, ":"):
		a.issue(lineNo, stripped, "line is neither a key nor a list item")
	case indent > 0 && a.acceptsNested():
		a.addNested(lineNo, indent, stripped)
	case indent > 0 && a.state == stateTopList:
		a.issue(lineNo, stripped, fmt.Sprintf("key cannot follow list items of %q", a.key))
	case indent > 0:
		a.issue(lineNo, stripped, "indented key has no owning key, stored at top level")
		a.startKey(lineNo, stripped)
	default:
		a.startKey(lineNo, stripped)
	}
}

func (a *accumulator) acceptsNested() bool {
	return a.state == statePending || a.state == stateNestedMap || a.state == stateNestedList
}

func (a *accumulator) addItem(lineNo, indent int, stripped string) {
	item := stripQuotes(strings.TrimPrefix(stripped, "-"))
	if item == "" {
		a.issue(lineNo, stripped, "empty list item")
		return
	}

	switch a.state {
	case statePending, stateTopList:
		a.list = append(a.list, item)
		a.state = stateTopList
	case stateNestedList:
		if indent < a.nestedIndent {
			a.issue(lineNo, stripped, fmt.Sprintf("list item is indented less than %q", a.nestedKey))
			return
		}
		items, _ := a.nested[a.nestedKey].([]string)
		a.nested[a.nestedKey] = append(items, item)
	default:
		a.issue(lineNo, stripped, "list item has no owning key")
	}
}

func (a *accumulator) addNested(lineNo, indent int, stripped string) {
	key, val := splitPair(stripped)
	if key == "" {
		a.issue(lineNo, stripped, "empty key")
		return
	}

	if a.state == statePending {
		a.nested = Record{}
		a.nestedIndent = indent
	} else if indent != a.nestedIndent {
		a.issue(lineNo, stripped, fmt.Sprintf("inconsistent indentation under %q, expected %d", a.key, a.nestedIndent))
	}

	if val != "" {
		a.nested[key] = Coerce(val)
		a.nestedKey = ""
		a.state = stateNestedMap
		return
	}

	a.nested[key] = []string{}
	a.nestedKey = key
	a.state = stateNestedList
}

func (a *accumulator) startKey(lineNo int, stripped string) {
	a.flush()

	key, val := splitPair(stripped)
	if key == "" {
		a.issue(lineNo, stripped, "empty key")
		return
	}

	if val != "" {
		a.record[key] = Coerce(val)
		return
	}

	a.record[key] = nil
	a.key = key
	a.state = statePending
}

// flush stores whatever the active key collected and returns to idle.
func (a *accumulator) flush() {
	switch a.state {
	case stateTopList:
		a.record[a.key] = a.list
	case stateNestedMap, stateNestedList:
		a.record[a.key] = a.nested
	}

	a.state = stateIdle
	a.key = ""
	a.list = nil
	a.nested = nil
	a.nestedKey = ""
	a.nestedIndent = 0
}

func (a *accumulator) issue(lineNo int, text, reason string) {
	a.issues = append(a.issues, Issue{Line: lineNo, Text: text, Reason: reason})
}

func isListItem(stripped string) bool {
	return stripped == "-" || strings.HasPrefix(stripped, "- ")
}

func splitPair(s string) (string, string) {
	key, val, _ := strings.Cut(s, ":")
	return strings.TrimSpace(key), strings.TrimSpace(val)
}
