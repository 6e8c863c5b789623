package frontmatter

import (
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw header token into a typed value. The result is one
// of nil, bool, int, float64, []string or string. Coerce never fails: a
// token that does not parse as anything more specific is returned as a
// trimmed string.
func Coerce(raw string) any {
	value := strings.TrimSpace(raw)
	lower := strings.ToLower(value)

	switch lower {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	case "null", "~", "":
		return nil
	}

	// Approximate numbers such as ~100
	if rest, ok := strings.CutPrefix(value, "~"); ok {
		if isDigits(rest) {
			if n, err := strconv.Atoi(rest); err == nil {
				return n
			}
		}
		return value
	}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return int(n)
	}

	if !strings.ContainsAny(value, "xX") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return parseInlineList(value[1 : len(value)-1])
	}

	if unquoted, ok := unquote(value); ok {
		return unquoted
	}

	return value
}

// parseInlineList splits the interior of a bracketed list on commas.
func parseInlineList(inner string) []string {
	items := []string{}
	for _, item := range strings.Split(inner, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		items = append(items, stripQuotes(item))
	}
	return items
}

// stripQuotes trims whitespace and then any quote characters at either end.
func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// Unquote returns the interior of s when it is wrapped in a matching pair
// of single or double quotes, and s unchanged otherwise.
func Unquote(s string) string {
	if inner, ok := unquote(s); ok {
		return inner
	}
	return s
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' || first == '\'') && first == last {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Format renders a coerced value back into text for messages and catalog
// output. Floats always keep a decimal point so that 1.0 is not shown as 1.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if math.IsInf(val, 0) || math.IsNaN(val) || strings.ContainsAny(s, ".e") {
			return s
		}
		return s + ".0"
	case []string:
		return "[" + strings.Join(val, ", ") + "]"
	case Record:
		return val.String()
	default:
		return ""
	}
}

// Truthy reports whether a value counts as set: nil, false, zero numbers,
// empty strings, empty lists and empty mappings are all unset.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int:
		return val != 0
	case float64:
		return val != 0
	case string:
		return val != ""
	case []string:
		return len(val) > 0
	case Record:
		return len(val) > 0
	default:
		return true
	}
}
