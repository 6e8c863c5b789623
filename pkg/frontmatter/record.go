package frontmatter

import (
	"sort"
	"strings"
)

// Record is a parsed metadata header. Values are scalars (nil, bool, int,
// float64, string), ordered []string lists, or a nested Record that itself
// only holds scalars and lists. Records are built fresh by Parse and must be
// treated as read-only.
type Record map[string]any

// Has reports whether key was declared, even with a null value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Get returns the raw value for key.
func (r Record) Get(key string) any {
	return r[key]
}

// Text returns the value for key rendered as text.
func (r Record) Text(key string) string {
	return Format(r[key])
}

// List returns the value for key as a list. Scalar strings become a
// one-item list; anything else that is not a list yields nil.
func (r Record) List(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Map returns the nested mapping stored under key, if any.
func (r Record) Map(key string) (Record, bool) {
	m, ok := r[key].(Record)
	return m, ok
}

// Bool returns the boolean stored under key, or def if the key is absent.
// Present non-boolean values are judged by Truthy.
func (r Record) Bool(key string, def bool) bool {
	v, ok := r[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return Truthy(v)
}

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Depth returns the nesting depth of the record: 0 for an empty record,
// 1 for flat records and 2 when any value is a nested mapping.
func (r Record) Depth() int {
	if len(r) == 0 {
		return 0
	}
	depth := 1
	for _, v := range r {
		if nested, ok := v.(Record); ok {
			if d := 1 + nested.Depth(); d > depth {
				depth = d
			}
		}
	}
	return depth
}

// Plain converts the record into plain maps suitable for serialization.
func (r Record) Plain() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if nested, ok := v.(Record); ok {
			out[k] = nested.Plain()
			continue
		}
		out[k] = v
	}
	return out
}

func (r Record) String() string {
	parts := make([]string, 0, len(r))
	for _, k := range r.Keys() {
		parts = append(parts, k+": "+Format(r[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
