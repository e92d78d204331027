package domain

import (
	"fmt"
	"sort"
)

// View is a read-only window over the state record.
// Nodes and routing functions receive a View; they cannot mutate the record through it.
type View struct {
	fields map[string]any
}

// NewView wraps a field map. The map is not copied.
func NewView(fields map[string]any) View {
	return View{fields: fields}
}

// Get returns the raw value of a field and whether it is present.
func (v View) Get(key string) (any, bool) {
	val, ok := v.fields[key]
	return val, ok
}

// Has reports whether a field is present and not null.
func (v View) Has(key string) bool {
	val, ok := v.fields[key]
	return ok && val != nil
}

// String returns a string field, or "" when absent, null or not a string.
func (v View) String(key string) string {
	switch val := v.fields[key].(type) {
	case string:
		return val
	case Label:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return ""
	}
}

// Bool returns a bool field, or false when absent.
func (v View) Bool(key string) bool {
	b, _ := v.fields[key].(bool)
	return b
}

// Int returns an integer field. Whole floats (from JSON decoding) are accepted.
func (v View) Int(key string) int {
	switch n := v.fields[key].(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Strings returns a copy of a list-of-strings field.
func (v View) Strings(key string) []string {
	switch list := v.fields[key].(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Keys returns the populated field names in sorted order.
func (v View) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the fields.
func (v View) Snapshot() map[string]any {
	out := make(map[string]any, len(v.fields))
	for k, val := range v.fields {
		out[k] = val
	}
	return out
}
