package domain

import (
	"reflect"
	"sort"
)

// Diff calculates the field-level difference between two records.
// Added or modified fields carry their new value; deleted fields are present with a nil value.
// Returns nil when nothing changed, so callers can use it with omitempty.
func Diff(oldFields, newFields map[string]any) map[string]any {
	delta := make(map[string]any)

	// If old is nil, everything in new is a delta
	if oldFields == nil {
		for k, v := range newFields {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	// Check for Added or Modified
	for k, newVal := range newFields {
		oldVal, exists := oldFields[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Check for Deletions
	for k := range oldFields {
		if _, exists := newFields[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// ChangedFields returns the sorted names of the fields an update actually changes in fields.
func ChangedFields(fields map[string]any, update Update) []string {
	var changed []string
	for k, newVal := range update {
		oldVal, exists := fields[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}
