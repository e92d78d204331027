package schema

import (
	"encoding/json"
	"fmt"
)

// fieldJSON is the wire form of a Field.
type fieldJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
}

// MarshalJSON serializes the record as an ordered list of {name, type, required}.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make([]fieldJSON, len(r.fields))
	for i, f := range r.fields {
		out[i] = fieldJSON{Name: f.Name, Type: f.Type.Name(), Required: f.Required}
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the ordered list form produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	if r == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	var raw []fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := make([]Field, 0, len(raw))
	for _, f := range raw {
		t, err := ParseType(f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields = append(fields, Field{Name: f.Name, Type: t, Required: f.Required})
	}

	parsed, err := NewRecord(fields...)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
