package schema

import (
	"fmt"
	"sort"
)

// Field declares one entry of a state record.
type Field struct {
	Name     string
	Type     Type
	Required bool // Must be supplied by the caller at invocation time
}

// Required declares a field the caller must supply.
func Required(name string, t Type) Field {
	return Field{Name: name, Type: t, Required: true}
}

// Optional declares a field populated by nodes (or optionally by the caller).
func Optional(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// Record is the ordered, fixed set of fields a workflow's state may hold.
// The zero Record accepts anything (no validation).
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record, rejecting empty or duplicate field names.
func NewRecord(fields ...Field) (Record, error) {
	rec := Record{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			return Record{}, fmt.Errorf("schema: empty field name")
		}
		if f.Type == nil {
			return Record{}, fmt.Errorf("schema: field %s has no type", f.Name)
		}
		if _, dup := rec.index[f.Name]; dup {
			return Record{}, fmt.Errorf("schema: duplicate field %s", f.Name)
		}
		rec.index[f.Name] = len(rec.fields)
		rec.fields = append(rec.fields, f)
	}
	return rec, nil
}

// MustRecord is like NewRecord but panics on error. Intended for package-level declarations.
func MustRecord(fields ...Field) Record {
	rec, err := NewRecord(fields...)
	if err != nil {
		panic(err)
	}
	return rec
}

// IsZero reports whether the record declares no fields.
func (r Record) IsZero() bool { return len(r.fields) == 0 }

// Fields returns the declared fields in order.
func (r Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Names returns the declared field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the declaration of a field.
func (r Record) Lookup(name string) (Field, bool) {
	i, ok := r.index[name]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// Schema returns the record as an unordered Schema (name → type).
func (r Record) Schema() Schema {
	s := make(Schema, len(r.fields))
	for _, f := range r.fields {
		s[f.Name] = f.Type
	}
	return s
}

// ValidatePartial checks that every key in data is declared and that non-nil values match
// their declared type. Absent fields are fine. Used for node updates.
func (r Record) ValidatePartial(data map[string]any) error {
	if r.IsZero() {
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value := data[key]
		f, ok := r.Lookup(key)
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: ErrUndeclared.Error(), Err: ErrUndeclared})
			continue
		}
		if value == nil {
			continue
		}
		if err := f.Type.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateInput is ValidatePartial plus the presence of every Required field.
func (r Record) ValidateInput(data map[string]any) error {
	var errs []error
	if err := r.ValidatePartial(data); err != nil {
		errs = append(errs, ValidationErrors(err)...)
	}

	var required []string
	for _, f := range r.fields {
		if f.Required {
			required = append(required, f.Name)
		}
	}
	if len(required) > 0 {
		if err := ValidateFields(r.Schema(), data, required...); err != nil {
			for _, e := range ValidationErrors(err) {
				// Type mismatches were already reported by ValidatePartial.
				if ve, ok := e.(*ValidationError); ok && ve.Err == ErrRequired {
					errs = append(errs, ve)
				}
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
