package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"query": String(), "iteration_count": Int(), "context": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema: every field present and well typed.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)
	return ValidateFields(schema, data, names...)
}

// ValidateFields validates only specific fields from data against the schema.
// Missing fields are treated as an error.
func ValidateFields(schema Schema, data map[string]any, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}

	var errs []error

	for _, fieldName := range fields {
		fieldType, exists := schema[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: ErrUndeclared.Error(),
				Err:    ErrUndeclared,
			})
			continue
		}

		value, fieldExists := data[fieldName]
		if !fieldExists || value == nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: ErrRequired.Error(),
				Err:    ErrRequired,
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}
