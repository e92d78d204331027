// Package schema provides the field type system used to declare a workflow's state record.
//
// A workflow declares its fields once, in order, as a Record. The executor validates the
// caller's input fields and every node update against it, so a typo'd key or a wrongly
// typed value fails the invocation instead of silently leaking into later nodes.
//
// Basic usage:
//
//	rec := schema.MustRecord(
//	    schema.Required("message", schema.String()),
//	    schema.Optional("sentiment", schema.Enum("positive", "neutral", "negative", "urgent")),
//	    schema.Optional("context", schema.Slice(schema.String())),
//	    schema.Optional("escalate", schema.Bool()),
//	)
//
//	if err := rec.ValidateInput(map[string]any{"message": "hi"}); err != nil {
//	    // Handle validation errors
//	}
//
// Types can also be parsed from type strings ("string", "int", "bool", "[string]",
// "enum(low|high)"), which is how field declarations are printed for introspection.
//
// Null is accepted for every field: a node clears a field by writing nil.
package schema
