package schema

import (
	"testing"
)

type ticketPriority string

func TestTypes_Validate(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		value   any
		wantErr bool
	}{
		{"string ok", String(), "hello", false},
		{"string named type ok", String(), ticketPriority("low"), false},
		{"string wrong", String(), 42, true},
		{"int ok", Int(), 3, false},
		{"int from json float", Int(), float64(3), false},
		{"int fractional float", Int(), 3.5, true},
		{"int wrong", Int(), "3", true},
		{"bool ok", Bool(), true, false},
		{"bool wrong", Bool(), "true", true},
		{"enum ok", Enum("low", "high"), "high", false},
		{"enum named type ok", Enum("low", "high"), ticketPriority("low"), false},
		{"enum outside set", Enum("low", "high"), "medium", true},
		{"enum wrong kind", Enum("low"), 1, true},
		{"slice ok", Slice(String()), []string{"a", "b"}, false},
		{"slice of any ok", Slice(String()), []any{"a", "b"}, false},
		{"slice bad element", Slice(String()), []any{"a", 1}, true},
		{"slice wrong kind", Slice(String()), "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input    string
		wantName string
		wantErr  bool
	}{
		{"string", "string", false},
		{"int", "int", false},
		{"bool", "bool", false},
		{"[string]", "[string]", false},
		{"enum(low|medium|high)", "enum(low|medium|high)", false},
		{"[enum(a|b)]", "[enum(a|b)]", false},
		{"enum()", "", true},
		{"float", "", true},
		{"[unknown]", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got.Name() != tt.wantName {
				t.Errorf("ParseType(%q).Name() = %q, want %q", tt.input, got.Name(), tt.wantName)
			}
		})
	}
}

func TestCustomType(t *testing.T) {
	ticket := Custom("ticket", func(v any) error {
		s, ok := v.(string)
		if !ok || len(s) < 4 || s[:4] != "TKT-" {
			return ErrRequired
		}
		return nil
	})

	if err := ticket.Validate("TKT-20250101000000"); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if err := ticket.Validate("ABC"); err == nil {
		t.Error("Validate() should reject values without the TKT- prefix")
	}
	if ticket.Name() != "ticket" {
		t.Errorf("Name() = %q, want ticket", ticket.Name())
	}
}
