package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sanitizeDefault(input string) (string, error) {
	return sanitize(input, maxInputSize(0))
}

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sanitizeDefault(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeDefault(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	_, err := sanitizeDefault("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = sanitizeDefault("12345")
	assert.NoError(t, err)
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := sanitizeDefault("bad \xff byte")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizeFields(t *testing.T) {
	in := map[string]any{
		"message": "help\x1b!",
		"context": []string{"ok", "bell\x07"},
		"retries": 2,
	}
	out, err := SanitizeFields(in, 0)
	require.NoError(t, err)
	assert.Equal(t, "help!", out["message"])
	assert.Equal(t, []string{"ok", "bell"}, out["context"])
	assert.Equal(t, 2, out["retries"])
	assert.Equal(t, "help\x1b!", in["message"], "caller map must not change")

	_, err = SanitizeFields(map[string]any{"message": "0123456789"}, 5)
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.ErrorContains(t, err, `"message"`)

	_, err = SanitizeFields(map[string]any{"context": []string{"fine", "\xff"}}, 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.ErrorContains(t, err, `"context"[1]`)
}

func TestSanitizeFields_DecodedJSONLists(t *testing.T) {
	in := map[string]any{"context": []any{"\x1b[31mevil", 7, nil}}
	out, err := SanitizeFields(in, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"[31mevil", 7, nil}, out["context"])
	assert.Equal(t, "\x1b[31mevil", in["context"].([]any)[0], "caller list must not change")

	_, err = SanitizeFields(map[string]any{"context": []any{"ok", strings.Repeat("x", 100000)}}, 0)
	assert.ErrorIs(t, err, ErrInputTooLarge)
	assert.ErrorContains(t, err, `"context"[1]`)

	_, err = SanitizeFields(map[string]any{"context": []any{"\xff"}}, 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
