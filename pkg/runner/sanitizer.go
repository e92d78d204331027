package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "WAYFINDER_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeFields cleans every string value of fields, including the string elements of
// []string and []any lists, and returns a cleaned copy. Other values pass through. A
// limit of zero uses the default. Errors name the offending field.
func SanitizeFields(fields map[string]any, limit int) (map[string]any, error) {
	limit = maxInputSize(limit)
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		switch val := v.(type) {
		case string:
			clean, err := sanitize(val, limit)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = clean
		case []string:
			cleaned := make([]string, len(val))
			for i, s := range val {
				clean, err := sanitize(s, limit)
				if err != nil {
					return nil, fmt.Errorf("field %q[%d]: %w", k, i, err)
				}
				cleaned[i] = clean
			}
			out[k] = cleaned
		case []any:
			cleaned := make([]any, len(val))
			for i, e := range val {
				str, ok := e.(string)
				if !ok {
					cleaned[i] = e
					continue
				}
				clean, err := sanitize(str, limit)
				if err != nil {
					return nil, fmt.Errorf("field %q[%d]: %w", k, i, err)
				}
				cleaned[i] = clean
			}
			out[k] = cleaned
		default:
			out[k] = v
		}
	}
	return out, nil
}

// sanitize enforces limit, validates UTF-8 and strips control characters.
func sanitize(input string, limit int) (string, error) {
	// Reject rather than truncate so the stored input is what ran.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Newline, tab and carriage return survive; ESC, NUL, BEL and the rest are dropped.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxInputSize(override int) int {
	if override > 0 {
		return override
	}
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
