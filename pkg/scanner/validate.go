package scanner

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxCodeLength is the largest input, in characters, accepted by default.
const DefaultMaxCodeLength = 500000

var (
	// ErrEmptyInput is returned for missing or empty code.
	ErrEmptyInput = errors.New("code is required")
	// ErrBinaryInput is returned when code is not valid UTF-8 text.
	ErrBinaryInput = errors.New("code must be text")
	// ErrInputTooLarge is returned when code exceeds the length ceiling.
	ErrInputTooLarge = errors.New("code exceeds maximum length")
)

// ValidateInput checks code before it is handed to the engine. A maxLength
// of zero or less uses DefaultMaxCodeLength.
func ValidateInput(code string, maxLength int) error {
	if maxLength <= 0 {
		maxLength = DefaultMaxCodeLength
	}

	if code == "" {
		return ErrEmptyInput
	}
	if !utf8.ValidString(code) || strings.IndexByte(code, 0) >= 0 {
		return ErrBinaryInput
	}
	if n := utf8.RuneCountInString(code); n > maxLength {
		return fmt.Errorf("%w: %d characters (limit %d)", ErrInputTooLarge, n, maxLength)
	}

	return nil
}
