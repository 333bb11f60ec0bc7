package scanner

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		max     int
		wantErr error
	}{
		{"valid", "const x = 1;", 0, nil},
		{"empty", "", 0, ErrEmptyInput},
		{"nul byte", "abc\x00def", 0, ErrBinaryInput},
		{"invalid utf8", "abc\xff", 0, ErrBinaryInput},
		{"at limit", strings.Repeat("a", 10), 10, nil},
		{"over limit", strings.Repeat("a", 11), 10, ErrInputTooLarge},
		{"multibyte counted as characters", strings.Repeat("é", 10), 10, nil},
		{"default limit", strings.Repeat("a", DefaultMaxCodeLength+1), 0, ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.code, tt.max)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateInput() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateInput() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
