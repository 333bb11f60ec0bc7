package scanner

import (
	"context"
	"fmt"
	"os"

	"github.com/pradeepp3/CODATS/pkg/language"
)

// ScanFile reads and scans a file. An empty languageID is detected from the
// file extension. The content is checked with ValidateInput first, except
// that a zero-length file scans clean instead of failing with ErrEmptyInput.
func (e *Engine) ScanFile(ctx context.Context, path, languageID string, maxLength int) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if languageID == "" {
		languageID = language.Detect(path)
	}

	code := string(data)
	if len(data) > 0 {
		if err := ValidateInput(code, maxLength); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return e.Scan(ctx, code, languageID)
}
