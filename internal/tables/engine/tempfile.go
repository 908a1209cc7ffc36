package engine

import (
	"fmt"
	"os"
)

// WithSourceFile writes data to a temporary PDF file and invokes fn with
// its path. The file is removed on every exit path, including when fn
// returns an error or panics.
func WithSourceFile(data []byte, fn func(path string) error) error {
	f, err := os.CreateTemp("", "pdftables-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	return fn(path)
}
