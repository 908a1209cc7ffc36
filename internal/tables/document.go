package tables

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is an uploaded PDF held in memory for the duration of a
// session, with its page count resolved up front.
type Document struct {
	Name      string
	Data      []byte
	PageCount int
}

// LoadDocument reads and validates a PDF file. The file must exist, carry
// a .pdf extension, be non-empty, and parse as a PDF; its page count is
// taken from the parsed cross-reference table.
func LoadDocument(path string, maxFileSize int64) (*Document, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return nil, fmt.Errorf("file is not a PDF: %s", path)
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}

	return &Document{
		Name:      filepath.Base(path),
		Data:      data,
		PageCount: ctx.PageCount,
	}, nil
}

// BaseName returns the document name without its extension, used to build
// suggested download filenames.
func (d *Document) BaseName() string {
	name := d.Name
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" {
		name = "document"
	}
	return name
}
