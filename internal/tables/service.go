package tables

import (
	"errors"
	"fmt"

	"github.com/gridpoint/mcp-pdf-tables/internal/tables/engine"
	"github.com/gridpoint/mcp-pdf-tables/internal/tables/export"
	"github.com/gridpoint/mcp-pdf-tables/internal/tables/pagerange"
)

// ErrNoDocument is returned by operations that need an extraction run
// before one has happened.
var ErrNoDocument = errors.New("no document loaded; run an extraction first")

// ErrNoMergePreview is returned when a merged export is requested before
// any successful merge.
var ErrNoMergePreview = errors.New("no merge preview available")

// Maximum length of the failure reason carried in a method descriptor.
const failureReasonLimit = 120

// Service orchestrates extraction, editing, merging, and export for one
// session. Backend failures never escape it as raw errors: extraction
// converts them into an empty table set plus a failure descriptor.
type Service struct {
	maxFileSize int64
	registry    *engine.Registry
	store       *Store
	doc         *Document
}

// NewService creates a session service using the given engine registry.
func NewService(maxFileSize int64, registry *engine.Registry) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		registry:    registry,
		store:       NewStore(),
	}
}

// Store exposes the session's table store.
func (s *Service) Store() *Store {
	return s.store
}

// Document returns the currently loaded document, or nil.
func (s *Service) Document() *Document {
	return s.doc
}

// Engines lists the registered engine names in sorted order.
func (s *Service) Engines() []string {
	return s.registry.Names()
}

// RunExtraction loads the PDF at req.Path and extracts tables from it.
// Page-range syntax errors and document problems are returned as errors;
// backend failures are reported through ExtractResult.Method instead.
func (s *Service) RunExtraction(req ExtractRequest) (*ExtractResult, error) {
	doc, err := LoadDocument(req.Path, s.maxFileSize)
	if err != nil {
		return nil, err
	}

	var pages []int
	if req.Pages != "" {
		pages, err = pagerange.Parse(req.Pages, doc.PageCount)
		if err != nil {
			return nil, err
		}
	}

	return s.ExtractFrom(doc, pages, req.HeaderPolicy, req.Engine)
}

// ExtractFrom runs one extraction over an already-loaded document. Pages
// are 0-indexed; nil selects all pages. The previous run's tables, edits,
// and merge preview are discarded before the engine runs.
func (s *Service) ExtractFrom(doc *Document, pages []int, policy HeaderPolicy, engineName string) (*ExtractResult, error) {
	backend, notice, err := s.registry.Resolve(engineName)
	if err != nil {
		return nil, err
	}

	if policy == "" {
		policy = HeaderFirstRow
	}
	pages = clampPages(pages, doc.PageCount)

	s.store.Reset()
	s.doc = doc

	raw, method := s.readTables(backend, doc, pages)

	requested := pages
	if requested == nil {
		requested = make([]int, doc.PageCount)
		for i := range requested {
			requested[i] = i
		}
	}

	result := &ExtractResult{
		Document:   doc.Name,
		TotalPages: doc.PageCount,
		Method:     method,
		Notice:     notice,
	}

	for i, rt := range raw {
		grid := Clean(Normalize(rt.Cells, policy))
		if len(grid.Columns) == 0 {
			continue
		}

		page := rt.Page
		if page == 0 {
			// Best effort: attribute to the requested page in extraction
			// order. Wrong when a page-agnostic backend finds several
			// tables on one page.
			page = attributedPage(requested, i)
		}

		table := s.store.Add(page, grid, backend.Name())
		result.Tables = append(result.Tables, table)
	}

	return result, nil
}

// readTables invokes the backend, materializing a temporary file when it
// needs a path, and converts any error or panic into a failure
// descriptor. The temporary file is deleted before readTables returns.
func (s *Service) readTables(backend engine.Backend, doc *Document, pages []int) (raw []engine.RawTable, method string) {
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("backend panic: %v", r)
			}
		}()

		src := engine.Source{Data: doc.Data}
		if backend.NeedsFile() {
			err = engine.WithSourceFile(doc.Data, func(path string) error {
				src.Path = path
				var inner error
				raw, inner = backend.ReadTables(src, pages)
				return inner
			})
		} else {
			raw, err = backend.ReadTables(src, pages)
		}
	}()

	if err != nil {
		return nil, failureDescriptor(backend.Name(), err)
	}
	return raw, backend.Name()
}

// PreviewMerge merges the selected tables under the mapping and stores
// the result as the session's merge preview. On failure the previous
// preview is left untouched.
func (s *Service) PreviewMerge(ids []int, mapping ColumnMapping) (*MergedTable, error) {
	inputs := make([]MergeInput, 0, len(ids))
	for _, id := range ids {
		grid, ok := s.store.Current(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrTableNotFound, id)
		}
		inputs = append(inputs, MergeInput{ID: id, Grid: grid})
	}

	merged := &MergedTable{
		Grid:     Merge(inputs, mapping),
		TableIDs: append([]int(nil), ids...),
	}
	s.store.SetMerged(merged)
	return merged, nil
}

// ExportTables serializes the chosen table set and returns the bytes
// together with a suggested filename and MIME type. Nothing is written to
// the filesystem.
func (s *Service) ExportTables(req ExportRequest) (*ExportResult, error) {
	if s.doc == nil {
		return nil, ErrNoDocument
	}

	format := export.Format(req.Format)
	source := req.Source
	if source == "" {
		source = ExportCurrent
	}

	var exportTables []export.Table
	merge := req.Merge

	switch source {
	case ExportMerged:
		merged := s.store.Merged()
		if merged == nil {
			return nil, ErrNoMergePreview
		}
		exportTables = []export.Table{{Columns: merged.Grid.Columns, Rows: merged.Grid.Rows}}
		merge = true
	case ExportCurrent, ExportOriginal:
		for _, t := range s.store.Tables() {
			grid := t.Grid
			if source == ExportCurrent {
				grid, _ = s.store.Current(t.ID)
			}
			exportTables = append(exportTables, export.Table{
				Page:    t.Page,
				Columns: grid.Columns,
				Rows:    grid.Rows,
			})
		}
	default:
		return nil, fmt.Errorf("unknown export source: %q", source)
	}

	data, err := export.Serialize(exportTables, format, merge)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Data:              data,
		SuggestedFilename: fmt.Sprintf("%s_tables.%s", s.doc.BaseName(), export.FileExtension(format)),
		MIMEType:          export.MIMEType(format),
	}, nil
}

func failureDescriptor(engineName string, err error) string {
	reason := err.Error()
	if len(reason) > failureReasonLimit {
		reason = reason[:failureReasonLimit] + "..."
	}
	return engineName + ": " + reason
}

// clampPages drops out-of-range page numbers; they are not an error.
func clampPages(pages []int, total int) []int {
	if pages == nil {
		return nil
	}
	valid := make([]int, 0, len(pages))
	for _, p := range pages {
		if p >= 0 && p < total {
			valid = append(valid, p)
		}
	}
	return valid
}

// attributedPage maps the i-th extracted table to a 1-indexed page from
// the requested set, clamping to the last requested page.
func attributedPage(requested []int, i int) int {
	if len(requested) == 0 {
		return 1
	}
	if i >= len(requested) {
		i = len(requested) - 1
	}
	return requested[i] + 1
}
