// Package tables implements the table extraction core: normalizing raw
// grids from extraction backends, storing extracted tables with edit
// overlays, merging tables under a column mapping, and exporting them.
package tables

import "fmt"

// HeaderPolicy controls how the first row of a raw extracted grid is
// interpreted.
type HeaderPolicy string

const (
	// HeaderFirstRow treats row 0 of the raw grid as the column names.
	HeaderFirstRow HeaderPolicy = "first_row"
	// HeaderGeneric treats every row as data and synthesizes column names.
	HeaderGeneric HeaderPolicy = "generic"
)

// MissingValue fills grid cells that have no source data.
const MissingValue = ""

// Grid is a rectangular table: ordered column names plus rows of string
// cells. Every row has exactly len(Columns) cells.
type Grid struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	out := Grid{
		Columns: append([]string(nil), g.Columns...),
		Rows:    make([][]string, len(g.Rows)),
	}
	for i, row := range g.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// ColumnIndex returns the position of the named column, or -1.
func (g Grid) ColumnIndex(name string) int {
	for i, col := range g.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// ExtractedTable is one table found on one page during an extraction run.
type ExtractedTable struct {
	// ID is unique within an extraction run, assigned in discovery order.
	ID int `json:"id"`
	// Page is the 1-indexed source page the table was found on.
	Page int `json:"page"`
	// OriginalHeaders are the column names as produced at extraction time.
	OriginalHeaders []string `json:"original_headers"`
	// Grid is the normalized table content. It is never mutated after
	// extraction; edits live in the store's overlay.
	Grid Grid `json:"grid"`
	// Method names the engine variant that produced the table.
	Method string `json:"method"`
}

// MergedTable is the derived result of a schema merge. It is replaced
// wholesale by the next successful merge.
type MergedTable struct {
	Grid     Grid  `json:"grid"`
	TableIDs []int `json:"table_ids"`
}

// ColumnMapping maps a target column name to, per source table id, the
// source column that supplies its data. A table id absent from a target's
// map contributes the missing value for every one of that table's rows.
type ColumnMapping map[string]map[int]string

// Service request/result types.

// ExtractRequest asks for a fresh extraction run over a PDF file.
type ExtractRequest struct {
	Path string `json:"path"`
	// Pages is a 1-indexed page-range expression such as "1,3,5-7".
	// Empty selects all pages.
	Pages string `json:"pages,omitempty"`
	// HeaderPolicy defaults to HeaderFirstRow when empty.
	HeaderPolicy HeaderPolicy `json:"header_policy,omitempty"`
	// Engine is an engine identifier; empty selects the default engine.
	Engine string `json:"engine,omitempty"`
}

// ExtractResult reports the outcome of an extraction run.
type ExtractResult struct {
	Document   string            `json:"document"`
	TotalPages int               `json:"total_pages"`
	Tables     []*ExtractedTable `json:"tables"`
	// Method is the engine name, or the engine name plus a truncated
	// failure reason when the backend failed.
	Method string `json:"method"`
	// Notice is non-empty when the requested engine was unavailable and
	// the default ran instead.
	Notice string `json:"notice,omitempty"`
}

// ExportSource selects which table set an export operates on.
type ExportSource string

const (
	// ExportCurrent exports edited grids where they exist, originals
	// otherwise.
	ExportCurrent ExportSource = "current"
	// ExportOriginal exports the unedited extraction results.
	ExportOriginal ExportSource = "original"
	// ExportMerged exports the last successful merge preview.
	ExportMerged ExportSource = "merged"
)

// ExportRequest asks for a serialized download of a table set.
type ExportRequest struct {
	Format string       `json:"format"` // "xlsx" or "csv"
	Merge  bool         `json:"merge"`
	Source ExportSource `json:"source,omitempty"` // defaults to ExportCurrent
}

// ExportResult carries the serialized bytes ready for delivery.
type ExportResult struct {
	Data              []byte `json:"-"`
	SuggestedFilename string `json:"suggested_filename"`
	MIMEType          string `json:"mime_type"`
}

func syntheticColumnName(index int) string {
	return fmt.Sprintf("Column_%d", index)
}
