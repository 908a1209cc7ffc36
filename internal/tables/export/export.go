// Package export serializes extracted tables into downloadable file
// formats. Output is always an in-memory byte slice, never a file on
// disk.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Format identifies an output file format.
type Format string

const (
	// FormatSpreadsheet produces an .xlsx workbook.
	FormatSpreadsheet Format = "xlsx"
	// FormatDelimited produces comma-separated text.
	FormatDelimited Format = "csv"
)

const (
	// Excel rejects sheet names longer than 31 characters.
	sheetNameLimit = 31

	// Sectioned text export switches to one concatenated block once the
	// table count exceeds this; per-table section headers stop being
	// useful at that size.
	maxSectionedTables = 5

	mergedSheetName = "All Tables"
)

// Table is one exportable table with its source page.
type Table struct {
	Page    int
	Columns []string
	Rows    [][]string
}

// Serialize renders the tables in the requested format. With merge set,
// all tables are stacked into one sheet or text block; otherwise each
// table gets its own sheet or text section.
func Serialize(tables []Table, format Format, merge bool) ([]byte, error) {
	switch format {
	case FormatSpreadsheet:
		return serializeSpreadsheet(tables, merge)
	case FormatDelimited:
		return serializeDelimited(tables, merge)
	default:
		return nil, fmt.Errorf("unsupported export format: %q", format)
	}
}

// SheetName formats the per-table sheet name and truncates the formatted
// result to the host format's limit.
func SheetName(page, index int) string {
	name := fmt.Sprintf("Page %d Table %d", page, index+1)
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}
	return name
}

// SectionHeader formats the per-table header line used in sectioned text
// output.
func SectionHeader(page, index int) string {
	return fmt.Sprintf("--- Page %d Table %d ---", page, index+1)
}

// MIMEType returns the content type for a format.
func MIMEType(format Format) string {
	switch format {
	case FormatSpreadsheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDelimited:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// FileExtension returns the filename extension for a format, without dot.
func FileExtension(format Format) string {
	return string(format)
}

func serializeSpreadsheet(tables []Table, merge bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if merge {
		if err := writeSheet(f, mergedSheetName, Stack(tables), true); err != nil {
			return nil, err
		}
	} else {
		for idx, table := range tables {
			if err := writeSheet(f, SheetName(table.Page, idx), table, idx == 0); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

// writeSheet creates (or for the first sheet, renames the workbook's
// default sheet to) name and writes the table into it.
func writeSheet(f *excelize.File, name string, table Table, first bool) error {
	if first {
		if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", name, err)
		}
	} else {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", name, err)
		}
	}

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for rowIdx, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		anchor, err := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(name, anchor, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", rowIdx, err)
		}
	}

	return nil
}

func serializeDelimited(tables []Table, merge bool) ([]byte, error) {
	var buf bytes.Buffer

	// Beyond a handful of tables, per-table sections add more noise than
	// structure; stack everything instead.
	if merge || len(tables) > maxSectionedTables {
		if err := writeCSV(&buf, Stack(tables)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	for idx, table := range tables {
		if idx > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(SectionHeader(table.Page, idx))
		buf.WriteString("\n")
		if err := writeCSV(&buf, table); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeCSV(buf *bytes.Buffer, table Table) error {
	w := csv.NewWriter(buf)
	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// Stack concatenates tables into one. Columns are the union of all input
// columns in first-seen order; cells absent from a source table stay
// empty. Row order follows input table order, then row order within each
// table.
func Stack(tables []Table) Table {
	var columns []string
	position := make(map[string]int)
	for _, table := range tables {
		for _, col := range table.Columns {
			if _, seen := position[col]; !seen {
				position[col] = len(columns)
				columns = append(columns, col)
			}
		}
	}

	var rows [][]string
	for _, table := range tables {
		for _, src := range table.Rows {
			row := make([]string, len(columns))
			for i, col := range table.Columns {
				if i < len(src) {
					row[position[col]] = src[i]
				}
			}
			rows = append(rows, row)
		}
	}

	return Table{Columns: columns, Rows: rows}
}
