package tables

import "strings"

// Normalize converts a backend's raw cell grid into a Grid according to
// the header policy. Under HeaderFirstRow, row 0 supplies the column
// names (blank header cells get synthetic names) and a one-row grid
// yields a header-only skeleton with zero data rows. Under HeaderGeneric,
// every row is data and all column names are synthetic. Ragged rows are
// padded or truncated to the column count.
func Normalize(raw [][]string, policy HeaderPolicy) Grid {
	if len(raw) == 0 {
		return Grid{}
	}

	var columns []string
	var dataRows [][]string

	switch policy {
	case HeaderGeneric:
		width := 0
		for _, row := range raw {
			if len(row) > width {
				width = len(row)
			}
		}
		columns = make([]string, width)
		for i := range columns {
			columns[i] = syntheticColumnName(i)
		}
		dataRows = raw
	default: // HeaderFirstRow
		columns = make([]string, len(raw[0]))
		for i, cell := range raw[0] {
			name := strings.TrimSpace(cell)
			if name == "" {
				name = syntheticColumnName(i)
			}
			columns[i] = name
		}
		dataRows = raw[1:]
	}

	rows := make([][]string, 0, len(dataRows))
	for _, src := range dataRows {
		row := make([]string, len(columns))
		for i := range row {
			if i < len(src) {
				row[i] = src[i]
			} else {
				row[i] = MissingValue
			}
		}
		rows = append(rows, row)
	}

	return Grid{Columns: columns, Rows: rows}
}

// Clean drops columns that are empty in every row, then rows that are
// empty in every remaining column. Grids with zero data rows are returned
// untouched so a header-only skeleton survives. Clean is idempotent.
func Clean(g Grid) Grid {
	if len(g.Rows) == 0 {
		return g
	}

	keepCol := make([]bool, len(g.Columns))
	for _, row := range g.Rows {
		for i, cell := range row {
			if !isEmptyCell(cell) {
				keepCol[i] = true
			}
		}
	}

	var columns []string
	for i, keep := range keepCol {
		if keep {
			columns = append(columns, g.Columns[i])
		}
	}

	var rows [][]string
	for _, src := range g.Rows {
		row := make([]string, 0, len(columns))
		empty := true
		for i, keep := range keepCol {
			if !keep {
				continue
			}
			row = append(row, src[i])
			if !isEmptyCell(src[i]) {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	return Grid{Columns: columns, Rows: rows}
}

func isEmptyCell(cell string) bool {
	return strings.TrimSpace(cell) == ""
}
