package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	textGridRowTolerance = 3.0
	textGridCellGap      = 12.0
	textGridMinRows      = 2
	textGridMinCols      = 2

	// Minimum share of rows that must agree on a column count for the
	// page's text to be treated as a table at all.
	textGridConsistency = 0.5
)

// TextGridBackend reconstructs tables from positioned text runs: runs are
// grouped into rows by Y coordinate, then split into cells wherever the
// horizontal gap between runs exceeds a threshold. It catches tables that
// have no ruling lines, at the cost of occasionally reading aligned prose
// as a single-column table.
type TextGridBackend struct {
	rowTolerance float64
	cellGap      float64
}

// NewTextGridBackend returns a text-run backend with default tolerances.
func NewTextGridBackend() *TextGridBackend {
	return &TextGridBackend{
		rowTolerance: textGridRowTolerance,
		cellGap:      textGridCellGap,
	}
}

func (b *TextGridBackend) Name() string    { return EngineTextGrid }
func (b *TextGridBackend) Available() bool { return true }

// NeedsFile is true: the underlying library is opened by path.
func (b *TextGridBackend) NeedsFile() bool { return true }

func (b *TextGridBackend) ReadTables(src Source, pages []int) ([]RawTable, error) {
	f, pdfReader, err := pdf.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	total := pdfReader.NumPage()
	if pages == nil {
		pages = make([]int, total)
		for i := range pages {
			pages[i] = i
		}
	}

	var raw []RawTable
	for _, p := range pages {
		if p < 0 || p >= total {
			continue
		}
		pageNum := p + 1 // library pages are 1-indexed
		cells := b.readPageGrid(pdfReader, pageNum)
		if cells != nil {
			raw = append(raw, RawTable{Page: pageNum, Cells: cells})
		}
	}

	return raw, nil
}

// readPageGrid extracts one grid for a page, or nil when the page's text
// does not look tabular. Content stream parsing can panic on malformed
// pages; those pages are skipped rather than failing the whole document.
func (b *TextGridBackend) readPageGrid(pdfReader *pdf.Reader, pageNum int) (cells [][]string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	page := pdfReader.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}

	texts := page.Content().Text
	rows := b.groupIntoRows(texts)
	return b.rowsToGrid(rows)
}

type textRow struct {
	y    float64
	runs []pdf.Text
}

// groupIntoRows buckets text runs into rows by Y coordinate.
func (b *TextGridBackend) groupIntoRows(texts []pdf.Text) []textRow {
	var rows []textRow

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}

		placed := false
		for i := range rows {
			if absFloat(rows[i].y-t.Y) <= b.rowTolerance {
				rows[i].runs = append(rows[i].runs, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: t.Y, runs: []pdf.Text{t}})
		}
	}

	// Top of page first, then left to right within a row.
	sort.Slice(rows, func(i, j int) bool { return rows[i].y > rows[j].y })
	for i := range rows {
		runs := rows[i].runs
		sort.Slice(runs, func(a, c int) bool { return runs[a].X < runs[c].X })
	}

	return rows
}

// rowsToGrid splits each row's runs into cells at horizontal gaps, then
// keeps only rows matching the dominant column count. Returns nil when
// the result is too small or too inconsistent to be a table.
func (b *TextGridBackend) rowsToGrid(rows []textRow) [][]string {
	if len(rows) < textGridMinRows {
		return nil
	}

	split := make([][]string, 0, len(rows))
	for _, row := range rows {
		split = append(split, b.splitIntoCells(row.runs))
	}

	// Dominant column count across rows decides the table shape.
	colCounts := make(map[int]int)
	for _, cells := range split {
		colCounts[len(cells)]++
	}
	dominant, frequency := 0, 0
	for count, freq := range colCounts {
		if freq > frequency {
			dominant, frequency = count, freq
		}
	}

	if dominant < textGridMinCols {
		return nil
	}
	if float64(frequency)/float64(len(split)) < textGridConsistency {
		return nil
	}

	var grid [][]string
	for _, cells := range split {
		if len(cells) == dominant {
			grid = append(grid, cells)
		}
	}
	if len(grid) < textGridMinRows {
		return nil
	}
	return grid
}

// splitIntoCells merges adjacent runs into one cell and starts a new cell
// whenever the gap to the previous run exceeds the cell-gap threshold.
func (b *TextGridBackend) splitIntoCells(runs []pdf.Text) []string {
	var cells []string
	var current strings.Builder
	var prevEnd float64

	for i, run := range runs {
		if i > 0 && run.X-prevEnd > b.cellGap {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		} else if i > 0 {
			current.WriteString(" ")
		}
		current.WriteString(strings.TrimSpace(run.S))
		prevEnd = run.X + run.W
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}

	return cells
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
