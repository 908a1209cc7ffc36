package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	tabledetect "github.com/tsawler/tabula/tables"
)

// TabulaBackend extracts tables with the tsawler/tabula detector. The
// plain variant uses the library's default detection (lines plus
// whitespace alignment); the lattice variant restricts detection to
// ruled line grids, which is more precise on bordered tables and finds
// nothing on borderless ones.
type TabulaBackend struct {
	lattice bool
}

// NewTabulaBackend returns the default tabula backend.
func NewTabulaBackend() *TabulaBackend {
	return &TabulaBackend{}
}

// NewTabulaLatticeBackend returns the line-grid variant.
func NewTabulaLatticeBackend() *TabulaBackend {
	return &TabulaBackend{lattice: true}
}

func (b *TabulaBackend) Name() string {
	if b.lattice {
		return EngineTabulaLattice
	}
	return EngineTabula
}

// Available reports true for the default variant unconditionally. The
// lattice variant depends on the library's geometric detector, which is
// looked up by name at runtime.
func (b *TabulaBackend) Available() bool {
	if !b.lattice {
		return true
	}
	return tabledetect.GetDetector("geometric") != nil
}

func (b *TabulaBackend) NeedsFile() bool { return false }

func (b *TabulaBackend) ReadTables(src Source, pages []int) ([]RawTable, error) {
	if b.lattice {
		if err := b.configureLatticeDetector(); err != nil {
			return nil, err
		}
	}

	pdfReader, err := reader.New(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	doc, err := pdfReader.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	wanted := pageSet(pages)

	var raw []RawTable
	for pageIdx, page := range doc.Pages {
		if wanted != nil && !wanted[pageIdx] {
			continue
		}
		for _, elem := range page.Elements {
			table, ok := elem.(*model.Table)
			if !ok {
				continue
			}
			cells, err := tableCells(table)
			if err != nil || len(cells) == 0 {
				continue
			}
			raw = append(raw, RawTable{Page: pageIdx + 1, Cells: cells})
		}
	}

	return raw, nil
}

func (b *TabulaBackend) configureLatticeDetector() error {
	detector := tabledetect.GetDetector("geometric")
	if detector == nil {
		return fmt.Errorf("geometric table detector is not registered")
	}

	cfg := tabledetect.Config{
		MinRows:            2,
		MinCols:            2,
		MinConfidence:      0.5,
		UseLines:           true,
		UseWhitespace:      false,
		MaxCellGap:         10.0,
		AlignmentTolerance: 3.0,
		DetectMergedCells:  true,
	}
	if err := detector.Configure(cfg); err != nil {
		return fmt.Errorf("failed to configure lattice detection: %w", err)
	}
	return nil
}

// tableCells reads a detected table's cell grid through the library's CSV
// export, which handles merged cells and quoting consistently.
func tableCells(table *model.Table) ([][]string, error) {
	cr := csv.NewReader(strings.NewReader(table.ToCSV()))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table cells: %w", err)
	}
	return records, nil
}

func pageSet(pages []int) map[int]bool {
	if pages == nil {
		return nil
	}
	set := make(map[int]bool, len(pages))
	for _, p := range pages {
		set[p] = true
	}
	return set
}
