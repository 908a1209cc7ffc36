package tables

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when an operation references a table id
// that does not exist in the current extraction run.
var ErrTableNotFound = errors.New("table not found")

// Store holds one session's extraction results. Originals are immutable
// after extraction; edits live in a separate overlay map keyed by table
// id so "has this been edited" and "revert" need no extra bookkeeping.
// A Store is confined to one session and is not safe for concurrent use.
type Store struct {
	originals map[int]*ExtractedTable
	overlays  map[int]Grid
	order     []int
	merged    *MergedTable
	nextID    int
}

// NewStore creates an empty table store.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset discards all tables, overlays, and any merge preview. Called at
// the start of every extraction run.
func (s *Store) Reset() {
	s.originals = make(map[int]*ExtractedTable)
	s.overlays = make(map[int]Grid)
	s.order = nil
	s.merged = nil
	s.nextID = 0
}

// Add records a newly extracted table and assigns it the next id.
func (s *Store) Add(page int, grid Grid, method string) *ExtractedTable {
	t := &ExtractedTable{
		ID:              s.nextID,
		Page:            page,
		OriginalHeaders: append([]string(nil), grid.Columns...),
		Grid:            grid,
		Method:          method,
	}
	s.nextID++
	s.originals[t.ID] = t
	s.order = append(s.order, t.ID)
	return t
}

// Tables returns all tables in discovery order.
func (s *Store) Tables() []*ExtractedTable {
	out := make([]*ExtractedTable, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.originals[id])
	}
	return out
}

// Get returns a table by id.
func (s *Store) Get(id int) (*ExtractedTable, bool) {
	t, ok := s.originals[id]
	return t, ok
}

// Current returns the table's grid with any edits applied: the overlay
// when one exists, the original otherwise.
func (s *Store) Current(id int) (Grid, bool) {
	if overlay, ok := s.overlays[id]; ok {
		return overlay, true
	}
	t, ok := s.originals[id]
	if !ok {
		return Grid{}, false
	}
	return t.Grid, true
}

// IsEdited reports whether the table has an edit overlay.
func (s *Store) IsEdited(id int) bool {
	_, ok := s.overlays[id]
	return ok
}

// Revert discards the table's overlay, restoring the original grid.
func (s *Store) Revert(id int) error {
	if _, ok := s.originals[id]; !ok {
		return fmt.Errorf("%w: %d", ErrTableNotFound, id)
	}
	delete(s.overlays, id)
	return nil
}

// SetCell writes one cell of the table's overlay, materializing the
// overlay from the original on first edit. The original is never touched.
func (s *Store) SetCell(id, row, col int, value string) error {
	grid, err := s.editableGrid(id)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(grid.Rows) {
		return fmt.Errorf("row %d out of range for table %d", row, id)
	}
	if col < 0 || col >= len(grid.Columns) {
		return fmt.Errorf("column %d out of range for table %d", col, id)
	}
	grid.Rows[row][col] = value
	s.overlays[id] = grid
	return nil
}

// RenameColumn renames a column in the table's overlay.
func (s *Store) RenameColumn(id int, from, to string) error {
	grid, err := s.editableGrid(id)
	if err != nil {
		return err
	}
	idx := grid.ColumnIndex(from)
	if idx < 0 {
		return fmt.Errorf("no column %q in table %d", from, id)
	}
	grid.Columns[idx] = to
	s.overlays[id] = grid
	return nil
}

// AppendRow adds a row to the table's overlay, padding or truncating the
// provided cells to the column count.
func (s *Store) AppendRow(id int, cells []string) error {
	grid, err := s.editableGrid(id)
	if err != nil {
		return err
	}
	row := make([]string, len(grid.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = MissingValue
		}
	}
	grid.Rows = append(grid.Rows, row)
	s.overlays[id] = grid
	return nil
}

// DeleteRow removes a row from the table's overlay.
func (s *Store) DeleteRow(id, row int) error {
	grid, err := s.editableGrid(id)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(grid.Rows) {
		return fmt.Errorf("row %d out of range for table %d", row, id)
	}
	grid.Rows = append(grid.Rows[:row], grid.Rows[row+1:]...)
	s.overlays[id] = grid
	return nil
}

// SetMerged replaces the merge preview.
func (s *Store) SetMerged(m *MergedTable) {
	s.merged = m
}

// Merged returns the last successful merge preview, or nil.
func (s *Store) Merged() *MergedTable {
	return s.merged
}

func (s *Store) editableGrid(id int) (Grid, error) {
	if overlay, ok := s.overlays[id]; ok {
		return overlay, nil
	}
	t, ok := s.originals[id]
	if !ok {
		return Grid{}, fmt.Errorf("%w: %d", ErrTableNotFound, id)
	}
	return t.Grid.Clone(), nil
}
