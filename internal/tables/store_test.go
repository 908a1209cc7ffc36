package tables

import (
	"errors"
	"reflect"
	"testing"
)

func seedStore(t *testing.T) (*Store, int) {
	t.Helper()
	s := NewStore()
	tbl := s.Add(1, Grid{
		Columns: []string{"Name", "Age"},
		Rows:    [][]string{{"Alice", "30"}, {"Bob", "25"}},
	}, "tabula")
	return s, tbl.ID
}

func TestStoreAddAssignsSequentialIDs(t *testing.T) {
	s := NewStore()
	first := s.Add(1, Grid{Columns: []string{"A"}}, "tabula")
	second := s.Add(2, Grid{Columns: []string{"B"}}, "tabula")

	if first.ID != 0 || second.ID != 1 {
		t.Errorf("ids = %d, %d, want 0, 1", first.ID, second.ID)
	}
	tables := s.Tables()
	if len(tables) != 2 || tables[0].ID != 0 || tables[1].ID != 1 {
		t.Errorf("Tables() not in discovery order: %+v", tables)
	}
}

func TestStoreEditsNeverTouchOriginal(t *testing.T) {
	s, id := seedStore(t)

	if err := s.SetCell(id, 0, 1, "31"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}

	if !s.IsEdited(id) {
		t.Error("expected table to be marked edited")
	}
	current, _ := s.Current(id)
	if current.Rows[0][1] != "31" {
		t.Errorf("current cell = %q, want 31", current.Rows[0][1])
	}
	original, _ := s.Get(id)
	if original.Grid.Rows[0][1] != "30" {
		t.Errorf("original cell = %q, edits must not mutate the original", original.Grid.Rows[0][1])
	}
}

func TestStoreRevertRestoresOriginal(t *testing.T) {
	s, id := seedStore(t)

	if err := s.RenameColumn(id, "Name", "FullName"); err != nil {
		t.Fatalf("RenameColumn: %v", err)
	}
	if err := s.Revert(id); err != nil {
		t.Fatalf("Revert: %v", err)
	}

	if s.IsEdited(id) {
		t.Error("table still marked edited after revert")
	}
	current, _ := s.Current(id)
	if !reflect.DeepEqual(current.Columns, []string{"Name", "Age"}) {
		t.Errorf("columns = %v after revert", current.Columns)
	}
}

func TestStoreAppendRowPadsCells(t *testing.T) {
	s, id := seedStore(t)

	if err := s.AppendRow(id, []string{"Carol"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}

	current, _ := s.Current(id)
	if len(current.Rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(current.Rows))
	}
	if !reflect.DeepEqual(current.Rows[2], []string{"Carol", ""}) {
		t.Errorf("appended row = %v", current.Rows[2])
	}
}

func TestStoreDeleteRow(t *testing.T) {
	s, id := seedStore(t)

	if err := s.DeleteRow(id, 0); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}

	current, _ := s.Current(id)
	if len(current.Rows) != 1 || current.Rows[0][0] != "Bob" {
		t.Errorf("rows after delete = %v", current.Rows)
	}
	if err := s.DeleteRow(id, 5); err == nil {
		t.Error("expected error for out of range row")
	}
}

func TestStoreEditErrors(t *testing.T) {
	s, id := seedStore(t)

	if err := s.SetCell(99, 0, 0, "x"); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("SetCell on missing table: %v", err)
	}
	if err := s.Revert(99); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("Revert on missing table: %v", err)
	}
	if err := s.SetCell(id, 9, 0, "x"); err == nil {
		t.Error("expected error for out of range row")
	}
	if err := s.SetCell(id, 0, 9, "x"); err == nil {
		t.Error("expected error for out of range column")
	}
	if err := s.RenameColumn(id, "Nope", "X"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestStoreResetDiscardsEverything(t *testing.T) {
	s, id := seedStore(t)
	_ = s.SetCell(id, 0, 0, "x")
	s.SetMerged(&MergedTable{Grid: Grid{Columns: []string{"A"}}})

	s.Reset()

	if len(s.Tables()) != 0 {
		t.Error("tables survived reset")
	}
	if s.Merged() != nil {
		t.Error("merge preview survived reset")
	}
	next := s.Add(1, Grid{Columns: []string{"A"}}, "tabula")
	if next.ID != 0 {
		t.Errorf("id after reset = %d, want 0", next.ID)
	}
}
