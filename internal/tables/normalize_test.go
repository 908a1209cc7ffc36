package tables

import (
	"reflect"
	"testing"
)

func TestNormalizeFirstRowHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  [][]string
		want Grid
	}{
		{
			name: "plain table",
			raw: [][]string{
				{"Name", "Age"},
				{"Alice", "30"},
				{"Bob", "25"},
			},
			want: Grid{
				Columns: []string{"Name", "Age"},
				Rows:    [][]string{{"Alice", "30"}, {"Bob", "25"}},
			},
		},
		{
			name: "blank header cells get synthetic names",
			raw: [][]string{
				{"Name", "", "  "},
				{"Alice", "30", "NY"},
			},
			want: Grid{
				Columns: []string{"Name", "Column_1", "Column_2"},
				Rows:    [][]string{{"Alice", "30", "NY"}},
			},
		},
		{
			name: "single row yields header skeleton with zero rows",
			raw:  [][]string{{"Name", "Age"}},
			want: Grid{
				Columns: []string{"Name", "Age"},
				Rows:    [][]string{},
			},
		},
		{
			name: "ragged rows padded and truncated to header width",
			raw: [][]string{
				{"A", "B"},
				{"1"},
				{"2", "3", "4"},
			},
			want: Grid{
				Columns: []string{"A", "B"},
				Rows:    [][]string{{"1", ""}, {"2", "3"}},
			},
		},
		{
			name: "empty raw grid",
			raw:  nil,
			want: Grid{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, HeaderFirstRow)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeGenericHeaders(t *testing.T) {
	raw := [][]string{
		{"Alice", "30"},
		{"Bob", "25", "extra"},
	}

	got := Normalize(raw, HeaderGeneric)

	wantColumns := []string{"Column_0", "Column_1", "Column_2"}
	if !reflect.DeepEqual(got.Columns, wantColumns) {
		t.Errorf("columns = %v, want %v", got.Columns, wantColumns)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected every raw row to become data, got %d rows", len(got.Rows))
	}
	if !reflect.DeepEqual(got.Rows[0], []string{"Alice", "30", ""}) {
		t.Errorf("row 0 = %v", got.Rows[0])
	}
}

func TestCleanDropsEmptyColumnsThenRows(t *testing.T) {
	g := Grid{
		Columns: []string{"A", "B", "C"},
		Rows: [][]string{
			{"1", "", "x"},
			{"", " ", ""},
			{"2", "", "y"},
		},
	}

	got := Clean(g)

	wantColumns := []string{"A", "C"}
	if !reflect.DeepEqual(got.Columns, wantColumns) {
		t.Errorf("columns = %v, want %v", got.Columns, wantColumns)
	}
	wantRows := [][]string{{"1", "x"}, {"2", "y"}}
	if !reflect.DeepEqual(got.Rows, wantRows) {
		t.Errorf("rows = %v, want %v", got.Rows, wantRows)
	}
}

func TestCleanDropsRowsEmptyAfterColumnRemoval(t *testing.T) {
	g := Grid{
		Columns: []string{"A", "B"},
		Rows: [][]string{
			{"1", ""},
			{"", ""},
			{"2", ""},
		},
	}

	got := Clean(g)

	if !reflect.DeepEqual(got.Columns, []string{"A"}) {
		t.Errorf("columns = %v, want [A]", got.Columns)
	}
	if len(got.Rows) != 2 {
		t.Errorf("expected 2 rows after cleanup, got %d", len(got.Rows))
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	g := Grid{
		Columns: []string{"A", "B", "C"},
		Rows: [][]string{
			{"1", "", "x"},
			{"", "", ""},
		},
	}

	once := Clean(g)
	twice := Clean(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second cleanup changed the grid: %+v vs %+v", once, twice)
	}
}

func TestCleanPreservesHeaderSkeleton(t *testing.T) {
	g := Grid{Columns: []string{"Name", "Age"}, Rows: nil}

	got := Clean(g)

	if !reflect.DeepEqual(got.Columns, []string{"Name", "Age"}) {
		t.Errorf("header-only table must keep its columns, got %v", got.Columns)
	}
	if len(got.Rows) != 0 {
		t.Errorf("expected zero rows, got %d", len(got.Rows))
	}
}
