package tables

import "sort"

// MergeInput pairs a table id with the grid to merge (the edited overlay
// when one exists, the original otherwise).
type MergeInput struct {
	ID   int
	Grid Grid
}

// Merge re-aligns the input grids into the mapping's target schema. The
// output columns are the mapping's target names sorted ascending,
// independent of input order. For each input table and target column, the
// mapped source column's values are copied row-for-row when that column
// exists in the table's grid; otherwise the target column is filled with
// the missing value for all of that table's rows. Rows are concatenated
// in input table order; rows from different tables are never matched to
// each other. The output row count always equals the sum of the input
// row counts.
func Merge(inputs []MergeInput, mapping ColumnMapping) Grid {
	targets := make([]string, 0, len(mapping))
	for target := range mapping {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	out := Grid{Columns: targets}

	for _, input := range inputs {
		// Resolve each target to a source column index once per table.
		sourceIdx := make([]int, len(targets))
		for i, target := range targets {
			sourceIdx[i] = -1
			if source, ok := mapping[target][input.ID]; ok {
				sourceIdx[i] = input.Grid.ColumnIndex(source)
			}
		}

		for _, srcRow := range input.Grid.Rows {
			row := make([]string, len(targets))
			for i, idx := range sourceIdx {
				if idx >= 0 && idx < len(srcRow) {
					row[i] = srcRow[idx]
				} else {
					row[i] = MissingValue
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}

	return out
}
