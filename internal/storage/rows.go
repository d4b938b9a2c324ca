package storage

import "wardrive/internal/dataset"

// RunIDColumn is appended after the canonical columns on every stored table
// so rows from different runs can be told apart.
const RunIDColumn = "run_id"

// DatasetRows flattens a canonical dataset into the positional form CopyFrom
// takes: the dataset's columns plus run_id, one []any per row. A missing
// cell becomes nil, which backends store as NULL.
func DatasetRows(ds *dataset.Dataset) ([]string, [][]any) {
	columns := make([]string, 0, len(ds.Columns)+1)
	columns = append(columns, ds.Columns...)
	columns = append(columns, RunIDColumn)

	rows := make([][]any, 0, len(ds.Rows))
	for _, r := range ds.Rows {
		row := make([]any, len(columns))
		for i, col := range ds.Columns {
			if v, ok := r[col]; ok {
				row[i] = v
			}
		}
		row[len(columns)-1] = ds.RunID
		rows = append(rows, row)
	}
	return columns, rows
}
