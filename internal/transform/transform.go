// Package transform finishes ingestion: it types the recovered text table
// into the canonical dataset and enforces the critical-field rule. This is
// the only stage that removes rows; everything upstream repairs shape
// instead of dropping, so malformed shape and malformed critical content
// stay separately observable.
package transform

import (
	"math"
	"strconv"
	"strings"

	"wardrive/internal/dataset"
	"wardrive/internal/schema"
)

// Coerce builds the canonical dataset from a recovered table using the
// header resolution. Cells convert per their column kind. A non-empty cell
// that will not convert becomes missing and counts against its column; an
// empty cell is plain absence and becomes missing without counting, since
// recovery pads short rows with empty markers and those must not read as
// conversion failures. No row is removed here.
func Coerce(t *dataset.Table, res schema.Resolution, s schema.Schema) (*dataset.Dataset, map[string]int) {
	failed := make(map[string]int)
	ds := &dataset.Dataset{
		Columns: s.Columns(),
		Kinds:   s.Kinds(),
		Rows:    make([]dataset.Row, 0, len(t.Rows)),
	}
	for _, raw := range t.Rows {
		row := make(dataset.Row, len(s))
		for _, f := range s {
			m, ok := res.Mapping(f.Canonical)
			if !ok || m.Index >= len(raw) {
				continue
			}
			v, ok, bad := coerceCell(raw[m.Index], f.Kind)
			if bad {
				failed[f.Canonical]++
			}
			if ok {
				row[f.Canonical] = v
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, failed
}

// coerceCell converts one cell. ok reports a usable value; bad reports a
// non-empty cell the kind rejected. Both false means the cell was empty.
func coerceCell(raw string, kind dataset.Kind) (v any, ok bool, bad bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false, false
	}
	switch kind {
	case dataset.KindText:
		return raw, true, false
	case dataset.KindInt:
		if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return n, true, false
		}
		// Survey tools write integer channels as "11.0"; accept float
		// spellings that carry no fraction.
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			if !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f) {
				return int64(f), true, false
			}
		}
		return nil, false, true
	case dataset.KindFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false, true
		}
		return f, true, false
	}
	return nil, false, true
}

// DropMissingCritical returns a new dataset holding only the rows that
// carry every critical column, plus the number of rows dropped. The input
// dataset is left intact.
func DropMissingCritical(ds *dataset.Dataset, critical []string) (*dataset.Dataset, int) {
	out := &dataset.Dataset{
		Columns: ds.Columns,
		Kinds:   ds.Kinds,
		Rows:    make([]dataset.Row, 0, len(ds.Rows)),
		RunID:   ds.RunID,
	}
	dropped := 0
	for _, row := range ds.Rows {
		if missingAny(row, critical) {
			dropped++
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out, dropped
}

func missingAny(row dataset.Row, cols []string) bool {
	for _, c := range cols {
		if _, ok := row[c]; !ok {
			return true
		}
	}
	return false
}
