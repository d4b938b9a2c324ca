package loader

import (
	"wardrive/internal/dataset"
	"wardrive/internal/scanfile"
)

// Recover is the total fallback: it never rejects a data row, it reshapes
// it. Line 1 is metadata, line 2 is the header, and every later line is
// split naively on the delimiter and forced to the header's width. Short
// rows are padded with empty fields, long rows truncated, and each
// reshaped row counts as one correction. Quotes are not interpreted, so a
// delimiter inside a quoted field splits; for damaged exports that trade
// is deliberate, recovery favors keeping rows over honoring quoting.
//
// Recover fails only when the file cannot even hold a header, with
// scanfile.ErrTooShort.
func Recover(f *scanfile.File, opts Options) (*dataset.Table, error) {
	if len(f.Lines) < scanfile.MetaLineCount {
		return nil, scanfile.ErrTooShort
	}
	delim := opts.delimiter()
	header := scanfile.Split(f.Lines[1], delim)
	want := len(header)

	rows := make([][]string, 0, len(f.Lines)-scanfile.MetaLineCount)
	corrections := 0
	for _, line := range f.DataLines() {
		fields := scanfile.Split(line, delim)
		fields, fixed := fitRow(fields, want)
		if fixed {
			corrections++
		}
		rows = append(rows, trimRow(fields, opts))
	}

	t := newTable(f, header, rows, delim, 0)
	t.Strategy = "manual"
	t.Corrections = corrections
	return t, nil
}

// fitRow forces fields to width want, reporting whether it had to.
func fitRow(fields []string, want int) ([]string, bool) {
	switch {
	case len(fields) == want:
		return fields, false
	case len(fields) > want:
		return fields[:want], true
	default:
		out := make([]string, want)
		copy(out, fields)
		return out, true
	}
}
