package daterepair

import (
	"fmt"
	"strings"
	"time"

	"wardrive/internal/scanfile"
)

// dateOnlyLayouts extend the repair layouts for validation. The engine
// never emits a bare date, but one is still a valid outcome in a column
// the engine did not need to touch.
var dateOnlyLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

var lenientLayouts = append(append([]string{}, repairLayouts...), dateOnlyLayouts...)

// ColumnValidation is the per-column outcome of a validation pass. Min
// and Max are zero when no cell parsed.
type ColumnValidation struct {
	Column  string
	Valid   int
	Invalid int
	Min     time.Time
	Max     time.Time
}

// Validation is the outcome of validating a repaired file.
type Validation struct {
	Path    string
	Columns []ColumnValidation
}

// Totals sums the per-column counts.
func (v *Validation) Totals() (valid, invalid int) {
	for _, c := range v.Columns {
		valid += c.Valid
		invalid += c.Invalid
	}
	return valid, invalid
}

// ValidateRepair re-reads a repaired file, re-identifies its date columns
// from the header, and leniently parses every data cell in them,
// reporting valid/invalid counts and the covered time range per column.
// Verification only: the file is never written. A delim of 0 means comma.
func ValidateRepair(path string, delim rune) (*Validation, error) {
	f, err := scanfile.Read(path)
	if err != nil {
		return nil, err
	}
	if len(f.Lines) < scanfile.MetaLineCount {
		return nil, fmt.Errorf("validate %s: %w", path, scanfile.ErrTooShort)
	}
	delim = normalizeDelim(delim)
	cols := DateColumns(scanfile.Split(f.Lines[1], delim))

	vs := make([]ColumnValidation, len(cols))
	for i, c := range cols {
		vs[i].Column = c.Name
	}
	for _, line := range f.DataLines() {
		fields := scanfile.Split(line, delim)
		for i, c := range cols {
			if c.Index >= len(fields) {
				continue
			}
			t, ok := parseLenient(fields[c.Index])
			if !ok {
				vs[i].Invalid++
				continue
			}
			v := &vs[i]
			v.Valid++
			if v.Min.IsZero() || t.Before(v.Min) {
				v.Min = t
			}
			if v.Max.IsZero() || t.After(v.Max) {
				v.Max = t
			}
		}
	}
	return &Validation{Path: path, Columns: vs}, nil
}

// parseLenient tries every accepted layout, timestamps first.
func parseLenient(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range lenientLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
