// Package dataset defines the two tabular forms the pipeline moves
// through: the shape-recovered Table (all fields still text, every row the
// same width) and the canonical Dataset (typed values under canonical
// column names). Stages construct new values rather than mutating their
// input, so a failing stage can never corrupt what an earlier stage
// already returned.
package dataset

// Kind is the coarse value type of a canonical column.
type Kind string

const (
	KindText  Kind = "text"
	KindInt   Kind = "integer"
	KindFloat Kind = "real"
)

// Table is a scan file after shape recovery: a metadata line, a header,
// and rows that all have exactly len(Header) fields. Field values are
// uninterpreted text.
type Table struct {
	Path      string
	Meta      string
	Header    []string
	Rows      [][]string
	Delimiter rune

	// Strategy names the cascade strategy that produced the table
	// ("manual" when recovery ran).
	Strategy string

	// Corrections counts rows padded or truncated by manual recovery.
	// Skipped counts rows a lenient strategy dropped.
	Corrections int
	Skipped     int
}

// Column returns the index of name in the header, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Row maps canonical column names to typed values: string, int64, or
// float64. A missing cell is an absent key, never a nil value.
type Row map[string]any

// Int returns the int64 value of col when present and typed.
func (r Row) Int(col string) (int64, bool) {
	v, ok := r[col].(int64)
	return v, ok
}

// Float returns the float64 value of col when present and typed. An int64
// value is widened, since callers asking for a float only care about the
// magnitude.
func (r Row) Float(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// String returns the string value of col when present and typed.
func (r Row) String(col string) (string, bool) {
	v, ok := r[col].(string)
	return v, ok
}

// Dataset is the canonical output of ingestion: rows keyed by canonical
// column names with coerced values. It is handed to downstream analysis
// and export as-is and never mutated afterwards.
type Dataset struct {
	Columns []string
	Kinds   map[string]Kind
	Rows    []Row

	// RunID ties the dataset to the run that produced it; exports carry
	// it so rows from different runs can be told apart in one table.
	RunID string
}

// Ints gathers the non-missing int64 values of col in row order.
func (d *Dataset) Ints(col string) []int64 {
	out := make([]int64, 0, len(d.Rows))
	for _, r := range d.Rows {
		if v, ok := r.Int(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// Floats gathers the non-missing numeric values of col in row order,
// widening int64 cells.
func (d *Dataset) Floats(col string) []float64 {
	out := make([]float64, 0, len(d.Rows))
	for _, r := range d.Rows {
		if v, ok := r.Float(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// Strings gathers the non-missing string values of col in row order.
func (d *Dataset) Strings(col string) []string {
	out := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		if v, ok := r.String(col); ok {
			out = append(out, v)
		}
	}
	return out
}
