// Package loader recovers a usable table from a possibly corrupt scan
// export. It tries a fixed cascade of parsing strategies of increasing
// tolerance; when every strategy fails it falls back to manual line-by-line
// recovery, which repairs row shape instead of rejecting rows. Only a file
// that defeats recovery too is reported as unprocessable.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"wardrive/internal/dataset"
	"wardrive/internal/scanfile"
)

// ErrLoadFailure marks a file no strategy, including manual recovery,
// could parse. Callers must treat the file as unprocessable; everything
// short of this degrades gracefully.
var ErrLoadFailure = errors.New("scan file unprocessable")

// StrategyError reports why one cascade attempt failed. The cascade
// records it and moves on; it is never fatal by itself.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// logf is a seam so tests can capture per-attempt diagnostics.
var logf = log.Printf

// skipLogLimit caps per-row skip logs from the lenient strategies so a
// badly damaged file cannot flood the diagnostic stream. The aggregate
// count is always reported.
const skipLogLimit = 10

// Options configures a load. The zero value is a comma-delimited file
// with untrimmed fields.
type Options struct {
	// Delimiter is the field separator; 0 means ','. The sniffing
	// strategy ignores it and infers its own.
	Delimiter rune

	// TrimSpace trims ASCII space around every field after parsing.
	TrimSpace bool
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return ','
	}
	return o.Delimiter
}

// Strategy is one parsing attempt: a pure function from the raw file to a
// table. Parse must not retain or mutate the file.
type Strategy struct {
	Name  string
	Parse func(f *scanfile.File, opts Options) (*dataset.Table, error)
}

// Strategies returns the cascade in its fixed order of increasing
// tolerance. The order is part of the contract: earlier strategies
// preserve more of the file's own structure, so the first success wins.
func Strategies() []Strategy {
	return []Strategy{
		{Name: "strict", Parse: parseStrict},
		{Name: "skip-bad-lines", Parse: parseSkipBadLines},
		{Name: "lenient-text", Parse: parseLenientText},
		{Name: "sniff-delimiter", Parse: parseSniffDelimiter},
	}
}

// Load reads path and runs the cascade, falling back to manual recovery.
// Every attempt and its outcome is logged; silent strategy failure would
// hide data-quality problems from the operator.
func Load(path string, opts Options) (*dataset.Table, error) {
	f, err := scanfile.Read(path)
	if err != nil {
		return nil, err
	}
	return LoadFile(f, opts)
}

// LoadFile is Load over an already-read file. scanprobe uses it to avoid
// reading the same file twice.
func LoadFile(f *scanfile.File, opts Options) (*dataset.Table, error) {
	for _, s := range Strategies() {
		t, err := s.Parse(f, opts)
		if err != nil {
			logf("loader: strategy=%s failed: %v", s.Name, err)
			continue
		}
		logf("loader: strategy=%s rows=%d skipped=%d", s.Name, len(t.Rows), t.Skipped)
		t.Strategy = s.Name
		return t, nil
	}

	t, err := Recover(f, opts)
	if err != nil {
		logf("loader: manual recovery failed: %v", err)
		return nil, fmt.Errorf("load %s: %v: %w", f.Path, err, ErrLoadFailure)
	}
	logf("loader: strategy=manual rows=%d corrected=%d", len(t.Rows), t.Corrections)
	return t, nil
}

// tabular returns the file content from the header line on, ready for an
// encoding/csv reader. The metadata line never reaches the csv layer.
func tabular(f *scanfile.File) (string, error) {
	if len(f.Lines) < scanfile.MetaLineCount {
		return "", scanfile.ErrTooShort
	}
	return strings.Join(f.Lines[1:], "\n"), nil
}

// parseStrict accepts only a well-formed file: uniform field counts and
// clean quoting. Any reader error fails the whole attempt.
func parseStrict(f *scanfile.File, opts Options) (*dataset.Table, error) {
	content, err := tabular(f)
	if err != nil {
		return nil, &StrategyError{Strategy: "strict", Err: err}
	}
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = opts.delimiter()

	header, err := r.Read()
	if err != nil {
		return nil, &StrategyError{Strategy: "strict", Err: fmt.Errorf("read header: %w", err)}
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &StrategyError{Strategy: "strict", Err: err}
		}
		rows = append(rows, trimRow(rec, opts))
	}
	if len(rows) == 0 {
		return nil, &StrategyError{Strategy: "strict", Err: errors.New("no data rows")}
	}
	return newTable(f, header, rows, opts.delimiter(), 0), nil
}

// parseSkipBadLines keeps well-shaped rows and drops the rest, counting
// them. Quoting must still be clean; only row shape is forgiven.
func parseSkipBadLines(f *scanfile.File, opts Options) (*dataset.Table, error) {
	return parseLenient(f, "skip-bad-lines", opts.delimiter(), false, opts)
}

// parseLenientText additionally forgives quoting damage via LazyQuotes,
// treating every field as opaque text.
func parseLenientText(f *scanfile.File, opts Options) (*dataset.Table, error) {
	return parseLenient(f, "lenient-text", opts.delimiter(), true, opts)
}

// parseSniffDelimiter re-infers the delimiter from the file itself and
// parses leniently with it. This is the last resort before manual
// recovery, for exports whose tool wrote an unexpected separator.
func parseSniffDelimiter(f *scanfile.File, opts Options) (*dataset.Table, error) {
	if len(f.Lines) < scanfile.MetaLineCount {
		return nil, &StrategyError{Strategy: "sniff-delimiter", Err: scanfile.ErrTooShort}
	}
	delim := scanfile.DetectDelimiter(f.Lines[1:])
	return parseLenient(f, "sniff-delimiter", delim, true, opts)
}

// parseLenient reads record-by-record with a variable field count,
// keeping only rows whose width matches the header and counting the rest
// as skipped. It fails only when the header is unreadable or nothing
// survives.
func parseLenient(f *scanfile.File, name string, delim rune, lazyQuotes bool, opts Options) (*dataset.Table, error) {
	content, err := tabular(f)
	if err != nil {
		return nil, &StrategyError{Strategy: name, Err: err}
	}
	r := csv.NewReader(strings.NewReader(content))
	r.Comma = delim
	r.LazyQuotes = lazyQuotes
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &StrategyError{Strategy: name, Err: fmt.Errorf("read header: %w", err)}
	}
	want := len(header)

	var rows [][]string
	skipped := 0
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < skipLogLimit {
				logf("loader: %s: skipping row %d: %v", name, line, err)
			}
			skipped++
			continue
		}
		if len(rec) != want {
			if skipped < skipLogLimit {
				logf("loader: %s: skipping row %d: expected %d fields, got %d", name, line, want, len(rec))
			}
			skipped++
			continue
		}
		rows = append(rows, trimRow(rec, opts))
	}
	if len(rows) == 0 {
		return nil, &StrategyError{Strategy: name, Err: errors.New("no data rows survived")}
	}
	t := newTable(f, header, rows, delim, skipped)
	return t, nil
}

func trimRow(rec []string, opts Options) []string {
	if !opts.TrimSpace {
		return rec
	}
	for i, v := range rec {
		rec[i] = strings.TrimSpace(v)
	}
	return rec
}

func newTable(f *scanfile.File, header []string, rows [][]string, delim rune, skipped int) *dataset.Table {
	return &dataset.Table{
		Path:      f.Path,
		Meta:      f.Lines[0],
		Header:    header,
		Rows:      rows,
		Delimiter: delim,
		Skipped:   skipped,
	}
}
