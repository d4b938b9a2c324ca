// Package daterepair finds and fixes corrupted timestamp columns in scan
// exports. Field shifts in survey tools push authentication tokens into
// date columns, and different tool versions write timestamps in regional
// formats. The detector flags suspect columns and sampled values, the rule
// engine rewrites the file, and the validator verifies the rewrite.
// Everything here works on raw lines, independent of the table loader, so
// a file can be repaired even when it only loads through manual recovery.
package daterepair

import (
	"regexp"
	"strings"

	"wardrive/internal/scanfile"
)

// dateKeywords mark a header as date-bearing when any of them appears in
// its uppercased name.
var dateKeywords = []string{"TIME", "DATE", "SEEN", "FIRST", "LAST"}

// Column is a header position flagged as date-bearing.
type Column struct {
	Index int
	Name  string
}

// DateColumns returns the header columns whose names contain a date
// keyword, in header order.
func DateColumns(header []string) []Column {
	var cols []Column
	for i, h := range header {
		up := strings.ToUpper(h)
		for _, kw := range dateKeywords {
			if strings.Contains(up, kw) {
				cols = append(cols, Column{Index: i, Name: h})
				break
			}
		}
	}
	return cols
}

// Anomaly is one sampled cell that fails the date heuristics: a
// diagnostic for the operator and grounds for running the repair. An
// anomaly never rejects a file.
type Anomaly struct {
	Line   int // 1-based line number in the source file
	Column string
	Value  string
	Reason string
}

// sampleRows is how many data rows the detector examines. Corruption from
// field shifts shows up immediately, so a small prefix is enough.
const sampleRows = 10

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`\d{2}/\d{2}/\d{4}`),
	regexp.MustCompile(`\d{2}-\d{2}-\d{4}`),
	regexp.MustCompile(`\d{4}/\d{2}/\d{2}`),
}

// dateTokens accept values no pattern catches, covering spelled-out
// months, bare years, and 12-hour clocks.
var dateTokens = []string{
	"2023", "2024", "2025",
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
	"am", "pm",
}

// classify decides whether a date-column value looks like a date; when it
// does not, reason says why in operator terms.
func classify(value string) (reason string, ok bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "empty value", false
	}
	if isSentinel(trimmed) {
		return "auth token in date column", false
	}
	for _, p := range datePatterns {
		if p.MatchString(trimmed) {
			return "", true
		}
	}
	lower := strings.ToLower(trimmed)
	for _, tok := range dateTokens {
		if strings.Contains(lower, tok) {
			return "", true
		}
	}
	return "no date pattern", false
}

// DetectAnomalies samples the first data rows of f and classifies every
// cell under the given date columns. A cell a short row does not reach
// counts as empty. Heuristic only: the result informs the repair decision
// and the probe report.
func DetectAnomalies(f *scanfile.File, cols []Column, delim rune) []Anomaly {
	if len(cols) == 0 {
		return nil
	}
	data := f.DataLines()
	if len(data) > sampleRows {
		data = data[:sampleRows]
	}
	var out []Anomaly
	for i, line := range data {
		fields := scanfile.Split(line, normalizeDelim(delim))
		for _, c := range cols {
			val := ""
			if c.Index < len(fields) {
				val = fields[c.Index]
			}
			if reason, ok := classify(val); !ok {
				out = append(out, Anomaly{
					Line:   i + scanfile.MetaLineCount + 1,
					Column: c.Name,
					Value:  val,
					Reason: reason,
				})
			}
		}
	}
	return out
}
