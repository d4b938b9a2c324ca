package daterepair

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wardrive/internal/scanfile"
)

// NormalizedLayout is the single format every repaired timestamp is
// re-emitted in.
const NormalizedLayout = "2006-01-02 15:04:05"

// repairLayouts are the accepted input formats, tried in order. Day-first
// precedes month-first, so an ambiguous 05/03 reads as 5 March; the order
// is fixed and part of the repair contract.
var repairLayouts = []string{
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"2006/01/02 15:04:05",
	"02-01-2006 15:04:05",
	"01-02-2006 15:04:05",
	"20060102150405",
}

// sentinels are authentication tokens and null spellings that field
// shifts leave in date columns. They carry no time information, so the
// repair substitutes the current wall clock. Matched case-insensitively.
var sentinels = map[string]struct{}{
	"WPA2": {}, "WPA": {}, "WEP": {}, "OPN": {},
	"OPEN": {}, "UNKNOWN": {}, "N/A": {}, "NULL": {},
}

func isSentinel(trimmed string) bool {
	_, ok := sentinels[strings.ToUpper(trimmed)]
	return ok
}

var (
	logf    = log.Printf
	timeNow = time.Now
)

// correctionLogCap bounds the before/after samples in the log. The
// aggregate count still covers every correction.
const correctionLogCap = 5

// Result summarizes one repair run.
type Result struct {
	InputPath   string
	OutputPath  string
	DateColumns []string
	Corrections int
	Unrepaired  int
}

// FixedPath derives the repaired file's path: `_fixed` inserted before
// the extension.
func FixedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_fixed" + ext
}

func normalizeDelim(d rune) rune {
	if d == 0 {
		return ','
	}
	return d
}

// Repair rewrites the date columns of the file at path into FixedPath's
// sibling file. The first two lines pass through verbatim, as does every
// cell outside a date column. Per date cell the first matching rule wins:
//
//  1. sentinel value: replaced with the current wall clock in
//     NormalizedLayout;
//  2. parseable under one of repairLayouts: re-emitted in
//     NormalizedLayout;
//  3. otherwise: passed through unchanged and counted as unrepaired.
//
// A correction is counted only when the emitted value differs from the
// original, which is what makes the engine idempotent: repairing its own
// output counts zero corrections and changes no bytes. A delim of 0 means
// comma.
func Repair(path string, delim rune) (*Result, error) {
	f, err := scanfile.Read(path)
	if err != nil {
		return nil, err
	}
	if len(f.Lines) < scanfile.MetaLineCount {
		return nil, fmt.Errorf("repair %s: %w", path, scanfile.ErrTooShort)
	}
	delim = normalizeDelim(delim)
	cols := DateColumns(scanfile.Split(f.Lines[1], delim))

	res := &Result{InputPath: path, OutputPath: FixedPath(path)}
	for _, c := range cols {
		res.DateColumns = append(res.DateColumns, c.Name)
	}

	out := make([]string, len(f.Lines))
	out[0], out[1] = f.Lines[0], f.Lines[1]
	for i := scanfile.MetaLineCount; i < len(f.Lines); i++ {
		line := f.Lines[i]
		out[i] = line
		if len(cols) == 0 {
			continue
		}
		fields := scanfile.Split(line, delim)
		changed := false
		for _, c := range cols {
			if c.Index >= len(fields) {
				continue
			}
			orig := fields[c.Index]
			fixed, matched := repairValue(orig)
			if !matched {
				res.Unrepaired++
			}
			if fixed == orig {
				continue
			}
			res.Corrections++
			if res.Corrections <= correctionLogCap {
				logf("daterepair: line %d %s: %q -> %q", i+1, c.Name, orig, fixed)
			}
			fields[c.Index] = fixed
			changed = true
		}
		if changed {
			out[i] = scanfile.Join(fields, delim)
		}
	}

	if err := os.WriteFile(res.OutputPath, f.Render(out), 0o644); err != nil {
		return nil, fmt.Errorf("write repaired file: %w", err)
	}
	return res, nil
}

// repairValue applies the rule order to one cell. matched reports whether
// a rule other than pass-through applied; the value may still be
// byte-identical to the input when it was already normalized.
func repairValue(raw string) (value string, matched bool) {
	trimmed := strings.TrimSpace(raw)
	if isSentinel(trimmed) {
		return timeNow().Format(NormalizedLayout), true
	}
	for _, layout := range repairLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(NormalizedLayout), true
		}
	}
	return raw, false
}
