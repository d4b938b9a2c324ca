package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"unicode/utf8"

	"wardrive/internal/daterepair"
	"wardrive/internal/loader"
	"wardrive/internal/scanfile"
	"wardrive/internal/schema"
)

// probeReport is everything scanprobe learns about a scan file. The probe
// only reads: no _fixed sibling, no reports, no database.
type probeReport struct {
	Path         string         `json:"path"`
	Strategy     string         `json:"strategy"`
	Delimiter    string         `json:"delimiter"`
	Rows         int            `json:"rows"`
	Corrections  int            `json:"corrections"`
	Skipped      int            `json:"skipped"`
	Header       []headerEntry  `json:"header"`
	Gaps         []string       `json:"gaps,omitempty"`
	DateColumns  []string       `json:"date_columns,omitempty"`
	Anomalies    []anomalyEntry `json:"anomalies,omitempty"`
	AnomalyTotal int            `json:"anomaly_total"`
}

// headerEntry maps one canonical field to the source column that fills it.
type headerEntry struct {
	Canonical string `json:"canonical"`
	Source    string `json:"source"`
	Index     int    `json:"index"`
	ViaAlias  bool   `json:"via_alias"`
}

// anomalyEntry is one sampled date-column cell that does not look like a
// date, with the detector's reason.
type anomalyEntry struct {
	Line   int    `json:"line"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// buildReport reads path once and runs the cascade, the schema resolver,
// and the date anomaly detector over it. sample caps the anomalies kept
// in the report; the total is always reported.
func buildReport(path string, delim rune, sample int) (*probeReport, error) {
	f, err := scanfile.Read(path)
	if err != nil {
		return nil, err
	}
	t, err := loader.LoadFile(f, loader.Options{Delimiter: delim})
	if err != nil {
		return nil, err
	}

	rep := &probeReport{
		Path:        path,
		Strategy:    t.Strategy,
		Delimiter:   string(t.Delimiter),
		Rows:        len(t.Rows),
		Corrections: t.Corrections,
		Skipped:     t.Skipped,
	}

	s := schema.Default()
	res := schema.Resolve(t.Header, s)
	for _, field := range s {
		m, ok := res.Mapping(field.Canonical)
		if !ok {
			continue
		}
		rep.Header = append(rep.Header, headerEntry{
			Canonical: m.Canonical,
			Source:    m.Source,
			Index:     m.Index,
			ViaAlias:  m.ViaAlias,
		})
	}
	rep.Gaps = res.Gaps

	cols := daterepair.DateColumns(t.Header)
	for _, c := range cols {
		rep.DateColumns = append(rep.DateColumns, c.Name)
	}
	anomalies := daterepair.DetectAnomalies(f, cols, t.Delimiter)
	rep.AnomalyTotal = len(anomalies)
	if sample > 0 && len(anomalies) > sample {
		anomalies = anomalies[:sample]
	}
	for _, a := range anomalies {
		rep.Anomalies = append(rep.Anomalies, anomalyEntry{
			Line:   a.Line,
			Column: a.Column,
			Value:  a.Value,
			Reason: a.Reason,
		})
	}
	return rep, nil
}

// renderText prints the report for a human operator.
func renderText(w io.Writer, r *probeReport) {
	fmt.Fprintf(w, "%s\n", r.Path)
	fmt.Fprintf(w, "  strategy:  %s\n", r.Strategy)
	fmt.Fprintf(w, "  delimiter: %q\n", r.Delimiter)
	fmt.Fprintf(w, "  rows:      %d (corrections=%d skipped=%d)\n", r.Rows, r.Corrections, r.Skipped)

	fmt.Fprintln(w, "  header:")
	for _, h := range r.Header {
		note := ""
		if h.ViaAlias {
			note = ", alias"
		}
		fmt.Fprintf(w, "    %-17s <- %q (column %d%s)\n", h.Canonical, h.Source, h.Index, note)
	}
	for _, g := range r.Gaps {
		fmt.Fprintf(w, "    %-17s -- no source column\n", g)
	}

	if len(r.DateColumns) > 0 {
		fmt.Fprintf(w, "  date columns: %v\n", r.DateColumns)
	}
	if r.AnomalyTotal > 0 {
		fmt.Fprintf(w, "  anomalies: %d total (showing %d)\n", r.AnomalyTotal, len(r.Anomalies))
		for _, a := range r.Anomalies {
			fmt.Fprintf(w, "    line %d %s: %q (%s)\n", a.Line, a.Column, a.Value, a.Reason)
		}
	}
}

// main is the entrypoint for the diagnosis CLI. It probes a scan file and
// prints what the pipeline would do with it, as text or JSON, without
// writing anything.
func main() {
	var (
		flagIn        = flag.String("in", "", "scan file to probe")
		flagJSON      = flag.Bool("json", false, "print the report as JSON instead of text")
		flagSample    = flag.Int("sample", 10, "max anomalies included in the report")
		flagDelimiter = flag.String("delimiter", ",", "field delimiter (single character)")
	)
	flag.Parse()

	if *flagIn == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		flag.Usage()
		os.Exit(2)
	}

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	rep, err := buildReport(*flagIn, delim, *flagSample)
	if err != nil {
		log.Fatalf("probe: %v", err)
	}

	if *flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			log.Fatalf("encode report: %v", err)
		}
		return
	}
	renderText(os.Stdout, rep)
}
