package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"wardrive/internal/config"
	"wardrive/internal/ingest"
	"wardrive/internal/metrics"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "wardrive/internal/storage/all"
)

// main is the entry point for the wardrive batch binary. It resolves the
// run config (flags over environment over file), optionally initializes a
// metrics backend, and runs the ingestion pipeline over every matched
// scan file.
func main() {
	var (
		inFlag         string
		listFlag       string
		cfgPath        string
		repairDates    bool
		validateRepair bool
		analyze        bool
		reportDir      string
		maps           bool
		exportCSV      string
		exportXLSX     string
		storageKind    string
		dsn            string
		table          string
		workers        int
		metricsBackend string
		pushGatewayURL string
		validate       bool
	)

	flag.StringVar(&inFlag, "in", "", "scan file path or glob")
	flag.StringVar(&listFlag, "list", "", "manifest file naming one scan file per line")
	flag.StringVar(&cfgPath, "config", "", "run config JSON path")
	flag.BoolVar(&repairDates, "repair-dates", false, "repair corrupted date columns into a _fixed sibling")
	flag.BoolVar(&validateRepair, "validate-repair", false, "re-validate date columns after repair")
	flag.BoolVar(&analyze, "analyze", false, "run interference analysis and write reports")
	flag.StringVar(&reportDir, "report-dir", "", "directory for reports (default: beside the input)")
	flag.BoolVar(&maps, "maps", false, "write Leaflet heat and marker maps (implies -analyze)")
	flag.StringVar(&exportCSV, "export-csv", "", "tidy CSV output path, or 'auto'")
	flag.StringVar(&exportXLSX, "export-xlsx", "", "XLSX output path, or 'auto'")
	flag.StringVar(&storageKind, "storage", "", "storage backend (sqlite, postgres)")
	flag.StringVar(&dsn, "dsn", "", "storage connection string")
	flag.StringVar(&table, "table", "", "destination table (default: observations)")
	flag.IntVar(&workers, "workers", 0, "max files processed concurrently")
	flag.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend to use (pushgateway, dogstatsd, none)")
	flag.StringVar(&pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env WARDRIVE_PUSHGATEWAY)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	// A .env beside the binary supplies the WARDRIVE_* variables in dev;
	// a missing file is fine.
	_ = godotenv.Load()

	var run config.Run
	if cfgPath != "" {
		var err error
		run, err = config.Load(cfgPath)
		if err != nil {
			fatalf("%v", err)
		}
	}

	// Flags win over environment, environment over the file.
	if inFlag != "" {
		run.Input.Path = inFlag
	}
	if listFlag != "" {
		run.Input.List = listFlag
	}
	run.Repair.Dates = run.Repair.Dates || repairDates
	run.Repair.Validate = run.Repair.Validate || validateRepair
	run.Analysis.Enabled = run.Analysis.Enabled || analyze || maps
	run.Analysis.Maps = run.Analysis.Maps || maps
	if reportDir != "" {
		run.Analysis.ReportDir = reportDir
	}
	if exportCSV != "" {
		run.Export.CSV = exportCSV
	}
	if exportXLSX != "" {
		run.Export.XLSX = exportXLSX
	}
	run.Storage.Kind = pickStr(storageKind, os.Getenv("WARDRIVE_STORAGE"), run.Storage.Kind)
	run.Storage.DSN = pickStr(dsn, os.Getenv("WARDRIVE_DSN"), run.Storage.DSN)
	run.Storage.Table = pickStr(table, run.Storage.Table)
	run.Runtime.Workers = pickInt(workers, getenvInt("WARDRIVE_WORKERS", run.Runtime.Workers))
	run.Metrics.Backend = pickStr(metricsBackend, os.Getenv("WARDRIVE_METRICS"), run.Metrics.Backend)
	run.Metrics.PushgatewayURL = pickStr(pushGatewayURL, os.Getenv("WARDRIVE_PUSHGATEWAY"), run.Metrics.PushgatewayURL)
	run.Metrics.DogstatsdAddr = pickStr(os.Getenv("WARDRIVE_DOGSTATSD"), run.Metrics.DogstatsdAddr)

	// Validate the merged run config.
	issues := config.Validate(run)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit.
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	ingest.InitMetrics(run, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	if run.Input.Path == "" && run.Input.List == "" {
		fatalf("no input: pass -in or -list, or set input.path in the config")
	}

	ctx := context.Background()
	start := time.Now()

	c := ingest.NewContainer(run)
	paths, err := c.ExpandInputs()
	if err != nil {
		fatalf("%v", err)
	}
	if len(paths) == 0 {
		fatalf("no scan files matched %s", pickStr(run.Input.Path, run.Input.List))
	}
	if *verbose {
		log.Printf("run %s: %d files, workers=%d storage=%q", c.RunID, len(paths), c.Workers(), run.Storage.Kind)
	}

	if err := c.OpenStorage(ctx); err != nil {
		fatalf("%v", err)
	}
	defer c.CloseStorage()

	c.RunBatch(ctx, paths)
	c.LogSummary(len(paths), time.Since(start))

	if c.Stats.FilesProcessed.Load() == 0 {
		os.Exit(1)
	}
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt returns a when it is positive, otherwise b.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// pickStr chooses the first non-empty string.
func pickStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
