package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wardrive/internal/config"
	"wardrive/internal/ingest"
	"wardrive/internal/metrics"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "wardrive/internal/storage/all"
)

// dirList collects repeated -dir flags.
type dirList []string

func (d *dirList) String() string { return strings.Join(*d, ",") }
func (d *dirList) Set(v string) error {
	*d = append(*d, v)
	return nil
}

// main is the entry point for the scanwatch daemon. It watches directories
// for new or rewritten scan files, optionally sweeps them on a cron
// schedule, and funnels every trigger through the same pipeline the batch
// binary uses. SIGINT/SIGTERM shut it down cleanly.
func main() {
	var (
		dirs    dirList
		glob    string
		cronStr string
		cfgPath string
	)
	flag.Var(&dirs, "dir", "directory to watch (repeatable)")
	flag.StringVar(&glob, "glob", "", "file name filter within watched directories (default *.csv)")
	flag.StringVar(&cronStr, "cron", "", "cron spec for full directory sweeps (e.g. @hourly)")
	flag.StringVar(&cfgPath, "config", "", "run config JSON path")
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
	if len(dirs) > 0 {
		run.Watch.Dirs = dirs
	}
	if glob != "" {
		run.Watch.Glob = glob
	}
	if cronStr != "" {
		run.Watch.Cron = cronStr
	}
	run.Storage.Kind = pickStr(os.Getenv("WARDRIVE_STORAGE"), run.Storage.Kind)
	run.Storage.DSN = pickStr(os.Getenv("WARDRIVE_DSN"), run.Storage.DSN)
	run.Metrics.Backend = pickStr(os.Getenv("WARDRIVE_METRICS"), run.Metrics.Backend)
	run.Metrics.PushgatewayURL = pickStr(os.Getenv("WARDRIVE_PUSHGATEWAY"), run.Metrics.PushgatewayURL)
	run.Metrics.DogstatsdAddr = pickStr(os.Getenv("WARDRIVE_DOGSTATSD"), run.Metrics.DogstatsdAddr)

	issues := config.Validate(run)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if len(run.Watch.Dirs) == 0 {
		fatalf("no directories: pass -dir or set watch.dirs in the config")
	}

	ingest.InitMetrics(run, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	c := ingest.NewContainer(run)
	if err := c.OpenStorage(ctx); err != nil {
		fatalf("%v", err)
	}
	defer c.CloseStorage()

	w, err := newWatcher(c, run.Watch)
	if err != nil {
		fatalf("%v", err)
	}
	log.Printf("watching %v (glob=%s cron=%q debounce=%s)",
		run.Watch.Dirs, w.glob, run.Watch.Cron, w.debounce)

	w.run(ctx)

	seen := int(c.Stats.FilesProcessed.Load() + c.Stats.FilesFailed.Load())
	c.LogSummary(seen, time.Since(start))
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
