// Package ingest wires the full per-file pipeline behind the wardrive
// binaries: shape recovery, header resolution, coercion, the critical-field
// gate, then the optional date repair, analysis, export, and storage
// stages. The batch CLI and the watch daemon share one Container so both
// report through the same counters and issue sampler.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wardrive/internal/analysis"
	"wardrive/internal/config"
	"wardrive/internal/dataset"
	"wardrive/internal/daterepair"
	"wardrive/internal/export"
	"wardrive/internal/geomap"
	"wardrive/internal/linediff"
	"wardrive/internal/loader"
	"wardrive/internal/metrics"
	"wardrive/internal/report"
	"wardrive/internal/scanlist"
	"wardrive/internal/schema"
	"wardrive/internal/storage"
	"wardrive/internal/transform"
)

// thisMany is how many issue messages are kept verbatim before the
// aggregator falls back to counting.
const thisMany = 3

// Defaults for knobs that are usually left unset.
const (
	DefaultWorkers   = 4
	DefaultBatchSize = 500
	DefaultTable     = "observations"
)

// Test seams.
var (
	logf            = log.Printf
	newRepositoryFn = storage.New
	loadTableFn     = loader.Load
	repairDatesFn   = daterepair.Repair
)

// Counters aggregates run-wide statistics across file goroutines.
type Counters struct {
	FilesProcessed    atomic.Int64
	FilesFailed       atomic.Int64
	RowsLoaded        atomic.Int64
	RowsCorrected     atomic.Int64
	RowsDropped       atomic.Int64
	CellsCoerceFailed atomic.Int64
	DateCorrections   atomic.Int64
	DatesValid        atomic.Int64
	DatesInvalid      atomic.Int64
}

// errAgg aggregates issues without flooding the log: the first few
// messages verbatim, then counts bucketed by message.
type errAgg struct {
	mu      sync.Mutex
	limit   int
	count   int
	first   []string
	buckets map[string]int
}

func newErrAgg(limit int) *errAgg {
	return &errAgg{limit: limit, buckets: make(map[string]int)}
}
func (a *errAgg) add(msg string) {
	a.mu.Lock()
	a.buckets[msg]++
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

// Container wires one run: the resolved config, shared counters, the
// issue sampler, and the storage sink when one is configured. A Container
// may outlive a single batch; the watch daemon keeps one for its whole
// lifetime and funnels every triggered file through it.
type Container struct {
	Run   config.Run
	RunID string
	Stats Counters

	sch  schema.Schema
	agg  *errAgg
	repo storage.Repository
}

func NewContainer(run config.Run) *Container {
	return &Container{
		Run:   run,
		RunID: uuid.NewString(),
		sch:   schema.Default(),
		agg:   newErrAgg(thisMany),
	}
}

// Workers bounds how many files are processed concurrently.
func (c *Container) Workers() int { return pickInt(c.Run.Runtime.Workers, DefaultWorkers) }

func (c *Container) batchSize() int { return pickInt(c.Run.Storage.BatchSize, DefaultBatchSize) }

func (c *Container) tableName() string {
	if c.Run.Storage.Table != "" {
		return c.Run.Storage.Table
	}
	return DefaultTable
}

// ExpandInputs resolves the configured path/glob and manifest into the
// concrete list of scan files for this run, deduplicated and sorted.
func (c *Container) ExpandInputs() ([]string, error) {
	var paths []string
	if p := c.Run.Input.Path; p != "" {
		got, err := scanlist.Expand(p)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", p, err)
		}
		paths = append(paths, got...)
	}
	if l := c.Run.Input.List; l != "" {
		got, err := scanlist.ReadManifest(l)
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", l, err)
		}
		paths = append(paths, got...)
	}
	sort.Strings(paths)
	out := paths[:0]
	for i, p := range paths {
		if i == 0 || p != paths[i-1] {
			out = append(out, p)
		}
	}
	return out, nil
}

// OpenStorage connects the configured sink and, when asked, bootstraps the
// destination table. A run without storage.kind is a no-op.
func (c *Container) OpenStorage(ctx context.Context) error {
	if c.Run.Storage.Kind == "" {
		return nil
	}
	cfg := storage.Config{
		Kind:  c.Run.Storage.Kind,
		DSN:   c.Run.Storage.DSN,
		Table: c.tableName(),
	}
	repo, err := newRepositoryFn(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage %s: %w", cfg.Kind, err)
	}
	if c.Run.Storage.AutoCreateTable {
		if err := storage.EnsureTable(ctx, cfg, repo); err != nil {
			repo.Close()
			return fmt.Errorf("bootstrap table %s: %w", cfg.Table, err)
		}
	}
	c.repo = repo
	return nil
}

func (c *Container) CloseStorage() {
	if c.repo != nil {
		c.repo.Close()
	}
}

// ----------------------------------------------------------------------------
// Per-file pipeline
// ----------------------------------------------------------------------------

// ProcessFile runs the whole pipeline for one scan file. Only a load or
// storage failure fails the file; the post-load side outputs are best
// effort and their errors are sampled, since the canonical rows may still
// reach the remaining sinks.
func (c *Container) ProcessFile(ctx context.Context, path string) error {
	opts := loader.Options{TrimSpace: c.Run.Input.TrimSpace}
	if d := c.Run.Input.Delimiter; d != "" {
		opts.Delimiter = []rune(d)[0]
	}

	start := time.Now()
	t, err := loadTableFn(path, opts)
	metrics.RecordStage("load", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	logf("%s: strategy=%s rows=%d corrections=%d skipped=%d",
		path, t.Strategy, len(t.Rows), t.Corrections, t.Skipped)

	res := schema.Resolve(t.Header, c.sch)
	for _, gap := range res.Gaps {
		logf("%s: no header maps to %s", path, gap)
	}

	ds, coerceFailed := transform.Coerce(t, res, c.sch)
	ds.RunID = c.RunID
	for col, n := range coerceFailed {
		c.Stats.CellsCoerceFailed.Add(int64(n))
		c.agg.add(fmt.Sprintf("%s: coerce %s: %d cells", path, col, n))
	}

	ds, dropped := transform.DropMissingCritical(ds, c.sch.Critical())
	if dropped > 0 {
		logf("%s: dropped %d rows missing critical fields", path, dropped)
	}

	c.Stats.RowsLoaded.Add(int64(len(ds.Rows)))
	c.Stats.RowsCorrected.Add(int64(t.Corrections))
	c.Stats.RowsDropped.Add(int64(dropped))
	metrics.RecordRows("loaded", int64(len(ds.Rows)))
	metrics.RecordRows("corrected", int64(t.Corrections))
	metrics.RecordRows("dropped", int64(dropped))

	if c.Run.Repair.Dates {
		c.repairDates(path, t.Delimiter)
	}
	if c.Run.Analysis.Enabled {
		c.analyzeDataset(path, t, ds, dropped, coerceFailed)
	}
	c.exportDataset(path, ds)

	if c.repo != nil {
		if err := c.storeDataset(ctx, path, ds); err != nil {
			return err
		}
	}
	return nil
}

// repairDates rewrites corrupted date cells into a _fixed sibling of path
// and, when configured, re-validates the output and diffs it against the
// original. Failures here are sampled, not fatal: the in-memory dataset is
// already past the loader and stays usable.
func (c *Container) repairDates(path string, delim rune) {
	start := time.Now()
	fix, err := repairDatesFn(path, delim)
	metrics.RecordStage("repair", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		c.agg.add(fmt.Sprintf("%s: repair dates: %v", path, err))
		logf("%s: repair dates: %v", path, err)
		return
	}
	c.Stats.DateCorrections.Add(int64(fix.Corrections))
	metrics.RecordRows("date_corrections", int64(fix.Corrections))
	logf("%s: dates repaired: out=%s columns=%v corrections=%d unrepaired=%d",
		path, fix.OutputPath, fix.DateColumns, fix.Corrections, fix.Unrepaired)

	if c.Run.Repair.Validate {
		v, err := daterepair.ValidateRepair(fix.OutputPath, delim)
		if err != nil {
			c.agg.add(fmt.Sprintf("%s: validate repair: %v", path, err))
			logf("%s: validate repair: %v", path, err)
		} else {
			valid, invalid := v.Totals()
			c.Stats.DatesValid.Add(int64(valid))
			c.Stats.DatesInvalid.Add(int64(invalid))
			for _, col := range v.Columns {
				logf("%s: %s: valid=%d invalid=%d range=[%s .. %s]",
					fix.OutputPath, col.Column, col.Valid, col.Invalid,
					col.Min.Format("2006-01-02"), col.Max.Format("2006-01-02"))
			}
		}
	}

	diff, err := linediff.Compare(path, fix.OutputPath, c.Workers())
	if err != nil {
		c.agg.add(fmt.Sprintf("%s: diff: %v", path, err))
		return
	}
	logf("%s: diff vs %s: %d of %d lines changed",
		path, fix.OutputPath, diff.Changed, diff.CandidateLines)
}

// analyzeDataset runs the RF analysis and writes the reports (and maps,
// when enabled) beside the input or into the configured report directory.
func (c *Container) analyzeDataset(path string, t *dataset.Table, ds *dataset.Dataset, dropped int, coerceFailed map[string]int) {
	start := time.Now()
	rep, err := analysis.Analyze(ds)
	metrics.RecordStage("analyze", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		c.agg.add(fmt.Sprintf("%s: analyze: %v", path, err))
		logf("%s: analyze: %v", path, err)
		return
	}

	target := path
	if dir := c.Run.Analysis.ReportDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.agg.add(fmt.Sprintf("%s: report dir: %v", path, err))
			logf("%s: report dir: %v", path, err)
			return
		}
		target = filepath.Join(dir, filepath.Base(path))
	}

	meta := report.Meta{
		InputPath:    path,
		RunID:        c.RunID,
		Strategy:     t.Strategy,
		Corrections:  t.Corrections,
		Skipped:      t.Skipped,
		Dropped:      dropped,
		CoerceFailed: coerceFailed,
		Generated:    time.Now(),
	}
	paths := report.PathsFor(target)
	if err := report.WriteAll(paths, meta, rep); err != nil {
		c.agg.add(fmt.Sprintf("%s: write reports: %v", path, err))
		logf("%s: write reports: %v", path, err)
	} else {
		logf("%s: reports written: %s", path, paths.Text)
	}

	if c.Run.Analysis.Maps {
		base := strings.TrimSuffix(target, filepath.Ext(target))
		if n, err := geomap.WriteHeatMap(base+"_heatmap.html", ds); err != nil {
			c.agg.add(fmt.Sprintf("%s: heat map: %v", path, err))
			logf("%s: heat map: %v", path, err)
		} else {
			logf("%s: heat map: %d points -> %s", path, n, base+"_heatmap.html")
		}
		if n, err := geomap.WriteMarkerMap(base+"_markers.html", ds); err != nil {
			c.agg.add(fmt.Sprintf("%s: marker map: %v", path, err))
			logf("%s: marker map: %v", path, err)
		} else {
			logf("%s: marker map: %d points -> %s", path, n, base+"_markers.html")
		}
	}
}

// exportDataset writes the canonical dataset to the configured file
// formats. The "auto" token derives the output name from the input, which
// is the only safe choice when a run covers more than one file.
func (c *Container) exportDataset(path string, ds *dataset.Dataset) {
	if spec := c.Run.Export.CSV; spec != "" {
		out := exportPath(spec, path, ".csv")
		if n, err := export.WriteCSV(out, ds); err != nil {
			c.agg.add(fmt.Sprintf("%s: export csv: %v", path, err))
			logf("%s: export csv: %v", path, err)
		} else {
			logf("%s: exported %d rows -> %s", path, n, out)
		}
	}
	if spec := c.Run.Export.XLSX; spec != "" {
		out := exportPath(spec, path, ".xlsx")
		if n, err := export.WriteXLSX(out, ds); err != nil {
			c.agg.add(fmt.Sprintf("%s: export xlsx: %v", path, err))
			logf("%s: export xlsx: %v", path, err)
		} else {
			logf("%s: exported %d rows -> %s", path, n, out)
		}
	}
}

// exportPath resolves an export target: "auto" derives a _tidy sibling of
// the input, anything else is used verbatim.
func exportPath(spec, input, ext string) string {
	if spec != "auto" {
		return spec
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_tidy" + ext
}

// storeDataset streams the canonical rows into the repository in batches.
func (c *Container) storeDataset(ctx context.Context, path string, ds *dataset.Dataset) error {
	columns, rows := storage.DatasetRows(ds)
	in := make(chan []any, c.batchSize())
	go func() {
		defer close(in)
		for _, r := range rows {
			select {
			case in <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	start := time.Now()
	n, err := storage.LoadBatches(ctx, columns, in, c.batchSize(), c.repo.CopyFrom)
	metrics.RecordStage("store", metrics.Status(err), time.Since(start).Seconds())
	metrics.RecordRows("stored", n)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	logf("%s: stored %d rows in %s", path, n, c.tableName())
	return nil
}

// ----------------------------------------------------------------------------
// Batch fan-out
// ----------------------------------------------------------------------------

// RunBatch fans ProcessFile out over paths with at most Workers files in
// flight. A failed file is counted and logged, never cancels its siblings.
func (c *Container) RunBatch(ctx context.Context, paths []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers())
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := c.ProcessFile(gctx, p); err != nil {
				c.Stats.FilesFailed.Add(1)
				metrics.RecordFiles("failed", 1)
				logf("%s: %v", p, err)
				return nil
			}
			c.Stats.FilesProcessed.Add(1)
			metrics.RecordFiles("processed", 1)
			return nil
		})
	}
	_ = g.Wait()
}

// ----------------------------------------------------------------------------
// Summary
// ----------------------------------------------------------------------------

// LogSummary prints run-wide totals, cross-checks the file accounting (a
// mismatch means a goroutine exited without reporting), and replays the
// sampled issues.
func (c *Container) LogSummary(total int, elapsed time.Duration) {
	processed := c.Stats.FilesProcessed.Load()
	failed := c.Stats.FilesFailed.Load()

	logf("run %s: files=%d processed=%d failed=%d elapsed=%s",
		c.RunID, total, processed, failed, elapsed.Truncate(time.Millisecond))
	logf("run %s: rows loaded=%d corrected=%d dropped=%d coerce_failed_cells=%d",
		c.RunID,
		c.Stats.RowsLoaded.Load(),
		c.Stats.RowsCorrected.Load(),
		c.Stats.RowsDropped.Load(),
		c.Stats.CellsCoerceFailed.Load(),
	)
	logf("run %s: dates corrections=%d valid=%d invalid=%d",
		c.RunID,
		c.Stats.DateCorrections.Load(),
		c.Stats.DatesValid.Load(),
		c.Stats.DatesInvalid.Load(),
	)

	if accounted := processed + failed; accounted != int64(total) {
		logf("WARNING: file accounting mismatch: total=%d accounted=%d (delta=%d)",
			total, accounted, int64(total)-accounted)
	}

	if c.agg.count > 0 {
		logf("issues: %d (showing first %d)", c.agg.count, len(c.agg.first))
		for i, s := range c.agg.first {
			logf("  #%03d: %s", i+1, s)
		}
	}
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
