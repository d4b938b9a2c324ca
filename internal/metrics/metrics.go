// Package metrics records operational counters and timings from the
// scan-processing pipeline behind a backend-agnostic surface.
//
// A global, pluggable Backend defaults to a no-op, so every call site is
// safe whether or not a real sink is configured. Concrete sinks (Prometheus
// Pushgateway, DogStatsD) live in subpackages and are selected at startup,
// the same registration shape the storage backends use. Pipeline stages
// (load, coerce, repair, store, ...) record through the helpers here and
// never touch a metrics system directly.
package metrics

// Labels name the dimensions of a sample, e.g. {"stage": "load"}.
type Labels map[string]string

// Backend is what a metrics sink must implement. Counters and histograms
// cover everything the pipeline records.
type Backend interface {
	// IncCounter adds delta to the named counter.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one sample of a duration-style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics for backends that batch (e.g. Pushgateway).
	Flush() error
}

// nopBackend keeps metrics optional: it is the default until SetBackend.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a sink for the whole process. A nil argument is
// ignored so callers can pass an optional backend straight through.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush tells the current backend to push whatever it has buffered.
func Flush() error {
	return backend.Flush()
}

// Status maps an error to the status label used on stage metrics.
func Status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStage counts one stage execution and records how long it took.
func RecordStage(stage, status string, seconds float64) {
	lbls := Labels{
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter("wardrive_stage_total", 1, lbls)
	backend.ObserveHistogram("wardrive_stage_duration_seconds", seconds, lbls)
}

// RecordRows increments a row-level counter for the given kind.
//
// Typical kinds mirror the run summary fields, e.g.:
//   - "loaded"
//   - "corrected"
//   - "dropped"
//   - "date_corrections"
//   - "stored"
func RecordRows(kind string, n int64) {
	if n <= 0 {
		return
	}
	backend.IncCounter("wardrive_rows_total", float64(n), Labels{
		"kind": kind,
	})
}

// RecordFiles increments the file-level counter for the given outcome
// ("processed" or "failed").
func RecordFiles(status string, n int64) {
	if n <= 0 {
		return
	}
	backend.IncCounter("wardrive_files_total", float64(n), Labels{
		"status": status,
	})
}
