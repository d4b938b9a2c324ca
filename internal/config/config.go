// Package config defines the JSON-serializable run configuration shared by
// the wardrive binaries. It is intentionally small, explicit, and decoded
// by the standard library, with a light Options helper for the few settings
// whose shape varies by loader.
//
// Precedence is resolved by the binaries, not here: command-line flags win
// over environment variables, which win over the values in the config file.
// The package only models the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load decodes the run config at path. A missing file is an error; the
// binaries treat an empty -config flag as "no file" and never call Load.
func Load(path string) (Run, error) {
	var r Run
	f, err := os.Open(path)
	if err != nil {
		return r, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return r, fmt.Errorf("decode config %s: %w", path, err)
	}
	return r, nil
}

// Run is the top-level object decoded from a run config file. Every
// section has a usable zero value, so a partial file configures only what
// it names.
type Run struct {
	// Input selects the scan files to ingest and how to split them.
	Input Input `json:"input"`

	// Repair controls the date-repair pass over each input file.
	Repair Repair `json:"repair"`

	// Analysis controls interference analysis and report/map output.
	Analysis Analysis `json:"analysis"`

	// Export configures the canonical dataset file exporters.
	Export Export `json:"export"`

	// Storage selects the database sink for canonical rows.
	Storage Storage `json:"storage"`

	// Metrics selects the metrics backend.
	Metrics Metrics `json:"metrics"`

	// Watch configures the scanwatch daemon's triggers.
	Watch Watch `json:"watch"`

	// Runtime controls cross-file concurrency in batch mode.
	Runtime Runtime `json:"runtime"`
}

// Input selects and parameterizes the scan files for a run.
type Input struct {
	// Path is a scan file path or glob pattern.
	Path string `json:"path"`

	// List is an optional manifest file naming one scan file per line;
	// blank lines and '#' comments are skipped.
	List string `json:"list"`

	// Delimiter is the field separator as a one-character string; empty
	// means comma. The sniffing strategy may still override it per file.
	Delimiter string `json:"delimiter"`

	// TrimSpace trims ASCII space around parsed fields.
	TrimSpace bool `json:"trim_space"`

	// Options is a free-form escape hatch interpreted by the loader.
	Options Options `json:"options"`
}

// Repair controls the date-repair pass.
type Repair struct {
	// Dates enables detection and rewrite of corrupted date columns.
	Dates bool `json:"dates"`

	// Validate re-parses the repaired file and reports valid/invalid
	// counts. Ignored when Dates is false.
	Validate bool `json:"validate"`
}

// Analysis controls the downstream analysis of the canonical dataset.
type Analysis struct {
	// Enabled runs the interference/quality/security analysis.
	Enabled bool `json:"enabled"`

	// ReportDir overrides where reports are written; empty writes them
	// beside the input file.
	ReportDir string `json:"report_dir"`

	// Maps additionally writes the Leaflet heat and marker maps.
	Maps bool `json:"maps"`
}

// Export configures the dataset file exporters. Empty paths disable the
// corresponding exporter; the token "auto" derives the path from the
// input file name.
type Export struct {
	CSV  string `json:"csv"`
	XLSX string `json:"xlsx"`
}

// Storage selects the database sink. Kind names a registered backend
// ("sqlite", "postgres"); empty disables storage export.
type Storage struct {
	Kind string `json:"kind"`

	// DSN is the backend connection string: a file path or ":memory:"
	// for sqlite, a postgresql:// URL for postgres.
	DSN string `json:"dsn"`

	// Table is the destination table; empty defaults to "observations".
	Table string `json:"table"`

	// BatchSize caps rows per insert batch; zero picks a default.
	BatchSize int `json:"batch_size"`

	// AutoCreateTable runs the backend's CREATE TABLE IF NOT EXISTS
	// bootstrap before loading.
	AutoCreateTable bool `json:"auto_create_table"`
}

// Metrics selects the metrics backend. Backend is "pushgateway",
// "dogstatsd", or "none"/empty for the default no-op.
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DogstatsdAddr  string `json:"dogstatsd_addr"`

	// Job labels every metric; empty defaults to "wardrive".
	Job string `json:"job"`
}

// Watch configures the scanwatch daemon.
type Watch struct {
	// Dirs are the directories watched for new or rewritten scan files.
	Dirs []string `json:"dirs"`

	// Glob filters file names within watched directories; empty means
	// "*.csv".
	Glob string `json:"glob"`

	// Cron optionally schedules full sweeps of the watched directories,
	// in robfig/cron syntax (e.g. "@hourly").
	Cron string `json:"cron"`

	// DebounceMS coalesces bursts of events per file; zero picks the
	// 500ms default.
	DebounceMS int `json:"debounce_ms"`
}

// Runtime controls cross-file concurrency. The per-file pipeline itself
// is always sequential.
type Runtime struct {
	// Workers bounds concurrent files in batch mode; zero picks a
	// default.
	Workers int `json:"workers"`
}

// Options fetches typed values from arbitrary JSON maps without a
// third-party configuration library. It performs only minimal coercion
// and returns the provided default when a key is absent or of an
// unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as
// float64, so float64 values are accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def, widening ints.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def when the
// key is missing or the value empty. Used for single-character settings
// such as the field delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings, or nil.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON decodes an explicit null to a non-nil empty Options map.
// An absent key leaves the field nil; the getters tolerate both.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
