// This file adds a lightweight linter for Run values. It performs static
// checks over a decoded config and returns a list of issues the binaries
// surface before running; warnings never block execution, errors do.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity grades a finding. Errors block the run; warnings are
// printed and then ignored.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path points into the config with dotted
// notation ("storage.dsn", "watch.dirs[1]"); Message is for the operator.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error renders the issue as a one-line log message, which also lets an
// Issue travel as an error value.
func (i Issue) Error() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasError reports whether any issue is severity error.
func HasError(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Run. It never mutates the
// config; it returns every finding rather than stopping at the first, so
// an operator can fix a config file in one pass.
func Validate(r Run) []Issue {
	var issues []Issue
	issues = append(issues, validateInput(r.Input)...)
	issues = append(issues, validateAnalysis(r.Analysis)...)
	issues = append(issues, validateStorage(r.Storage)...)
	issues = append(issues, validateMetrics(r.Metrics)...)
	issues = append(issues, validateWatch(r.Watch)...)
	issues = append(issues, validateRuntime(r.Runtime)...)
	return issues
}

func validateInput(in Input) []Issue {
	var issues []Issue
	if len([]rune(in.Delimiter)) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.delimiter",
			Message:  fmt.Sprintf("delimiter %q must be a single character", in.Delimiter),
		})
	}
	return issues
}

func validateAnalysis(a Analysis) []Issue {
	var issues []Issue
	if a.ReportDir != "" && !a.Enabled {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "analysis.report_dir",
			Message:  "report_dir is set but analysis is disabled; no reports will be written",
		})
	}
	if a.Maps && !a.Enabled {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "analysis.maps",
			Message:  "maps require analysis; enable analysis or drop maps",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		// Storage is optional; nothing else to check when disabled.
		return issues
	}

	switch s.Kind {
	case "sqlite", "postgres":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; built-in kinds are sqlite and postgres", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty when a storage kind is set",
		})
	}
	if s.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.batch_size",
			Message:  "batch_size must not be negative",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none", "pushgateway", "dogstatsd":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		})
	}
	if m.Backend == "dogstatsd" && strings.TrimSpace(m.DogstatsdAddr) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.dogstatsd_addr",
			Message:  "dogstatsd backend without an address falls back to 127.0.0.1:8125",
		})
	}
	return issues
}

func validateWatch(w Watch) []Issue {
	var issues []Issue
	if w.DebounceMS < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "watch.debounce_ms",
			Message:  "debounce_ms must not be negative",
		})
	}
	for i, d := range w.Dirs {
		if strings.TrimSpace(d) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("watch.dirs[%d]", i),
				Message:  "watched directory must not be empty",
			})
		}
	}
	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue
	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	return issues
}
