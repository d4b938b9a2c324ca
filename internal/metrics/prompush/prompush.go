// Package prompush publishes run metrics to a Prometheus Pushgateway.
//
// An ingest run is a batch job rather than a long-lived server, so nothing
// here exposes a scrape endpoint. Counters and summaries accumulate in a
// private registry while the run executes, and Flush pushes the lot to the
// gateway in one request. All Prometheus types stay inside this package;
// callers only see metrics.Backend.
package prompush

import (
	"fmt"

	"wardrive/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend accumulates run metrics and pushes them to a Pushgateway.
type Backend struct {
	gatewayURL string
	jobName    string // Pushgateway grouping key, not a per-series label
	reg        *prometheus.Registry

	stageCounter  *prometheus.CounterVec
	stageDuration *prometheus.SummaryVec
	rowCounter    *prometheus.CounterVec
	fileCounter   *prometheus.CounterVec
}

// NewBackend builds a backend pushing to gatewayURL under jobName. An empty
// jobName falls back to "wardrive"; an empty URL is an error because there
// is nowhere to push.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "wardrive"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stageCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrive_stage_total",
			Help: "Pipeline stage executions by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "wardrive_stage_duration_seconds",
			Help:       "Stage wall time in seconds by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"stage", "status"}),
		rowCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrive_rows_total",
			Help: "Rows seen per kind: loaded, corrected, dropped, stored.",
		}, []string{"kind"}),
		fileCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrive_files_total",
			Help: "Input scan files by outcome.",
		}, []string{"status"}),
	}

	for _, c := range []prometheus.Collector{
		b.stageCounter, b.stageDuration, b.rowCounter, b.fileCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// IncCounter adds delta to the series selected by name and labels. Names
// this backend does not publish are dropped.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "wardrive_stage_total":
		if b.stageCounter != nil {
			b.stageCounter.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
		}
	case "wardrive_rows_total":
		if b.rowCounter != nil {
			b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case "wardrive_files_total":
		if b.fileCounter != nil {
			b.fileCounter.WithLabelValues(labels["status"]).Add(delta)
		}
	}
}

// ObserveHistogram records a stage duration sample. Other names are dropped.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "wardrive_stage_duration_seconds" || b.stageDuration == nil {
		return
	}
	b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
}

// Flush PUTs everything gathered so far to the gateway under the job name.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push()
}
