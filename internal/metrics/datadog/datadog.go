// Package datadog emits pipeline metrics over DogStatsD. It adapts the
// generic metrics.Backend surface to the official statsd client: labels
// become "key:value" tags, counters become Count, histograms become
// Histogram. Everything Datadog-specific stays in this package; the rest
// of the project sees only metrics.Backend.
package datadog

import (
	"fmt"

	"wardrive/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

// Config parameterizes the DogStatsD connection.
type Config struct {
	// Addr is the agent address, e.g. "127.0.0.1:8125" or a
	// "unix:///path/to/socket" datagram socket.
	Addr string

	// Namespace, when set, prefixes every metric name ("wardrive.").
	Namespace string

	// GlobalTags ride on every emission, e.g. []string{"job:wardrive"}.
	GlobalTags []string
}

// sender is the slice of statsd.Client the backend calls; tests fake it.
type sender interface {
	Count(name string, value int64, tags []string, rate float64) error
	Histogram(name string, value float64, tags []string, rate float64) error
	Close() error
}

// Backend forwards metrics.Backend calls to a DogStatsD agent. Install it
// once at startup with metrics.SetBackend. Send errors are dropped; metrics
// stay best effort.
type Backend struct {
	c sender
}

// NewBackend dials the agent named by cfg.Addr. An empty Addr is an error;
// the caller chooses the default address.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: empty agent address")
	}
	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: dial %s: %w", cfg.Addr, err)
	}
	return &Backend{c: c}, nil
}

// IncCounter emits a Count. DogStatsD counts are integral, so fractional
// deltas truncate.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.c == nil {
		return
	}
	b.c.Count(name, int64(delta), tagList(labels), 1)
}

// ObserveHistogram emits a Histogram observation.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.c == nil {
		return
	}
	b.c.Histogram(name, value, tagList(labels), 1)
}

// Flush closes the client, which drains anything still buffered. The
// pipeline calls it once at shutdown.
func (b *Backend) Flush() error {
	if b.c == nil {
		return nil
	}
	return b.c.Close()
}

func tagList(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	tags := make([]string, 0, len(labels))
	for k, v := range labels {
		tags = append(tags, k+":"+v)
	}
	return tags
}
