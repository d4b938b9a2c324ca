package ingest

import (
	"log"

	"wardrive/internal/config"
	"wardrive/internal/metrics"
	"wardrive/internal/metrics/datadog"
	"wardrive/internal/metrics/prompush"
)

// InitMetrics wires the metrics backend selected by the run config.
// Metric recording stays a no-op when the backend is unset, unknown, or
// fails to initialize; callers flush via metrics.Flush on exit.
func InitMetrics(run config.Run, verbose bool) {
	backendName := run.Metrics.Backend
	jobName := run.Metrics.Job
	if jobName == "" {
		jobName = "wardrive"
	}

	switch backendName {
	case "pushgateway":
		gwURL := run.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: pushgateway backend unavailable: %v; metrics stay off", err)
			return
		}
		log.Printf("metrics: pushgateway url=%s job=%s", gwURL, jobName)
		metrics.SetBackend(b)

	case "dogstatsd":
		addr := run.Metrics.DogstatsdAddr
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			GlobalTags: []string{"job:" + jobName},
		})
		if err != nil {
			log.Printf("metrics: dogstatsd backend unavailable: %v; metrics stay off", err)
			return
		}
		log.Printf("metrics: dogstatsd addr=%s job=%s", addr, jobName)
		metrics.SetBackend(b)

	case "", "none":
		// Leave the nop backend in place.
		if verbose {
			log.Printf("metrics: not configured")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics stay off", backendName)
	}
}
