// Package metrics exposes Prometheus collectors for fetches and harness runs.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/samvad-hq/noticias-harvester/internal/domain"
)

// Fetch phases.
const (
	PhaseListing = "listing"
	PhaseDetail  = "detail"
)

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status_error"
	OutcomeTransport = "transport_error"
)

// Recorder owns a private registry so repeated runs and tests never collide
// with the process-wide default registry. A nil *Recorder is a valid no-op.
type Recorder struct {
	registry      *prometheus.Registry
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	runElapsed    *prometheus.GaugeVec
	runArticles   *prometheus.GaugeVec
	runFailures   *prometheus.GaugeVec
}

// New builds a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "harvester_fetches_total",
				Help: "Total number of page fetches, labeled by phase and outcome.",
			},
			[]string{"phase", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harvester_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by phase.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"phase"},
		),
		runElapsed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvester_run_elapsed_seconds",
				Help: "Wall-clock duration of the latest harness run, labeled by mode and workers.",
			},
			[]string{"mode", "workers"},
		),
		runArticles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvester_run_articles",
				Help: "Articles extracted by the latest harness run, labeled by mode and workers.",
			},
			[]string{"mode", "workers"},
		),
		runFailures: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "harvester_run_failed_links",
				Help: "Links that produced no article in the latest harness run.",
			},
			[]string{"mode", "workers"},
		),
	}
	r.registry.MustRegister(r.fetchesTotal, r.fetchDuration, r.runElapsed, r.runArticles, r.runFailures)
	return r
}

// Registry returns the Gatherer backing this recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveFetch records one fetch attempt.
func (r *Recorder) ObserveFetch(phase, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.fetchesTotal.WithLabelValues(phase, outcome).Inc()
	r.fetchDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

// ObserveRun records the outcome of one harness run.
func (r *Recorder) ObserveRun(res domain.RunResult) {
	if r == nil {
		return
	}
	labels := []string{string(res.Mode), strconv.Itoa(res.Workers)}
	r.runElapsed.WithLabelValues(labels...).Set(res.Elapsed.Seconds())
	r.runArticles.WithLabelValues(labels...).Set(float64(len(res.Articles)))
	r.runFailures.WithLabelValues(labels...).Set(float64(res.Failed()))
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
