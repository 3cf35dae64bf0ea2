// Package metrics provides Prometheus metrics for sync runs.
//
// Metrics live in their own registry so one-shot CLI runs can dump them to a
// node-exporter textfile and the long-running service can expose them over
// HTTP. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds configuration for metrics export.
type Config struct {
	// Textfile is where CLI runs write metrics. Empty disables the export.
	Textfile string `mapstructure:"textfile" default:""`
}

// Metrics records sync activity.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	lastRunTime   prometheus.Gauge
	itemsTotal    *prometheus.CounterVec
	batchesTotal  *prometheus.CounterVec
	remoteItems   prometheus.Gauge
	candidateSize prometheus.Gauge
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsync_runs_total",
				Help: "Total number of sync runs",
			},
			[]string{"status"},
		),
		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docsync_run_duration_seconds",
				Help:    "Sync run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
		),
		lastRunTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsync_last_run_timestamp_seconds",
				Help: "Unix time the last sync run finished",
			},
		),
		itemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsync_items_total",
				Help: "Per-item outcomes by phase",
			},
			[]string{"phase", "status"},
		),
		batchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsync_batches_total",
				Help: "Upload batches processed",
			},
			[]string{"status"},
		),
		remoteItems: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsync_remote_items",
				Help: "Items in the last fetched remote listing",
			},
		),
		candidateSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsync_candidate_items",
				Help: "Candidates produced by the last source walk",
			},
		),
	}
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status(ok)).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.lastRunTime.SetToCurrentTime()
}

// ObserveItem records one per-item outcome.
func (m *Metrics) ObserveItem(phase string, ok bool) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(phase, status(ok)).Inc()
}

// ObserveBatch records one processed upload batch.
func (m *Metrics) ObserveBatch(ok bool) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(status(ok)).Inc()
}

// SetSizes records the sizes of the remote listing and the candidate list.
func (m *Metrics) SetSizes(remote, candidates int) {
	if m == nil {
		return
	}
	m.remoteItems.Set(float64(remote))
	m.candidateSize.Set(float64(candidates))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics atomically to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
