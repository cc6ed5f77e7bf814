// Package metrics exposes Prometheus instruments for reshape runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the reshaper's collectors.
type Metrics struct {
	registry *prometheus.Registry

	// runsTotal counts reshape runs by mode and outcome code.
	runsTotal *prometheus.CounterVec

	// runDuration measures end-to-end reshape time.
	runDuration *prometheus.HistogramVec

	// uploadBytes observes accepted upload sizes.
	uploadBytes *prometheus.HistogramVec

	// droppedColumns counts upload columns discarded by conform.
	droppedColumns prometheus.Counter

	// activeRuns tracks reshapes holding a limiter slot.
	activeRuns prometheus.Gauge

	// referenceFallback is 1 when the schema came from the built-in columns.
	referenceFallback prometheus.Gauge
}

// New creates metrics on a private registry that also carries the Go and
// process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(namespace, reg)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = "reshape"
	}

	m := &Metrics{registry: reg}

	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of reshape runs by mode and result code",
		},
		[]string{"mode", "code"},
	)

	m.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Reshape run duration in seconds, parse to encoded output",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	m.uploadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of accepted uploads in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"format"},
	)

	m.droppedColumns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conform_dropped_columns_total",
			Help:      "Upload columns dropped because the reference schema has no place for them",
		},
	)

	m.activeRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Reshape runs currently holding a processing slot",
		},
	)

	m.referenceFallback = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_fallback",
			Help:      "1 when the reference schema uses built-in fallback columns",
		},
	)

	reg.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.uploadBytes,
		m.droppedColumns,
		m.activeRuns,
		m.referenceFallback,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRun records one finished run. A nil receiver is a no-op so callers
// can run without metrics.
func (m *Metrics) ObserveRun(mode, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(mode, code).Inc()
	m.runDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// ObserveUpload records the size of an accepted upload.
func (m *Metrics) ObserveUpload(format string, size int) {
	if m == nil {
		return
	}
	m.uploadBytes.WithLabelValues(format).Observe(float64(size))
}

// AddDropped counts columns dropped by conform.
func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedColumns.Add(float64(n))
}

// RunStarted and RunFinished bracket a run holding a slot.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
}

// SetReferenceFallback records whether the fallback schema is in use.
func (m *Metrics) SetReferenceFallback(fallback bool) {
	if m == nil {
		return
	}
	if fallback {
		m.referenceFallback.Set(1)
	} else {
		m.referenceFallback.Set(0)
	}
}
