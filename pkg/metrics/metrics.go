// Package metrics records per-run counters for the pirplot report verbs.
//
// The verbs are short-lived batch jobs, so nothing is scraped: a run
// accumulates counters in its own registry and, when a textfile path is
// configured, flushes them with prometheus.WriteToTextfile for a
// node-exporter textfile collector to pick up.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "pirplot"
)

// Run manages the Prometheus metrics of a single report invocation.
type Run struct {
	namespace string
	verb      string
	runID     string
	registry  *prometheus.Registry
	started   time.Time

	rowsParsed       prometheus.Counter
	cellsMissing     prometheus.Counter
	artifactsWritten *prometheus.CounterVec
	runDuration      prometheus.Gauge
}

// NewRun creates a registry-backed metrics run for one verb invocation.
func NewRun(verb, runID string, opts ...Option) *Run {
	r := &Run{
		namespace: defaultNamespace,
		verb:      verb,
		runID:     runID,
		registry:  prometheus.NewRegistry(),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}

	constLabels := prometheus.Labels{"verb": r.verb, "run_id": r.runID}

	r.rowsParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "rows_parsed_total",
		Help:        "Input CSV rows successfully parsed.",
		ConstLabels: constLabels,
	})
	r.cellsMissing = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "cells_missing_total",
		Help:        "Data-quality gaps downgraded to a missing value.",
		ConstLabels: constLabels,
	})
	r.artifactsWritten = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "artifacts_written_total",
		Help:        "Output artifacts written, by kind (csv, pdf, png).",
		ConstLabels: constLabels,
	}, []string{"kind"})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   r.namespace,
		Name:        "run_duration_seconds",
		Help:        "Wall-clock duration of the report run.",
		ConstLabels: constLabels,
	})

	r.registry.MustRegister(r.rowsParsed, r.cellsMissing, r.artifactsWritten, r.runDuration)
	return r
}

// AddRowsParsed counts rows that made it past schema validation.
func (r *Run) AddRowsParsed(n int) {
	if n > 0 {
		r.rowsParsed.Add(float64(n))
	}
}

// AddCellsMissing counts values downgraded to missing instead of aborting.
func (r *Run) AddCellsMissing(n int) {
	if n > 0 {
		r.cellsMissing.Add(float64(n))
	}
}

// ArtifactWritten counts one written output of the given kind.
func (r *Run) ArtifactWritten(kind string) {
	r.artifactsWritten.WithLabelValues(kind).Inc()
}

// Flush finalizes the run duration and, if path is non-empty, writes the
// registry contents to path in the textfile-collector format. A flush to an
// empty path is a no-op so callers do not need to special-case it.
func (r *Run) Flush(path string) error {
	r.runDuration.Set(time.Since(r.started).Seconds())
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return ErrWriteTextfile
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Run) Registry() *prometheus.Registry { return r.registry }
