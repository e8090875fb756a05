// Package metrics counts pipeline work with Prometheus collectors. A run is a
// short-lived CLI invocation, so values are flushed to a node_exporter
// textfile at exit instead of being scraped.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Download results.
const (
	ResultDownloaded = "downloaded"
	ResultSkipped    = "skipped"
	ResultMissing    = "missing"
	ResultFailed     = "failed"
)

// Option applies a configuration option to the Recorder.
type Option func(*Recorder)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithRegistry sets the registry the collectors are registered with.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// Recorder owns the run's collectors. A nil *Recorder records nothing.
type Recorder struct {
	namespace string
	registry  *prometheus.Registry

	eventsResolved prometheus.Counter
	downloads      *prometheus.CounterVec
	bytes          *prometheus.CounterVec
	toolRuns       *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
}

// New creates a Recorder on a private registry unless WithRegistry is given.
func New(opts ...Option) *Recorder {
	r := &Recorder{namespace: "rift"}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = prometheus.NewRegistry()
	}

	r.eventsResolved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "events_resolved_total",
		Help:      "Navigation entries turned into event records.",
	})
	r.downloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "downloads_total",
		Help:      "Asset fetch outcomes by asset kind.",
	}, []string{"kind", "result"})
	r.bytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "downloaded_bytes_total",
		Help:      "Bytes written to disk by asset kind.",
	}, []string{"kind"})
	r.toolRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "tool_runs_total",
		Help:      "External tool invocations.",
	}, []string{"tool", "result"})
	r.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "stage_duration_seconds",
		Help:      "Wall time of pipeline stages.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"stage"})

	r.registry.MustRegister(r.eventsResolved, r.downloads, r.bytes, r.toolRuns, r.stageDuration)
	return r
}

// EventResolved counts one resolved event record.
func (r *Recorder) EventResolved() {
	if r == nil {
		return
	}
	r.eventsResolved.Inc()
}

// Download counts one fetch outcome and, for completed downloads, its size.
func (r *Recorder) Download(kind, result string, n int64) {
	if r == nil {
		return
	}
	r.downloads.WithLabelValues(kind, result).Inc()
	if n > 0 {
		r.bytes.WithLabelValues(kind).Add(float64(n))
	}
}

// ToolRun counts one external tool invocation.
func (r *Recorder) ToolRun(tool string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.toolRuns.WithLabelValues(tool, result).Inc()
}

// ObserveStage records how long stage took since start.
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every collector to path in the Prometheus text format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
