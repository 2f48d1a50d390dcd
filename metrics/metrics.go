// Package metrics wires the eviction engine's observability surface to
// Prometheus, following the teacher's metric/prometheus package: promauto
// registration (done by New against a caller-supplied registerer), one
// struct grouping the collectors, methods for the call sites that need them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// durationBuckets mirrors the teacher's fixed histogram bounds
// (metric/prometheus/prometheus.go's durationBuckets), reused here for
// iteration duration instead of request duration.
var durationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40, 80}

// Metrics groups the Prometheus collectors the eviction engine reports to.
// It satisfies eviction.Metrics.
type Metrics struct {
	iterations       *prometheus.CounterVec
	candidates       prometheus.Histogram
	evictionsTotal   *prometheus.CounterVec
	evictedBytes     *prometheus.CounterVec
	iterationSeconds prometheus.Histogram
}

// New registers a fresh set of collectors against reg. Calling it twice
// with the same registerer panics on duplicate registration; New exists
// (rather than package level vars) so tests can construct independent
// instances against their own registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		iterations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "disk_usage_eviction_iterations_total",
			Help: "Total number of disk usage eviction iterations, by outcome.",
		}, []string{"outcome"}),

		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "disk_usage_eviction_candidates",
			Help:    "Number of eviction candidates collected per iteration.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),

		evictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "disk_usage_eviction_layers_total",
			Help: "Total number of layer eviction attempts, by result.",
		}, []string{"result"}),

		evictedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "disk_usage_eviction_bytes_total",
			Help: "Total bytes freed or attempted to free by layer eviction, by result.",
		}, []string{"result"}),

		iterationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "disk_usage_eviction_duration_seconds",
			Help:    "Wall-clock duration of a disk usage eviction iteration.",
			Buckets: durationBuckets,
		}),
	}
}

// RecordEvictionSuccess implements eviction.Metrics.
func (m *Metrics) RecordEvictionSuccess(fileSize uint64) {
	m.evictionsTotal.WithLabelValues("success").Inc()
	m.evictedBytes.WithLabelValues("success").Add(float64(fileSize))
}

// RecordEvictionFailed implements eviction.Metrics.
func (m *Metrics) RecordEvictionFailed(fileSize uint64) {
	m.evictionsTotal.WithLabelValues("failed").Inc()
	m.evictedBytes.WithLabelValues("failed").Add(float64(fileSize))
}

// RecordIteration records one completed iteration's outcome, candidate
// count and wall-clock duration.
func (m *Metrics) RecordIteration(outcome string, numCandidates int, seconds float64) {
	m.iterations.WithLabelValues(outcome).Inc()
	m.candidates.Observe(float64(numCandidates))
	m.iterationSeconds.Observe(seconds)
}
