// Package metrics exposes Prometheus instrumentation for the scoring
// pipeline.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Compute Metrics
	ComputationsTotal   *prometheus.CounterVec
	ComputationDuration *prometheus.HistogramVec
	PageRankIterations  prometheus.Histogram
	PageRankConverged   prometheus.Gauge
	GraphNodesTotal     prometheus.Gauge
	GraphEdgesTotal     prometheus.Gauge
	GraphDroppedEdges   prometheus.Counter

	// Audit Metrics
	SybilFlaggedTotal        prometheus.Gauge
	SybilRiskHighWatermark   prometheus.Gauge
	FairnessGini             prometheus.Gauge
	FairnessBiasScore        prometheus.Gauge
	FairnessAdjustmentsTotal prometheus.Counter
	SensitivityRecomputes    prometheus.Counter

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initComputeMetrics()
	r.initAuditMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
