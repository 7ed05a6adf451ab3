package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initComputeMetrics() {
	r.ComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "repgraph_computations_total",
			Help: "Total number of scoring computations executed",
		},
		[]string{"stage", "status"},
	)

	r.ComputationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repgraph_computation_duration_seconds",
			Help:    "Scoring stage duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0, 60.0},
		},
		[]string{"stage"},
	)

	r.PageRankIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "repgraph_pagerank_iterations",
			Help:    "Power iterations needed per PageRank computation",
			Buckets: []float64{5, 10, 20, 40, 60, 80, 100},
		},
	)

	r.PageRankConverged = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_pagerank_converged",
			Help: "Whether the most recent PageRank computation converged (1) or hit the iteration cap (0)",
		},
	)

	r.GraphNodesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_graph_nodes_total",
			Help: "Node count of the most recently scored graph",
		},
	)

	r.GraphEdgesTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_graph_edges_total",
			Help: "Edge count of the most recently scored graph",
		},
	)

	r.GraphDroppedEdges = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "repgraph_graph_dropped_edges_total",
			Help: "Edges dropped during snapshot validation for referencing unknown nodes",
		},
	)
}
