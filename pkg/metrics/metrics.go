package metrics

import (
	"runtime"
	"time"
)

// RecordComputation records one pipeline stage with its outcome.
func (r *Registry) RecordComputation(stage, status string, duration time.Duration) {
	r.ComputationsTotal.WithLabelValues(stage, status).Inc()
	r.ComputationDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPageRank records the outcome of a PageRank computation.
func (r *Registry) RecordPageRank(iterations int, converged bool) {
	r.PageRankIterations.Observe(float64(iterations))
	if converged {
		r.PageRankConverged.Set(1)
	} else {
		r.PageRankConverged.Set(0)
	}
}

// RecordGraph records the size of the graph being scored.
func (r *Registry) RecordGraph(nodes, edges, droppedEdges int) {
	r.GraphNodesTotal.Set(float64(nodes))
	r.GraphEdgesTotal.Set(float64(edges))
	if droppedEdges > 0 {
		r.GraphDroppedEdges.Add(float64(droppedEdges))
	}
}

// RecordSybil records Sybil audit results for a run.
func (r *Registry) RecordSybil(flagged int, maxRisk float64) {
	r.SybilFlaggedTotal.Set(float64(flagged))
	r.SybilRiskHighWatermark.Set(maxRisk)
}

// RecordFairness records fairness audit results for a run.
func (r *Registry) RecordFairness(gini, biasScore float64, adjusted bool) {
	r.FairnessGini.Set(gini)
	r.FairnessBiasScore.Set(biasScore)
	if adjusted {
		r.FairnessAdjustmentsTotal.Inc()
	}
}

// UpdateSystemMetrics refreshes process-level gauges.
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
}
