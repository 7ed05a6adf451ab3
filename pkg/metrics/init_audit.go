package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAuditMetrics() {
	r.SybilFlaggedTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_sybil_flagged_total",
			Help: "Nodes at or above the Sybil risk threshold in the latest run",
		},
	)

	r.SybilRiskHighWatermark = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_sybil_risk_high_watermark",
			Help: "Highest per-node Sybil risk observed in the latest run",
		},
	)

	r.FairnessGini = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_fairness_gini",
			Help: "Gini coefficient of the latest score distribution",
		},
	)

	r.FairnessBiasScore = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "repgraph_fairness_bias_score",
			Help: "Composite bias score of the latest fairness audit",
		},
	)

	r.FairnessAdjustmentsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "repgraph_fairness_adjustments_total",
			Help: "Total number of fairness score adjustments applied",
		},
	)

	r.SensitivityRecomputes = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "repgraph_sensitivity_recomputes_total",
			Help: "Leave-one-out PageRank recomputations performed for sensitivity audits",
		},
	)
}
