// Package engine orchestrates the full reputation pipeline: graph
// snapshot, temporal PageRank, community partitioning, Sybil and
// fairness audits, hybrid composition and temporal smoothing. The engine
// performs no I/O; logging and metrics are its only side effects.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-repgraph/pkg/cluster"
	"github.com/dd0wney/cluso-repgraph/pkg/fairness"
	"github.com/dd0wney/cluso-repgraph/pkg/graph"
	"github.com/dd0wney/cluso-repgraph/pkg/hybrid"
	"github.com/dd0wney/cluso-repgraph/pkg/logging"
	"github.com/dd0wney/cluso-repgraph/pkg/metrics"
	"github.com/dd0wney/cluso-repgraph/pkg/pagerank"
	"github.com/dd0wney/cluso-repgraph/pkg/sensitivity"
	"github.com/dd0wney/cluso-repgraph/pkg/smoothing"
	"github.com/dd0wney/cluso-repgraph/pkg/sybil"
)

// Input is one scoring request.
type Input struct {
	Nodes []graph.Node
	Edges []graph.Edge

	// Version is an optional caller-supplied token identifying the graph
	// revision. When set, the community partition is cached under it and
	// reused while the token is unchanged.
	Version string

	// History holds prior score snapshots, oldest first, for temporal
	// smoothing.
	History []graph.ScoreSnapshot

	// Now anchors edge age computation; zero means time.Now().
	Now time.Time
}

// PageRankSummary captures the iteration outcome for the report.
type PageRankSummary struct {
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Report aggregates the outputs of one pipeline run.
type Report struct {
	RunID     string        `json:"runId"`
	StartedAt time.Time     `json:"startedAt"`
	Elapsed   time.Duration `json:"elapsed"`

	NodeCount    int `json:"nodeCount"`
	EdgeCount    int `json:"edgeCount"`
	DroppedEdges int `json:"droppedEdges,omitempty"`

	PageRank PageRankSummary `json:"pagerank"`

	// RawScores are the PageRank scores before penalties or adjustment.
	RawScores graph.ScoreSnapshot `json:"rawScores"`

	// Scores are the final scores after Sybil penalty, fairness
	// adjustment and temporal smoothing.
	Scores graph.ScoreSnapshot `json:"scores"`

	TopNodes []pagerank.RankedNode `json:"topNodes,omitempty"`

	SybilRisk   sybil.RiskMap               `json:"sybilRisk,omitempty"`
	SybilDetail map[string]sybil.Assessment `json:"sybilDetail,omitempty"`
	Flagged     []string                    `json:"flagged,omitempty"`

	Fairness *fairness.Report `json:"fairness,omitempty"`

	Hybrid map[string]*hybrid.Score `json:"hybrid,omitempty"`

	Sensitivity map[string]*sensitivity.Explanation `json:"sensitivity,omitempty"`
}

// Engine runs the scoring pipeline with an injected community detector.
type Engine struct {
	cfg      Config
	detector cluster.Detector
	cache    cluster.Cache
	log      logging.Logger
	metrics  *metrics.Registry
}

// New builds an engine. A nil logger discards output and a nil registry
// falls back to the process-wide default.
func New(cfg Config, detector cluster.Detector, log logging.Logger, reg *metrics.Registry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if detector == nil && cfg.Sybil.Enabled {
		return nil, fmt.Errorf("engine: Sybil detection requires a cluster detector")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Engine{
		cfg:      cfg,
		detector: detector,
		log:      log,
		metrics:  reg,
	}, nil
}

// Run executes the pipeline over the input graph.
func (e *Engine) Run(ctx context.Context, in Input) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}
	log := e.log.With(logging.RunID(report.RunID))

	snap, err := graph.NewSnapshot(in.Nodes, in.Edges)
	if err != nil {
		e.metrics.RecordComputation("snapshot", "error", time.Since(start))
		log.Error("graph snapshot rejected", logging.Error(err))
		return nil, err
	}
	report.NodeCount = snap.NodeCount()
	report.EdgeCount = snap.EdgeCount()
	report.DroppedEdges = snap.DroppedEdges
	e.metrics.RecordGraph(snap.NodeCount(), snap.EdgeCount(), snap.DroppedEdges)
	if snap.DroppedEdges > 0 {
		log.Warn("dropped edges referencing unknown nodes", logging.Count(snap.DroppedEdges))
	}

	rankResult, err := e.runPageRank(ctx, snap, in.Now, log)
	if err != nil {
		return nil, err
	}
	report.RawScores = rankResult.Scores
	report.TopNodes = rankResult.TopNodes
	report.PageRank = PageRankSummary{
		Iterations: rankResult.Iterations,
		Converged:  rankResult.Converged,
		Elapsed:    rankResult.Elapsed,
	}

	scores := rankResult.Scores.Clone()

	if e.cfg.Sybil.Enabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.runSybil(snap, rankResult.Scores, scores, in.Version, report, log); err != nil {
			return nil, err
		}
	}

	if e.cfg.Fairness.Enabled {
		scores = e.runFairness(snap, scores, report, log)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hybridStart := time.Now()
	report.Hybrid = hybrid.Compose(snap, scores, e.cfg.Hybrid)
	e.metrics.RecordComputation("hybrid", "success", time.Since(hybridStart))

	smoothStart := time.Now()
	report.Scores = smoothing.Smooth(scores, in.History, e.cfg.Smoothing)
	e.metrics.RecordComputation("smoothing", "success", time.Since(smoothStart))

	if e.cfg.Sensitivity.Enabled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.runSensitivity(snap, rankResult, in.Now, report, log)
	}

	report.Elapsed = time.Since(start)
	log.Info("pipeline run complete",
		logging.Count(report.NodeCount),
		logging.Iterations(report.PageRank.Iterations),
		logging.Converged(report.PageRank.Converged),
		logging.ScoreSum(report.Scores.Sum()),
		logging.Latency(report.Elapsed),
	)
	return report, nil
}

func (e *Engine) runPageRank(ctx context.Context, snap *graph.Snapshot, now time.Time, log logging.Logger) (*pagerank.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := logging.StartTimer(log, "pagerank complete", logging.Component("pagerank"))
	result, err := pagerank.Compute(snap, e.cfg.PageRank.options(now))
	if err != nil {
		e.metrics.RecordComputation("pagerank", "error", 0)
		timer.EndError(err)
		return nil, err
	}
	e.metrics.RecordComputation("pagerank", "success", result.Elapsed)
	e.metrics.RecordPageRank(result.Iterations, result.Converged)
	if !result.Converged {
		log.Warn("pagerank hit the iteration cap without converging",
			logging.Iterations(result.Iterations))
	}
	timer.End()
	return result, nil
}

// runSybil assesses risk against the raw scores and applies the tiered
// penalty to the working scores in place.
func (e *Engine) runSybil(snap *graph.Snapshot, raw graph.ScoreSnapshot, scores graph.ScoreSnapshot, version string, report *Report, log logging.Logger) error {
	stageStart := time.Now()

	partition, cached := e.cache.Get(version)
	if !cached {
		accounts := cluster.AccountsFromSnapshot(snap, raw)
		clusters, err := e.detector.FindClusters(accounts)
		if err != nil {
			e.metrics.RecordComputation("sybil", "error", time.Since(stageStart))
			log.Error("cluster detection failed", logging.Error(err))
			return fmt.Errorf("engine: cluster detection: %w", err)
		}
		ids := make([]string, 0, snap.NodeCount())
		for _, n := range snap.Nodes() {
			ids = append(ids, n.ID)
		}
		partition = cluster.PartitionFromClusters(clusters, ids)
		e.cache.Put(version, partition)
	}

	report.SybilDetail = sybil.Assess(snap, raw, partition, e.cfg.Sybil.Rules.options())
	report.SybilRisk = make(sybil.RiskMap, len(report.SybilDetail))

	maxRisk := 0.0
	for _, n := range snap.Nodes() {
		assessment := report.SybilDetail[n.ID]
		report.SybilRisk[n.ID] = assessment.Risk
		if assessment.Risk > maxRisk {
			maxRisk = assessment.Risk
		}
		if assessment.Risk >= e.cfg.Sybil.RiskThreshold {
			report.Flagged = append(report.Flagged, n.ID)
			log.Warn("node flagged as Sybil risk",
				logging.NodeID(n.ID),
				logging.Risk(assessment.Risk),
				logging.Any("triggered", assessment.Triggered),
			)
		}
		if e.cfg.Sybil.ApplyPenalty {
			scores[n.ID] *= 1 - riskPenalty(assessment.Risk)
		}
	}

	e.metrics.RecordSybil(len(report.Flagged), maxRisk)
	e.metrics.RecordComputation("sybil", "success", time.Since(stageStart))
	return nil
}

// riskPenalty maps a risk level to a score discount tier.
func riskPenalty(risk float64) float64 {
	switch {
	case risk >= 0.8:
		return 0.5
	case risk >= 0.6:
		return 0.3
	case risk >= 0.4:
		return 0.15
	case risk >= 0.2:
		return 0.05
	default:
		return 0
	}
}

func (e *Engine) runFairness(snap *graph.Snapshot, scores graph.ScoreSnapshot, report *Report, log logging.Logger) graph.ScoreSnapshot {
	stageStart := time.Now()

	audit := fairness.Audit(scores, snap.Nodes())
	report.Fairness = &audit

	adjusted := false
	if e.cfg.Fairness.Adjust && audit.BiasScore > 0 {
		scores = fairness.Adjust(scores, snap.Nodes(), e.cfg.Fairness.AdjustStrength)
		adjusted = true
		log.Info("fairness adjustment applied",
			logging.Float64("bias_score", audit.BiasScore),
			logging.Float64("strength", e.cfg.Fairness.AdjustStrength),
		)
	}

	e.metrics.RecordFairness(audit.Gini, audit.BiasScore, adjusted)
	e.metrics.RecordComputation("fairness", "success", time.Since(stageStart))
	return scores
}

// runSensitivity explains the top-K raw scores by leave-one-out
// recomputation. Per-node failures are logged and skipped.
func (e *Engine) runSensitivity(snap *graph.Snapshot, rankResult *pagerank.Result, now time.Time, report *Report, log logging.Logger) {
	stageStart := time.Now()

	targets := rankResult.TopNodes
	if e.cfg.Sensitivity.TopK > len(targets) && snap.NodeCount() > len(targets) {
		targets = topByScore(snap, rankResult.Scores, e.cfg.Sensitivity.TopK)
	}
	if len(targets) > e.cfg.Sensitivity.TopK {
		targets = targets[:e.cfg.Sensitivity.TopK]
	}

	opts := sensitivity.Options{
		PageRank: e.cfg.PageRank.options(now),
		MaxEdges: e.cfg.Sensitivity.MaxEdges,
	}

	report.Sensitivity = make(map[string]*sensitivity.Explanation, len(targets))
	for _, target := range targets {
		ex, err := sensitivity.Explain(target.ID, snap, rankResult.Scores, opts)
		if err != nil {
			log.Warn("sensitivity audit failed", logging.NodeID(target.ID), logging.Error(err))
			continue
		}
		report.Sensitivity[target.ID] = ex
		e.metrics.SensitivityRecomputes.Add(float64(len(ex.PerEdgeImpact) + ex.SkippedEdges))
	}

	e.metrics.RecordComputation("sensitivity", "success", time.Since(stageStart))
}

func topByScore(snap *graph.Snapshot, scores graph.ScoreSnapshot, k int) []pagerank.RankedNode {
	ranked := make([]pagerank.RankedNode, 0, snap.NodeCount())
	for _, n := range snap.Nodes() {
		ranked = append(ranked, pagerank.RankedNode{ID: n.ID, Score: scores[n.ID]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// InvalidatePartitionCache drops any cached community partition.
func (e *Engine) InvalidatePartitionCache() {
	e.cache.Invalidate()
}
