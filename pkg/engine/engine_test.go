package engine

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-repgraph/pkg/cluster"
	"github.com/dd0wney/cluso-repgraph/pkg/graph"
	"github.com/dd0wney/cluso-repgraph/pkg/logging"
	"github.com/dd0wney/cluso-repgraph/pkg/metrics"
)

func testNow() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

// countingDetector wraps label propagation and counts invocations.
type countingDetector struct {
	inner *cluster.LabelPropagation
	calls int
}

func (d *countingDetector) FindClusters(accounts []cluster.Account) ([]cluster.Cluster, error) {
	d.calls++
	return d.inner.FindClusters(accounts)
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *countingDetector) {
	t.Helper()
	detector := &countingDetector{inner: cluster.NewLabelPropagation(cluster.DefaultConfig())}
	eng, err := New(cfg, detector, logging.NewNopLogger(), metrics.NewRegistry())
	require.NoError(t, err)
	return eng, detector
}

// smallCommunityInput builds two endorsement cliques bridged by one edge.
func smallCommunityInput() Input {
	ts := testNow().Add(-30 * 24 * time.Hour)
	groups := [][]string{
		{"a1", "a2", "a3", "a4"},
		{"b1", "b2", "b3", "b4"},
	}

	var nodes []graph.Node
	var edges []graph.Edge
	for gi, group := range groups {
		for _, id := range group {
			nodes = append(nodes, graph.Node{
				ID: id,
				Metadata: graph.NodeMetadata{
					Stake:         100,
					MinorityGroup: gi == 1,
				},
			})
		}
		for _, src := range group {
			for _, dst := range group {
				if src == dst {
					continue
				}
				edges = append(edges, graph.Edge{
					Source: src, Target: dst, Weight: 0.9,
					Type: graph.EdgeEndorse, Timestamp: ts,
				})
			}
		}
	}
	edges = append(edges, graph.Edge{
		Source: "a1", Target: "b1", Weight: 0.5,
		Type: graph.EdgeFollow, Timestamp: ts,
	})

	return Input{Nodes: nodes, Edges: edges, Now: testNow()}
}

func TestEngine_FullPipeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensitivity.Enabled = true
	cfg.Sensitivity.TopK = 2
	eng, _ := newTestEngine(t, cfg)

	report, err := eng.Run(context.Background(), smallCommunityInput())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID, "run id should be assigned")
	assert.Equal(t, 8, report.NodeCount)
	assert.True(t, report.PageRank.Converged, "small graph should converge")
	assert.Greater(t, report.PageRank.Iterations, 0)

	require.Len(t, report.RawScores, 8)
	require.Len(t, report.Scores, 8)
	assert.InDelta(t, 1.0, report.RawScores.Sum(), 1e-9, "raw PageRank mass should sum to 1")

	require.NotNil(t, report.SybilRisk)
	for id, risk := range report.SybilRisk {
		assert.GreaterOrEqual(t, risk, 0.0, "risk for %s", id)
		assert.LessOrEqual(t, risk, 1.0, "risk for %s", id)
	}

	require.NotNil(t, report.Fairness)
	assert.GreaterOrEqual(t, report.Fairness.Gini, 0.0)

	require.Len(t, report.Hybrid, 8)
	for id, score := range report.Hybrid {
		assert.GreaterOrEqual(t, score.Percentile, 0.0, "percentile for %s", id)
		assert.LessOrEqual(t, score.Percentile, 100.0, "percentile for %s", id)
		assert.NotEmpty(t, score.Explanation, "explanation for %s", id)
	}

	assert.Len(t, report.Sensitivity, 2, "top-2 sensitivity audits")
	assert.NotEmpty(t, report.TopNodes)
}

func TestEngine_Determinism(t *testing.T) {
	cfg := DefaultConfig()

	run := func() *Report {
		eng, _ := newTestEngine(t, cfg)
		report, err := eng.Run(context.Background(), smallCommunityInput())
		require.NoError(t, err)
		return report
	}

	r1 := run()
	r2 := run()

	require.Equal(t, len(r1.Scores), len(r2.Scores))
	for id, s := range r1.Scores {
		assert.Equal(t, s, r2.Scores[id], "score for %s must be bit-identical", id)
	}
	for id, risk := range r1.SybilRisk {
		assert.Equal(t, risk, r2.SybilRisk[id], "risk for %s must be bit-identical", id)
	}
}

// spamNetwork builds five staked endorsement cliques of five plus an
// unstaked "spammer" account fanning out to all 25 targets, which trips
// the fan-out and no-economic-backing signals at default thresholds.
func spamNetwork() ([]graph.Node, []graph.Edge) {
	ts := testNow().Add(-24 * time.Hour)
	var nodes []graph.Node
	var edges []graph.Edge
	for g := 0; g < 5; g++ {
		var group []string
		for m := 0; m < 5; m++ {
			id := fmt.Sprintf("t%02d", g*5+m)
			group = append(group, id)
			nodes = append(nodes, graph.Node{ID: id, Metadata: graph.NodeMetadata{Stake: 50}})
		}
		for _, src := range group {
			for _, dst := range group {
				if src == dst {
					continue
				}
				edges = append(edges, graph.Edge{
					Source: src, Target: dst, Weight: 0.9,
					Type: graph.EdgeEndorse, Timestamp: ts,
				})
			}
		}
	}
	nodes = append(nodes, graph.Node{ID: "spammer"})
	for i := 0; i < 25; i++ {
		edges = append(edges, graph.Edge{
			Source: "spammer", Target: fmt.Sprintf("t%02d", i), Weight: 0.5,
			Type: graph.EdgeFollow, Timestamp: ts,
		})
	}
	return nodes, edges
}

func TestEngine_SybilPenaltyApplied(t *testing.T) {
	nodes, edges := spamNetwork()

	cfg := DefaultConfig()
	eng, _ := newTestEngine(t, cfg)

	report, err := eng.Run(context.Background(), Input{Nodes: nodes, Edges: edges, Now: testNow()})
	require.NoError(t, err)

	require.GreaterOrEqual(t, report.SybilRisk["spammer"], 0.4, "spammer should carry medium risk")
	assert.Less(t, report.Scores["spammer"], report.RawScores["spammer"],
		"penalty should discount the spammer's final score")

	// A clean target keeps its raw score (no history, no adjustment).
	assert.Equal(t, report.RawScores["t00"], report.Scores["t00"])
}

func TestEngine_SybilRulesConfigurable(t *testing.T) {
	nodes, edges := spamNetwork()

	// Raising the degree thresholds above the spammer's fan-out disarms
	// the signals that fire at the defaults.
	cfg := DefaultConfig()
	cfg.Sybil.Rules.FanOutMinOutDegree = 100
	cfg.Sybil.Rules.NoBackingMinDegree = 100
	eng, _ := newTestEngine(t, cfg)

	report, err := eng.Run(context.Background(), Input{Nodes: nodes, Edges: edges, Now: testNow()})
	require.NoError(t, err)

	assert.Zero(t, report.SybilRisk["spammer"],
		"raised thresholds should clear the spammer's risk")
	assert.Equal(t, report.RawScores["spammer"], report.Scores["spammer"],
		"no risk means no penalty")
}

func TestEngine_SybilRulesValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sybil.Rules.LowRankZScore = 1.5

	_, err := New(cfg, cluster.NewLabelPropagation(cfg.Cluster), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LowRankZScore")
}

func TestEngine_PenaltyDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sybil.ApplyPenalty = false
	cfg.Fairness.Adjust = false
	eng, _ := newTestEngine(t, cfg)

	report, err := eng.Run(context.Background(), smallCommunityInput())
	require.NoError(t, err)

	for id, raw := range report.RawScores {
		assert.Equal(t, raw, report.Scores[id], "score for %s should be untouched", id)
	}
}

func TestEngine_PartitionCacheReuse(t *testing.T) {
	cfg := DefaultConfig()
	eng, detector := newTestEngine(t, cfg)

	in := smallCommunityInput()
	in.Version = "rev-1"

	_, err := eng.Run(context.Background(), in)
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, detector.calls, "same version token should reuse the partition")

	in.Version = "rev-2"
	_, err = eng.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, detector.calls, "new version token should recompute")

	eng.InvalidatePartitionCache()
	_, err = eng.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 3, detector.calls, "invalidation should force recompute")
}

func TestEngine_UnversionedNeverCached(t *testing.T) {
	cfg := DefaultConfig()
	eng, detector := newTestEngine(t, cfg)

	in := smallCommunityInput()
	_, err := eng.Run(context.Background(), in)
	require.NoError(t, err)
	_, err = eng.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, detector.calls, "unversioned runs must not share partitions")
}

func TestEngine_SmoothingWithHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sybil.ApplyPenalty = false
	eng, _ := newTestEngine(t, cfg)

	in := smallCommunityInput()
	first, err := eng.Run(context.Background(), in)
	require.NoError(t, err)

	// Zero history pins smoothed scores toward zero.
	in.History = []graph.ScoreSnapshot{{}}
	second, err := eng.Run(context.Background(), in)
	require.NoError(t, err)

	for id, raw := range second.RawScores {
		assert.Less(t, second.Scores[id], raw, "zeroed history should pull %s down", id)
	}
	assert.InDelta(t, first.RawScores.Sum(), second.RawScores.Sum(), 1e-12)
}

func TestEngine_FairnessMassConservation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sybil.ApplyPenalty = false
	cfg.Fairness.Adjust = true
	eng, _ := newTestEngine(t, cfg)

	report, err := eng.Run(context.Background(), smallCommunityInput())
	require.NoError(t, err)

	diff := math.Abs(report.RawScores.Sum() - report.Scores.Sum())
	assert.Less(t, diff, 1e-9, "fairness adjustment must conserve score mass")
}

func TestEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageRank.DampingFactor = 1.5

	_, err := New(cfg, cluster.NewLabelPropagation(cluster.DefaultConfig()), nil, metrics.NewRegistry())
	assert.Error(t, err)
}

func TestEngine_NilDetector(t *testing.T) {
	cfg := DefaultConfig()
	_, err := New(cfg, nil, nil, metrics.NewRegistry())
	assert.Error(t, err, "Sybil stage requires a detector")

	cfg.Sybil.Enabled = false
	eng, err := New(cfg, nil, nil, metrics.NewRegistry())
	require.NoError(t, err)

	report, err := eng.Run(context.Background(), smallCommunityInput())
	require.NoError(t, err)
	assert.Nil(t, report.SybilRisk)
}

func TestEngine_ContextCancelled(t *testing.T) {
	cfg := DefaultConfig()
	eng, _ := newTestEngine(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, smallCommunityInput())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_InvalidGraphRejected(t *testing.T) {
	cfg := DefaultConfig()
	eng, _ := newTestEngine(t, cfg)

	in := Input{
		Nodes: []graph.Node{{ID: "a"}, {ID: "a"}},
		Now:   testNow(),
	}
	_, err := eng.Run(context.Background(), in)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}
