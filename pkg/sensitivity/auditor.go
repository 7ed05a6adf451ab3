// Package sensitivity explains a node's PageRank score by leave-one-out
// recomputation: each incoming edge is removed in turn and the full
// PageRank pass is re-run on the reduced graph.
//
// This costs O(inDegree x full recompute) per explained node and is meant
// for a small set of high-value nodes (for example the top N by score),
// never for bulk auditing. Callers with tight latency requirements should
// cap the loop with Options.MaxEdges.
package sensitivity

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
	"github.com/dd0wney/cluso-repgraph/pkg/pagerank"
)

// DefaultTopInfluencers is how many of the highest-impact edges are
// reported.
const DefaultTopInfluencers = 10

// Options configures an explanation pass.
type Options struct {
	PageRank pagerank.Options

	// MaxEdges caps how many incoming edges are tested; 0 means all.
	MaxEdges int

	// TopInfluencers is the length of the ranked influencer list;
	// 0 means DefaultTopInfluencers.
	TopInfluencers int
}

// EdgeImpact records how much one incoming edge contributes to the
// audited node's score.
type EdgeImpact struct {
	Source         string  `json:"source"`
	Target         string  `json:"target"`
	Impact         float64 `json:"impact"`         // baseScore - scoreWithoutEdge
	RelativeImpact float64 `json:"relativeImpact"` // Impact / baseScore
}

// Explanation is the result of one leave-one-out audit.
type Explanation struct {
	NodeID         string       `json:"nodeId"`
	BaseScore      float64      `json:"baseScore"`
	PerEdgeImpact  []EdgeImpact `json:"perEdgeImpact"`
	TopInfluencers []EdgeImpact `json:"topInfluencers"`

	// SkippedEdges counts removal passes that failed and were omitted
	// from the ranking rather than aborting the audit.
	SkippedEdges int `json:"skippedEdges,omitempty"`
}

// Explain audits the given node against the supplied base scores.
func Explain(nodeID string, snap *graph.Snapshot, baseScores graph.ScoreSnapshot, opts Options) (*Explanation, error) {
	if !snap.HasNode(nodeID) {
		return nil, &graph.GraphError{Op: "Explain", NodeID: nodeID, Index: -1, Cause: graph.ErrNodeNotFound}
	}

	ex := &Explanation{
		NodeID:    nodeID,
		BaseScore: baseScores[nodeID],
	}

	// Locate incoming edge positions in snapshot order.
	var positions []int
	for pos, e := range snap.Edges() {
		if e.Target == nodeID && e.Source != e.Target {
			positions = append(positions, pos)
		}
	}
	if opts.MaxEdges > 0 && len(positions) > opts.MaxEdges {
		positions = positions[:opts.MaxEdges]
	}

	for _, pos := range positions {
		e := snap.Edges()[pos]

		reduced, err := snap.WithoutEdge(pos)
		if err != nil {
			ex.SkippedEdges++
			continue
		}
		result, err := pagerank.Compute(reduced, opts.PageRank)
		if err != nil {
			// A failed removal pass drops this edge from the ranking;
			// it never aborts the whole audit.
			ex.SkippedEdges++
			continue
		}

		impact := ex.BaseScore - result.Scores[nodeID]
		rel := 0.0
		if ex.BaseScore != 0 {
			rel = impact / ex.BaseScore
		}
		ex.PerEdgeImpact = append(ex.PerEdgeImpact, EdgeImpact{
			Source:         e.Source,
			Target:         e.Target,
			Impact:         impact,
			RelativeImpact: rel,
		})
	}

	top := opts.TopInfluencers
	if top <= 0 {
		top = DefaultTopInfluencers
	}
	ranked := make([]EdgeImpact, len(ex.PerEdgeImpact))
	copy(ranked, ex.PerEdgeImpact)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Impact) > math.Abs(ranked[j].Impact)
	})
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	ex.TopInfluencers = ranked

	return ex, nil
}
