// Package hybrid blends graph-derived PageRank with off-graph economic
// and quality signals into a single 0-1000 reputation score.
package hybrid

import (
	"fmt"
	"math"
	"sort"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

// Weights controls the blend of the four component scores. They should
// sum to 1; Compose does not renormalize.
type Weights struct {
	Graph   float64 `yaml:"graph" json:"graph"`
	Quality float64 `yaml:"quality" json:"quality"`
	Stake   float64 `yaml:"stake" json:"stake"`
	Payment float64 `yaml:"payment" json:"payment"`
}

// DefaultWeights favors graph structure but keeps enough economic
// weight that pure link-farming cannot dominate.
func DefaultWeights() Weights {
	return Weights{Graph: 0.5, Quality: 0.25, Stake: 0.15, Payment: 0.1}
}

// Score is the composed reputation for one node.
type Score struct {
	NodeID       string   `json:"nodeId"`
	Composite    float64  `json:"composite"` // 0-1000
	GraphScore   float64  `json:"graphScore"`
	QualityScore float64  `json:"qualityScore"`
	StakeScore   float64  `json:"stakeScore"`
	PaymentScore float64  `json:"paymentScore"`
	Percentile   float64  `json:"percentile"` // 0-100
	Explanation  []string `json:"explanation,omitempty"`
}

// Compose blends raw PageRank scores with node metadata signals.
// Results are keyed by node id; graph scores are min-max normalized to
// 0-1000 across the snapshot before blending.
func Compose(snap *graph.Snapshot, raw graph.ScoreSnapshot, w Weights) map[string]*Score {
	nodes := snap.Nodes()
	out := make(map[string]*Score, len(nodes))
	if len(nodes) == 0 {
		return out
	}

	minRaw, maxRaw := math.Inf(1), math.Inf(-1)
	for _, n := range nodes {
		s := raw[n.ID]
		if s < minRaw {
			minRaw = s
		}
		if s > maxRaw {
			maxRaw = s
		}
	}
	spread := maxRaw - minRaw

	for _, n := range nodes {
		gs := 0.0
		if spread > 0 {
			gs = (raw[n.ID] - minRaw) / spread * 1000
		}
		qs := n.Metadata.ContentQuality * 10
		ss := math.Min(1000, math.Log(1+n.Metadata.Stake/100)*200)
		ps := math.Min(1000, math.Log(1+n.Metadata.PaymentHistory/1000)*200)

		sc := &Score{
			NodeID:       n.ID,
			GraphScore:   gs,
			QualityScore: qs,
			StakeScore:   ss,
			PaymentScore: ps,
		}
		sc.Composite = w.Graph*gs + w.Quality*qs + w.Stake*ss + w.Payment*ps
		sc.Explanation = explain(sc, w)
		out[n.ID] = sc
	}

	assignPercentiles(nodes, out)
	return out
}

// assignPercentiles ranks composites ascending and converts each rank
// position to a 0-100 percentile. Equal composites keep their input
// order via the stable sort, so every node holds a distinct position.
func assignPercentiles(nodes []graph.Node, scores map[string]*Score) {
	n := len(nodes)
	if n == 0 {
		return
	}
	if n == 1 {
		scores[nodes[0].ID].Percentile = 100
		return
	}

	ids := make([]string, n)
	for i, node := range nodes {
		ids[i] = node.ID
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return scores[ids[i]].Composite < scores[ids[j]].Composite
	})

	for i, id := range ids {
		scores[id].Percentile = float64(i) / float64(n-1) * 100
	}
}

func explain(s *Score, w Weights) []string {
	type part struct {
		label string
		value float64
	}
	parts := []part{
		{"graph reputation", w.Graph * s.GraphScore},
		{"content quality", w.Quality * s.QualityScore},
		{"stake commitment", w.Stake * s.StakeScore},
		{"payment history", w.Payment * s.PaymentScore},
	}

	var lines []string
	for _, p := range parts {
		if p.value <= 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s contributes %.1f points", p.label, p.value))
	}
	if len(lines) == 0 {
		lines = append(lines, "no positive reputation signals")
	}
	return lines
}
