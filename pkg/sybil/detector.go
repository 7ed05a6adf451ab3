// Package sybil implements rule-based Sybil (fake account) detection over
// PageRank scores, graph structure and a community partition.
//
// The detector is an explainable ensemble, not a learned classifier: a
// fixed, ordered list of named rules each contributes a bounded amount of
// risk, the sum is capped at 1, and every threshold is configuration.
package sybil

import (
	"math"

	"github.com/dd0wney/cluso-repgraph/pkg/cluster"
	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

// RiskMap maps node id to fraud probability in [0,1].
type RiskMap map[string]float64

// Assessment is the per-node result with the rules that fired.
type Assessment struct {
	Risk      float64  `json:"risk"`
	Triggered []string `json:"triggered,omitempty"`
}

// Rule names, in evaluation order.
const (
	RuleSuspiciousCommunity = "suspicious-community"
	RuleLowRankHighInDegree = "low-rank-high-in-degree"
	RuleSpamFanOut          = "spam-fan-out"
	RuleLowReciprocity      = "low-reciprocity"
	RuleNoEconomicBacking   = "no-economic-backing"
	RuleEchoChamber         = "echo-chamber"
)

// evalContext carries the precomputed population statistics shared by all
// rules for one detection pass.
type evalContext struct {
	snap       *graph.Snapshot
	scores     graph.ScoreSnapshot
	partition  *cluster.Partition
	suspicious map[int]bool
	mean, std  float64
	opts       Options
}

type rule struct {
	name    string
	weight  func(Options) float64
	applies func(*evalContext, graph.Node) bool
}

// rules is the fixed evaluation order. Each rule is independently
// testable; contributions are additive and capped at 1.
var rules = []rule{
	{
		name:   RuleSuspiciousCommunity,
		weight: func(o Options) float64 { return o.SuspiciousCommunityWeight },
		applies: func(ctx *evalContext, n graph.Node) bool {
			c, ok := ctx.partition.CommunityOf(n.ID)
			return ok && ctx.suspicious[c]
		},
	},
	{
		name:   RuleLowRankHighInDegree,
		weight: func(o Options) float64 { return o.LowRankWeight },
		applies: func(ctx *evalContext, n graph.Node) bool {
			if ctx.std == 0 {
				return false
			}
			z := (ctx.scores[n.ID] - ctx.mean) / ctx.std
			return z < ctx.opts.LowRankZScore && ctx.snap.InDegree(n.ID) > ctx.opts.LowRankMinInDegree
		},
	},
	{
		name:   RuleSpamFanOut,
		weight: func(o Options) float64 { return o.FanOutWeight },
		applies: func(ctx *evalContext, n graph.Node) bool {
			return ctx.snap.OutDegree(n.ID) > ctx.opts.FanOutMinOutDegree &&
				ctx.snap.InDegree(n.ID) < ctx.opts.FanOutMaxInDegree
		},
	},
	{
		name:   RuleLowReciprocity,
		weight: func(o Options) float64 { return o.LowReciprocityWeight },
		applies: func(ctx *evalContext, n graph.Node) bool {
			return ctx.snap.InDegree(n.ID) > ctx.opts.LowReciprocityMinInDegree &&
				ctx.snap.OutDegree(n.ID) < ctx.opts.LowReciprocityMaxOutDegree
		},
	},
	{
		name:   RuleNoEconomicBacking,
		weight: func(o Options) float64 { return o.NoBackingWeight },
		applies: func(ctx *evalContext, n graph.Node) bool {
			return n.Metadata.Stake == 0 && n.Metadata.PaymentHistory == 0 &&
				ctx.snap.Degree(n.ID) > ctx.opts.NoBackingMinDegree
		},
	},
	{
		name:   RuleEchoChamber,
		weight: func(o Options) float64 { return o.EchoChamberWeight },
		applies: func(ctx *evalContext, n graph.Node) bool {
			if ctx.snap.InDegree(n.ID) <= ctx.opts.EchoChamberMinInDegree {
				return false
			}
			own, ok := ctx.partition.CommunityOf(n.ID)
			if !ok {
				return false
			}
			neighbors := ctx.snap.Neighbors(n.ID)
			if len(neighbors) == 0 {
				return false
			}
			for _, id := range neighbors {
				c, ok := ctx.partition.CommunityOf(id)
				if !ok || c != own {
					return false
				}
			}
			return true
		},
	},
}

// Detect computes per-node fraud probability. Isolated nodes (no edges in
// either direction) always score exactly 0.
func Detect(snap *graph.Snapshot, scores graph.ScoreSnapshot, partition *cluster.Partition, opts Options) RiskMap {
	assessments := Assess(snap, scores, partition, opts)
	risks := make(RiskMap, len(assessments))
	for id, a := range assessments {
		risks[id] = a.Risk
	}
	return risks
}

// Assess computes per-node risk together with the triggered rule names.
func Assess(snap *graph.Snapshot, scores graph.ScoreSnapshot, partition *cluster.Partition, opts Options) map[string]Assessment {
	ctx := &evalContext{
		snap:       snap,
		scores:     scores,
		partition:  partition,
		suspicious: suspiciousCommunities(snap, partition, opts),
		opts:       opts,
	}
	ctx.mean, ctx.std = scoreStats(snap, scores)

	out := make(map[string]Assessment, snap.NodeCount())
	for _, node := range snap.Nodes() {
		if snap.Degree(node.ID) == 0 {
			out[node.ID] = Assessment{Risk: 0}
			continue
		}

		risk := 0.0
		var triggered []string
		for _, r := range rules {
			if r.applies(ctx, node) {
				risk += r.weight(opts)
				triggered = append(triggered, r.name)
			}
		}
		out[node.ID] = Assessment{Risk: math.Min(1, risk), Triggered: triggered}
	}
	return out
}

// suspiciousCommunities flags communities with an anomalously low share of
// external edges: externalRatio = external / (internal+external+1).
func suspiciousCommunities(snap *graph.Snapshot, partition *cluster.Partition, opts Options) map[int]bool {
	internal := make(map[int]int)
	external := make(map[int]int)

	for _, e := range snap.Edges() {
		cs, okS := partition.CommunityOf(e.Source)
		ct, okT := partition.CommunityOf(e.Target)
		if !okS || !okT {
			continue
		}
		if cs == ct {
			internal[cs]++
			continue
		}
		external[cs]++
		external[ct]++
	}

	suspicious := make(map[int]bool)
	for community, size := range partition.CommunitySize {
		if size < opts.MinCommunitySize || size < opts.SuspiciousMinSize {
			continue
		}
		ratio := float64(external[community]) / float64(internal[community]+external[community]+1)
		if ratio < opts.SuspiciousExternalRatio {
			suspicious[community] = true
		}
	}
	return suspicious
}

// scoreStats computes the population mean and standard deviation of the
// score snapshot, reducing in node input order.
func scoreStats(snap *graph.Snapshot, scores graph.ScoreSnapshot) (mean, std float64) {
	nodes := snap.Nodes()
	n := float64(len(nodes))
	if n == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, node := range nodes {
		sum += scores[node.ID]
	}
	mean = sum / n

	variance := 0.0
	for _, node := range nodes {
		d := scores[node.ID] - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}
