// Package pagerank implements a temporally-decayed, economically-weighted
// PageRank variant over an interaction graph snapshot.
//
// Edge weights are enhanced by economic signals (stake backing, payment
// volume, verification) and then blended with an exponential recency
// factor before the standard power iteration runs. Node and edge
// processing follows snapshot input order so repeated runs on identical
// input produce bit-identical scores.
package pagerank

import (
	"math"
	"time"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

const hoursPerYear = 24 * 365

// Result contains PageRank scores for all nodes.
type Result struct {
	Scores     graph.ScoreSnapshot // Node ID -> PageRank score
	Iterations int                 // Number of iterations performed
	Converged  bool                // Whether algorithm converged
	Elapsed    time.Duration
	TopNodes   []RankedNode // Top nodes by score, descending
}

// RankedNode represents a node with its rank.
type RankedNode struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Compute runs the power iteration over the snapshot.
//
// Non-convergence is not an error: after MaxIterations the last computed
// scores are returned with Converged=false and the caller decides policy.
// An empty node set yields an empty score map, zero iterations and
// Converged=true.
func Compute(snap *graph.Snapshot, opts Options) (*Result, error) {
	start := time.Now()

	nodes := snap.Nodes()
	n := len(nodes)
	if n == 0 {
		return &Result{
			Scores:    make(graph.ScoreSnapshot),
			Converged: true,
			Elapsed:   time.Since(start),
		}, nil
	}

	index := make(map[string]int, n)
	for i, node := range nodes {
		index[node.ID] = i
	}

	// Resolve final edge weights once. Self-loops are permitted as input
	// but excluded from mass transfer.
	type link struct {
		source, target int
		weight         float64
	}
	links := make([]link, 0, snap.EdgeCount())
	totalOut := make([]float64, n)
	now := opts.now()
	for _, e := range snap.Edges() {
		if e.Source == e.Target {
			continue
		}
		src := index[e.Source]
		w := finalEdgeWeight(e, nodes[src].Metadata, now, opts)
		if w <= 0 {
			continue
		}
		links = append(links, link{source: src, target: index[e.Target], weight: w})
		totalOut[src] += w
	}

	scores := make([]float64, n)
	newScores := make([]float64, n)
	initial := 1.0 / float64(n)
	for i := range scores {
		scores[i] = initial
	}

	base := (1.0 - opts.DampingFactor) / float64(n)
	converged := false
	iterations := 0

	for iterations < opts.MaxIterations {
		iterations++

		// Nodes with zero weighted out-degree redistribute their mass
		// uniformly (rank-sink fix): without it mass converging on
		// dangling nodes leaks out of the distribution.
		dangling := 0.0
		for i := 0; i < n; i++ {
			if totalOut[i] <= 0 {
				dangling += scores[i]
			}
		}
		seed := base + opts.DampingFactor*dangling/float64(n)
		for i := range newScores {
			newScores[i] = seed
		}

		for _, l := range links {
			newScores[l.target] += opts.DampingFactor * scores[l.source] * l.weight / totalOut[l.source]
		}

		maxDiff := 0.0
		for i := range scores {
			diff := math.Abs(newScores[i] - scores[i])
			if diff > maxDiff {
				maxDiff = diff
			}
		}

		scores, newScores = newScores, scores

		if maxDiff < opts.Tolerance {
			converged = true
			break
		}
	}

	out := make(graph.ScoreSnapshot, n)
	for i, node := range nodes {
		out[node.ID] = scores[i]
	}

	return &Result{
		Scores:     out,
		Iterations: iterations,
		Converged:  converged,
		Elapsed:    time.Since(start),
		TopNodes:   topNodes(nodes, scores, 10),
	}, nil
}

// finalEdgeWeight applies economic enhancement and the recency blend to a
// single edge's base weight.
func finalEdgeWeight(e graph.Edge, source graph.NodeMetadata, now time.Time, opts Options) float64 {
	enhanced := e.Weight
	if e.Metadata.StakeBacked {
		enhanced *= 1 + opts.StakeWeight
	}
	if e.Metadata.PaymentAmount > 0 {
		enhanced *= 1 + opts.PaymentWeight*math.Min(1, math.Log10(1+e.Metadata.PaymentAmount)/10)
	}
	if e.Metadata.Verified {
		enhanced *= opts.VerifiedBoost
	}
	if source.ContentQuality > 0 {
		enhanced *= 1 + opts.QualityWeight*math.Min(1, source.ContentQuality/100)
	}

	ageYears := now.Sub(e.Timestamp).Hours() / hoursPerYear
	if ageYears < 0 {
		ageYears = 0
	}
	ageFactor := math.Exp(-opts.TemporalDecay * ageYears)

	// Recency floor: recent edges keep their enhanced value; old edges
	// asymptotically approach RecencyWeight of it.
	return enhanced * (opts.RecencyWeight + (1-opts.RecencyWeight)*ageFactor)
}
