package pagerank

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

// randomSnapshot builds a deterministic pseudo-random graph for a seed.
func randomSnapshot(n int, seed int64) *graph.Snapshot {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	nodes := make([]graph.Node, n)
	for i := range nodes {
		nodes[i] = graph.Node{ID: fmt.Sprintf("n%03d", i)}
		if rng.Intn(3) == 0 {
			nodes[i].Metadata.Stake = rng.Float64() * 1000
		}
	}

	edgeCount := rng.Intn(3*n + 1)
	edges := make([]graph.Edge, 0, edgeCount)
	for i := 0; i < edgeCount; i++ {
		src := nodes[rng.Intn(n)].ID
		dst := nodes[rng.Intn(n)].ID
		edges = append(edges, graph.Edge{
			Source:    src,
			Target:    dst,
			Weight:    rng.Float64(),
			Type:      graph.EdgeFollow,
			Timestamp: base.AddDate(0, 0, -rng.Intn(1000)),
		})
	}

	snap, err := graph.NewSnapshot(nodes, edges)
	if err != nil {
		panic(err)
	}
	return snap
}

// TestScoringInvariants uses property-based testing to verify PageRank
// invariants that must hold for any valid input graph.
func TestScoringInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	opts := DefaultOptions()
	opts.Now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Property 1: total score mass is 1 regardless of topology
	properties.Property("score mass sums to one", prop.ForAll(
		func(n int, seed int64) bool {
			snap := randomSnapshot(n, seed)
			result, err := Compute(snap, opts)
			if err != nil {
				return false
			}
			return math.Abs(result.Scores.Sum()-1) < 1e-9
		},
		gen.IntRange(1, 30),
		gen.Int64(),
	))

	// Property 2: every score is strictly positive
	properties.Property("scores are positive", prop.ForAll(
		func(n int, seed int64) bool {
			snap := randomSnapshot(n, seed)
			result, err := Compute(snap, opts)
			if err != nil {
				return false
			}
			for _, s := range result.Scores {
				if s <= 0 {
					return false
				}
			}
			return len(result.Scores) == n
		},
		gen.IntRange(1, 30),
		gen.Int64(),
	))

	// Property 3: two runs over the same input are bit-identical
	properties.Property("repeated runs are bit-identical", prop.ForAll(
		func(n int, seed int64) bool {
			first, err := Compute(randomSnapshot(n, seed), opts)
			if err != nil {
				return false
			}
			second, err := Compute(randomSnapshot(n, seed), opts)
			if err != nil {
				return false
			}
			for id, s := range first.Scores {
				if second.Scores[id] != s {
					return false
				}
			}
			return first.Iterations == second.Iterations
		},
		gen.IntRange(1, 30),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
