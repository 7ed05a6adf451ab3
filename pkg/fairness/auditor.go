// Package fairness audits score distributions for inequality and group
// bias, and can rescale scores to counter measured under-representation
// without changing the total score mass.
package fairness

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

// DefaultAdjustStrength is the default boost strength for Adjust.
const DefaultAdjustStrength = 0.2

// Report contains the bias metrics for one score snapshot.
type Report struct {
	// Gini is the inequality coefficient of the score distribution:
	// 0 is perfect equality, 1 maximal inequality.
	Gini float64 `json:"gini"`

	// MinorityRepresentation is the ratio of minority share in the top
	// decile to minority share overall. 1 means proportional
	// representation; below 1 means under-representation. Defined as 1
	// when no nodes carry the minority label.
	MinorityRepresentation float64 `json:"minorityRepresentation"`

	// TopDecileDiversity is the normalized Shannon entropy of the
	// minority/majority split within the top decile.
	TopDecileDiversity float64 `json:"topDecileDiversity"`

	// BiasScore blends representation and diversity shortfalls. At most 1
	// (maximal bias against the minority); negative when the minority is
	// over-represented in the top decile.
	BiasScore float64 `json:"biasScore"`

	// GroupStats breaks the distribution down per label group.
	GroupStats map[string]GroupStats `json:"groupStats,omitempty"`
}

// GroupStats summarizes one label group's score distribution.
type GroupStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Audit computes bias metrics over the scores of the given nodes.
func Audit(scores graph.ScoreSnapshot, nodes []graph.Node) Report {
	n := len(nodes)
	if n == 0 {
		return Report{MinorityRepresentation: 1, TopDecileDiversity: 1}
	}

	ordered := make([]float64, n)
	for i, node := range nodes {
		ordered[i] = scores[node.ID]
	}

	report := Report{
		Gini:       gini(ordered),
		GroupStats: groupStats(scores, nodes),
	}

	// Top decile by score, ties broken by input order.
	type ranked struct {
		idx   int
		score float64
	}
	byScore := make([]ranked, n)
	for i := range ordered {
		byScore[i] = ranked{idx: i, score: ordered[i]}
	}
	sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].score > byScore[j].score })

	decileSize := n / 10
	if decileSize < 1 {
		decileSize = 1
	}

	minorityTotal := 0
	for _, node := range nodes {
		if node.Metadata.MinorityGroup {
			minorityTotal++
		}
	}
	minorityTop := 0
	for _, r := range byScore[:decileSize] {
		if nodes[r.idx].Metadata.MinorityGroup {
			minorityTop++
		}
	}

	if minorityTotal == 0 {
		// No minority-labeled nodes: there is no bias to measure.
		report.MinorityRepresentation = 1
	} else {
		overallShare := float64(minorityTotal) / float64(n)
		topShare := float64(minorityTop) / float64(decileSize)
		report.MinorityRepresentation = topShare / overallShare
	}

	report.TopDecileDiversity = labelEntropy(minorityTop, decileSize)
	report.BiasScore = 0.5*(1-report.MinorityRepresentation) + 0.5*(1-report.TopDecileDiversity)

	return report
}

// Adjust boosts minority-labeled scores when the minority mean lags the
// population mean, then renormalizes so the total score mass is unchanged.
// Mass conservation is an invariant: sum(adjusted) == sum(original) within
// floating-point tolerance.
func Adjust(scores graph.ScoreSnapshot, nodes []graph.Node, strength float64) graph.ScoreSnapshot {
	adjusted := scores.Clone()
	if len(nodes) == 0 {
		return adjusted
	}

	total := 0.0
	minoritySum := 0.0
	minorityCount := 0
	for _, node := range nodes {
		s := scores[node.ID]
		total += s
		if node.Metadata.MinorityGroup {
			minoritySum += s
			minorityCount++
		}
	}
	if minorityCount == 0 || minorityCount == len(nodes) || minoritySum == 0 {
		return adjusted
	}

	mean := total / float64(len(nodes))
	minorityMean := minoritySum / float64(minorityCount)
	if minorityMean >= mean {
		return adjusted
	}

	boost := (mean/minorityMean - 1) * strength
	for _, node := range nodes {
		if node.Metadata.MinorityGroup {
			adjusted[node.ID] = scores[node.ID] * (1 + boost)
		}
	}

	// Renormalize to the original mass, reducing in node input order.
	adjustedTotal := 0.0
	for _, node := range nodes {
		adjustedTotal += adjusted[node.ID]
	}
	if adjustedTotal > 0 {
		scale := total / adjustedTotal
		for _, node := range nodes {
			adjusted[node.ID] *= scale
		}
	}

	return adjusted
}

// gini computes Sum_i Sum_j |s_i - s_j| / (2 n^2 mean).
func gini(scores []float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if sum == 0 {
		return 0
	}
	mean := sum / float64(n)

	diff := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			diff += math.Abs(scores[i] - scores[j])
		}
	}
	return diff / (2 * float64(n) * float64(n) * mean)
}

// labelEntropy is the Shannon entropy of the binary minority/majority
// split within a decile of the given size, normalized to [0,1].
func labelEntropy(minority, size int) float64 {
	if size < 2 {
		// A single slot cannot be diverse; treated as undefined -> 1.
		return 1
	}
	p := float64(minority) / float64(size)
	if p == 0 || p == 1 {
		return 0
	}
	h := -p*math.Log2(p) - (1-p)*math.Log2(1-p)
	return h / math.Log2(2)
}

func groupStats(scores graph.ScoreSnapshot, nodes []graph.Node) map[string]GroupStats {
	stats := make(map[string]GroupStats, 2)
	for _, node := range nodes {
		label := "majority"
		if node.Metadata.MinorityGroup {
			label = "minority"
		}
		s := scores[node.ID]
		g, ok := stats[label]
		if !ok {
			g = GroupStats{Min: s, Max: s}
		}
		g.Count++
		g.Mean += s
		if s < g.Min {
			g.Min = s
		}
		if s > g.Max {
			g.Max = s
		}
		stats[label] = g
	}
	for label, g := range stats {
		g.Mean /= float64(g.Count)
		stats[label] = g
	}
	return stats
}
