// Package smoothing dampens score volatility by blending the current
// snapshot with a rolling window of historical snapshots.
package smoothing

import (
	"math"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

// Defaults for the rolling window.
const (
	DefaultWindowSize = 5
	DefaultDecay      = 0.8
)

// Options configures the rolling window.
type Options struct {
	// WindowSize is the maximum number of historical snapshots
	// considered; 0 means DefaultWindowSize.
	WindowSize int `yaml:"windowSize" json:"windowSize"`

	// Decay is the per-step weight multiplier applied to older
	// snapshots; 0 means DefaultDecay.
	Decay float64 `yaml:"decay" json:"decay"`
}

// DefaultOptions returns the standard 5-snapshot window.
func DefaultOptions() Options {
	return Options{WindowSize: DefaultWindowSize, Decay: DefaultDecay}
}

// Smooth blends current with the trailing window of history.
//
// History is ordered oldest first; only the last WindowSize entries are
// used. The current snapshot has weight 1 and a snapshot k steps behind
// it has weight decay^k. A node missing from a historical snapshot
// contributes 0 at that snapshot's weight, so nodes absent from history
// are pulled toward zero rather than left untouched. With no history
// the current snapshot is returned unchanged.
func Smooth(current graph.ScoreSnapshot, history []graph.ScoreSnapshot, opts Options) graph.ScoreSnapshot {
	window := opts.WindowSize
	if window <= 0 {
		window = DefaultWindowSize
	}
	decay := opts.Decay
	if decay <= 0 {
		decay = DefaultDecay
	}

	if len(history) == 0 {
		return current.Clone()
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	totalWeight := 1.0
	for k := 1; k <= len(history); k++ {
		totalWeight += math.Pow(decay, float64(k))
	}

	out := make(graph.ScoreSnapshot, len(current))
	for id, score := range current {
		sum := score
		for k := 1; k <= len(history); k++ {
			past := history[len(history)-k]
			sum += math.Pow(decay, float64(k)) * past[id]
		}
		out[id] = sum / totalWeight
	}
	return out
}
