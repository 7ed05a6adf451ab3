package pagerank

import "time"

// Options configures the temporal PageRank engine. Every constant in the
// scoring model is a field here; nothing is hardcoded out of reach.
type Options struct {
	DampingFactor float64 // Usually 0.85
	MaxIterations int
	Tolerance     float64 // Convergence threshold

	// TemporalDecay controls the exponential age factor
	// exp(-TemporalDecay * ageInYears).
	TemporalDecay float64

	// RecencyWeight is the floor of the recency blend: an edge's final
	// weight never drops below RecencyWeight of its enhanced value no
	// matter how old it is.
	RecencyWeight float64

	// StakeWeight boosts stake-backed edges by (1 + StakeWeight).
	StakeWeight float64

	// PaymentWeight scales the log-compressed payment boost.
	PaymentWeight float64

	// QualityWeight boosts edges from high-quality sources by
	// (1 + QualityWeight * contentQuality/100).
	QualityWeight float64

	// VerifiedBoost multiplies the weight of verified edges.
	VerifiedBoost float64

	// Now anchors edge age computation. Zero value means time.Now();
	// inject a fixed clock for reproducible runs.
	Now time.Time
}

// DefaultOptions returns the default engine configuration.
func DefaultOptions() Options {
	return Options{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
		TemporalDecay: 0.1,
		RecencyWeight: 0.3,
		StakeWeight:   0.2,
		PaymentWeight: 0.15,
		QualityWeight: 0.1,
		VerifiedBoost: 1.2,
	}
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}
