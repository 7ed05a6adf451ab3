package sybil

// Options names every threshold and signal weight of the detection
// ensemble. Signals combine additively and the total is capped at 1;
// additive capping saturates faster than a probabilistic combination but
// keeps each rule independently explainable.
type Options struct {
	// Community analysis thresholds.
	SuspiciousExternalRatio float64 // community flagged below this external ratio
	SuspiciousMinSize       int     // and at least this many members
	MinCommunitySize        int     // communities smaller than this are never evaluated

	// Signal weights.
	SuspiciousCommunityWeight float64
	LowRankWeight             float64
	FanOutWeight              float64
	LowReciprocityWeight      float64
	NoBackingWeight           float64
	EchoChamberWeight         float64

	// Signal thresholds.
	LowRankZScore              float64 // z-score below this is anomalous
	LowRankMinInDegree         int
	FanOutMinOutDegree         int
	FanOutMaxInDegree          int
	LowReciprocityMinInDegree  int
	LowReciprocityMaxOutDegree int
	NoBackingMinDegree         int
	EchoChamberMinInDegree     int
}

// DefaultOptions returns the default ensemble configuration.
func DefaultOptions() Options {
	return Options{
		SuspiciousExternalRatio: 0.1,
		SuspiciousMinSize:       5,
		MinCommunitySize:        3,

		SuspiciousCommunityWeight: 0.5,
		LowRankWeight:             0.3,
		FanOutWeight:              0.2,
		LowReciprocityWeight:      0.2,
		NoBackingWeight:           0.2,
		EchoChamberWeight:         0.2,

		LowRankZScore:              -1,
		LowRankMinInDegree:         5,
		FanOutMinOutDegree:         20,
		FanOutMaxInDegree:          2,
		LowReciprocityMinInDegree:  10,
		LowReciprocityMaxOutDegree: 2,
		NoBackingMinDegree:         10,
		EchoChamberMinInDegree:     5,
	}
}
