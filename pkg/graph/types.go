package graph

import "time"

// EdgeType classifies the interaction an edge represents.
type EdgeType string

const (
	EdgeFollow      EdgeType = "follow"
	EdgeEndorse     EdgeType = "endorse"
	EdgeCollaborate EdgeType = "collaborate"
	EdgeReview      EdgeType = "review"
	EdgePayment     EdgeType = "payment"
	EdgeStake       EdgeType = "stake"
	EdgeTrust       EdgeType = "trust"
)

// NodeMetadata carries per-account signals used by scoring components.
// All fields are optional; zero values mean "signal absent".
type NodeMetadata struct {
	Stake                float64            `json:"stake,omitempty"`
	PaymentHistory       float64            `json:"paymentHistory,omitempty"`
	VerifiedEndorsements int                `json:"verifiedEndorsements,omitempty"`
	ContentQuality       float64            `json:"contentQuality,omitempty"` // 0-100
	ActivityRecency      *time.Time         `json:"activityRecency,omitempty"`
	MinorityGroup        bool               `json:"minorityGroup,omitempty"`
	Extra                map[string]float64 `json:"extra,omitempty"`
}

// Node is a single account in the interaction graph.
type Node struct {
	ID       string       `json:"id"`
	Metadata NodeMetadata `json:"metadata"`
}

// EdgeMetadata carries enhancement signals for a single interaction.
type EdgeMetadata struct {
	EndorsementStrength float64 `json:"endorsementStrength,omitempty"`
	StakeBacked         bool    `json:"stakeBacked,omitempty"`
	PaymentAmount       float64 `json:"paymentAmount,omitempty"`
	Verified            bool    `json:"verified,omitempty"`
}

// Edge is a directed, weighted, timestamped interaction between two nodes.
// Weight is the base strength in [0,1] before enhancement.
type Edge struct {
	Source    string       `json:"source"`
	Target    string       `json:"target"`
	Weight    float64      `json:"weight"`
	Type      EdgeType     `json:"edgeType"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  EdgeMetadata `json:"metadata"`
}

// ScoreSnapshot maps node id to a score. The PageRank pass produces one
// entry per input node with non-negative values.
type ScoreSnapshot map[string]float64

// Sum returns the total score mass, iterating in no particular order.
// Only used for diagnostics; deterministic reductions iterate node order.
func (s ScoreSnapshot) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

// Clone returns an independent copy of the snapshot.
func (s ScoreSnapshot) Clone() ScoreSnapshot {
	out := make(ScoreSnapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
