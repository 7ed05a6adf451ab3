package engine

import (
	"errors"
	"time"

	"github.com/dd0wney/cluso-repgraph/pkg/cluster"
	"github.com/dd0wney/cluso-repgraph/pkg/hybrid"
	"github.com/dd0wney/cluso-repgraph/pkg/pagerank"
	"github.com/dd0wney/cluso-repgraph/pkg/smoothing"
	"github.com/dd0wney/cluso-repgraph/pkg/sybil"
	"github.com/dd0wney/cluso-repgraph/pkg/validation"
)

// PageRankConfig mirrors pagerank.Options in a form suitable for a YAML
// config file. Zero values mean "use the default".
type PageRankConfig struct {
	DampingFactor float64 `yaml:"dampingFactor"`
	MaxIterations int     `yaml:"maxIterations"`
	Tolerance     float64 `yaml:"tolerance"`
	TemporalDecay float64 `yaml:"temporalDecay"`
	RecencyWeight float64 `yaml:"recencyWeight"`
	StakeWeight   float64 `yaml:"stakeWeight"`
	PaymentWeight float64 `yaml:"paymentWeight"`
	QualityWeight float64 `yaml:"qualityWeight"`
	VerifiedBoost float64 `yaml:"verifiedBoost"`
}

func (c PageRankConfig) options(now time.Time) pagerank.Options {
	opts := pagerank.DefaultOptions()
	opts.DampingFactor = validation.DefaultOrFloat(c.DampingFactor, opts.DampingFactor)
	opts.MaxIterations = validation.DefaultOrInt(c.MaxIterations, opts.MaxIterations)
	opts.Tolerance = validation.DefaultOrFloat(c.Tolerance, opts.Tolerance)
	opts.TemporalDecay = validation.DefaultOrFloat(c.TemporalDecay, opts.TemporalDecay)
	opts.RecencyWeight = validation.DefaultOrFloat(c.RecencyWeight, opts.RecencyWeight)
	opts.StakeWeight = validation.DefaultOrFloat(c.StakeWeight, opts.StakeWeight)
	opts.PaymentWeight = validation.DefaultOrFloat(c.PaymentWeight, opts.PaymentWeight)
	opts.QualityWeight = validation.DefaultOrFloat(c.QualityWeight, opts.QualityWeight)
	opts.VerifiedBoost = validation.DefaultOrFloat(c.VerifiedBoost, opts.VerifiedBoost)
	opts.Now = now
	return opts
}

// SybilConfig controls the Sybil audit stage.
type SybilConfig struct {
	Enabled bool `yaml:"enabled"`

	// ApplyPenalty discounts final scores by a tiered risk penalty.
	ApplyPenalty bool `yaml:"applyPenalty"`

	// RiskThreshold is the risk at or above which a node is reported as
	// flagged.
	RiskThreshold float64 `yaml:"riskThreshold"`

	// Rules tunes the detection ensemble itself.
	Rules SybilRulesConfig `yaml:"rules"`
}

// SybilRulesConfig mirrors sybil.Options in a form suitable for a YAML
// config file. Zero values mean "use the default".
type SybilRulesConfig struct {
	SuspiciousExternalRatio float64 `yaml:"suspiciousExternalRatio"`
	SuspiciousMinSize       int     `yaml:"suspiciousMinSize"`
	MinCommunitySize        int     `yaml:"minCommunitySize"`

	SuspiciousCommunityWeight float64 `yaml:"suspiciousCommunityWeight"`
	LowRankWeight             float64 `yaml:"lowRankWeight"`
	FanOutWeight              float64 `yaml:"fanOutWeight"`
	LowReciprocityWeight      float64 `yaml:"lowReciprocityWeight"`
	NoBackingWeight           float64 `yaml:"noBackingWeight"`
	EchoChamberWeight         float64 `yaml:"echoChamberWeight"`

	// LowRankZScore is negative when set; zero means the default.
	LowRankZScore              float64 `yaml:"lowRankZScore"`
	LowRankMinInDegree         int     `yaml:"lowRankMinInDegree"`
	FanOutMinOutDegree         int     `yaml:"fanOutMinOutDegree"`
	FanOutMaxInDegree          int     `yaml:"fanOutMaxInDegree"`
	LowReciprocityMinInDegree  int     `yaml:"lowReciprocityMinInDegree"`
	LowReciprocityMaxOutDegree int     `yaml:"lowReciprocityMaxOutDegree"`
	NoBackingMinDegree         int     `yaml:"noBackingMinDegree"`
	EchoChamberMinInDegree     int     `yaml:"echoChamberMinInDegree"`
}

func (c SybilRulesConfig) options() sybil.Options {
	opts := sybil.DefaultOptions()
	opts.SuspiciousExternalRatio = validation.DefaultOrFloat(c.SuspiciousExternalRatio, opts.SuspiciousExternalRatio)
	opts.SuspiciousMinSize = validation.DefaultOrInt(c.SuspiciousMinSize, opts.SuspiciousMinSize)
	opts.MinCommunitySize = validation.DefaultOrInt(c.MinCommunitySize, opts.MinCommunitySize)

	opts.SuspiciousCommunityWeight = validation.DefaultOrFloat(c.SuspiciousCommunityWeight, opts.SuspiciousCommunityWeight)
	opts.LowRankWeight = validation.DefaultOrFloat(c.LowRankWeight, opts.LowRankWeight)
	opts.FanOutWeight = validation.DefaultOrFloat(c.FanOutWeight, opts.FanOutWeight)
	opts.LowReciprocityWeight = validation.DefaultOrFloat(c.LowReciprocityWeight, opts.LowReciprocityWeight)
	opts.NoBackingWeight = validation.DefaultOrFloat(c.NoBackingWeight, opts.NoBackingWeight)
	opts.EchoChamberWeight = validation.DefaultOrFloat(c.EchoChamberWeight, opts.EchoChamberWeight)

	if c.LowRankZScore < 0 {
		opts.LowRankZScore = c.LowRankZScore
	}
	opts.LowRankMinInDegree = validation.DefaultOrInt(c.LowRankMinInDegree, opts.LowRankMinInDegree)
	opts.FanOutMinOutDegree = validation.DefaultOrInt(c.FanOutMinOutDegree, opts.FanOutMinOutDegree)
	opts.FanOutMaxInDegree = validation.DefaultOrInt(c.FanOutMaxInDegree, opts.FanOutMaxInDegree)
	opts.LowReciprocityMinInDegree = validation.DefaultOrInt(c.LowReciprocityMinInDegree, opts.LowReciprocityMinInDegree)
	opts.LowReciprocityMaxOutDegree = validation.DefaultOrInt(c.LowReciprocityMaxOutDegree, opts.LowReciprocityMaxOutDegree)
	opts.NoBackingMinDegree = validation.DefaultOrInt(c.NoBackingMinDegree, opts.NoBackingMinDegree)
	opts.EchoChamberMinInDegree = validation.DefaultOrInt(c.EchoChamberMinInDegree, opts.EchoChamberMinInDegree)
	return opts
}

// FairnessConfig controls the fairness audit stage.
type FairnessConfig struct {
	Enabled bool `yaml:"enabled"`

	// Adjust rescales scores toward proportional minority representation.
	Adjust         bool    `yaml:"adjust"`
	AdjustStrength float64 `yaml:"adjustStrength"`
}

// SensitivityConfig controls leave-one-out auditing of top-ranked nodes.
type SensitivityConfig struct {
	Enabled bool `yaml:"enabled"`

	// TopK is how many of the highest-scored nodes are audited.
	TopK int `yaml:"topK"`

	// MaxEdges caps recomputations per audited node; 0 means no cap.
	MaxEdges int `yaml:"maxEdges"`
}

// Config is the full pipeline configuration.
type Config struct {
	PageRank    PageRankConfig    `yaml:"pagerank"`
	Cluster     cluster.Config    `yaml:"cluster"`
	Sybil       SybilConfig       `yaml:"sybil"`
	Fairness    FairnessConfig    `yaml:"fairness"`
	Hybrid      hybrid.Weights    `yaml:"hybridWeights"`
	Smoothing   smoothing.Options `yaml:"smoothing"`
	Sensitivity SensitivityConfig `yaml:"sensitivity"`
}

// DefaultConfig returns the pipeline defaults: all audits on, score
// penalties on, fairness adjustment and sensitivity off.
func DefaultConfig() Config {
	return Config{
		Cluster: cluster.DefaultConfig(),
		Sybil: SybilConfig{
			Enabled:       true,
			ApplyPenalty:  true,
			RiskThreshold: 0.7,
		},
		Fairness: FairnessConfig{
			Enabled:        true,
			AdjustStrength: 0.2,
		},
		Hybrid:    hybrid.DefaultWeights(),
		Smoothing: smoothing.DefaultOptions(),
		Sensitivity: SensitivityConfig{
			TopK: 5,
		},
	}
}

// Validate checks the configured values. Zero values pass since they are
// replaced by defaults at run time.
func (c Config) Validate() error {
	cv := validation.NewConfigValidator("engine.Config")

	cv.When(c.PageRank.DampingFactor != 0, func(v *validation.ConfigValidator) {
		v.OpenRangeFloat("PageRank.DampingFactor", c.PageRank.DampingFactor, 0, 1)
	})
	cv.NonNegative("PageRank.MaxIterations", c.PageRank.MaxIterations)
	cv.NonNegativeFloat("PageRank.Tolerance", c.PageRank.Tolerance)
	cv.NonNegativeFloat("PageRank.TemporalDecay", c.PageRank.TemporalDecay)
	cv.RangeFloat("PageRank.RecencyWeight", c.PageRank.RecencyWeight, 0, 1)
	cv.NonNegativeFloat("PageRank.StakeWeight", c.PageRank.StakeWeight)
	cv.NonNegativeFloat("PageRank.PaymentWeight", c.PageRank.PaymentWeight)
	cv.NonNegativeFloat("PageRank.QualityWeight", c.PageRank.QualityWeight)

	cv.RangeFloat("Sybil.RiskThreshold", c.Sybil.RiskThreshold, 0, 1)
	cv.RangeFloat("Sybil.Rules.SuspiciousExternalRatio", c.Sybil.Rules.SuspiciousExternalRatio, 0, 1)
	cv.NonNegative("Sybil.Rules.SuspiciousMinSize", c.Sybil.Rules.SuspiciousMinSize)
	cv.NonNegative("Sybil.Rules.MinCommunitySize", c.Sybil.Rules.MinCommunitySize)
	cv.RangeFloat("Sybil.Rules.SuspiciousCommunityWeight", c.Sybil.Rules.SuspiciousCommunityWeight, 0, 1)
	cv.RangeFloat("Sybil.Rules.LowRankWeight", c.Sybil.Rules.LowRankWeight, 0, 1)
	cv.RangeFloat("Sybil.Rules.FanOutWeight", c.Sybil.Rules.FanOutWeight, 0, 1)
	cv.RangeFloat("Sybil.Rules.LowReciprocityWeight", c.Sybil.Rules.LowReciprocityWeight, 0, 1)
	cv.RangeFloat("Sybil.Rules.NoBackingWeight", c.Sybil.Rules.NoBackingWeight, 0, 1)
	cv.RangeFloat("Sybil.Rules.EchoChamberWeight", c.Sybil.Rules.EchoChamberWeight, 0, 1)
	cv.Custom("Sybil.Rules.LowRankZScore", func() error {
		if c.Sybil.Rules.LowRankZScore > 0 {
			return errors.New("must be zero (default) or negative")
		}
		return nil
	})
	cv.NonNegative("Sybil.Rules.LowRankMinInDegree", c.Sybil.Rules.LowRankMinInDegree)
	cv.NonNegative("Sybil.Rules.FanOutMinOutDegree", c.Sybil.Rules.FanOutMinOutDegree)
	cv.NonNegative("Sybil.Rules.FanOutMaxInDegree", c.Sybil.Rules.FanOutMaxInDegree)
	cv.NonNegative("Sybil.Rules.LowReciprocityMinInDegree", c.Sybil.Rules.LowReciprocityMinInDegree)
	cv.NonNegative("Sybil.Rules.LowReciprocityMaxOutDegree", c.Sybil.Rules.LowReciprocityMaxOutDegree)
	cv.NonNegative("Sybil.Rules.NoBackingMinDegree", c.Sybil.Rules.NoBackingMinDegree)
	cv.NonNegative("Sybil.Rules.EchoChamberMinInDegree", c.Sybil.Rules.EchoChamberMinInDegree)

	cv.RangeFloat("Fairness.AdjustStrength", c.Fairness.AdjustStrength, 0, 1)

	cv.NonNegativeFloat("Hybrid.Graph", c.Hybrid.Graph)
	cv.NonNegativeFloat("Hybrid.Quality", c.Hybrid.Quality)
	cv.NonNegativeFloat("Hybrid.Stake", c.Hybrid.Stake)
	cv.NonNegativeFloat("Hybrid.Payment", c.Hybrid.Payment)

	cv.NonNegative("Smoothing.WindowSize", c.Smoothing.WindowSize)
	cv.RangeFloat("Smoothing.Decay", c.Smoothing.Decay, 0, 1)

	cv.When(c.Sensitivity.Enabled, func(v *validation.ConfigValidator) {
		v.Positive("Sensitivity.TopK", c.Sensitivity.TopK)
	})
	cv.NonNegative("Sensitivity.MaxEdges", c.Sensitivity.MaxEdges)

	return cv.Validate()
}
