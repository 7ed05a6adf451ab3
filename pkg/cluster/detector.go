// Package cluster defines the community-detection collaborator consumed by
// Sybil detection. The engine depends on the detector's output partition,
// never on its internal algorithm: any implementation of Detector can be
// injected at engine construction.
package cluster

// Connection is a weighted link from an account to a target account.
type Connection struct {
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// Account is the detector's view of a node: identity, current reputation
// and its connection list.
type Account struct {
	ID              string             `json:"id"`
	ReputationScore float64            `json:"reputationScore"`
	Connections     []Connection       `json:"connections"`
	Metadata        map[string]float64 `json:"metadata,omitempty"`
}

// Cluster is one detected community.
type Cluster struct {
	Accounts []string `json:"accounts"`
	Size     int      `json:"size"`
}

// Detector partitions accounts into communities.
type Detector interface {
	FindClusters(accounts []Account) ([]Cluster, error)
}

// FeatureWeights weights the similarity features a detector may use.
type FeatureWeights struct {
	SharedConnections  float64 `yaml:"sharedConnections"`
	ConnectionOverlap  float64 `yaml:"connectionOverlap"`
	TemporalSimilarity float64 `yaml:"temporalSimilarity"`
	MetadataSimilarity float64 `yaml:"metadataSimilarity"`
	GraphDistance      float64 `yaml:"graphDistance"`
}

// Config is the configuration surface expected of detector implementations.
// The defaults are tunable starting points, not load-bearing constants.
type Config struct {
	Method         string         `yaml:"method"`
	MinSimilarity  float64        `yaml:"minSimilarity"`
	MinClusterSize int            `yaml:"minClusterSize"`
	MaxClusterSize int            `yaml:"maxClusterSize"`
	FeatureWeights FeatureWeights `yaml:"featureWeights"`
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		Method:         "label-propagation",
		MinSimilarity:  0.25,
		MinClusterSize: 3,
		MaxClusterSize: 1000,
		FeatureWeights: FeatureWeights{
			SharedConnections:  0.3,
			ConnectionOverlap:  0.25,
			TemporalSimilarity: 0.2,
			MetadataSimilarity: 0.15,
			GraphDistance:      0.1,
		},
	}
}
