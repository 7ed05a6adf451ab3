package cluster

// LabelPropagation is the reference Detector implementation: fast,
// deterministic label propagation over the undirected account graph.
// Production deployments typically inject an external detector; this one
// keeps the pipeline runnable without a collaborator.
type LabelPropagation struct {
	cfg           Config
	MaxIterations int
}

// NewLabelPropagation creates a label propagation detector.
func NewLabelPropagation(cfg Config) *LabelPropagation {
	return &LabelPropagation{cfg: cfg, MaxIterations: 50}
}

// FindClusters partitions accounts by iterative majority-label adoption.
// Accounts are processed in input order and label ties resolve to the
// lowest label so repeated runs produce identical clusters.
func (lp *LabelPropagation) FindClusters(accounts []Account) ([]Cluster, error) {
	n := len(accounts)
	if n == 0 {
		return nil, nil
	}

	index := make(map[string]int, n)
	for i, a := range accounts {
		index[a.ID] = i
	}

	// Undirected adjacency: an account neighbors everyone it connects to
	// plus everyone connecting to it.
	neighbors := make([][]int, n)
	for i, a := range accounts {
		for _, c := range a.Connections {
			j, ok := index[c.Target]
			if !ok || j == i {
				continue
			}
			neighbors[i] = append(neighbors[i], j)
			neighbors[j] = append(neighbors[j], i)
		}
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}

	maxIter := lp.MaxIterations
	if maxIter <= 0 {
		maxIter = 50
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		for i := range accounts {
			if len(neighbors[i]) == 0 {
				continue
			}

			counts := make(map[int]int)
			for _, j := range neighbors[i] {
				counts[labels[j]]++
			}

			best := labels[i]
			bestCount := 0
			for label, count := range counts {
				if count > bestCount || (count == bestCount && label < best) {
					best = label
					bestCount = count
				}
			}

			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}

		if !changed {
			break // Converged
		}
	}

	// Build clusters from labels in account order.
	members := make(map[int][]string)
	var order []int
	for i, a := range accounts {
		if _, seen := members[labels[i]]; !seen {
			order = append(order, labels[i])
		}
		members[labels[i]] = append(members[labels[i]], a.ID)
	}

	clusters := make([]Cluster, 0, len(order))
	for _, label := range order {
		ids := members[label]
		if len(ids) < lp.cfg.MinClusterSize {
			continue // Below the size floor; caller assigns singletons
		}
		if lp.cfg.MaxClusterSize > 0 && len(ids) > lp.cfg.MaxClusterSize {
			continue
		}
		clusters = append(clusters, Cluster{Accounts: ids, Size: len(ids)})
	}

	return clusters, nil
}
