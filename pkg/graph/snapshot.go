package graph

// Snapshot is an immutable view of the interaction graph, validated and
// indexed at construction time. All scoring components operate on a
// Snapshot and never mutate it; a fresh Snapshot is built per computation.
//
// Node and edge order is preserved from the input so that floating-point
// reductions are stable and repeated runs on identical input produce
// bit-identical output.
type Snapshot struct {
	nodes []Node
	edges []Edge

	index map[string]int // node id -> position in nodes

	outEdges map[string][]int // node id -> edge positions (input order)
	inEdges  map[string][]int

	// DroppedEdges counts input edges that referenced an unknown node id.
	// Such edges are skipped silently: partial or late-arriving graph data
	// is expected from the ingestion layer and must not abort a run.
	DroppedEdges int
}

// NewSnapshot validates nodes and edges and builds the indexed snapshot.
//
// Validation failures (duplicate node ids, negative or >1 edge weights,
// zero timestamps) return an error matching ErrInvalidGraph and nothing is
// computed. Edges whose source or target is not in the node set are
// dropped, not rejected.
func NewSnapshot(nodes []Node, edges []Edge) (*Snapshot, error) {
	const op = "NewSnapshot"

	s := &Snapshot{
		nodes:    make([]Node, len(nodes)),
		index:    make(map[string]int, len(nodes)),
		outEdges: make(map[string][]int),
		inEdges:  make(map[string][]int),
	}
	copy(s.nodes, nodes)

	for i, n := range s.nodes {
		if _, dup := s.index[n.ID]; dup {
			return nil, invalidGraph(op, n.ID, i, ErrDuplicateNode)
		}
		s.index[n.ID] = i
	}

	s.edges = make([]Edge, 0, len(edges))
	for i, e := range edges {
		if e.Weight < 0 {
			return nil, invalidGraph(op, e.Source, i, ErrNegativeWeight)
		}
		if e.Weight > 1 {
			return nil, invalidGraph(op, e.Source, i, ErrWeightOutOfRange)
		}
		if e.Timestamp.IsZero() {
			return nil, invalidGraph(op, e.Source, i, ErrInvalidTimestamp)
		}
		if _, ok := s.index[e.Source]; !ok {
			s.DroppedEdges++
			continue
		}
		if _, ok := s.index[e.Target]; !ok {
			s.DroppedEdges++
			continue
		}
		pos := len(s.edges)
		s.edges = append(s.edges, e)
		s.outEdges[e.Source] = append(s.outEdges[e.Source], pos)
		s.inEdges[e.Target] = append(s.inEdges[e.Target], pos)
	}

	return s, nil
}

// NodeCount returns the number of nodes in the snapshot.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of retained edges.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

// Nodes returns the nodes in input order. Callers must not mutate it.
func (s *Snapshot) Nodes() []Node { return s.nodes }

// Edges returns the retained edges in input order. Callers must not mutate it.
func (s *Snapshot) Edges() []Edge { return s.edges }

// Node returns the node with the given id.
func (s *Snapshot) Node(id string) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

// HasNode reports whether the id is in the node set.
func (s *Snapshot) HasNode(id string) bool {
	_, ok := s.index[id]
	return ok
}

// OutEdges returns the outgoing edges of a node in input order.
func (s *Snapshot) OutEdges(id string) []Edge {
	return s.edgesAt(s.outEdges[id])
}

// InEdges returns the incoming edges of a node in input order.
func (s *Snapshot) InEdges(id string) []Edge {
	return s.edgesAt(s.inEdges[id])
}

func (s *Snapshot) edgesAt(positions []int) []Edge {
	if len(positions) == 0 {
		return nil
	}
	out := make([]Edge, len(positions))
	for i, p := range positions {
		out[i] = s.edges[p]
	}
	return out
}

// OutDegree returns the number of outgoing edges, self-loops included.
func (s *Snapshot) OutDegree(id string) int { return len(s.outEdges[id]) }

// InDegree returns the number of incoming edges, self-loops included.
func (s *Snapshot) InDegree(id string) int { return len(s.inEdges[id]) }

// Degree returns in-degree plus out-degree.
func (s *Snapshot) Degree(id string) int {
	return len(s.inEdges[id]) + len(s.outEdges[id])
}

// Neighbors returns the distinct neighbor ids of a node (both directions),
// in first-seen edge order. The node itself is excluded even when
// self-loops are present.
func (s *Snapshot) Neighbors(id string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(nid string) {
		if nid == id || seen[nid] {
			return
		}
		seen[nid] = true
		out = append(out, nid)
	}
	for _, p := range s.outEdges[id] {
		add(s.edges[p].Target)
	}
	for _, p := range s.inEdges[id] {
		add(s.edges[p].Source)
	}
	return out
}

// WithoutEdge returns a derived snapshot with the edge at the given
// position removed. Used by the sensitivity auditor's leave-one-out loop;
// the receiver is not modified.
func (s *Snapshot) WithoutEdge(pos int) (*Snapshot, error) {
	if pos < 0 || pos >= len(s.edges) {
		return nil, invalidGraph("WithoutEdge", "", pos, ErrNodeNotFound)
	}
	reduced := make([]Edge, 0, len(s.edges)-1)
	reduced = append(reduced, s.edges[:pos]...)
	reduced = append(reduced, s.edges[pos+1:]...)
	return NewSnapshot(s.nodes, reduced)
}
