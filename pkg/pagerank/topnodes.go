package pagerank

import (
	"container/heap"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
)

// rankedNodeHeap implements a min-heap for RankedNode by score.
// Keeping at most N elements with the minimum at the root lets us find
// the top N in O(n log k) without sorting the full score array.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int           { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool { return h[i].Score < h[j].Score } // Min-heap
func (h rankedNodeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// topNodes finds the top N nodes by score, scanning in input order so ties
// resolve deterministically (earlier input wins).
func topNodes(nodes []graph.Node, scores []float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	heap.Init(&h)

	for i, node := range nodes {
		rn := RankedNode{ID: node.ID, Score: scores[i]}
		if h.Len() < n {
			heap.Push(&h, rn)
		} else if rn.Score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	result := make([]RankedNode, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		result[i] = heap.Pop(&h).(RankedNode)
	}

	return result
}

// Top returns the top N ranked nodes from the result.
func (r *Result) Top(n int) []RankedNode {
	if n > len(r.TopNodes) {
		return r.TopNodes
	}
	return r.TopNodes[:n]
}
