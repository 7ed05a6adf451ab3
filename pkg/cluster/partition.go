package cluster

import "github.com/dd0wney/cluso-repgraph/pkg/graph"

// Partition assigns every node to a community and records community sizes.
type Partition struct {
	NodeCommunity map[string]int
	CommunitySize map[int]int
}

// CommunityOf returns the community id of a node.
func (p *Partition) CommunityOf(id string) (int, bool) {
	c, ok := p.NodeCommunity[id]
	return c, ok
}

// PartitionFromClusters converts detector output into a Partition.
// Accounts absent from every cluster are assigned fresh singleton
// communities; the detector is never required to cover the full node set.
func PartitionFromClusters(clusters []Cluster, nodeIDs []string) *Partition {
	p := &Partition{
		NodeCommunity: make(map[string]int, len(nodeIDs)),
		CommunitySize: make(map[int]int),
	}

	next := 0
	for _, c := range clusters {
		for _, id := range c.Accounts {
			if _, seen := p.NodeCommunity[id]; seen {
				continue
			}
			p.NodeCommunity[id] = next
			p.CommunitySize[next]++
		}
		next++
	}

	for _, id := range nodeIDs {
		if _, ok := p.NodeCommunity[id]; !ok {
			p.NodeCommunity[id] = next
			p.CommunitySize[next] = 1
			next++
		}
	}

	return p
}

// AccountsFromSnapshot builds the detector input from a graph snapshot and
// the current score snapshot, preserving node and edge input order.
func AccountsFromSnapshot(snap *graph.Snapshot, scores graph.ScoreSnapshot) []Account {
	accounts := make([]Account, 0, snap.NodeCount())
	for _, node := range snap.Nodes() {
		acct := Account{
			ID:              node.ID,
			ReputationScore: scores[node.ID],
		}
		for _, e := range snap.OutEdges(node.ID) {
			acct.Connections = append(acct.Connections, Connection{Target: e.Target, Weight: e.Weight})
		}
		accounts = append(accounts, acct)
	}
	return accounts
}
