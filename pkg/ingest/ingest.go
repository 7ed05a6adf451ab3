// Package ingest decodes graph documents from JSON and converts them
// into scoring inputs, validating every record on the way in.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dd0wney/cluso-repgraph/pkg/graph"
	"github.com/dd0wney/cluso-repgraph/pkg/validation"
)

// Document is the top-level wire form of an interaction graph.
type Document struct {
	Version string                    `json:"version,omitempty"`
	Nodes   []validation.NodeDocument `json:"nodes"`
	Edges   []validation.EdgeDocument `json:"edges"`
	History []map[string]float64      `json:"history,omitempty"`
}

// Graph is the decoded, validated form ready for scoring.
type Graph struct {
	Version string
	Nodes   []graph.Node
	Edges   []graph.Edge
	History []graph.ScoreSnapshot
}

// Decode reads a JSON graph document and converts it. The first invalid
// record aborts the decode with its position in the error.
func Decode(r io.Reader) (*Graph, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph document: %w", err)
	}
	return Convert(&doc)
}

// Convert validates every node and edge document and maps them to graph
// types. Timestamps are RFC3339.
func Convert(doc *Document) (*Graph, error) {
	if err := validation.ValidateBatchSize(len(doc.Nodes)); err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}

	out := &Graph{
		Version: doc.Version,
		Nodes:   make([]graph.Node, 0, len(doc.Nodes)),
		Edges:   make([]graph.Edge, 0, len(doc.Edges)),
	}

	for i := range doc.Nodes {
		nd := &doc.Nodes[i]
		if err := validation.ValidateNodeDocument(nd); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, nd.ID, err)
		}
		node, err := nodeFromDocument(nd)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, nd.ID, err)
		}
		out.Nodes = append(out.Nodes, node)
	}

	for i := range doc.Edges {
		ed := &doc.Edges[i]
		if err := validation.ValidateEdgeDocument(ed); err != nil {
			return nil, fmt.Errorf("edge %d (%s->%s): %w", i, ed.Source, ed.Target, err)
		}
		edge, err := edgeFromDocument(ed)
		if err != nil {
			return nil, fmt.Errorf("edge %d (%s->%s): %w", i, ed.Source, ed.Target, err)
		}
		out.Edges = append(out.Edges, edge)
	}

	for _, snapshot := range doc.History {
		out.History = append(out.History, graph.ScoreSnapshot(snapshot))
	}

	return out, nil
}

func nodeFromDocument(doc *validation.NodeDocument) (graph.Node, error) {
	node := graph.Node{
		ID: doc.ID,
		Metadata: graph.NodeMetadata{
			Stake:                doc.Stake,
			PaymentHistory:       doc.PaymentHistory,
			VerifiedEndorsements: doc.VerifiedEndorsements,
			ContentQuality:       doc.ContentQuality,
			MinorityGroup:        doc.MinorityGroup,
			Extra:                doc.Extra,
		},
	}
	if doc.ActivityRecency != "" {
		ts, err := time.Parse(time.RFC3339, doc.ActivityRecency)
		if err != nil {
			return graph.Node{}, fmt.Errorf("activityRecency: %w", err)
		}
		node.Metadata.ActivityRecency = &ts
	}
	return node, nil
}

func edgeFromDocument(doc *validation.EdgeDocument) (graph.Edge, error) {
	ts, err := time.Parse(time.RFC3339, doc.Timestamp)
	if err != nil {
		return graph.Edge{}, fmt.Errorf("timestamp: %w", err)
	}
	return graph.Edge{
		Source:    doc.Source,
		Target:    doc.Target,
		Weight:    doc.Weight,
		Type:      graph.EdgeType(doc.Type),
		Timestamp: ts,
		Metadata: graph.EdgeMetadata{
			EndorsementStrength: doc.EndorsementStrength,
			StakeBacked:         doc.StakeBacked,
			PaymentAmount:       doc.PaymentAmount,
			Verified:            doc.Verified,
		},
	}, nil
}
