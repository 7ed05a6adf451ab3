package graph

import (
	"errors"
	"fmt"
)

// Sentinel errors for snapshot validation. All of them are wrapped in
// ErrInvalidGraph so callers can match either the category or the cause.
var (
	ErrInvalidGraph     = errors.New("invalid graph")
	ErrDuplicateNode    = errors.New("duplicate node id")
	ErrNegativeWeight   = errors.New("negative edge weight")
	ErrWeightOutOfRange = errors.New("edge weight above 1")
	ErrInvalidTimestamp = errors.New("edge timestamp is zero")
	ErrNodeNotFound     = errors.New("node not found")
)

// GraphError provides structured error information for graph operations.
type GraphError struct {
	Op     string // operation that failed, e.g. "NewSnapshot"
	NodeID string // node id involved, if any
	Index  int    // input position of the offending element, -1 if unknown
	Cause  error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s: node %q (input index %d): %v", e.Op, e.NodeID, e.Index, e.Cause)
	}
	return fmt.Sprintf("%s: input index %d: %v", e.Op, e.Index, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's cause or category.
func (e *GraphError) Is(target error) bool {
	if target == ErrInvalidGraph {
		return true
	}
	return errors.Is(e.Cause, target)
}

func invalidGraph(op, nodeID string, index int, cause error) error {
	return &GraphError{Op: op, NodeID: nodeID, Index: index, Cause: cause}
}
