package euler

import (
	"fmt"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

// EdgeID is a handle into an Adjacency arena.
type EdgeID int

// NoEdge is the zero-value-safe invalid handle.
const NoEdge EdgeID = -1

// DirectedEdge is one direction of a tree edge.
// Forward edges descend from parent to child.
// Weight is per-owner scratch state and takes no part in identity.
type DirectedEdge struct {
	From    tree.Label
	To      tree.Label
	Forward bool
	Weight  int32
}

// EdgeKey is the identity of a DirectedEdge.
type EdgeKey struct {
	From    tree.Label
	To      tree.Label
	Forward bool
}

// Key returns the identity of e.
func (e DirectedEdge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To, Forward: e.Forward}
}

// Equal reports whether e and o are the same directed edge, ignoring weight.
func (e DirectedEdge) Equal(o DirectedEdge) bool {
	return e.Key() == o.Key()
}

// Reverse returns the companion edge running the other way.
func (e DirectedEdge) Reverse() DirectedEdge {
	return DirectedEdge{From: e.To, To: e.From, Forward: !e.Forward}
}

// InitialWeight is the scratch weight a rank assigns to its edge:
// -1 for a descent, +1 for an ascent.
func (e DirectedEdge) InitialWeight() int32 {
	if e.Forward {
		return -1
	}
	return 1
}

func (e DirectedEdge) String() string {
	if e.Forward {
		return fmt.Sprintf("%c->%c", e.From, e.To)
	}
	return fmt.Sprintf("%c<-%c", e.To, e.From)
}

// NodeDepth is the depth of one node, as reported by the rank owning
// the forward edge into that node.
// A record with Node == tree.NoLabel carries no depth.
type NodeDepth struct {
	Node  tree.Label
	Depth int32
}

// Valid reports whether d names a node.
func (d NodeDepth) Valid() bool { return d.Node != tree.NoLabel }
