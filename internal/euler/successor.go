package euler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedSuccessor is returned when no Euler-tour successor can be found for an edge.
	// On a well-formed arena this is an internal invariant violation.
	ErrUnresolvedSuccessor = errors.New("unresolved euler tour successor")

	// ErrTourNotPermutation is returned when the tour visits an edge twice or misses one.
	ErrTourNotPermutation = errors.New("euler tour is not a permutation of the edge set")

	// ErrTourNotClosed is returned when following successors from the last entry
	// does not lead back to the first.
	ErrTourNotClosed = errors.New("euler tour is not a closed cycle")
)

// ResolveSuccessor applies the direct successor rule to the edge u→v:
// the entry after v→u in v's chain.
// It reports false when v→u is the last entry of that chain.
func (a *Adjacency) ResolveSuccessor(id EdgeID) (EdgeID, bool) {
	rev, ok := a.Lookup(a.edges[id].Reverse())
	if !ok {
		return NoEdge, false
	}
	return a.Next(rev)
}

// Successor returns the Euler-tour successor of id.
// When the direct rule yields nothing, the walk continues at the first edge
// of the target node's chain.
func (a *Adjacency) Successor(id EdgeID) (EdgeID, error) {
	if next, ok := a.ResolveSuccessor(id); ok {
		return next, nil
	}
	e := a.edges[id]
	if first, ok := a.First(e.To); ok {
		return first, nil
	}
	return NoEdge, fmt.Errorf("edge %s: %w", e, ErrUnresolvedSuccessor)
}

// Successors returns the successor of every edge, indexed by EdgeID.
func (a *Adjacency) Successors() ([]EdgeID, error) {
	out := make([]EdgeID, len(a.edges))
	for i := range a.edges {
		next, err := a.Successor(EdgeID(i))
		if err != nil {
			return nil, err
		}
		out[i] = next
	}
	return out, nil
}
