package euler

import (
	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

// Adjacency holds every directed edge of a tree in one arena,
// plus per-node chains of handles into that arena.
// It is immutable once built and safe for concurrent reads.
type Adjacency struct {
	enc    *tree.Encoding
	edges  []DirectedEdge     // arena, in enumeration order
	slot   []int              // edge id → index within its source node's chain
	chains [][]EdgeID         // node position → edges leaving that node, in insertion order
	ids    map[EdgeKey]EdgeID // identity → handle
}

// Build constructs the adjacency arena for enc.
//
// Positions are walked in order; for each child present, left first,
// the forward edge is appended to the parent's chain and the reverse edge to the child's.
// Both are appended to the arena in that order, so the enumeration is fully
// determined by the encoding.
func Build(enc *tree.Encoding) *Adjacency {
	n := enc.Size()
	m := enc.EdgeCount()
	a := &Adjacency{
		enc:    enc,
		edges:  make([]DirectedEdge, 0, m),
		slot:   make([]int, 0, m),
		chains: make([][]EdgeID, n),
		ids:    make(map[EdgeKey]EdgeID, m),
	}
	for i := 0; i < n; i++ {
		if c, ok := enc.Left(i); ok {
			a.addTreeEdge(i, c)
		}
		if c, ok := enc.Right(i); ok {
			a.addTreeEdge(i, c)
		}
	}
	return a
}

func (a *Adjacency) addTreeEdge(parent, child int) {
	p, c := a.enc.Label(parent), a.enc.Label(child)
	a.add(parent, DirectedEdge{From: p, To: c, Forward: true})
	a.add(child, DirectedEdge{From: c, To: p, Forward: false})
}

func (a *Adjacency) add(owner int, e DirectedEdge) {
	id := EdgeID(len(a.edges))
	a.edges = append(a.edges, e)
	a.slot = append(a.slot, len(a.chains[owner]))
	a.chains[owner] = append(a.chains[owner], id)
	a.ids[e.Key()] = id
}

// Encoding returns the tree the arena was built from.
func (a *Adjacency) Encoding() *tree.Encoding { return a.enc }

// Len returns the number of directed edges.
func (a *Adjacency) Len() int { return len(a.edges) }

// Edge returns the edge for handle id.
func (a *Adjacency) Edge(id EdgeID) DirectedEdge { return a.edges[id] }

// Edges returns a copy of the arena in enumeration order.
func (a *Adjacency) Edges() []DirectedEdge {
	out := make([]DirectedEdge, len(a.edges))
	copy(out, a.edges)
	return out
}

// Chain returns the handles of the edges leaving the node at position pos.
// The returned slice must not be modified.
func (a *Adjacency) Chain(pos int) []EdgeID { return a.chains[pos] }

// Lookup finds the handle of e by identity.
func (a *Adjacency) Lookup(e DirectedEdge) (EdgeID, bool) {
	id, ok := a.ids[e.Key()]
	return id, ok
}

// Next returns the edge following id in its source node's chain.
func (a *Adjacency) Next(id EdgeID) (EdgeID, bool) {
	pos, ok := a.enc.Position(a.edges[id].From)
	if !ok {
		return NoEdge, false
	}
	chain := a.chains[pos]
	s := a.slot[id] + 1
	if s >= len(chain) {
		return NoEdge, false
	}
	return chain[s], true
}

// First returns the first edge in the chain of the node labelled l.
func (a *Adjacency) First(l tree.Label) (EdgeID, bool) {
	pos, ok := a.enc.Position(l)
	if !ok || len(a.chains[pos]) == 0 {
		return NoEdge, false
	}
	return a.chains[pos][0], true
}
