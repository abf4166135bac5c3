package euler

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Tour is an Euler tour: every directed edge exactly once,
// each entry followed by its successor.
type Tour []DirectedEdge

func (t Tour) String() string {
	parts := make([]string, len(t))
	for i, e := range t {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// AssembleTour reconstructs the tour from gathered successor records.
// successors[i] is the successor reported for the edge with handle i.
// The walk starts at the first enumerated edge, the root's first descent,
// and locates each successor in the arena by identity.
func AssembleTour(a *Adjacency, successors []DirectedEdge) (Tour, error) {
	if len(successors) != a.Len() {
		return nil, fmt.Errorf("got %d successor records for %d edges: %w",
			len(successors), a.Len(), ErrTourNotPermutation)
	}
	tour := make(Tour, a.Len())
	cur := EdgeID(0)
	for i := range tour {
		tour[i] = a.Edge(cur)
		next := successors[cur]
		id, ok := a.Lookup(next)
		if !ok {
			return nil, fmt.Errorf("successor %s of %s: %w", next, tour[i], ErrUnresolvedSuccessor)
		}
		cur = id
	}
	return tour, nil
}

// ValidateTour checks that t is a permutation of a's edges forming a single
// closed cycle under the successor rule, starting at the first enumerated edge.
func ValidateTour(a *Adjacency, t Tour) error {
	n := a.Len()
	if len(t) != n {
		return fmt.Errorf("tour has %d entries, want %d: %w", len(t), n, ErrTourNotPermutation)
	}
	if n == 0 {
		return nil
	}

	ids := make([]EdgeID, n)
	seen := bitset.New(uint(n))
	for i, e := range t {
		id, ok := a.Lookup(e)
		if !ok {
			return fmt.Errorf("tour[%d] = %s: %w", i, e, ErrTourNotPermutation)
		}
		if seen.Test(uint(id)) {
			return fmt.Errorf("tour[%d] = %s repeats: %w", i, e, ErrTourNotPermutation)
		}
		seen.Set(uint(id))
		ids[i] = id
	}
	if seen.Count() != uint(n) {
		return fmt.Errorf("tour covers %d of %d edges: %w", seen.Count(), n, ErrTourNotPermutation)
	}
	if ids[0] != 0 {
		return fmt.Errorf("tour starts at %s, not %s: %w", t[0], a.Edge(0), ErrTourNotClosed)
	}

	for i, id := range ids {
		next, err := a.Successor(id)
		if err != nil {
			return err
		}
		want := ids[(i+1)%n]
		if next != want {
			return fmt.Errorf("tour[%d] = %s is followed by %s, successor is %s: %w",
				i, t[i], a.Edge(want), a.Edge(next), ErrTourNotClosed)
		}
	}
	return nil
}
