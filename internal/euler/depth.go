package euler

import (
	"errors"
	"fmt"
)

// ErrEdgeNotInTour is returned when a forward edge does not occur in the tour.
var ErrEdgeNotInTour = errors.New("forward edge missing from tour")

// SuffixWeight sums the tour from its end backward, -1 per descent and +1 per ascent,
// up to and including the entry equal to e.
// It reports false if e does not occur in t, in which case the sum covers the whole tour.
func SuffixWeight(t Tour, e DirectedEdge) (int32, bool) {
	var sum int32
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Forward {
			sum--
		} else {
			sum++
		}
		if t[i].Equal(e) {
			return sum, true
		}
	}
	return sum, false
}

// Depth returns the depth of e's target node.
// Only forward edges produce a depth; reverse edges and edges missing from t report false.
func Depth(t Tour, e DirectedEdge) (NodeDepth, bool) {
	if !e.Forward {
		return NodeDepth{}, false
	}
	w, ok := SuffixWeight(t, e)
	if !ok {
		return NodeDepth{}, false
	}
	return NodeDepth{Node: e.To, Depth: w + 1}, true
}

// DepthRecord returns the record a rank holding e contributes to the depth gather.
// Reverse edges contribute the empty record; a forward edge absent from t is an error.
func DepthRecord(t Tour, e DirectedEdge) (NodeDepth, error) {
	d, ok := Depth(t, e)
	if !ok && e.Forward {
		return NodeDepth{}, fmt.Errorf("%s: %w", e, ErrEdgeNotInTour)
	}
	return d, nil
}
