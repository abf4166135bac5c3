package euler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

var (
	// ErrUnknownNode is returned when a depth record names a label outside the tree.
	ErrUnknownNode = errors.New("depth record for unknown node")

	// ErrMissingDepth is returned when a non-root node received no depth record.
	ErrMissingDepth = errors.New("node has no depth record")
)

// Levels maps every node of a tree to its depth, in encoding order.
type Levels struct {
	enc    *tree.Encoding
	depths []int32
}

// CollectLevels assembles gathered depth records into Levels.
// Invalid (empty) records are skipped; the root is always at depth 0.
func CollectLevels(enc *tree.Encoding, records []NodeDepth) (*Levels, error) {
	l := &Levels{enc: enc, depths: make([]int32, enc.Size())}
	have := make([]bool, enc.Size())
	have[0] = true
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		pos, ok := enc.Position(r.Node)
		if !ok {
			return nil, fmt.Errorf("%q: %w", r.Node, ErrUnknownNode)
		}
		l.depths[pos] = r.Depth
		have[pos] = true
	}
	for i, ok := range have {
		if !ok {
			return nil, fmt.Errorf("%q: %w", enc.Label(i), ErrMissingDepth)
		}
	}
	return l, nil
}

// Depth returns the depth of the node at position pos.
func (l *Levels) Depth(pos int) int32 { return l.depths[pos] }

// Records returns one NodeDepth per node, in encoding order.
func (l *Levels) Records() []NodeDepth {
	out := make([]NodeDepth, len(l.depths))
	for i, d := range l.depths {
		out[i] = NodeDepth{Node: l.enc.Label(i), Depth: d}
	}
	return out
}

// String formats the levels as comma-separated label:depth pairs.
func (l *Levels) String() string {
	var b strings.Builder
	for i, d := range l.depths {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(byte(l.enc.Label(i)))
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(int64(d), 10))
	}
	return b.String()
}

// Compute runs the whole pipeline on one goroutine: successors, tour, suffix sums.
// It produces the same result as the collective protocol and serves as its reference.
func Compute(enc *tree.Encoding) (*Levels, Tour, error) {
	a := Build(enc)
	succ, err := a.Successors()
	if err != nil {
		return nil, nil, err
	}
	records := make([]DirectedEdge, len(succ))
	for i, s := range succ {
		records[i] = a.Edge(s)
	}
	t, err := AssembleTour(a, records)
	if err != nil {
		return nil, nil, err
	}
	depths := make([]NodeDepth, 0, a.Len()/2)
	for _, e := range a.edges {
		if d, ok := Depth(t, e); ok {
			depths = append(depths, d)
		}
	}
	l, err := CollectLevels(enc, depths)
	if err != nil {
		return nil, nil, err
	}
	return l, t, nil
}
