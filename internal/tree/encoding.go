// Package tree decodes a level-order label string into an implicit binary tree.
//
// The node at position i has its children at 2i+1 and 2i+2.
// Positions are plain ints so callers can use them as indices
// into slices of per-node state.
package tree

import (
	"errors"
	"fmt"
)

// Label is the single-byte name of a node.
// The zero Label never names a node and is used as an empty marker.
type Label byte

// NoLabel marks the absence of a node.
const NoLabel Label = 0

func (l Label) String() string { return string(rune(l)) }

var (
	// ErrEmpty is returned when the encoding contains no labels.
	ErrEmpty = errors.New("tree encoding is empty")

	// ErrInvalidLabel is returned for labels that cannot be carried in output or on the wire.
	ErrInvalidLabel = errors.New("invalid node label")

	// ErrDuplicateLabel is returned when two positions share a label.
	ErrDuplicateLabel = errors.New("duplicate node label")
)

// Encoding is a decoded, immutable tree encoding.
type Encoding struct {
	labels []Label
	index  map[Label]int
}

// Parse decodes s, one byte per node, in level order.
// Labels must be printable ASCII, excluding the output separators ',' and ':',
// and must be unique so that a label identifies exactly one node.
func Parse(s string) (*Encoding, error) {
	if len(s) == 0 {
		return nil, ErrEmpty
	}
	e := &Encoding{
		labels: make([]Label, len(s)),
		index:  make(map[Label]int, len(s)),
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c > '~' || c == ',' || c == ':' {
			return nil, fmt.Errorf("position %d (%q): %w", i, c, ErrInvalidLabel)
		}
		l := Label(c)
		if prev, ok := e.index[l]; ok {
			return nil, fmt.Errorf("label %q at positions %d and %d: %w", c, prev, i, ErrDuplicateLabel)
		}
		e.labels[i] = l
		e.index[l] = i
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixed inputs.
func MustParse(s string) *Encoding {
	e, err := Parse(s)
	if err != nil {
		panic(fmt.Errorf("tree.MustParse(%q): %w", s, err))
	}
	return e
}

// Size returns the number of nodes.
func (e *Encoding) Size() int { return len(e.labels) }

// Label returns the label at position i.
func (e *Encoding) Label(i int) Label { return e.labels[i] }

// Position returns the position of the node with label l.
func (e *Encoding) Position(l Label) (int, bool) {
	i, ok := e.index[l]
	return i, ok
}

// EdgeCount returns the number of directed edges, 2*(N-1).
func (e *Encoding) EdgeCount() int {
	return 2 * (len(e.labels) - 1)
}

// Left returns the position of the left child of i, if present.
func (e *Encoding) Left(i int) (int, bool) {
	c := 2*i + 1
	return c, c < len(e.labels)
}

// Right returns the position of the right child of i, if present.
func (e *Encoding) Right(i int) (int, bool) {
	c := 2*i + 2
	return c, c < len(e.labels)
}

// Parent returns the parent position of i.
// It returns -1 for the root.
func (e *Encoding) Parent(i int) int {
	if i == 0 {
		return -1
	}
	return (i - 1) / 2
}

// Depth returns the structural depth of position i,
// computed directly from the index rather than through any traversal.
func (e *Encoding) Depth(i int) int {
	d := 0
	for i > 0 {
		i = (i - 1) / 2
		d++
	}
	return d
}

// String returns the encoding as it was parsed.
func (e *Encoding) String() string {
	b := make([]byte, len(e.labels))
	for i, l := range e.labels {
		b[i] = byte(l)
	}
	return string(b)
}
