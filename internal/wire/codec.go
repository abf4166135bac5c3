// Package wire defines the fixed-layout records exchanged between ranks.
//
// A DirectedEdge record is 7 bytes:
//
//	[0] from label
//	[1] to label
//	[2] forward flag, 0 or 1
//	[3:7] weight, int32 little endian
//
// A NodeDepth record is 5 bytes:
//
//	[0] node label, 0 for "no record"
//	[1:5] depth, int32 little endian
//
// A tour is a plain concatenation of edge records.
// There is no version prefix: every rank in a run shares one build.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/euler"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

const (
	labelSize = 1
	flagSize  = 1
	int32Size = 4

	// EdgeSize is the encoded size of one DirectedEdge.
	EdgeSize = labelSize + labelSize + flagSize + int32Size

	// DepthSize is the encoded size of one NodeDepth.
	DepthSize = labelSize + int32Size
)

var (
	// ErrRecordSize is returned when a buffer does not hold a whole number of records.
	ErrRecordSize = errors.New("wire: bad record size")

	// ErrForwardFlag is returned when the forward byte is neither 0 nor 1.
	ErrForwardFlag = errors.New("wire: bad forward flag")
)

// AppendEdge appends the encoding of e to dst.
func AppendEdge(dst []byte, e euler.DirectedEdge) []byte {
	var flag byte
	if e.Forward {
		flag = 1
	}
	dst = append(dst, byte(e.From), byte(e.To), flag)
	return binary.LittleEndian.AppendUint32(dst, uint32(e.Weight))
}

// EncodeEdge returns the encoding of e.
func EncodeEdge(e euler.DirectedEdge) []byte {
	return AppendEdge(make([]byte, 0, EdgeSize), e)
}

// DecodeEdge decodes exactly one edge record.
func DecodeEdge(b []byte) (euler.DirectedEdge, error) {
	if len(b) != EdgeSize {
		return euler.DirectedEdge{}, fmt.Errorf("edge record of %d bytes, want %d: %w", len(b), EdgeSize, ErrRecordSize)
	}
	return decodeEdge(b)
}

func decodeEdge(b []byte) (euler.DirectedEdge, error) {
	e := euler.DirectedEdge{
		From:   tree.Label(b[0]),
		To:     tree.Label(b[1]),
		Weight: int32(binary.LittleEndian.Uint32(b[3:7])),
	}
	switch b[2] {
	case 0:
	case 1:
		e.Forward = true
	default:
		return euler.DirectedEdge{}, fmt.Errorf("forward byte %d: %w", b[2], ErrForwardFlag)
	}
	return e, nil
}

// EncodeTour concatenates the records of every edge in t.
func EncodeTour(t euler.Tour) []byte {
	out := make([]byte, 0, len(t)*EdgeSize)
	for _, e := range t {
		out = AppendEdge(out, e)
	}
	return out
}

// DecodeTour splits b into edge records.
func DecodeTour(b []byte) (euler.Tour, error) {
	if len(b)%EdgeSize != 0 {
		return nil, fmt.Errorf("tour of %d bytes is not a multiple of %d: %w", len(b), EdgeSize, ErrRecordSize)
	}
	t := make(euler.Tour, len(b)/EdgeSize)
	for i := range t {
		e, err := decodeEdge(b[i*EdgeSize : (i+1)*EdgeSize])
		if err != nil {
			return nil, fmt.Errorf("tour entry %d: %w", i, err)
		}
		t[i] = e
	}
	return t, nil
}

// EncodeDepth returns the encoding of d.
func EncodeDepth(d euler.NodeDepth) []byte {
	out := make([]byte, 0, DepthSize)
	out = append(out, byte(d.Node))
	return binary.LittleEndian.AppendUint32(out, uint32(d.Depth))
}

// DecodeDepth decodes exactly one node-depth record.
func DecodeDepth(b []byte) (euler.NodeDepth, error) {
	if len(b) != DepthSize {
		return euler.NodeDepth{}, fmt.Errorf("depth record of %d bytes, want %d: %w", len(b), DepthSize, ErrRecordSize)
	}
	return euler.NodeDepth{
		Node:  tree.Label(b[0]),
		Depth: int32(binary.LittleEndian.Uint32(b[1:5])),
	}, nil
}
