// Package collective provides blocking collective operations among a fixed
// set of in-process ranks.
//
// Every rank of a [Comm] must call the same sequence of operations.
// The n-th call of each rank belongs to round n; no rank returns from a round
// until all ranks have entered it. Rank [Root] is the source of scatter and
// broadcast payloads and the destination of gathers.
package collective

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/metrics"
)

// Root is the coordinating rank.
const Root = 0

var (
	// ErrSize is returned by New for a non-positive rank count.
	ErrSize = errors.New("collective: rank count must be positive")

	// ErrRank is returned when a rank number is outside [0, size).
	ErrRank = errors.New("collective: rank out of range")

	// ErrMismatch is returned when ranks disagree on the operation of a round.
	ErrMismatch = errors.New("collective: mismatched operation")

	// ErrPartCount is returned when the root scatters the wrong number of parts.
	ErrPartCount = errors.New("collective: scatter part count does not match rank count")
)

// Op names a collective operation.
type Op int

const (
	OpBarrier Op = iota
	OpScatter
	OpGather
	OpBroadcast
)

func (o Op) String() string {
	switch o {
	case OpBarrier:
		return "barrier"
	case OpScatter:
		return "scatter"
	case OpGather:
		return "gather"
	case OpBroadcast:
		return "broadcast"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Comm connects size ranks.
type Comm struct {
	size int

	mu     sync.Mutex
	seq    []int // rank → index of its next round
	rounds map[int]*round
}

// round is the shared state of one collective call.
// Fields other than arrived and left are immutable once done is closed.
type round struct {
	op      Op
	parts   [][]byte // scatter input or gather output, indexed by rank
	payload []byte   // broadcast payload
	arrived int
	left    int
	done    chan struct{}
}

// New returns a Comm for size ranks.
func New(size int) (*Comm, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size %d: %w", size, ErrSize)
	}
	return &Comm{
		size:   size,
		seq:    make([]int, size),
		rounds: make(map[int]*round),
	}, nil
}

// Size returns the number of ranks.
func (c *Comm) Size() int { return c.size }

// Barrier blocks until every rank has called Barrier.
func (c *Comm) Barrier(ctx context.Context, rank int) error {
	seq, _, err := c.enter(ctx, rank, OpBarrier, nil)
	if err != nil {
		return err
	}
	c.leave(seq)
	return nil
}

// Scatter delivers parts[i] from the root to rank i.
// Only the root's parts are used; other ranks pass nil.
func (c *Comm) Scatter(ctx context.Context, rank int, parts [][]byte) ([]byte, error) {
	if rank == Root && len(parts) != c.size {
		return nil, fmt.Errorf("%d parts for %d ranks: %w", len(parts), c.size, ErrPartCount)
	}
	seq, r, err := c.enter(ctx, rank, OpScatter, func(r *round) {
		if rank == Root {
			copy(r.parts, parts)
			for _, p := range parts {
				metrics.CollectiveBytes.WithLabelValues(OpScatter.String()).Add(float64(len(p)))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	defer c.leave(seq)
	return r.parts[rank], nil
}

// Gather collects part from every rank at the root.
// The root receives all parts indexed by rank; other ranks receive nil.
func (c *Comm) Gather(ctx context.Context, rank int, part []byte) ([][]byte, error) {
	seq, r, err := c.enter(ctx, rank, OpGather, func(r *round) {
		r.parts[rank] = part
		metrics.CollectiveBytes.WithLabelValues(OpGather.String()).Add(float64(len(part)))
	})
	if err != nil {
		return nil, err
	}
	defer c.leave(seq)
	if rank != Root {
		return nil, nil
	}
	out := make([][]byte, c.size)
	copy(out, r.parts)
	return out, nil
}

// Broadcast delivers the root's payload to every rank.
// Other ranks pass nil. The returned slice is shared and must not be modified.
func (c *Comm) Broadcast(ctx context.Context, rank int, payload []byte) ([]byte, error) {
	seq, r, err := c.enter(ctx, rank, OpBroadcast, func(r *round) {
		if rank == Root {
			r.payload = payload
			metrics.CollectiveBytes.WithLabelValues(OpBroadcast.String()).Add(float64(len(payload) * c.size))
		}
	})
	if err != nil {
		return nil, err
	}
	defer c.leave(seq)
	return r.payload, nil
}

// enter registers rank in its next round, applies contribute under the lock,
// and blocks until every rank has entered or ctx is done.
func (c *Comm) enter(ctx context.Context, rank int, op Op, contribute func(*round)) (int, *round, error) {
	if rank < 0 || rank >= c.size {
		return 0, nil, fmt.Errorf("rank %d of %d: %w", rank, c.size, ErrRank)
	}

	c.mu.Lock()
	seq := c.seq[rank]
	r, ok := c.rounds[seq]
	if !ok {
		r = &round{
			op:    op,
			parts: make([][]byte, c.size),
			done:  make(chan struct{}),
		}
		c.rounds[seq] = r
	}
	if r.op != op {
		c.mu.Unlock()
		return 0, nil, fmt.Errorf("rank %d called %s in round %d, others called %s: %w", rank, op, seq, r.op, ErrMismatch)
	}
	c.seq[rank]++
	if contribute != nil {
		contribute(r)
	}
	r.arrived++
	if r.arrived == c.size {
		close(r.done)
		metrics.CollectiveOps.WithLabelValues(op.String()).Inc()
	}
	c.mu.Unlock()

	select {
	case <-r.done:
		return seq, r, nil
	case <-ctx.Done():
		return 0, nil, fmt.Errorf("rank %d waiting in %s round %d: %w", rank, op, seq, context.Cause(ctx))
	}
}

// leave drops the round once every rank has read its result.
func (c *Comm) leave(seq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.rounds[seq]
	r.left++
	if r.left == c.size {
		delete(c.rounds, seq)
	}
}
