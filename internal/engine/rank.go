package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/collective"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/euler"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/metrics"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/wire"
)

// RankState is the protocol position of one rank. States only move forward.
type RankState int

const (
	StateStarted RankState = iota
	StateAssigned
	StateSuccessorSent
	StateTourReceived
	StateDepthSent
	StateDone
)

func (s RankState) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateAssigned:
		return "assigned"
	case StateSuccessorSent:
		return "successor_sent"
	case StateTourReceived:
		return "tour_received"
	case StateDepthSent:
		return "depth_sent"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// RankError records the rank and the state it had reached when it failed.
type RankError struct {
	Rank  int
	State RankState
	Err   error
}

func (e *RankError) Error() string {
	return fmt.Sprintf("rank %d after %s: %v", e.Rank, e.State, e.Err)
}

func (e *RankError) Unwrap() error { return e.Err }

// rankOutput is what the root rank hands back to the coordinator.
type rankOutput struct {
	tour   euler.Tour
	levels *euler.Levels
}

// rank runs the per-edge protocol. Only the root rank writes output.
type rank struct {
	id     int
	comm   *collective.Comm
	enc    *tree.Encoding
	adj    *euler.Adjacency // nil: build from enc
	opts   RunOptions
	log    *slog.Logger
	state  RankState
	edge   euler.DirectedEdge
	output *rankOutput
}

func (r *rank) fail(err error) error {
	return &RankError{Rank: r.id, State: r.state, Err: err}
}

func (r *rank) enter(s RankState) {
	r.state = s
	metrics.RankTransitions.WithLabelValues(s.String()).Inc()
	r.log.Debug("rank state", "state", s, "edge", r.edge)
}

func (r *rank) isRoot() bool { return r.id == collective.Root }

func (r *rank) run(ctx context.Context) error {
	if r.adj == nil {
		r.adj = euler.Build(r.enc)
	}
	adj := r.adj

	// Scatter: the root hands every rank its edge.
	var parts [][]byte
	if r.isRoot() {
		parts = make([][]byte, adj.Len())
		for i := range parts {
			parts[i] = wire.EncodeEdge(adj.Edge(euler.EdgeID(i)))
		}
	}
	b, err := r.comm.Scatter(ctx, r.id, parts)
	if err != nil {
		return r.fail(fmt.Errorf("scatter edges: %w", err))
	}
	r.edge, err = wire.DecodeEdge(b)
	if err != nil {
		return r.fail(fmt.Errorf("decode assigned edge: %w", err))
	}
	own, ok := adj.Lookup(r.edge)
	if !ok {
		return r.fail(fmt.Errorf("assigned edge %s is not in the tree: %w", r.edge, euler.ErrUnresolvedSuccessor))
	}
	r.edge.Weight = r.edge.InitialWeight()
	r.enter(StateAssigned)

	// Gather successors at the root.
	next, err := adj.Successor(own)
	if err != nil {
		return r.fail(err)
	}
	gathered, err := r.comm.Gather(ctx, r.id, wire.EncodeEdge(adj.Edge(next)))
	if err != nil {
		return r.fail(fmt.Errorf("gather successors: %w", err))
	}
	r.enter(StateSuccessorSent)

	// The root alone assembles the tour, then broadcasts it.
	var payload []byte
	if r.isRoot() {
		tour, err := r.assemble(adj, gathered)
		if err != nil {
			return r.fail(err)
		}
		payload = wire.EncodeTour(tour)
	}
	b, err = r.comm.Broadcast(ctx, r.id, payload)
	if err != nil {
		return r.fail(fmt.Errorf("broadcast tour: %w", err))
	}
	tour, err := wire.DecodeTour(b)
	if err != nil {
		return r.fail(fmt.Errorf("decode tour: %w", err))
	}
	// Nobody reduces until every rank holds the tour.
	if err := r.comm.Barrier(ctx, r.id); err != nil {
		return r.fail(fmt.Errorf("tour barrier: %w", err))
	}
	r.enter(StateTourReceived)

	d, err := euler.DepthRecord(tour, r.edge)
	if err != nil {
		return r.fail(err)
	}
	gathered, err = r.comm.Gather(ctx, r.id, wire.EncodeDepth(d))
	if err != nil {
		return r.fail(fmt.Errorf("gather depths: %w", err))
	}
	r.enter(StateDepthSent)

	if r.isRoot() {
		records := make([]euler.NodeDepth, len(gathered))
		for i, p := range gathered {
			if records[i], err = wire.DecodeDepth(p); err != nil {
				return r.fail(fmt.Errorf("decode depth from rank %d: %w", i, err))
			}
		}
		levels, err := euler.CollectLevels(r.enc, records)
		if err != nil {
			return r.fail(err)
		}
		r.output = &rankOutput{tour: tour, levels: levels}
	}
	r.enter(StateDone)
	return nil
}

func (r *rank) assemble(adj *euler.Adjacency, gathered [][]byte) (euler.Tour, error) {
	succ := make([]euler.DirectedEdge, len(gathered))
	for i, p := range gathered {
		e, err := wire.DecodeEdge(p)
		if err != nil {
			return nil, fmt.Errorf("decode successor from rank %d: %w", i, err)
		}
		succ[i] = e
	}
	tour, err := euler.AssembleTour(adj, succ)
	if err != nil {
		return nil, err
	}
	if !r.opts.SkipTourValidation {
		if err := euler.ValidateTour(adj, tour); err != nil {
			return nil, err
		}
	}
	return tour, nil
}
