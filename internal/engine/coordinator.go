package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/collective"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/euler"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/metrics"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

// ErrWorkerCount is returned when the requested rank count differs from
// the tree's directed edge count.
var ErrWorkerCount = errors.New("rank count must equal the number of directed edges")

// RunOptions tune a single Coordinator run.
type RunOptions struct {
	// Ranks is the number of ranks to launch; 0 derives it from the tree.
	Ranks int

	ReplicateAdjacency bool
	SkipTourValidation bool
}

// Result is the outcome of one level computation.
type Result struct {
	RunID    string
	Tree     *tree.Encoding
	Levels   *euler.Levels
	Tour     euler.Tour
	Ranks    int
	Duration time.Duration
}

// Coordinator launches one rank per directed edge and drives them through
// scatter, gather, broadcast and gather.
type Coordinator struct {
	logger *slog.Logger
}

// NewCoordinator returns a Coordinator logging to logger (slog.Default() if nil).
func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{logger: logger}
}

// Run computes the depth of every node of enc.
// Any rank failure cancels the remaining ranks and fails the run.
func (c *Coordinator) Run(ctx context.Context, runID string, enc *tree.Encoding, opts RunOptions) (*Result, error) {
	start := time.Now()
	edges := enc.EdgeCount()
	ranks := opts.Ranks
	if ranks == 0 {
		ranks = edges
	}
	log := c.logger.With("run_id", runID, "nodes", enc.Size(), "ranks", ranks)

	if ranks != edges {
		metrics.RunsFailed.WithLabelValues("startup").Inc()
		return nil, fmt.Errorf("%d ranks for %d directed edges: %w", ranks, edges, ErrWorkerCount)
	}
	metrics.RunEdges.Observe(float64(edges))

	res := &Result{RunID: runID, Tree: enc, Ranks: ranks}
	if edges == 0 {
		// A lone root has no edges and so no ranks.
		levels, err := euler.CollectLevels(enc, nil)
		if err != nil {
			return nil, err
		}
		res.Levels = levels
		res.Tour = euler.Tour{}
		res.Duration = time.Since(start)
		metrics.RunsCompleted.Inc()
		metrics.RunDuration.Observe(float64(res.Duration.Microseconds()) / 1000)
		return res, nil
	}

	comm, err := collective.New(ranks)
	if err != nil {
		return nil, err
	}
	var shared *euler.Adjacency
	if !opts.ReplicateAdjacency {
		shared = euler.Build(enc)
	}

	log.Debug("launching ranks", "replicate_adjacency", opts.ReplicateAdjacency)
	root := &rank{id: collective.Root}
	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < ranks; id++ {
		r := root
		if id != collective.Root {
			r = &rank{id: id}
		}
		r.comm, r.enc, r.adj, r.opts = comm, enc, shared, opts
		r.log = log.With("rank", id)
		g.Go(func() error { return r.run(gctx) })
	}
	if err := g.Wait(); err != nil {
		metrics.RunsFailed.WithLabelValues("collective").Inc()
		log.Warn("run failed", "err", err)
		return nil, err
	}

	res.Levels = root.output.levels
	res.Tour = root.output.tour
	res.Duration = time.Since(start)
	metrics.RunsCompleted.Inc()
	metrics.RunDuration.Observe(float64(res.Duration.Microseconds()) / 1000)
	log.Debug("run complete", "duration", res.Duration)
	return res, nil
}
