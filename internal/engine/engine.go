package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/config"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/job"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/metrics"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

var (
	// ErrQueueFull is returned when the run queue has no room.
	ErrQueueFull = errors.New("run queue full")

	// ErrTooManyNodes is reported for trees above engine.max_nodes.
	ErrTooManyNodes = errors.New("tree exceeds max_nodes")
)

// NodeLevel is one entry of a RunResult.
type NodeLevel struct {
	Node  string `json:"node"`
	Depth int32  `json:"depth"`
}

// RunResult is the outcome of processing a single job.
type RunResult struct {
	JobID      string      `json:"job_id"`
	Tree       string      `json:"tree"`
	Ranks      int         `json:"ranks"`
	DurationMs int64       `json:"duration_ms"`
	Output     string      `json:"output,omitempty"`
	Levels     []NodeLevel `json:"levels,omitempty"`
	Tour       string      `json:"tour,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Engine runs level computations for queued jobs.
type Engine struct {
	conf    atomic.Pointer[config.EngineConf]
	coord   *Coordinator
	pool    *workerPool[*job.Job, *RunResult]
	results *resultStore
	logger  *slog.Logger
}

// New creates an Engine using conf and starts its worker pool.
// The pool size, queue depth and result capacity are fixed for the Engine's lifetime;
// every other setting can be replaced with SwapConf.
func New(ctx context.Context, conf config.EngineConf, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		coord:   NewCoordinator(logger),
		results: newResultStore(conf.ResultCapacity),
		logger:  logger,
	}
	e.conf.Store(&conf)

	e.pool = newWorkerPool[*job.Job, *RunResult](
		ctx,
		conf.RunWorkers,
		conf.QueueDepth,
		e.process,
	)
	return e
}

// SwapConf atomically replaces the engine settings (used on hot-reload).
func (e *Engine) SwapConf(conf config.EngineConf) {
	e.conf.Store(&conf)
}

// Conf returns the settings currently in effect.
func (e *Engine) Conf() config.EngineConf {
	return *e.conf.Load()
}

// ProcessSync runs a job and waits for its result.
// Returns ErrQueueFull if the queue has no room.
func (e *Engine) ProcessSync(ctx context.Context, j *job.Job) (*RunResult, error) {
	reply := make(chan *RunResult, 1)
	if !e.pool.Submit(j, reply) {
		metrics.RunsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.pool.QueueCap())
	}
	metrics.RunsEnqueued.Inc()

	timeout := time.Duration(e.Conf().RunTimeoutMs) * time.Millisecond
	select {
	case res := <-reply:
		return res, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("run processing timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues a job for background processing. Returns false if the queue is full.
// The outcome is available from Result once the job finishes.
func (e *Engine) ProcessAsync(j *job.Job) bool {
	e.results.markPending(j.ID)
	if !e.pool.Submit(j, nil) {
		e.results.forget(j.ID)
		metrics.RunsDropped.Inc()
		return false
	}
	metrics.RunsEnqueued.Inc()
	return true
}

// Result looks up the outcome of a job by ID.
// Only the most recent engine.result_capacity jobs are kept.
func (e *Engine) Result(id string) (*RunResult, JobStatus) {
	return e.results.get(id)
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

func (e *Engine) process(ctx context.Context, j *job.Job) *RunResult {
	res := e.run(ctx, j)
	e.results.put(res)
	return res
}

func (e *Engine) run(ctx context.Context, j *job.Job) *RunResult {
	conf := e.Conf()
	res := &RunResult{JobID: j.ID, Tree: j.Tree}
	log := e.logger.With("job_id", j.ID)

	enc, err := tree.Parse(j.Tree)
	if err != nil {
		metrics.RunsFailed.WithLabelValues("decode").Inc()
		res.Error = err.Error()
		log.Info("job rejected", "err", err)
		return res
	}
	if enc.Size() > conf.MaxNodes {
		metrics.RunsFailed.WithLabelValues("decode").Inc()
		res.Error = fmt.Sprintf("%d nodes: %v (%d)", enc.Size(), ErrTooManyNodes, conf.MaxNodes)
		log.Info("job rejected", "err", res.Error)
		return res
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(conf.RunTimeoutMs)*time.Millisecond)
	defer cancel()

	out, err := e.coord.Run(runCtx, j.ID, enc, RunOptions{
		Ranks:              j.Ranks,
		ReplicateAdjacency: conf.ReplicateAdjacency,
		SkipTourValidation: conf.SkipTourValidation,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.Ranks = out.Ranks
	res.DurationMs = out.Duration.Milliseconds()
	res.Output = out.Levels.String()
	res.Tour = out.Tour.String()
	for _, r := range out.Levels.Records() {
		res.Levels = append(res.Levels, NodeLevel{Node: r.Node.String(), Depth: r.Depth})
	}
	log.Info("job complete", "output", res.Output, "ranks", res.Ranks, "duration_ms", res.DurationMs)
	return res
}

// Shutdown drains the pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}
