package engine

import (
	"context"
	"sync"
)

// task is the unit of work dispatched to a worker.
// reply is nil for fire-and-forget submissions.
type task[T, R any] struct {
	payload T
	reply   chan<- R
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
type workerPool[T, R any] struct {
	queue   chan task[T, R]
	process func(ctx context.Context, t T) R
	wg      sync.WaitGroup
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity cap.
func newWorkerPool[T, R any](ctx context.Context, n, cap int, fn func(context.Context, T) R) *workerPool[T, R] {
	p := &workerPool[T, R]{
		queue:   make(chan task[T, R], cap),
		process: fn,
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			res := p.process(ctx, t.payload)
			if t.reply != nil {
				t.reply <- res
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues t without blocking (returns false if full).
// If reply is non-nil it must have room for one value.
func (p *workerPool[T, R]) Submit(t T, reply chan<- R) bool {
	select {
	case p.queue <- task[T, R]{payload: t, reply: reply}:
		return true
	default:
		return false
	}
}

// Drain closes the queue and waits for all workers to finish.
func (p *workerPool[T, R]) Drain() {
	close(p.queue)
	p.wg.Wait()
}

// QueueLen returns how many tasks are currently queued.
func (p *workerPool[T, R]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T, R]) QueueCap() int {
	return cap(p.queue)
}
