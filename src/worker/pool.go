package worker

import (
	"context"
	"sync"
)

// Job is one unit of capture processing executed on a worker goroutine.
type Job func(ctx context.Context)

type job struct {
	ctx context.Context
	run Job
}

// Pool is a fixed-size worker pool with a 1-slot input queue (strict
// back-pressure). When the watcher ticks faster than captures complete, the
// extra ticks are dropped instead of piling up behind a slow OCR pass.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

// New creates a worker pool. Size defaults to 1 when size <= 0: the pipeline
// is ordered within an invocation and one in-flight capture is the norm.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				j.run(j.ctx)
			}
		}()
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if
// dropped.
func (p *Pool) Submit(ctx context.Context, run Job) bool {
	select {
	case p.jobs <- job{ctx: ctx, run: run}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
