package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing an R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to Job
type JobFunc[R any] func(ctx context.Context) R

func (f JobFunc[R]) Execute(ctx context.Context) R {
	return f(ctx)
}

type indexedJob[R any] struct {
	index int
	job   Job[R]
}

type indexedResult[R any] struct {
	index  int
	result R
}

// Pool runs jobs on a fixed number of workers. Results are returned in
// submission order. Submit must be called from a single goroutine.
type Pool[R any] struct {
	workers    int
	jobQueue   chan indexedJob[R]
	results    chan indexedResult[R]
	collected  []R
	submitted  int
	wg         sync.WaitGroup
	collectWG  sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	mu         sync.Mutex
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan indexedJob[R], workers*2),
		results:    make(chan indexedResult[R], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool[R]) Start() {
	p.collectWG.Add(1)
	go p.collect()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case item, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := item.job.Execute(p.ctx)
			select {
			case p.results <- indexedResult[R]{index: item.index, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// collect drains results so workers never block on a full channel
func (p *Pool[R]) collect() {
	defer p.collectWG.Done()

	for r := range p.results {
		p.mu.Lock()
		for len(p.collected) <= r.index {
			var zero R
			p.collected = append(p.collected, zero)
		}
		p.collected[r.index] = r.result
		p.mu.Unlock()
	}
}

// Submit queues a job. It returns false if the pool was shut down.
func (p *Pool[R]) Submit(job Job[R]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	item := indexedJob[R]{index: p.submitted, job: job}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- item:
		p.submitted++
		return true
	}
}

// Wait blocks until every submitted job has finished and returns the
// results in submission order. Jobs dropped by a shutdown leave zero values.
// The pool's context is released on return.
func (p *Pool[R]) Wait() []R {
	defer p.cancelFunc()

	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	p.collectWG.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]R, p.submitted)
	copy(out, p.collected)
	return out
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	p.collectWG.Wait()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// Run executes jobs on a new pool and returns their ordered results
func Run[R any](ctx context.Context, workers int, jobs []Job[R]) []R {
	pool := NewPool[R](ctx, workers)
	pool.Start()
	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}
	return pool.Wait()
}
