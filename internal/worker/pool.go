package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// pool manages a set of workers that execute jobs concurrently
type pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// newPool creates a pool whose jobs observe parent. buffer sizes the job
// queue and the result channel.
func newPool(parent context.Context, workers, buffer int) *pool {
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)

	return &pool{
		workers:    workers,
		jobQueue:   make(chan Job, buffer),
		results:    make(chan Result, buffer),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// start launches the workers
func (p *pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker goroutine that processes jobs
func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)

			// A finished result is kept even when the pool is being cancelled,
			// as long as there is room for it.
			select {
			case p.results <- result:
				continue
			default:
			}
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// submit queues a job; it returns without queueing once the pool is cancelled
func (p *pool) submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// wait waits for all jobs to complete and returns the results in
// completion order
func (p *pool) wait() []Result {
	// Close job queue to signal workers to exit when done
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
		p.cancelFunc()
	}()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

func (p *pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// RunAll executes jobs on a fresh pool of the given size and waits for them.
// Results arrive in completion order; callers that need a stable order must
// sort them.
func RunAll(ctx context.Context, workers int, jobs []Job) []Result {
	if len(jobs) == 0 {
		return []Result{}
	}
	if workers <= 0 {
		workers = 1
	}

	// queue and results hold every job, so submit never blocks before wait
	p := newPool(ctx, workers, len(jobs))
	p.start()

	for _, job := range jobs {
		p.submit(job)
	}

	return p.wait()
}
