// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
)

var (
	ErrQueueFull = errors.New("worker queue full")
	ErrStopped   = errors.New("worker pool stopped")
)

type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of goroutines. Submit never
// blocks: tasks are dropped when the queue is full.
type Pool struct {
	wg   sync.WaitGroup
	mu   sync.RWMutex
	jobs chan Task
	n    int
	done bool
	log  *zerolog.Logger
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	l := logger.With().Str("component", "worker_pool").Logger()
	return &Pool{jobs: make(chan Task, queueSize), n: workers, log: &l}
}

// Start launches the workers. Tasks receive ctx; cancelling it does not stop
// the workers, Stop does.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for task := range p.jobs {
				p.run(ctx, id, task)
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncWorkerJob("panic")
			p.log.Error().Int("worker", id).Str("panic", fmt.Sprint(r)).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Err(err).Int("worker", id).Msg("task error")
	}
	metrics.IncWorkerJob("done")
}

// Stop refuses new tasks, lets the workers drain the queue and waits.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.done {
		p.done = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.done {
		return ErrStopped
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		metrics.IncWorkerJob("dropped")
		return ErrQueueFull
	}
}
