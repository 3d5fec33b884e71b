package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Job is a periodic task. Run is called once at start and then every Interval,
// each time under a context bounded by Timeout.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives a fixed set of jobs, one goroutine per job.
type Scheduler struct {
	jobs []Job
	log  *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(logger *zerolog.Logger, jobs ...Job) *Scheduler {
	l := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{jobs: jobs, log: &l}
}

// Start launches every job. Calling Start on a running scheduler has no effect.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	for _, job := range s.jobs {
		if job.Interval <= 0 {
			job.Interval = time.Minute
		}
		if job.Timeout <= 0 || job.Timeout > job.Interval {
			job.Timeout = job.Interval
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
	}
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	log := s.log.With().Str("job", job.Name).Logger()
	log.Info().Dur("interval", job.Interval).Msg("job started")

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.runOnce(ctx, &log, job)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("job stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx, &log, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, log *zerolog.Logger, job Job) {
	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("job panicked")
		}
	}()
	if err := job.Run(runCtx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("job failed")
	}
}

// Stop cancels all jobs and waits for them to return. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}
