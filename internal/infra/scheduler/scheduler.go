package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/infra/metrics"
)

// Job is one periodic chore, e.g. sampling connection pool stats.
type Job func(ctx context.Context) error

type Options struct {
	Interval time.Duration
	// JobTimeout bounds a single run. Defaults to the interval.
	JobTimeout time.Duration
	// RunOnStart fires the job once before the first tick.
	RunOnStart bool
}

// Scheduler runs a named Job on a fixed interval until stopped.
type Scheduler struct {
	name string
	opts Options
	job  Job
	log  *zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(name string, opts Options, job Job, logger *zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.JobTimeout <= 0 || opts.JobTimeout > opts.Interval {
		opts.JobTimeout = opts.Interval
	}
	l := logger.With().Str("component", "Scheduler").Str("job", name).Logger()
	return &Scheduler{name: name, opts: opts, job: job, log: &l}
}

// Start launches the loop. A second Start while running is ignored.
func (s *Scheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.opts.Interval).Msg("scheduler started")
	if s.opts.RunOnStart {
		s.runOnce(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	err := s.job(runCtx)
	metrics.ObserveScheduledRun(s.name, err, time.Since(start))
	if err != nil && ctx.Err() == nil {
		s.log.Warn().Err(err).Msg("scheduled job failed")
	}
}

// Stop cancels the loop and waits for the in-flight run. Safe to call twice.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Debug().Msg("scheduler stopped")
}
