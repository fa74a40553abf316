package worker

import (
	"context"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/infra/metrics"
)

// Task is a unit of background work, typically one outbound reply.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed set of goroutines fed by a bounded
// queue. Submit never blocks: a full queue rejects the task.
type Pool struct {
	wg   sync.WaitGroup
	mu   sync.RWMutex
	jobs chan Task
	n    int

	closed bool
	log    *zerolog.Logger
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	return &Pool{jobs: make(chan Task, queueSize), n: workers, log: &l}
}

// Start launches the workers. Tasks receive ctx, so it should outlive Stop.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for task := range p.jobs {
				metrics.SetWorkerQueueDepth(len(p.jobs))
				p.run(ctx, id, task)
			}
		}(i)
	}
	p.log.Info().Int("workers", p.n).Int("queue", cap(p.jobs)).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.IncWorkerTask("panic")
			p.log.Error().Interface("panic", r).Int("worker", id).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		metrics.IncWorkerTask("failed")
		p.log.Warn().Err(err).Int("worker", id).Msg("task failed")
		return
	}
	metrics.IncWorkerTask("completed")
}

// Stop rejects new tasks, lets the workers drain what is queued and waits.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info().Msg("worker pool stopped")
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return domain.ErrInvalidArgument
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return domain.ErrQueueClosed
	}
	select {
	case p.jobs <- task:
		metrics.SetWorkerQueueDepth(len(p.jobs))
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Len reports queued tasks not yet picked up.
func (p *Pool) Len() int { return len(p.jobs) }
