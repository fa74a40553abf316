package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/infra/metrics"
)

// IdleSweeper is implemented by conversation stores that need explicit
// eviction (the redis store relies on key TTLs instead).
type IdleSweeper interface {
	Sweep(idle time.Duration) int
	Len() int
}

// StateSweeper periodically drops conversations idle for longer than the
// configured timeout.
type StateSweeper struct {
	interval time.Duration
	idle     time.Duration
	store    IdleSweeper
	log      *zerolog.Logger
}

func NewStateSweeper(interval, idle time.Duration, store IdleSweeper, logger *zerolog.Logger) *StateSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "StateSweeper").Logger()
	return &StateSweeper{interval: interval, idle: idle, store: store, log: &l}
}

func (w *StateSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("idle_timeout", w.idle).Msg("Starting state sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping state sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweepOnce()
		}
	}
}

func (w *StateSweeper) sweepOnce() int {
	n := w.store.Sweep(w.idle)
	if n > 0 {
		metrics.AddConversationsSwept(n)
		w.log.Info().Int("count", n).Msg("idle conversations dropped")
	}
	metrics.SetActiveConversations(w.store.Len())
	return n
}
