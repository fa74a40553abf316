package whatsapp

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
	"whatsapp-catalog-bot/internal/infra/worker"
)

var _ adapter.Messenger = (*QueuedMessenger)(nil)

// Submitter is the slice of worker.Pool the queued messenger needs.
type Submitter interface {
	Submit(task worker.Task) error
}

// QueuedMessenger hands sends to the worker pool so webhook responses never
// wait on the Cloud API. Failures are logged, never returned.
type QueuedMessenger struct {
	inner adapter.Messenger
	pool  Submitter
	log   *zerolog.Logger
}

func NewQueuedMessenger(inner adapter.Messenger, pool Submitter, logger *zerolog.Logger) *QueuedMessenger {
	l := logger.With().Str("component", "QueuedMessenger").Logger()
	return &QueuedMessenger{inner: inner, pool: pool, log: &l}
}

func (q *QueuedMessenger) SendText(ctx context.Context, to, body string) error {
	traceID := logging.TraceID(ctx)
	err := q.pool.Submit(func(taskCtx context.Context) error {
		taskCtx = logging.WithSenderID(logging.WithTraceID(taskCtx, traceID), to)
		if err := q.inner.SendText(taskCtx, to, body); err != nil {
			logging.With(taskCtx, q.log).Error().Err(err).Msg("reply not delivered")
			return err
		}
		return nil
	})
	if err != nil {
		reason := "queue_full"
		if errors.Is(err, domain.ErrQueueClosed) {
			reason = "queue_closed"
		}
		metrics.IncOutboundDropped(reason)
		logging.With(ctx, q.log).Warn().Err(err).Str("to", to).Msg("reply dropped")
	}
	return nil
}
