package whatsapp

import (
	"context"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/infra/logging"
)

var _ adapter.Messenger = (*NoopMessenger)(nil)

// NoopMessenger logs replies instead of sending them. Used in dev mode
// when no access token is configured.
type NoopMessenger struct {
	log *zerolog.Logger
}

func NewNoopMessenger(logger *zerolog.Logger) *NoopMessenger {
	l := logger.With().Str("component", "NoopMessenger").Logger()
	return &NoopMessenger{log: &l}
}

func (n *NoopMessenger) SendText(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.With(ctx, n.log).Info().Str("to", to).Str("body", body).Msg("[noop-whatsapp] reply")
	return nil
}
