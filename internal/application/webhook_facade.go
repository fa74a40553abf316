package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
	"whatsapp-catalog-bot/internal/usecase"
)

const (
	keyNoEntries  = "webhook_no_entries"
	keyNoChanges  = "webhook_no_changes"
	keyNoMessages = "webhook_no_messages"
	keyProcessed  = "webhook_processed"
	keyError      = "webhook_error"
)

// StatusKeys are the webhook status templates the facade renders.
var StatusKeys = []string{keyNoEntries, keyNoChanges, keyNoMessages, keyProcessed, keyError}

// InboundLimiter throttles chatty senders before they reach the dialog engine.
type InboundLimiter interface {
	AllowSender(ctx context.Context, senderID string) (bool, error)
}

// WebhookFacade turns Cloud API deliveries into dialog turns and hands the
// reply to the messenger. It returns the plain-text status the HTTP layer
// writes back.
type WebhookFacade struct {
	dialog      usecase.DialogUseCase
	messenger   adapter.Messenger
	tr          usecase.Translator
	verifyToken string

	media   adapter.MediaResolver
	limiter InboundLimiter
	log     *zerolog.Logger
}

func NewWebhookFacade(
	dialog usecase.DialogUseCase,
	messenger adapter.Messenger,
	tr usecase.Translator,
	verifyToken string,
	logger *zerolog.Logger,
) *WebhookFacade {
	l := logger.With().Str("component", "WebhookFacade").Logger()
	return &WebhookFacade{
		dialog:      dialog,
		messenger:   messenger,
		tr:          tr,
		verifyToken: verifyToken,
		log:         &l,
	}
}

// SetMediaResolver enables lookups for images that arrive with only a media id.
func (f *WebhookFacade) SetMediaResolver(r adapter.MediaResolver) { f.media = r }

// SetInboundLimiter enables per-sender throttling.
func (f *WebhookFacade) SetInboundLimiter(l InboundLimiter) { f.limiter = l }

// VerifyChallenge implements the subscription handshake. The token must match exactly.
func (f *WebhookFacade) VerifyChallenge(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && f.verifyToken != "" && token == f.verifyToken {
		return challenge, true
	}
	return "", false
}

// HandlePayload processes the first message of the first change of the first
// entry. Only a body that is not JSON at all is an error; everything else,
// including an unexpected shape, is a status.
func (f *WebhookFacade) HandlePayload(ctx context.Context, raw []byte) (string, error) {
	var body json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		metrics.IncWebhookDelivery("bad_payload")
		return "", fmt.Errorf("decode webhook: %w", err)
	}

	stage, rawMsg := firstMessage(raw)
	switch stage {
	case stageNoEntries:
		metrics.IncWebhookDelivery("no_entries")
		return f.tr.T(keyNoEntries), nil
	case stageNoChanges:
		metrics.IncWebhookDelivery("no_changes")
		return f.tr.T(keyNoChanges), nil
	case stageNoMessages:
		// status callbacks (sent/delivered/read) land here
		metrics.IncWebhookDelivery("no_messages")
		return f.tr.T(keyNoMessages), nil
	}

	var wm webhookMessage
	if err := json.Unmarshal(rawMsg, &wm); err != nil {
		f.log.Warn().Err(err).Msg("unexpected message shape")
		metrics.IncWebhookDelivery("bad_payload")
		return f.tr.T(keyError, err.Error()), nil
	}

	msg := f.inbound(ctx, wm)
	ctx = logging.WithMessageID(logging.WithSenderID(ctx, msg.From), msg.ID)
	log := logging.With(ctx, f.log)
	msgType := string(wm.Type)

	if f.limiter != nil {
		ok, err := f.limiter.AllowSender(ctx, msg.From)
		if err != nil {
			log.Warn().Err(err).Msg("inbound rate limiter unavailable")
		} else if !ok {
			log.Warn().Msg("sender throttled; message ignored")
			metrics.IncWebhookDelivery("rate_limited")
			return f.tr.T(keyProcessed), nil
		}
	}

	log.Info().Str("type", msgType).Int("text_len", len(msg.Text)).Bool("image", msg.Image != nil).Msg("inbound message")
	log.Debug().Str("text", msg.Text).Msg("inbound text")
	reply, err := f.dialog.Dispatch(ctx, msg.From, msg.Text, msg.Image)
	if err != nil {
		log.Error().Err(err).Msg("dispatch failed")
		metrics.IncWebhookMessage(msgType, false)
		metrics.IncWebhookDelivery("error")
		return f.tr.T(keyError, err.Error()), nil
	}

	if reply != "" {
		if err := f.messenger.SendText(ctx, msg.From, reply); err != nil {
			log.Error().Err(err).Msg("reply send failed")
		}
	}
	metrics.IncWebhookMessage(msgType, true)
	metrics.IncWebhookDelivery("processed")
	return f.tr.T(keyProcessed), nil
}

func (f *WebhookFacade) inbound(ctx context.Context, m webhookMessage) model.InboundMessage {
	in := model.InboundMessage{From: string(m.From), ID: string(m.ID)}
	if m.Text != nil {
		in.Text = string(m.Text.Body)
	}
	if m.Image == nil {
		return in
	}

	img := &model.ImagePayload{URL: m.Image.URL, ID: m.Image.ID, MimeType: m.Image.MimeType, Caption: m.Image.Caption}
	if img.URL == "" && img.ID != "" && f.media != nil {
		url, err := f.media.ResolveMediaURL(ctx, img.ID)
		if err != nil {
			logging.With(ctx, f.log).Warn().Err(err).Str("media_id", img.ID).Msg("media url lookup failed")
		} else {
			img.URL = url
		}
	}
	in.Image = img
	return in
}
