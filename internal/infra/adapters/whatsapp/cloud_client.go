package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
)

var (
	_ adapter.Messenger     = (*CloudClient)(nil)
	_ adapter.MediaResolver = (*CloudClient)(nil)
)

type Options struct {
	BaseURL       string // https://graph.facebook.com
	Version       string // v18.0
	PhoneNumberID string
	AccessToken   string
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
}

// CloudClient talks to the WhatsApp Cloud API. Sends are throttled by a
// client-side token bucket.
type CloudClient struct {
	opts    Options
	client  *http.Client
	limiter *rate.Limiter
	log     *zerolog.Logger
}

func NewCloudClient(opts Options, logger *zerolog.Logger) *CloudClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://graph.facebook.com"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Version == "" {
		opts.Version = "v18.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	l := logger.With().Str("component", "WhatsAppClient").Logger()
	return &CloudClient{
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, opts.Burst),
		log:     &l,
	}
}

// SendText posts a text message to the sender.
func (c *CloudClient) SendText(ctx context.Context, to, body string) error {
	if to == "" || body == "" {
		return domain.ErrInvalidArgument
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(sendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textContent{Body: body},
	})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/%s/%s/messages", c.opts.BaseURL, c.opts.Version, c.opts.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.AccessToken)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveOutbound(0, time.Since(start).Milliseconds())
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveOutbound(resp.StatusCode, time.Since(start).Milliseconds())

	if err := checkStatus(resp); err != nil {
		return err
	}
	var out sendMessageResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	ev := logging.With(ctx, c.log).Debug().Str("to", to)
	if len(out.Messages) > 0 {
		ev = ev.Str("wamid", out.Messages[0].ID)
	}
	ev.Msg("message sent")
	return nil
}

// ResolveMediaURL looks up the short-lived download URL for a media id.
func (c *CloudClient) ResolveMediaURL(ctx context.Context, mediaID string) (string, error) {
	if mediaID == "" {
		return "", domain.ErrInvalidArgument
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.opts.BaseURL, c.opts.Version, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve media: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out mediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode media: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("media response without url")
	}
	return out.URL, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
}
