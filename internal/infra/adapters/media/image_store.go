package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
)

var _ adapter.ImageIngest = (*ImageStore)(nil)

// DefaultAuthHosts serve Cloud API media and need the access token.
var DefaultAuthHosts = []string{"graph.facebook.com", "lookaside.fbsbx.com"}

type Options struct {
	Dir           string
	PublicBaseURL string // e.g. https://catalog.example.com
	MaxBytes      int64
	Timeout       time.Duration
	// AuthToken is sent as a bearer token to AuthHosts only.
	AuthToken string
	AuthHosts []string
}

// ImageStore downloads product photos into a local directory and serves
// them back under /api/images/{filename}.
type ImageStore struct {
	opts   Options
	client *http.Client
	log    *zerolog.Logger
}

func NewImageStore(opts Options, logger *zerolog.Logger) *ImageStore {
	if opts.Dir == "" {
		opts.Dir = "./uploads"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 16 << 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.AuthHosts == nil {
		opts.AuthHosts = DefaultAuthHosts
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	l := logger.With().Str("component", "ImageStore").Logger()
	return &ImageStore{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		log:    &l,
	}
}

// DownloadAndSaveImage fetches imageURL and stores it as
// product_<id>_<8 hex><ext>. It returns the public URL of the stored file.
func (s *ImageStore) DownloadAndSaveImage(ctx context.Context, imageURL string, productID int64) (string, error) {
	log := logging.With(ctx, s.log)
	if imageURL == "" {
		return "", domain.ErrEmptyImage
	}
	if err := os.MkdirAll(s.opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	start := time.Now()
	data, contentType, err := s.fetch(ctx, imageURL)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("image download failed")
		return "", fmt.Errorf("download image: %w", err)
	}

	filename := fmt.Sprintf("product_%d_%s%s", productID, uuid.NewString()[:8], imageExtension(imageURL, contentType))
	if err := os.WriteFile(filepath.Join(s.opts.Dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	metrics.ObserveImageDownload(time.Since(start).Milliseconds(), len(data))

	publicURL := s.opts.PublicBaseURL + "/api/images/" + filename
	log.Info().Int64("product_id", productID).Str("file", filename).Int("bytes", len(data)).Msg("image stored")
	return publicURL, nil
}

func (s *ImageStore) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("%w: bad image url", domain.ErrInvalidArgument)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	if s.opts.AuthToken != "" && s.needsAuth(u.Hostname()) {
		req.Header.Set("Authorization", "Bearer "+s.opts.AuthToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, s.opts.MaxBytes+1))
	if err != nil {
		return nil, "", err
	}
	if n == 0 {
		return nil, "", domain.ErrEmptyImage
	}
	if n > s.opts.MaxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", s.opts.MaxBytes)
	}
	return buf.Bytes(), resp.Header.Get("Content-Type"), nil
}

func (s *ImageStore) needsAuth(host string) bool {
	for _, h := range s.opts.AuthHosts {
		if strings.EqualFold(host, h) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(h)) {
			return true
		}
	}
	return false
}

// Open returns the stored file. Names with path elements are rejected.
func (s *ImageStore) Open(filename string) (*os.File, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") || strings.ContainsAny(filename, `/\`) {
		return nil, domain.ErrInvalidArgument
	}
	f, err := os.Open(filepath.Join(s.opts.Dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, domain.ErrNotFound
	}
	return f, nil
}

// imageExtension picks the extension from the url, then the content type.
// WhatsApp media defaults to jpeg.
func imageExtension(rawURL, contentType string) string {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, ".jpg"), strings.Contains(lower, ".jpeg"):
		return ".jpg"
	case strings.Contains(lower, ".png"):
		return ".png"
	case strings.Contains(lower, ".webp"):
		return ".webp"
	}
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}
