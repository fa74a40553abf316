package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/usecase"
)

// WebhookHandler is the application facade behind /api/webhook.
type WebhookHandler interface {
	VerifyChallenge(mode, token, challenge string) (string, bool)
	HandlePayload(ctx context.Context, raw []byte) (string, error)
}

// ImageOpener serves stored product photos.
type ImageOpener interface {
	Open(filename string) (*os.File, error)
}

type Options struct {
	Port           int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	AppSecret      string // enables X-Hub-Signature-256 checks
	CORSOrigins    []string
}

type Server struct {
	opts    Options
	webhook WebhookHandler
	catalog usecase.CatalogUseCase
	dialog  usecase.DialogUseCase
	images  ImageOpener
	auth    *AuthManager
	log     *zerolog.Logger

	server *http.Server
	now    func() time.Time
}

func NewServer(
	opts Options,
	webhook WebhookHandler,
	catalog usecase.CatalogUseCase,
	dialog usecase.DialogUseCase,
	images ImageOpener,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		opts:    opts,
		webhook: webhook,
		catalog: catalog,
		dialog:  dialog,
		images:  images,
		auth:    auth,
		log:     &l,
		now:     time.Now,
	}
}

// Router builds the full route table behind the middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/webhook", func(r chi.Router) {
		r.Get("/", s.handleVerify)
		r.Post("/", s.handleWebhook)
		r.Get("/test", s.handleWebhookTest)
		r.Get("/health", s.handleWebhookHealth)
	})

	r.Route("/api/images", func(r chi.Router) {
		r.Get("/health", s.handleImagesHealth)
		r.Get("/{filename}", s.handleImage)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Get("/{id}", s.handleGetProduct)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(s.auth.RequireAdmin)
		r.Get("/products", s.handleAdminProducts)
		r.Delete("/conversations/{sender}", s.handleResetConversation)
	})

	return Chain(r,
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		CORS(s.opts.CORSOrigins),
		Timeout(s.opts.RequestTimeout),
	)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.opts.Port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
