// File: cmd/app/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/application"
	"whatsapp-catalog-bot/internal/config"
	"whatsapp-catalog-bot/internal/domain/ports/adapter"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/adapters/media"
	"whatsapp-catalog-bot/internal/infra/adapters/whatsapp"
	"whatsapp-catalog-bot/internal/infra/db/memory"
	pg "whatsapp-catalog-bot/internal/infra/db/postgres"
	httpapi "whatsapp-catalog-bot/internal/infra/http"
	"whatsapp-catalog-bot/internal/infra/i18n"
	"whatsapp-catalog-bot/internal/infra/logging"
	"whatsapp-catalog-bot/internal/infra/metrics"
	red "whatsapp-catalog-bot/internal/infra/redis"
	"whatsapp-catalog-bot/internal/infra/sched"
	"whatsapp-catalog-bot/internal/infra/scheduler"
	"whatsapp-catalog-bot/internal/infra/state"
	"whatsapp-catalog-bot/internal/infra/worker"
	"whatsapp-catalog-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags / config ----
	cfgPath, devMode := config.ParseFlags()
	cfg, err := config.LoadConfig(cfgPath, devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.App.Version, cfg.App.Commit)

	// ---- i18n ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, i18n.DefaultLang)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	keys := append(append([]string{}, usecase.ReplyKeys...), application.StatusKeys...)
	if missing := tr.Missing(keys...); len(missing) > 0 {
		logger.Fatal().Strs("keys", missing).Msg("i18n: missing reply templates")
	}

	// ---- Redis (optional) ----
	var redisClient *red.Client
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
	}

	// ---- Repositories ----
	var (
		products repository.ProductRepository
		txm      repository.TransactionManager
		pool     *pgxpool.Pool
	)
	if cfg.Database.URL != "" {
		if cfg.Database.Migrate {
			if err := pg.Migrate(cfg.Database.URL, logger); err != nil {
				logger.Fatal().Err(err).Msg("migrate")
			}
		}
		pool, err = pg.Connect(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		products = pg.NewProductRepo(pool)
		txm = pg.NewTxManager(pool)
	} else {
		logger.Warn().Msg("database.url not set; products are kept in memory")
		products = memory.NewProductRepo()
		txm = memory.TxManager{}
	}
	if redisClient != nil {
		products = pg.NewProductRepoCacheDecorator(products, redisClient, cfg.Catalog.CacheTTL)
		txm = pg.NewCacheAwareTxManager(txm, redisClient)
	}

	// ---- Conversation state ----
	var (
		states repository.ConversationStore
		locks  repository.SenderLocker
	)
	switch cfg.State.Backend {
	case "redis":
		states = red.NewStateRepo(redisClient, cfg.State.IdleTimeout)
		locks = red.NewLocker(redisClient, cfg.State.LockTTL, logger)
	default:
		mem := state.NewMemoryStore()
		states = mem
		locks = state.NewKeyedLocker()
		sweeper := sched.NewStateSweeper(cfg.State.SweepInterval, cfg.State.IdleTimeout, mem, logger)
		go func() { _ = sweeper.Run(ctx) }()
	}

	// ---- Media ----
	images := media.NewImageStore(media.Options{
		Dir:           cfg.App.UploadDir,
		PublicBaseURL: cfg.App.APIBaseURL,
		MaxBytes:      cfg.App.MaxImageBytes,
		Timeout:       cfg.WhatsApp.Timeout,
		AuthToken:     cfg.WhatsApp.AccessToken,
		AuthHosts:     media.DefaultAuthHosts,
	}, logger)

	// ---- WhatsApp outbound ----
	var (
		messenger adapter.Messenger
		resolver  adapter.MediaResolver
		outPool   *worker.Pool
	)
	if cfg.WhatsApp.AccessToken != "" && cfg.WhatsApp.PhoneNumberID != "" {
		cloud := whatsapp.NewCloudClient(whatsapp.Options{
			BaseURL:       cfg.WhatsApp.APIURL,
			Version:       cfg.WhatsApp.APIVersion,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			AccessToken:   cfg.WhatsApp.AccessToken,
			RatePerSecond: cfg.WhatsApp.RatePerSecond,
			Burst:         cfg.WhatsApp.Burst,
			Timeout:       cfg.WhatsApp.Timeout,
		}, logger)
		messenger, resolver = cloud, cloud
		logger.Info().
			Str("api", cfg.WhatsApp.APIURL+"/"+cfg.WhatsApp.APIVersion).
			Str("phone_number_id", logging.Redact(cfg.WhatsApp.PhoneNumberID, cfg.Runtime.Dev)).
			Str("access_token", logging.Redact(cfg.WhatsApp.AccessToken, cfg.Runtime.Dev)).
			Msg("whatsapp cloud client configured")
	} else {
		logger.Warn().Msg("whatsapp credentials missing; replies are only logged")
		messenger = whatsapp.NewNoopMessenger(logger)
	}
	if cfg.AsyncOutbound() {
		outPool = worker.NewPool(cfg.WhatsApp.Workers, cfg.WhatsApp.QueueSize, logger)
		outPool.Start(ctx)
		messenger = whatsapp.NewQueuedMessenger(messenger, outPool, logger)
	}

	// ---- Use cases / facade ----
	catalogUC := usecase.NewCatalogUseCase(products, logger)
	dialogUC := usecase.NewDialogUseCase(products, txm, states, locks, images, tr, usecase.DialogOptions{
		RollbackOnImageFailure: cfg.Catalog.RollbackOnImageFailure,
		DefaultImageURL:        cfg.Catalog.DefaultImageURL,
	}, logger)

	facade := application.NewWebhookFacade(dialogUC, messenger, tr, cfg.WhatsApp.VerifyToken, logger)
	if resolver != nil {
		facade.SetMediaResolver(resolver)
	}
	if cfg.WhatsApp.InboundPerMinute > 0 {
		if redisClient == nil {
			logger.Warn().Msg("whatsapp.inbound_per_minute needs redis; inbound throttling disabled")
		} else {
			facade.SetInboundLimiter(red.NewRateLimiter(redisClient, cfg.WhatsApp.InboundPerMinute, time.Minute))
		}
	}

	// ---- DB pool stats ----
	var poolStats *scheduler.Scheduler
	if pool != nil {
		poolStats = scheduler.NewScheduler("db_pool_stats", scheduler.Options{Interval: 15 * time.Second, RunOnStart: true}, func(context.Context) error {
			pg.ReportPoolStats(pool)
			return nil
		}, logger)
		poolStats.Start(ctx)
	}

	// ---- HTTP ----
	auth := httpapi.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if !auth.Enabled() {
		logger.Info().Msg("admin.jwt_secret not set; admin API closed")
	}
	srv := httpapi.NewServer(httpapi.Options{
		Port:           cfg.HTTP.Port,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodyBytes:   cfg.HTTP.MaxBodyBytes,
		AppSecret:      cfg.WhatsApp.AppSecret,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
	}, facade, catalogUC, dialogUC, images, auth, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigc:
		logger.Info().Str("signal", s.String()).Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdown(srv, cfg.HTTP.ShutdownTimeout, outPool, poolStats, logger)
	cancel()
}

func shutdown(srv *httpapi.Server, timeout time.Duration, outPool *worker.Pool, poolStats *scheduler.Scheduler, logger *zerolog.Logger) {
	sctx, scancel := context.WithTimeout(context.Background(), timeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	// drain queued replies after the last webhook has been answered
	if outPool != nil {
		outPool.Stop()
	}
	if poolStats != nil {
		poolStats.Stop()
	}
	logger.Info().Msg("bye")
}
