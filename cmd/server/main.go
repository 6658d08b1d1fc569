package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fablepress/fulfillment/internal/adapter/dispatch"
	httpAdapter "github.com/fablepress/fulfillment/internal/adapter/http"
	"github.com/fablepress/fulfillment/internal/adapter/http/handler"
	"github.com/fablepress/fulfillment/internal/adapter/http/middleware"
	"github.com/fablepress/fulfillment/internal/adapter/notification"
	postgresRepo "github.com/fablepress/fulfillment/internal/adapter/repository/postgres"
	redisRepo "github.com/fablepress/fulfillment/internal/adapter/repository/redis"
	"github.com/fablepress/fulfillment/internal/adapter/workorder"
	"github.com/fablepress/fulfillment/internal/infrastructure/auth"
	"github.com/fablepress/fulfillment/internal/infrastructure/config"
	"github.com/fablepress/fulfillment/internal/infrastructure/eventpublisher"
	"github.com/fablepress/fulfillment/internal/infrastructure/logger"
	"github.com/fablepress/fulfillment/internal/infrastructure/metrics"
	"github.com/fablepress/fulfillment/internal/infrastructure/postgres"
	"github.com/fablepress/fulfillment/internal/infrastructure/redis"
	"github.com/fablepress/fulfillment/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns, cfg.DatabaseTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	requestRepo := postgresRepo.NewRequestRepository(pool)
	storyRepo := postgresRepo.NewStoryRepository(pool)
	pricingRepo := postgresRepo.NewPricingRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	dedupStore := redisRepo.NewDedupStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	// External dependencies
	workOrderClient := workorder.NewClient(cfg.WorkOrderBaseURL, cfg.WorkOrderTimeout)
	jobDispatcher := dispatch.NewStreamDispatcher(redisClient, cfg.JobStream)

	var notifier usecase.NotificationDispatcher
	if cfg.NotificationWebhookURL != "" {
		notifier = notification.NewWebhookDispatcher(cfg.NotificationWebhookURL, cfg.NotificationTimeout)
	} else {
		notifier = notification.NewLogDispatcher(log)
	}

	// Initialize use cases
	fulfillmentUC := usecase.NewFulfillmentUseCase(usecase.FulfillmentConfig{
		TxManager:   txManager,
		AccountRepo: accountRepo,
		EntryRepo:   entryRepo,
		RequestRepo: requestRepo,
		StoryRepo:   storyRepo,
		PricingRepo: pricingRepo,
		OutboxRepo:  outboxRepo,
		WorkOrders:  workOrderClient,
		Dispatcher:  jobDispatcher,
		Notifier:    notifier,
		Dedup:       dedupStore,
		IDGen:       idGen,
		Retrier:     retrier,
		Metrics:     m,
		Logger:      log,
		DedupTTL:    cfg.DedupWindow,
	})
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, pricingRepo, outboxRepo, idGen, m)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, ledgerRepo, requestRepo)
	storyUC := usecase.NewStoryUseCase(storyRepo)

	// Start outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(nil),
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
	})
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	go func() {
		if err := publisher.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-workerCtx.Done():
					return
				case <-ticker.C:
					rateLimiter.Reset()
				}
			}
		}()
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		FulfillmentHandler: handler.NewFulfillmentHandler(fulfillmentUC),
		CreditHandler:      handler.NewCreditHandler(ledgerUC),
		StoryHandler:       handler.NewStoryHandler(storyUC),
		LedgerHandler:      handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		JWTManager:         jwtManager,
		Logger:             log,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorkers()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
