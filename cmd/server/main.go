package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	feedAdapter "github.com/iho/ledgersync/internal/adapter/feed"
	httpAdapter "github.com/iho/ledgersync/internal/adapter/http"
	"github.com/iho/ledgersync/internal/adapter/http/handler"
	postgresRepo "github.com/iho/ledgersync/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgersync/internal/adapter/repository/redis"
	"github.com/iho/ledgersync/internal/infrastructure/config"
	"github.com/iho/ledgersync/internal/infrastructure/logger"
	"github.com/iho/ledgersync/internal/infrastructure/metrics"
	"github.com/iho/ledgersync/internal/infrastructure/postgres"
	"github.com/iho/ledgersync/internal/infrastructure/redis"
	"github.com/iho/ledgersync/internal/usecase"
	"github.com/iho/ledgersync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
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

	appMetrics := metrics.New()

	// Initialize repositories and collaborators
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	statementRepo := postgresRepo.NewStatementRepository(pool, postgresRepo.NewRetrier(appLogger))
	connectionRepo := postgresRepo.NewConnectionRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	syncLocker := redisRepo.NewSyncLocker(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	feedClient := feedAdapter.NewClient(cfg.FeedBaseURL, cfg.FeedClientID, cfg.FeedSecret, cfg.FeedTimeout)

	// Initialize use cases
	validator := usecase.NewLedgerValidator(usecase.Strictness(cfg.ValidatorStrictness))
	accountUC := usecase.NewAccountUseCase(accountRepo, idGen)
	entryUC := usecase.NewEntryUseCase(txManager, accountRepo, transactionRepo, auditRepo, validator, idGen)
	reconcileUC := usecase.NewReconcileUseCase(txManager, accountRepo, statementRepo, transactionRepo, auditRepo, idGen)
	connectionUC := usecase.NewConnectionUseCase(connectionRepo, feedClient, idGen)
	syncUC := usecase.NewSyncUseCase(txManager, connectionRepo, transactionRepo, auditRepo, feedClient, syncLocker, idGen, appLogger)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	entryHandler := handler.NewEntryHandler(entryUC)
	reconciliationHandler := handler.NewReconciliationHandler(reconcileUC, statementRepo)
	connectionHandler := handler.NewConnectionHandler(connectionUC, syncUC)
	auditHandler := handler.NewAuditHandler(auditRepo)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:                appLogger,
		AccountHandler:        accountHandler,
		EntryHandler:          entryHandler,
		ReconciliationHandler: reconciliationHandler,
		ConnectionHandler:     connectionHandler,
		AuditHandler:          auditHandler,
		HealthHandler:         healthHandler,
		IdempotencyStore:      idempotencyStore,
	})

	// Start the periodic sync scheduler
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()

	scheduler := worker.NewScheduler(worker.Config{
		Syncer:         syncUC,
		ConnRepo:       connectionRepo,
		Logger:         appLogger,
		Interval:       cfg.SyncInterval,
		AttemptTimeout: cfg.SyncAttemptTimeout,
		RetryInterval:  cfg.SyncRetryInterval,
		MaxAttempts:    cfg.SyncMaxAttempts,
		OnTerminal: func(connectionID string, err error) {
			appMetrics.SyncPasses.WithLabelValues("terminal_failure").Inc()
		},
	})

	go func() {
		if err := scheduler.Start(schedulerCtx); err != nil && schedulerCtx.Err() == nil {
			log.Error().Err(err).Msg("sync scheduler stopped")
		}
	}()

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
	stopScheduler()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
