package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assurdesk_backend/internal/analytics"
	"assurdesk_backend/internal/auth"
	"assurdesk_backend/internal/clients"
	"assurdesk_backend/internal/conversations"
	convrepo "assurdesk_backend/internal/conversations/repository"
	"assurdesk_backend/internal/events"
	apphttp "assurdesk_backend/internal/http"
	"assurdesk_backend/internal/http/router"
	"assurdesk_backend/internal/notification/outbox"
	"assurdesk_backend/internal/quotes"
	"assurdesk_backend/internal/scoring"
	"assurdesk_backend/migrations"
	"assurdesk_backend/platform/config"
	"assurdesk_backend/platform/db"
	"assurdesk_backend/platform/logger"
	"assurdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, migrations.Dir)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	outboxRepo := outbox.New(pool)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Opportunity scorer subscribes to domain events (not HTTP-facing)
	scoringService := scoring.NewService(scoring.NewRepository(pool), log)
	scoringService.RegisterEventHandlers(eventBus)

	authModule := auth.NewModule(pool, cfg, val, log)
	clientsModule := clients.NewModule(pool, eventBus, scoringService, cfg, val)
	conversationsModule := conversations.NewModule(pool, eventBus, outboxRepo, log, val)

	// Quotes resolve conversations and client contacts through the
	// conversations repository, and complete conversations through its service.
	conversationDirectory := convrepo.New(pool, outboxRepo)
	quotesModule := quotes.NewModule(pool, outboxRepo, conversationDirectory, conversationsModule.Service(), eventBus, log, val)

	analyticsModule := analytics.NewModule(pool)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			authModule,
			clientsModule,
			conversationsModule,
			quotesModule,
			analyticsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
