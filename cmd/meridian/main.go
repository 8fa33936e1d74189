package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-saas/meridian/internal/app"
	"github.com/meridian-saas/meridian/internal/audit"
	"github.com/meridian-saas/meridian/internal/auth"
	"github.com/meridian-saas/meridian/internal/authz"
	"github.com/meridian-saas/meridian/internal/identity"
	"github.com/meridian-saas/meridian/internal/observability"
	"github.com/meridian-saas/meridian/internal/platform/cache"
	"github.com/meridian-saas/meridian/internal/platform/db"
	"github.com/meridian-saas/meridian/internal/tenant"
	"github.com/meridian-saas/meridian/internal/token"
	"github.com/meridian-saas/meridian/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	codec, err := token.NewCodec([]byte(cfg.AuthSecret), cfg.AuthTokenTTL)
	if err != nil {
		logger.Error("build credential codec", slog.Any("error", err))
		os.Exit(1)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	recorder := audit.NewRecorder(asynqClient, logger)

	registry := tenant.NewRegistry(dbpool, redisClient, cfg.TenantCacheTTL, logger)
	establisher := identity.NewEstablisher(codec, logger)

	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(dbpool)
	engine := authz.NewEngine(usersRepo, metrics)
	guard := authz.NewGuard(engine)

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, codec, recorder)

	usersService := users.NewService(usersRepo, guard)
	usersHandler := users.NewHandler(logger, usersService, recorder)

	auditService := audit.NewService(dbpool)
	auditHandler := audit.NewHandler(logger, auditService, engine, recorder)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Registry:     registry,
		Establisher:  establisher,
		AuthHandler:  authHandler,
		UsersHandler: usersHandler,
		AuditHandler: auditHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
