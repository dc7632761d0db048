package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/config"
	apphttp "budget/internal/http"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	be, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	users := services.NewUserService(be.Store, cfg.IdentityCacheTTL, logger)
	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CookieSecure:       cfg.CookieSecure,
		Logger:             logger,
	}, apphttp.Deps{
		Cycles:       services.NewCycleService(be.Store, be.Publisher, logger),
		Transactions: services.NewTransactionService(be.Store, be.Publisher, logger),
		Users:        users,
		Export:       services.NewExportService(be.Store),
		Store:        be.Store,
		Caches:       []cache.Cleaner{users.IdentityCache()},
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting budget server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"change_notifications", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
