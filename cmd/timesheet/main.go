package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"timesheet/internal/backend"
	"timesheet/internal/cli"
	apphttp "timesheet/internal/http"
	applog "timesheet/internal/log"
	"timesheet/internal/users"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", applog.ComponentApp)
	cfg, logger := cli.LoadAndValidateConfig(logger)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	result, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	sharedCache, closeCache := cli.InitAnalyticsCache(logger, cfg)
	defer closeCache()

	srv := apphttp.NewServer(":"+cfg.Port, result.Entries, result.Store,
		users.NewDirectory(users.DemoUsers()),
		apphttp.Options{
			Logger:             logger,
			AnalyticsCache:     sharedCache,
			CacheSize:          cfg.AnalyticsCacheSize,
			CacheTTL:           cfg.AnalyticsCacheTTL,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting timesheet server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", result.Events)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
