package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"gagyebu/internal/backend"
	"gagyebu/internal/cache"
	"gagyebu/internal/cli"
	apphttp "gagyebu/internal/http"
	"gagyebu/internal/log"
	"gagyebu/internal/metrics"
	"gagyebu/internal/services"
	"gagyebu/internal/session"
	"gagyebu/internal/sheets"
)

const (
	shutdownTimeout      = 30 * time.Second
	cacheCleanupInterval = time.Minute
)

func main() {
	cli.LoadEnvFile()
	bootstrap := cli.SetupLogger(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	cancelInit()
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	ledgerSvc := services.NewLedgerService(result.Backend.Store, result.Backend.Publisher, reg, logger.WithComponent(log.ComponentLedger))
	analyzerSvc := services.NewAnalyzerService(result.Backend.Sheets, result.Backend.Publisher, reg, logger.WithComponent(log.ComponentAnalyzer))

	sessions := session.NewManager(session.Options{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.SessionMax,
		OnEnd:       ledgerSvc.Reset,
		Logger:      logger.Logger,
	})
	reg.RegisterGaugeFunc("gagyebu_sessions_active", "Sessions currently held in memory", func() float64 {
		return float64(sessions.Active())
	})

	if counter, ok := result.Backend.Store.(sheets.SessionCounter); ok {
		reg.RegisterGaugeFunc("gagyebu_ledger_sessions_with_entries", "Sessions holding at least one ledger entry", func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			n, err := counter.Sessions(ctx)
			if err != nil {
				return 0
			}
			return float64(n)
		})
	}

	caches := cache.NewManager(logger.Logger)
	caches.Register("sessions", sessions.Cleaner())
	caches.StartCleanup(cacheCleanupInterval)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Ledger:             ledgerSvc,
		Analyzer:           analyzerSvc,
		Sessions:           sessions,
		Metrics:            reg,
		Ready:              result.Ready,
		UploadMaxBytes:     cfg.UploadMaxBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting gagyebu server",
		"port", cfg.Port,
		"backend", cfg.LedgerBackend,
		"amqp", cfg.AMQPEnabled(),
		"google_sheets", analyzerSvc.SheetsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
