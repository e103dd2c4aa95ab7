package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"immistat/internal/amqp"
	"immistat/internal/cli"
	"immistat/internal/config"
	"immistat/internal/core"
	apphttp "immistat/internal/http"
	applog "immistat/internal/log"
	"immistat/internal/metrics"
	"immistat/internal/middleware/ratelimit"
	"immistat/internal/records"
	"immistat/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	kv := cli.InitBackend(ctx, logger, cfg)
	if kv.Cleanup != nil {
		defer kv.Cleanup(context.Background())
	}

	store := records.NewStore(kv.Store, logger)
	loaded := store.Load(ctx)
	logger.Info("Records loaded", applog.FieldRecordCount, len(loaded), "backend", cfg.DataBackend)

	ids, err := core.NewSnowflakeIDs(cfg.SnowflakeNode)
	if err != nil {
		logger.Error("Failed to initialize id generator", applog.FieldError, err)
		os.Exit(1)
	}

	// Change events are optional; the dashboard works without a broker.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	svc := services.NewRecordService(store, &core.Builder{IDs: ids}, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:   logger,
		Metrics:  metrics.New(),
		UserRole: cfg.UserRole,
		Ready:    kv.Ping,
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Starting immistat server", "port", cfg.Port, "backend", cfg.DataBackend, "role", cfg.UserRole)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
