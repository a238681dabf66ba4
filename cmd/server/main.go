package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/nightsift/sighting-data-service/internal/adapter/http"
	"github.com/nightsift/sighting-data-service/internal/adapter/csvsource"
	kafkaadapter "github.com/nightsift/sighting-data-service/internal/adapter/kafka"
	"github.com/nightsift/sighting-data-service/internal/config"
	"github.com/nightsift/sighting-data-service/internal/dataset"
	"github.com/nightsift/sighting-data-service/internal/engine"
	"github.com/nightsift/sighting-data-service/internal/observability"
)

func main() {
	// .env is a local-development convenience; absence is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	eng := engine.New(logger, metrics)

	source := buildSource(cfg, logger)
	sampler := dataset.NewSampler(cfg.SamplePolicy(), nil)
	loader := dataset.New(source, sampler, eng, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Ingest once at startup. A failed load keeps the canonical set empty
	// and the service unready rather than crashing the process.
	go func() {
		if err := loader.Load(ctx); err != nil {
			logger.Error("initial load failed", "error", err, "source", cfg.SourceKind)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func buildSource(cfg *config.Config, logger *slog.Logger) dataset.RowSource {
	switch cfg.SourceKind {
	case config.SourceHTTP:
		return csvsource.NewHTTP(cfg.SourceURL, cfg.SourceFetchTimeout)
	case config.SourceKafka:
		return kafkaadapter.NewSource(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	default:
		return csvsource.NewFile(cfg.SourcePath)
	}
}
