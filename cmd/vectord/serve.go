package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/config"
	"github.com/fyrsmithlabs/vectord/internal/embeddings"
	"github.com/fyrsmithlabs/vectord/internal/httpapi"
	"github.com/fyrsmithlabs/vectord/internal/logging"
	"github.com/fyrsmithlabs/vectord/internal/qdrant"
	"github.com/fyrsmithlabs/vectord/internal/stats"
	"github.com/fyrsmithlabs/vectord/internal/telemetry"
	"github.com/fyrsmithlabs/vectord/internal/vectorstore"
)

// runServe wires configuration, logging, the engine client, the stores, and
// the HTTP server, then blocks until SIGINT or SIGTERM.
func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	logger.Info("starting vectord",
		zap.String("version", version),
		zap.String("qdrant_host", cfg.Qdrant.Host),
		zap.Int("qdrant_port", cfg.Qdrant.Port))

	cfg.Telemetry.ServiceVersion = version
	tel, err := telemetry.New(context.Background(), &cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	client, err := qdrant.NewGRPCClient(&qdrant.ClientConfig{
		Host:           cfg.Qdrant.Host,
		Port:           cfg.Qdrant.Port,
		APIKey:         cfg.Qdrant.APIKey.Value(),
		UseTLS:         cfg.Qdrant.UseTLS,
		RequestTimeout: cfg.Qdrant.RequestTimeout.Duration(),
		RetryAttempts:  cfg.Qdrant.RetryAttempts,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to qdrant: %w", err)
	}
	defer func() { _ = client.Close() }()

	tracker := stats.NewTracker()

	memories, err := vectorstore.NewMemoryStore(client, vectorstore.MemoryStoreConfig{
		Collection: cfg.Memory.Collection,
		Dimension:  cfg.Memory.Dimension,
	}, tracker, logger)
	if err != nil {
		return fmt.Errorf("building memory store: %w", err)
	}

	docs, err := vectorstore.NewDocumentStore(client, vectorstore.DocumentStoreConfig{
		Collection:   cfg.Document.Collection,
		Dimension:    cfg.Document.Dimension,
		MaxBatchSize: cfg.Document.MaxBatchSize,
	}, tracker, logger)
	if err != nil {
		return fmt.Errorf("building document store: %w", err)
	}

	server, err := httpapi.NewServer(memories, docs, client, tracker,
		embeddings.NewNoneEmbedder(cfg.Memory.Dimension), logger, &httpapi.Config{
			Port:         cfg.Server.Port,
			APIKey:       cfg.Server.APIKey.Value(),
			MaxBatchSize: cfg.Document.MaxBatchSize,
			Version:      version,
		})
	if err != nil {
		return fmt.Errorf("building http server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter := stats.NewReporter(tracker, cfg.Stats.ReportInterval.Duration(), logger)
	go reporter.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
