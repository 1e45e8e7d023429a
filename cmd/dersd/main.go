// dersd is the ingestion pipeline daemon: HTTP API, worker queue and the
// extraction pipeline in one process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/derslik/derslik/internal/ai"
	"github.com/derslik/derslik/internal/async"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/convert"
	"github.com/derslik/derslik/internal/export"
	"github.com/derslik/derslik/internal/pipeline"
	"github.com/derslik/derslik/internal/repository"
	"github.com/derslik/derslik/internal/server"
	"github.com/derslik/derslik/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := common.InitLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := repository.HealthCheck(ctx, pool, 3*time.Second); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewMinioStore(cfg.Storage, logger)
	if err != nil {
		logger.Error("storage client failed", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("bucket setup failed", "error", err)
		os.Exit(1)
	}

	gen, err := ai.NewVertexGenerator(ctx, cfg.AI, logger)
	if err != nil {
		logger.Error("vertex client failed", "error", err)
		os.Exit(1)
	}
	defer gen.Close()

	docs := repository.NewDocumentRepository(pool, logger)
	pages := repository.NewPageRepository(pool, logger)
	lessons := repository.NewLessonRepository(pool, logger)

	proc := pipeline.NewProcessor(docs, pages, lessons, store, gen, convert.ExecRunner{}, cfg.Pipeline.HeicConverter, logger)
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.RunTimeout),
	)

	srv := server.New(cfg.Server, docs, pages, store, queue, proc, export.NewService(docs, logger), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
