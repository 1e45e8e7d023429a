// docbatch ingests local files into the pipeline: a one-shot directory walk
// with -dir, or a drop-folder watcher with -watch.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/derslik/derslik/internal/ai"
	"github.com/derslik/derslik/internal/async"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/convert"
	"github.com/derslik/derslik/internal/ingest"
	"github.com/derslik/derslik/internal/pipeline"
	"github.com/derslik/derslik/internal/repository"
	"github.com/derslik/derslik/internal/storage"
)

func main() {
	var (
		ownerFlag = flag.String("owner", "", "owner UUID the documents belong to (required)")
		dirFlag   = flag.String("dir", "", "directory to ingest")
		watchFlag = flag.Bool("watch", false, "keep watching the directory for new files")
	)
	flag.Parse()

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	logger := common.InitLogger(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	owner, err := uuid.Parse(*ownerFlag)
	if err != nil {
		logger.Error("-owner must be a UUID", "value", *ownerFlag)
		os.Exit(1)
	}
	if *dirFlag == "" {
		logger.Error("-dir is required")
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

	store, err := storage.NewMinioStore(cfg.Storage, logger)
	if err != nil {
		logger.Error("storage client failed", "error", err)
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

	ing := ingest.NewIngestor(docs, store, queue, logger)

	_, stats, err := ing.IngestDirectory(ctx, owner, *dirFlag, true)
	if err != nil {
		logger.Error("directory ingest failed", "error", err)
	}
	logger.Info("batch complete",
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)

	if *watchFlag {
		w := ingest.NewWatcher(ing, owner, *dirFlag, logger)
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("watcher failed", "error", err)
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	queue.Shutdown(drainCtx)
}
