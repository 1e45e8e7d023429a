// Package ingest feeds local files into the pipeline in bulk: a one-shot
// directory walk, or a filesystem watcher for drop-folder setups.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/async"
	"github.com/derslik/derslik/internal/repository"
	"github.com/derslik/derslik/internal/storage"
)

// Result records the outcome of ingesting one file.
type Result struct {
	DocumentID   uuid.UUID
	Path         string
	Deduplicated bool
	Err          string
}

// Stats summarizes a directory run.
type Stats struct {
	Scanned      int
	Matched      int
	Succeeded    int
	Deduplicated int
	Failed       int
}

// Ingestor uploads local files, creates their document rows and queues
// extraction. Duplicate content (by SHA-256) within one session is skipped.
type Ingestor struct {
	docs   repository.DocumentRepository
	store  storage.ObjectStore
	queue  async.Queue
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]uuid.UUID // content hash -> first document
}

func NewIngestor(docs repository.DocumentRepository, store storage.ObjectStore, queue async.Queue, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		docs:   docs,
		store:  store,
		queue:  queue,
		logger: logger,
		seen:   map[string]uuid.UUID{},
	}
}

// IngestFile uploads one file and queues it for extraction.
func (i *Ingestor) IngestFile(ctx context.Context, ownerID uuid.UUID, path string) (Result, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	category, ok := constants.Classify(ext)
	if !ok {
		return Result{Path: path, Err: "unsupported format: " + ext}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: err.Error()}, err
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	i.mu.Lock()
	if prior, dup := i.seen[hash]; dup {
		i.mu.Unlock()
		i.logger.Info("skipping duplicate content", "path", path, "document_id", prior)
		return Result{DocumentID: prior, Path: path, Deduplicated: true}, nil
	}
	i.mu.Unlock()

	key := storage.UploadKey(ownerID, ext)
	if err := i.store.Put(ctx, key, data, ""); err != nil {
		return Result{Path: path, Err: err.Error()}, err
	}

	doc, err := i.docs.Create(ctx, repository.NewDocument{
		OwnerID:          ownerID,
		Title:            titleFromPath(path),
		OriginalFileName: filepath.Base(path),
		FileCategory:     category,
		FileFormat:       ext,
		StorageKey:       key,
		PublicURL:        i.store.PublicURL(key),
	})
	if err != nil {
		return Result{Path: path, Err: err.Error()}, err
	}
	if err := i.docs.MergeMetadata(ctx, doc.ID, map[string]any{"content_hash": hash}); err != nil {
		i.logger.Warn("content hash not recorded", "document_id", doc.ID, "error", err)
	}

	i.mu.Lock()
	i.seen[hash] = doc.ID
	i.mu.Unlock()

	if err := i.queue.Enqueue(ctx, async.Job{DocumentID: doc.ID, SubmittedAt: time.Now()}); err != nil {
		return Result{DocumentID: doc.ID, Path: path, Err: err.Error()}, err
	}

	i.logger.Info("file ingested", "path", path, "document_id", doc.ID, "category", category)
	return Result{DocumentID: doc.ID, Path: path}, nil
}

// IngestDirectory walks root and ingests every file with a supported
// extension. Hidden entries are skipped when skipHidden is set.
func (i *Ingestor) IngestDirectory(ctx context.Context, ownerID uuid.UUID, root string, skipHidden bool) ([]Result, Stats, error) {
	var (
		results []Result
		stats   Stats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if skipHidden && strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if _, ok := constants.Classify(filepath.Ext(path)); !ok {
			return nil
		}
		stats.Matched++

		r, ferr := i.IngestFile(ctx, ownerID, path)
		results = append(results, r)
		switch {
		case ferr != nil:
			stats.Failed++
		case r.Deduplicated:
			stats.Deduplicated++
		default:
			stats.Succeeded++
		}
		return nil
	})
	if err != nil {
		return results, stats, err
	}

	i.logger.Info("directory ingest completed",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
