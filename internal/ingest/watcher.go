package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
)

// settleDelay gives editors and copy tools time to finish writing before
// the file is read.
const settleDelay = 500 * time.Millisecond

// Watcher ingests files as they appear in a drop directory.
type Watcher struct {
	ingestor *Ingestor
	ownerID  uuid.UUID
	dir      string
	logger   *slog.Logger
}

func NewWatcher(ing *Ingestor, ownerID uuid.UUID, dir string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{ingestor: ing, ownerID: ownerID, dir: dir, logger: logger}
}

// Run watches the directory until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if _, supported := constants.Classify(filepath.Ext(event.Name)); !supported {
				continue
			}
			time.Sleep(settleDelay)
			if _, err := w.ingestor.IngestFile(ctx, w.ownerID, event.Name); err != nil {
				w.logger.Error("watcher ingest failed", "path", event.Name, "error", err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
