package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/derslik/derslik/internal/pipeline"
)

// Processor is the pipeline surface the queue drives.
type Processor interface {
	Run(ctx context.Context, documentID uuid.UUID) (pipeline.Outcome, error)
	Retry(ctx context.Context, documentID uuid.UUID) (pipeline.Outcome, error)
	GenerateLesson(ctx context.Context, documentID uuid.UUID) error
	// MarkDeadline records a timed-out run as a user-visible error so the
	// document never sticks in an in-flight status.
	MarkDeadline(ctx context.Context, documentID uuid.UUID)
}

type ProcessorQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 60 * time.Second,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	var err error
	switch {
	case job.Retry:
		_, err = q.proc.Retry(ctx, job.DocumentID)
	case job.LessonOnly:
		err = q.proc.GenerateLesson(ctx, job.DocumentID)
	default:
		_, err = q.proc.Run(ctx, job.DocumentID)
	}
	if err == nil {
		q.logger.Info("document processed",
			"worker_id", workerID,
			"document_id", job.DocumentID,
			"queued_for_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		// The job context is dead; the failure record needs its own.
		mctx, mcancel := context.WithTimeout(context.Background(), 5*time.Second)
		q.proc.MarkDeadline(mctx, job.DocumentID)
		mcancel()
		q.logger.Error("processing deadline exceeded",
			"worker_id", workerID,
			"document_id", job.DocumentID,
			"timeout", q.timeout,
		)
		return
	}
	q.logger.Error("processing failed", "worker_id", workerID, "document_id", job.DocumentID, "error", err)
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "document_id", job.DocumentID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "document_id", job.DocumentID, "retry", job.Retry)
	default:
		q.logger.Warn("queue full, applying backpressure", "document_id", job.DocumentID)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
