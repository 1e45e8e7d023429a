// Package async runs pipeline jobs on a bounded worker pool. Extraction can
// take tens of seconds per document, so HTTP handlers enqueue and return
// instead of holding the connection open.
package async

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Job is one document to process. Retry routes through the retry
// coordinator instead of a fresh extraction; LessonOnly skips extraction
// for documents whose text is already in analyzing.
type Job struct {
	DocumentID  uuid.UUID
	Retry       bool
	LessonOnly  bool
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
