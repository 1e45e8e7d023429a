package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/common"
)

// Document is a parent-uploaded file and its processing record.
type Document struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	Title              string
	GradeLevel         int
	OriginalFileName   string
	FileCategory       constants.FileCategory
	FileFormat         string
	StorageKey         string
	PublicURL          string
	Status             constants.DocumentStatus
	ErrorMessage       string
	PageCount          int
	LessonSummary      string
	ProcessingMetadata map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewDocument carries the fields needed to create a document at upload time.
type NewDocument struct {
	OwnerID          uuid.UUID
	Title            string
	GradeLevel       int
	OriginalFileName string
	FileCategory     constants.FileCategory
	FileFormat       string
	StorageKey       string
	PublicURL        string
}

// DocumentRepository is the persistence surface the pipeline depends on.
type DocumentRepository interface {
	Create(ctx context.Context, d NewDocument) (*Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	// TransitionStatus is a compare-and-swap: the update applies only when
	// the current status is one of from. It returns false when the swap
	// lost, closing the §5 race window. Entering an in-flight state clears
	// error_message.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []constants.DocumentStatus, to constants.DocumentStatus) (bool, error)
	// MarkFailure sets a terminal failure status plus the user-facing message.
	MarkFailure(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, message string) error
	// MarkAnalyzing records a successful extraction: page count + status.
	MarkAnalyzing(ctx context.Context, id uuid.UUID, pageCount int) error
	// MarkReady records the lesson summary and terminal success.
	MarkReady(ctx context.Context, id uuid.UUID, summary string) error
	// MergeMetadata merges patch into processing_metadata (additive, never replaces).
	MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) error
	// IncrementRetryCount bumps processing_metadata.retry_count and returns the new value.
	IncrementRetryCount(ctx context.Context, id uuid.UUID) (int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Document, error)
}

type documentRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewDocumentRepository returns a pgx-backed DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{pool: pool, logger: logger}
}

const documentColumns = `
	id, owner_id, title, grade_level, original_file_name, file_category,
	file_format, storage_key, COALESCE(public_url, ''), status,
	COALESCE(error_message, ''), page_count, COALESCE(lesson_summary, ''),
	processing_metadata, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var meta []byte
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.Title, &d.GradeLevel, &d.OriginalFileName,
		&d.FileCategory, &d.FileFormat, &d.StorageKey, &d.PublicURL,
		&d.Status, &d.ErrorMessage, &d.PageCount, &d.LessonSummary,
		&meta, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ProcessingMetadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &d.ProcessingMetadata); err != nil {
			return nil, fmt.Errorf("decode processing_metadata: %w", err)
		}
	}
	return &d, nil
}

func (r *documentRepo) Create(ctx context.Context, d NewDocument) (*Document, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO documents (
			id, owner_id, title, grade_level, original_file_name,
			file_category, file_format, storage_key, public_url, status,
			processing_metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING`+documentColumns,
		uuid.New(), d.OwnerID, d.Title, d.GradeLevel, d.OriginalFileName,
		string(d.FileCategory), d.FileFormat, d.StorageKey, d.PublicURL,
		string(constants.StatusPending), initialMetadata(d.StorageKey),
	)
	doc, err := scanDocument(row)
	if err != nil {
		r.logger.Error("document create failed", "owner_id", d.OwnerID, "error", err)
		return nil, err
	}
	r.logger.Info("document created", "document_id", doc.ID, "category", doc.FileCategory, "format", doc.FileFormat)
	return doc, nil
}

func initialMetadata(storageKey string) []byte {
	b, _ := json.Marshal(map[string]any{constants.MetaStorageKey: storageKey})
	return b
}

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.E(common.KindNotFound, "Kurs bulunamadı.", err)
	}
	return doc, err
}

func (r *documentRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []constants.DocumentStatus, to constants.DocumentStatus) (bool, error) {
	fromStrs := make([]string, len(from))
	for i, s := range from {
		fromStrs[i] = string(s)
	}
	clearErr := ""
	if to.InFlight() {
		clearErr = ", error_message = NULL"
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1`+clearErr+`, updated_at = now()
		WHERE id = $2 AND status = ANY($3)`,
		string(to), id, fromStrs,
	)
	if err != nil {
		r.logger.Error("status transition failed", "document_id", id, "to", to, "error", err)
		return false, err
	}
	swapped := tag.RowsAffected() == 1
	if !swapped {
		r.logger.Warn("status transition lost", "document_id", id, "to", to, "expected_from", fromStrs)
	}
	return swapped, nil
}

func (r *documentRepo) MarkFailure(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, message string) error {
	if !status.IsFailure() {
		return fmt.Errorf("not a failure status: %s", status)
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, error_message = $2, updated_at = now()
		WHERE id = $3`,
		string(status), message, id,
	)
	if err != nil {
		r.logger.Error("mark failure failed", "document_id", id, "error", err)
		return err
	}
	r.logger.Warn("document marked failed", "document_id", id, "status", status, "message", message)
	return nil
}

func (r *documentRepo) MarkAnalyzing(ctx context.Context, id uuid.UUID, pageCount int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, page_count = $2, error_message = NULL, updated_at = now()
		WHERE id = $3`,
		string(constants.StatusAnalyzing), pageCount, id,
	)
	if err != nil {
		r.logger.Error("mark analyzing failed", "document_id", id, "error", err)
	}
	return err
}

func (r *documentRepo) MarkReady(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE documents
		SET status = $1, lesson_summary = $2, updated_at = now()
		WHERE id = $3`,
		string(constants.StatusReady), summary, id,
	)
	if err != nil {
		r.logger.Error("mark ready failed", "document_id", id, "error", err)
	}
	return err
}

func (r *documentRepo) MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	b, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal metadata patch: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE documents
		SET processing_metadata = processing_metadata || $1::jsonb, updated_at = now()
		WHERE id = $2`,
		b, id,
	)
	if err != nil {
		r.logger.Error("metadata merge failed", "document_id", id, "error", err)
	}
	return err
}

func (r *documentRepo) IncrementRetryCount(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		UPDATE documents
		SET processing_metadata = jsonb_set(
			processing_metadata,
			'{retry_count}',
			to_jsonb(COALESCE((processing_metadata->>'retry_count')::int, 0) + 1)
		), updated_at = now()
		WHERE id = $1
		RETURNING (processing_metadata->>'retry_count')::int`,
		id,
	).Scan(&count)
	if err != nil {
		r.logger.Error("retry count increment failed", "document_id", id, "error", err)
		return 0, err
	}
	return count, nil
}

func (r *documentRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+documentColumns+`
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
