package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Page is one unit of extracted text belonging to a document, numbered from 1.
type Page struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	PageNumber int
	Content    string
}

// PageContent is an extracted page before persistence.
type PageContent struct {
	PageNumber int
	Content    string
}

// PageRepository persists extracted pages. Extraction is idempotent: a
// retry clears and rewrites pages, never appends.
type PageRepository interface {
	// Replace deletes any prior pages for the document and writes the new
	// batch in a single transaction.
	Replace(ctx context.Context, documentID uuid.UUID, pages []PageContent) error
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error)
	CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error)
}

type pageRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPageRepository returns a pgx-backed PageRepository.
func NewPageRepository(pool *pgxpool.Pool, logger *slog.Logger) PageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &pageRepo{pool: pool, logger: logger}
}

func (r *pageRepo) Replace(ctx context.Context, documentID uuid.UUID, pages []PageContent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pages WHERE document_id = $1`, documentID); err != nil {
		r.logger.Error("page clear failed", "document_id", documentID, "error", err)
		return err
	}
	for _, p := range pages {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pages (id, document_id, page_number, content)
			VALUES ($1, $2, $3, $4)`,
			uuid.New(), documentID, p.PageNumber, p.Content,
		); err != nil {
			r.logger.Error("page insert failed", "document_id", documentID, "page", p.PageNumber, "error", err)
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("pages replaced", "document_id", documentID, "count", len(pages))
	return nil
}

func (r *pageRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Page, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, document_id, page_number, content
		FROM pages
		WHERE document_id = $1
		ORDER BY page_number`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.PageNumber, &p.Content); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pageRepo) CountByDocument(ctx context.Context, documentID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pages WHERE document_id = $1`, documentID).Scan(&n)
	return n, err
}
