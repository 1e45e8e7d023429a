package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/extract"
)

// Retry re-runs extraction for a failed text document. Only the text
// category is retryable; PDFs and images already fall back internally, so
// a second pass over the same bytes cannot do better.
//
// A retry that fails lands the document in the terminal failed status, not
// error, so the client stops offering the retry action.
func (p *Processor) Retry(ctx context.Context, documentID uuid.UUID) (Outcome, error) {
	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return Outcome{}, err
	}
	if doc.FileCategory != constants.CategoryText {
		return Outcome{}, common.RetryUnsupportedError()
	}
	key, err := p.resolveKey(doc)
	if err != nil {
		// No recoverable path to the bytes; terminal.
		p.fail(ctx, documentID, constants.StatusFailed, err)
		return Outcome{}, err
	}

	swapped, err := p.docs.TransitionStatus(ctx, documentID,
		[]constants.DocumentStatus{constants.StatusError, constants.StatusFailed}, constants.StatusProcessing)
	if err != nil {
		return Outcome{}, err
	}
	if !swapped {
		return Outcome{}, common.E(common.KindConflict, "Bu dosya zaten işleniyor.", nil)
	}

	attempt, err := p.docs.IncrementRetryCount(ctx, documentID)
	if err != nil {
		p.fail(ctx, documentID, constants.StatusFailed, err)
		return Outcome{}, err
	}
	p.logger.Info("extraction retry started", "document_id", documentID, "attempt", attempt)

	outcome, err := p.retryExtract(ctx, documentID, doc.FileFormat, key)
	if err != nil {
		p.fail(ctx, documentID, constants.StatusFailed,
			common.E(common.KindOf(err), "Tekrar deneme başarısız: "+common.UserMessage(err), err))
		return Outcome{}, err
	}

	if err := p.lessonStage(ctx, documentID); err != nil {
		p.fail(ctx, documentID, constants.StatusFailed, err)
		return outcome, err
	}
	return outcome, nil
}

func (p *Processor) retryExtract(ctx context.Context, documentID uuid.UUID, format, key string) (Outcome, error) {
	data, err := p.store.Get(ctx, key)
	if err != nil {
		return Outcome{}, err
	}
	pages, err := extract.TextDocument(format, data)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.pages.Replace(ctx, documentID, pages); err != nil {
		return Outcome{}, err
	}
	if err := p.docs.MarkAnalyzing(ctx, documentID, len(pages)); err != nil {
		return Outcome{}, err
	}
	if err := p.docs.MergeMetadata(ctx, documentID, map[string]any{
		constants.MetaMethod:    constants.MethodTextRetry,
		constants.MetaPageCount: len(pages),
		constants.MetaWordCount: extract.CountWords(pages),
	}); err != nil {
		return Outcome{}, err
	}
	return Outcome{Method: constants.MethodTextRetry, PageCount: len(pages)}, nil
}
