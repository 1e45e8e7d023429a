// Package pipeline drives a document from upload to ready: status
// transitions, text extraction, image normalization and lesson generation.
// Every step persists its progress so a crash leaves an inspectable record
// instead of a half-processed document.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/ai"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/convert"
	"github.com/derslik/derslik/internal/extract"
	"github.com/derslik/derslik/internal/repository"
	"github.com/derslik/derslik/internal/storage"
)

// Processor owns one document's trip through the pipeline.
type Processor struct {
	docs    repository.DocumentRepository
	pages   repository.PageRepository
	lessons repository.LessonRepository
	store   storage.ObjectStore
	gen     ai.Generator
	runner  convert.Runner
	heic    string
	logger  *slog.Logger
}

// Outcome summarizes a finished extraction for synchronous callers.
type Outcome struct {
	Method    string
	PageCount int
}

// NewProcessor wires the pipeline. heicConverter names the external HEIC
// tool ("heif-convert" | "magick" | "sips").
func NewProcessor(
	docs repository.DocumentRepository,
	pages repository.PageRepository,
	lessons repository.LessonRepository,
	store storage.ObjectStore,
	gen ai.Generator,
	runner convert.Runner,
	heicConverter string,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		docs:    docs,
		pages:   pages,
		lessons: lessons,
		store:   store,
		gen:     gen,
		runner:  runner,
		heic:    heicConverter,
		logger:  logger,
	}
}

// Run processes a document end to end: extraction, then lesson generation.
// It is safe to call twice; the losing caller gets a conflict error and the
// document is untouched.
func (p *Processor) Run(ctx context.Context, documentID uuid.UUID) (Outcome, error) {
	outcome, err := p.StartExtraction(ctx, documentID)
	if err != nil {
		return Outcome{}, err
	}
	if err := p.GenerateLesson(ctx, documentID); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// StartExtraction runs only the extraction stage, leaving the document in
// analyzing. Synchronous callers use it to report method and page count,
// then queue the lesson stage separately.
func (p *Processor) StartExtraction(ctx context.Context, documentID uuid.UUID) (Outcome, error) {
	outcome, err := p.extractStage(ctx, documentID)
	if err != nil {
		p.fail(ctx, documentID, constants.StatusError, err)
		return Outcome{}, err
	}
	return outcome, nil
}

// GenerateLesson runs only the lesson stage for a document in analyzing.
func (p *Processor) GenerateLesson(ctx context.Context, documentID uuid.UUID) error {
	if err := p.lessonStage(ctx, documentID); err != nil {
		p.fail(ctx, documentID, constants.StatusError, err)
		return err
	}
	return nil
}

func (p *Processor) extractStage(ctx context.Context, documentID uuid.UUID) (Outcome, error) {
	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return Outcome{}, err
	}

	target := constants.StatusProcessing
	if doc.FileCategory == constants.CategoryImage {
		target = constants.StatusOCRProcessing
	}
	swapped, err := p.docs.TransitionStatus(ctx, documentID, constants.ExtractionStartStates, target)
	if err != nil {
		return Outcome{}, err
	}
	if !swapped {
		return Outcome{}, common.E(common.KindConflict, "Bu dosya zaten işleniyor.", nil)
	}
	p.logger.Info("extraction started", "document_id", documentID, "category", doc.FileCategory, "format", doc.FileFormat)

	key, err := p.resolveKey(doc)
	if err != nil {
		return Outcome{}, err
	}
	data, err := p.store.Get(ctx, key)
	if err != nil {
		return Outcome{}, err
	}

	var (
		pages  []repository.PageContent
		method string
	)
	switch doc.FileCategory {
	case constants.CategoryText:
		pages, err = extract.TextDocument(doc.FileFormat, data)
		method = constants.MethodTextExtraction
	case constants.CategoryPDF:
		pages, method, err = p.extractPDF(ctx, documentID, data)
	case constants.CategoryImage:
		pages, err = p.extractImage(ctx, doc, data)
		method = constants.MethodGeminiVision
	default:
		err = common.UnsupportedFormatError(doc.FileFormat, constants.AcceptedExtensions())
	}
	if err != nil {
		return Outcome{}, err
	}
	if len(pages) == 0 {
		return Outcome{}, common.NoContentError()
	}

	if err := p.pages.Replace(ctx, documentID, pages); err != nil {
		return Outcome{}, err
	}
	if err := p.docs.MarkAnalyzing(ctx, documentID, len(pages)); err != nil {
		return Outcome{}, err
	}
	meta := map[string]any{
		constants.MetaMethod:      method,
		constants.MetaFormat:      doc.FileFormat,
		constants.MetaPageCount:   len(pages),
		constants.MetaWordCount:   extract.CountWords(pages),
		constants.MetaProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := p.docs.MergeMetadata(ctx, documentID, meta); err != nil {
		return Outcome{}, err
	}

	p.logger.Info("extraction finished",
		"document_id", documentID,
		"method", method,
		"pages", len(pages),
	)
	return Outcome{Method: method, PageCount: len(pages)}, nil
}

// extractPDF tries the native text layer first; a missing or sparse layer
// escalates the document to OCR.
func (p *Processor) extractPDF(ctx context.Context, documentID uuid.UUID, data []byte) ([]repository.PageContent, string, error) {
	pages, err := extract.PDFTextLayer(data)
	if err != nil {
		return nil, "", err
	}
	if pages != nil {
		return pages, constants.MethodPDFTextLayer, nil
	}

	p.logger.Info("pdf text layer too sparse, falling back to ocr", "document_id", documentID)
	if _, err := p.docs.TransitionStatus(ctx, documentID,
		[]constants.DocumentStatus{constants.StatusProcessing}, constants.StatusOCRProcessing); err != nil {
		return nil, "", err
	}
	pages, err = extract.Vision(ctx, p.gen, extract.PDFMimeType, data)
	if err != nil {
		return nil, "", err
	}
	return pages, constants.MethodGeminiVision, nil
}

// extractImage normalizes the payload to JPEG when needed, persists the
// converted intermediate, then runs vision OCR.
func (p *Processor) extractImage(ctx context.Context, doc *repository.Document, data []byte) ([]repository.PageContent, error) {
	ext := constants.NormalizeExt(doc.FileFormat)
	payload := data
	mimeType := extract.ImageMimeType(ext)

	if convert.NeedsConversion(ext) {
		var (
			jpg  []byte
			info convert.Info
			err  error
		)
		if constants.IsHEICExt(ext) {
			jpg, info, err = convert.HEICToJPEG(ctx, p.runner, p.heic, data)
		} else {
			jpg, info, err = convert.ToJPEG(ext, data)
		}
		if err != nil {
			return nil, err
		}

		convertedKey := storage.ConvertedKey(doc.OwnerID)
		if err := p.store.Put(ctx, convertedKey, jpg, "image/jpeg"); err != nil {
			return nil, err
		}
		if err := p.docs.MergeMetadata(ctx, doc.ID, map[string]any{
			constants.MetaConvertedKey: convertedKey,
			constants.MetaImageWidth:   info.Width,
			constants.MetaImageHeight:  info.Height,
			constants.MetaImageBytes:   info.Bytes,
		}); err != nil {
			return nil, err
		}
		p.logger.Info("image normalized",
			"document_id", doc.ID,
			"from", ext,
			"width", info.Width,
			"height", info.Height,
		)
		payload = jpg
		mimeType = "image/jpeg"
	}

	return extract.Vision(ctx, p.gen, mimeType, payload)
}

// resolveKey finds the storage key for a document, falling back to parsing
// the public URL for records created before key tracking.
func (p *Processor) resolveKey(doc *repository.Document) (string, error) {
	if doc.StorageKey != "" {
		return doc.StorageKey, nil
	}
	if key, ok := doc.ProcessingMetadata[constants.MetaStorageKey].(string); ok && key != "" {
		return key, nil
	}
	if key, ok := storage.KeyFromPublicURL(doc.PublicURL); ok {
		return key, nil
	}
	return "", common.FilePathNotFoundError()
}

// MarkDeadline records a timed-out run as a user-visible error. The worker
// queue calls this after the job context expires so the document never
// sticks in an in-flight status.
func (p *Processor) MarkDeadline(ctx context.Context, documentID uuid.UUID) {
	p.fail(ctx, documentID, constants.StatusError, common.DeadlineError())
}

// fail records a terminal failure. It must never panic or propagate: the
// document row is the only place the user can see what went wrong.
func (p *Processor) fail(ctx context.Context, documentID uuid.UUID, status constants.DocumentStatus, cause error) {
	if common.KindOf(cause) == common.KindConflict {
		// The other runner owns the document; don't clobber its status.
		return
	}
	p.logger.Error("pipeline failed",
		"document_id", documentID,
		"kind", common.KindOf(cause),
		"error", cause,
	)
	if err := p.docs.MarkFailure(ctx, documentID, status, common.UserMessage(cause)); err != nil {
		p.logger.Error("failure record write failed", "document_id", documentID, "error", err)
	}
	if err := p.docs.MergeMetadata(ctx, documentID, map[string]any{
		constants.MetaFailedMethod: string(common.KindOf(cause)),
	}); err != nil {
		p.logger.Error("failure metadata write failed", "document_id", documentID, "error", err)
	}
}
