package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/derslik/derslik/constants"
	"github.com/derslik/derslik/internal/ai"
	"github.com/derslik/derslik/internal/common"
	"github.com/derslik/derslik/internal/lesson"
)

// lessonStage turns extracted pages into persisted lesson content. Runs
// only from analyzing; a rerun replaces prior scenes, cards and questions.
func (p *Processor) lessonStage(ctx context.Context, documentID uuid.UUID) error {
	swapped, err := p.docs.TransitionStatus(ctx, documentID,
		[]constants.DocumentStatus{constants.StatusAnalyzing}, constants.StatusGeneratingScenes)
	if err != nil {
		return err
	}
	if !swapped {
		return common.E(common.KindConflict, "Ders içeriği zaten oluşturuluyor.", nil)
	}

	doc, err := p.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	pages, err := p.pages.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return common.NoContentError()
	}

	var b strings.Builder
	for i, pg := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pg.Content)
	}

	raw, err := p.gen.GenerateText(ctx, ai.LessonPrompt(b.String(), doc.GradeLevel))
	if err != nil {
		return common.E(common.KindInternal, "Ders içeriği oluşturulamadı. Lütfen tekrar deneyin.", err)
	}
	content, err := lesson.Parse([]byte(ai.ExtractJSON(raw)))
	if err != nil {
		return common.AIUnparseableError(err)
	}

	if err := p.lessons.Replace(ctx, documentID, content); err != nil {
		return err
	}
	if err := p.docs.MarkReady(ctx, documentID, content.Summary); err != nil {
		return err
	}

	p.logger.Info("lesson generated",
		"document_id", documentID,
		"scenes", len(content.Scenes),
		"flashcards", len(content.Flashcards),
		"quiz", len(content.Quiz),
	)
	return nil
}
