package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/derslik/derslik/internal/lesson"
)

// LessonRepository persists generated lesson content. Ownership is
// exclusively the parent document; a rerun replaces everything.
type LessonRepository interface {
	Replace(ctx context.Context, documentID uuid.UUID, content lesson.Content) error
	ListScenes(ctx context.Context, documentID uuid.UUID) ([]lesson.Scene, error)
}

type lessonRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLessonRepository returns a pgx-backed LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool, logger *slog.Logger) LessonRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &lessonRepo{pool: pool, logger: logger}
}

func (r *lessonRepo) Replace(ctx context.Context, documentID uuid.UUID, content lesson.Content) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"scenes", "flashcards", "quiz_questions"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE document_id = $1`, documentID); err != nil {
			r.logger.Error("lesson clear failed", "document_id", documentID, "table", table, "error", err)
			return err
		}
	}

	for _, s := range content.Scenes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO scenes (id, document_id, scene_order, narrative_text, visual_description, learning_objective)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), documentID, s.Order, s.Narrative, s.VisualPrompt, s.EducationalGoal,
		); err != nil {
			r.logger.Error("scene insert failed", "document_id", documentID, "order", s.Order, "error", err)
			return err
		}
	}
	for _, f := range content.Flashcards {
		if _, err := tx.Exec(ctx, `
			INSERT INTO flashcards (id, document_id, term, definition, example)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), documentID, f.Term, f.Definition, f.Example,
		); err != nil {
			return err
		}
	}
	for i, q := range content.Quiz {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO quiz_questions (id, document_id, question_order, question, options, correct_index, explanation)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), documentID, i+1, q.Question, opts, q.CorrectAnswerIndex, q.Explanation,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Info("lesson content replaced",
		"document_id", documentID,
		"scenes", len(content.Scenes),
		"flashcards", len(content.Flashcards),
		"quiz", len(content.Quiz),
	)
	return nil
}

func (r *lessonRepo) ListScenes(ctx context.Context, documentID uuid.UUID) ([]lesson.Scene, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scene_order, narrative_text, visual_description, learning_objective
		FROM scenes
		WHERE document_id = $1
		ORDER BY scene_order`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []lesson.Scene
	for rows.Next() {
		var s lesson.Scene
		if err := rows.Scan(&s.Order, &s.Narrative, &s.VisualPrompt, &s.EducationalGoal); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
