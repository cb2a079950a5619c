package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"werkstatt-service/internal/domain"
)

// QuestionLoader reads the visible question pool straight over pgx, bypassing
// the ORM on the hot quiz-round path. Feeds memory.QuestionCache.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadVisibleQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, question, answers, correct_index, created_at, updated_at
		FROM quiz_questions
		WHERE visible = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		var rawAnswers []byte
		if err := rows.Scan(&q.ID, &q.Text, &rawAnswers, &q.CorrectIndex, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawAnswers, &q.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers: %w", err)
		}
		q.Visible = true
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}
