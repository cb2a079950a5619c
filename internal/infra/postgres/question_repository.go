package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
)

// QuestionRepository implements app.QuestionRepository over Postgres via bun.
type QuestionRepository struct {
	db *bun.DB
}

func NewQuestionRepository(db *bun.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) List(ctx context.Context, opts app.QuestionListOptions) ([]domain.Question, error) {
	var rows []questionRow
	q := r.db.NewSelect().Model(&rows).Order("created_at DESC")
	if opts.OnlyVisible {
		q = q.Where("visible = TRUE")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *QuestionRepository) Get(ctx context.Context, id string) (domain.Question, error) {
	row := new(questionRow)
	err := r.db.NewSelect().Model(row).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Question{}, domain.ErrQuestionNotFound
		}
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return row.toDomain(), nil
}

func (r *QuestionRepository) Insert(ctx context.Context, q domain.Question) (domain.Question, error) {
	row := questionRowFromDomain(q)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return row.toDomain(), nil
}

func (r *QuestionRepository) Update(ctx context.Context, q domain.Question) error {
	row := questionRowFromDomain(q)
	res, err := r.db.NewUpdate().
		Model(&row).
		Column("question", "answers", "correct_index", "visible", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*questionRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}
