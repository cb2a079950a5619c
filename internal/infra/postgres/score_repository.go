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

// ScoreRepository implements app.ScoreRepository over Postgres via bun.
type ScoreRepository struct {
	db *bun.DB
}

func NewScoreRepository(db *bun.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) BestVisible(ctx context.Context, player domain.PlayerIdentity, game domain.GameID) (domain.ScoreRecord, bool, error) {
	row := new(scoreRow)
	q := r.db.NewSelect().
		Model(row).
		Where("game_name = ?", string(game)).
		Where("player_name = ?", player.Name).
		Where("visible = TRUE").
		Order("value DESC").
		Limit(1)
	if player.AccountID != "" {
		q = q.Where("account_id = ?", player.AccountID)
	} else {
		q = q.Where("account_id IS NULL")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ScoreRecord{}, false, nil
		}
		return domain.ScoreRecord{}, false, fmt.Errorf("select best score: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *ScoreRepository) Insert(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	row := scoreRowFromDomain(rec)
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("insert score: %w", err)
	}
	return row.toDomain(), nil
}

func (r *ScoreRepository) Update(ctx context.Context, rec domain.ScoreRecord) error {
	row := scoreRowFromDomain(rec)
	res, err := r.db.NewUpdate().
		Model(&row).
		Column("player_name", "value", "account_id", "created_at", "visible").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrScoreNotFound
	}
	return nil
}

func (r *ScoreRepository) ListVisibleByGame(ctx context.Context, game domain.GameID) ([]domain.ScoreRecord, error) {
	var rows []scoreRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("game_name = ?", string(game)).
		Where("visible = TRUE").
		Order("value DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list visible scores: %w", err)
	}
	return toDomainScores(rows), nil
}

func (r *ScoreRepository) List(ctx context.Context, opts app.ScoreListOptions) ([]domain.ScoreRecord, error) {
	var rows []scoreRow
	q := r.db.NewSelect().Model(&rows).Order("created_at DESC")
	if opts.Game != "" {
		q = q.Where("game_name = ?", string(opts.Game))
	}
	if opts.OnlyVisible != nil {
		q = q.Where("visible = ?", *opts.OnlyVisible)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return toDomainScores(rows), nil
}

func (r *ScoreRepository) SetVisible(ctx context.Context, ids []string, visible bool) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*scoreRow)(nil)).
		Set("visible = ?", visible).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("set scores visible: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *ScoreRepository) Delete(ctx context.Context, ids []string) error {
	_, err := r.db.NewDelete().
		Model((*scoreRow)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}

func (r *ScoreRepository) HideGame(ctx context.Context, game domain.GameID) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*scoreRow)(nil)).
		Set("visible = FALSE").
		Where("game_name = ?", string(game)).
		Where("visible = TRUE").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("hide game scores: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *ScoreRepository) HideAccount(ctx context.Context, accountID string) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*scoreRow)(nil)).
		Set("visible = FALSE").
		Where("account_id = ?", accountID).
		Where("visible = TRUE").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("hide account scores: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *ScoreRepository) AnonymizeAccount(ctx context.Context, accountID, replacement string) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*scoreRow)(nil)).
		Set("player_name = ?", replacement).
		Set("account_id = NULL").
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("anonymize account scores: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func toDomainScores(rows []scoreRow) []domain.ScoreRecord {
	out := make([]domain.ScoreRecord, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out
}
