package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"werkstatt-service/internal/domain"
)

// AccountRepository implements app.AccountRepository over Postgres via bun.
type AccountRepository struct {
	db *bun.DB
}

func NewAccountRepository(db *bun.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (domain.UserAccount, bool, error) {
	row := new(accountRow)
	err := r.db.NewSelect().Model(row).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserAccount{}, false, nil
		}
		return domain.UserAccount{}, false, fmt.Errorf("get account: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *AccountRepository) Insert(ctx context.Context, acc domain.UserAccount) (domain.UserAccount, error) {
	row := accountRow{
		ID:         acc.ID,
		Username:   acc.Username,
		SecretHash: acc.SecretHash,
		CreatedAt:  acc.CreatedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.UserAccount{}, fmt.Errorf("insert account: %w", err)
	}
	return row.toDomain(), nil
}

func (r *AccountRepository) List(ctx context.Context, limit int) ([]domain.UserAccount, error) {
	var rows []accountRow
	q := r.db.NewSelect().Model(&rows).Order("username ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]domain.UserAccount, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.NewDelete().
		Model((*accountRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}
