package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"werkstatt-service/internal/domain"
)

// AccountRepository is an in-memory implementation of app.AccountRepository.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.UserAccount
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]domain.UserAccount)}
}

func (r *AccountRepository) GetByUsername(_ context.Context, username string) (domain.UserAccount, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acc := range r.accounts {
		if acc.Username == username {
			return acc, true, nil
		}
	}
	return domain.UserAccount{}, false, nil
}

func (r *AccountRepository) Insert(_ context.Context, acc domain.UserAccount) (domain.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	for _, existing := range r.accounts {
		if existing.Username == acc.Username {
			return domain.UserAccount{}, domain.ErrUsernameTaken
		}
	}
	r.accounts[acc.ID] = acc
	return acc, nil
}

func (r *AccountRepository) List(_ context.Context, limit int) ([]domain.UserAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserAccount, 0, len(r.accounts))
	for _, acc := range r.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}
