package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
)

// ScoreRepository is an in-memory implementation of app.ScoreRepository,
// useful for tests and for running the service without Postgres.
type ScoreRepository struct {
	mu      sync.RWMutex
	records map[string]domain.ScoreRecord
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{records: make(map[string]domain.ScoreRecord)}
}

func (r *ScoreRepository) BestVisible(_ context.Context, player domain.PlayerIdentity, game domain.GameID) (domain.ScoreRecord, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best domain.ScoreRecord
	found := false
	key := player.Key()
	for _, rec := range r.records {
		if rec.Game != game || !rec.Visible || rec.Identity().Key() != key {
			continue
		}
		if !found || rec.Value > best.Value {
			best = rec
			found = true
		}
	}
	return best, found, nil
}

func (r *ScoreRepository) Insert(_ context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *ScoreRepository) Update(_ context.Context, rec domain.ScoreRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return domain.ErrScoreNotFound
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *ScoreRepository) ListVisibleByGame(_ context.Context, game domain.GameID) ([]domain.ScoreRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0)
	for _, rec := range r.records {
		if rec.Game == game && rec.Visible {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *ScoreRepository) List(_ context.Context, opts app.ScoreListOptions) ([]domain.ScoreRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0)
	for _, rec := range r.records {
		if opts.Game != "" && rec.Game != opts.Game {
			continue
		}
		if opts.OnlyVisible != nil && rec.Visible != *opts.OnlyVisible {
			continue
		}
		out = append(out, rec)
	}
	// newest first, matching the admin table default
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *ScoreRepository) SetVisible(_ context.Context, ids []string, visible bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			rec.Visible = visible
			r.records[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *ScoreRepository) Delete(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.records, id)
	}
	return nil
}

func (r *ScoreRepository) HideGame(_ context.Context, game domain.GameID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rec := range r.records {
		if rec.Game == game && rec.Visible {
			rec.Visible = false
			r.records[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *ScoreRepository) HideAccount(_ context.Context, accountID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rec := range r.records {
		if rec.AccountID == accountID && rec.Visible {
			rec.Visible = false
			r.records[id] = rec
			n++
		}
	}
	return n, nil
}

func (r *ScoreRepository) AnonymizeAccount(_ context.Context, accountID, replacement string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rec := range r.records {
		if rec.AccountID == accountID {
			rec.PlayerName = replacement
			rec.AccountID = ""
			r.records[id] = rec
			n++
		}
	}
	return n, nil
}
