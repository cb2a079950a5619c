package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"werkstatt-service/internal/domain"
)

// ScoreListOptions filters moderation listings. A zero Game means all games;
// a nil OnlyVisible includes hidden rows.
type ScoreListOptions struct {
	Game        domain.GameID
	OnlyVisible *bool
	Limit       int
}

// ScoreRepository abstracts score persistence (in-memory, Postgres).
type ScoreRepository interface {
	BestVisible(ctx context.Context, player domain.PlayerIdentity, game domain.GameID) (domain.ScoreRecord, bool, error)
	Insert(ctx context.Context, rec domain.ScoreRecord) (domain.ScoreRecord, error)
	Update(ctx context.Context, rec domain.ScoreRecord) error
	ListVisibleByGame(ctx context.Context, game domain.GameID) ([]domain.ScoreRecord, error)

	List(ctx context.Context, opts ScoreListOptions) ([]domain.ScoreRecord, error)
	SetVisible(ctx context.Context, ids []string, visible bool) (int, error)
	Delete(ctx context.Context, ids []string) error
	HideGame(ctx context.Context, game domain.GameID) (int, error)
	HideAccount(ctx context.Context, accountID string) (int, error)
	AnonymizeAccount(ctx context.Context, accountID, replacement string) (int, error)
}

// LeaderboardCache caches ranked leaderboards per (game, limit, window).
type LeaderboardCache interface {
	Get(ctx context.Context, game domain.GameID, limit, sinceDays int) ([]domain.LeaderboardEntry, bool)
	Set(ctx context.Context, game domain.GameID, limit, sinceDays int, entries []domain.LeaderboardEntry)
	Invalidate(ctx context.Context, game domain.GameID)
}

const defaultLeaderboardLimit = 50

// ScoreService is the best-score resolver: it keeps at most one ranked record
// per (player, game) and serves deduplicated leaderboards.
//
// Submit uses read-then-conditionally-write, which is not atomic: two
// concurrent submissions for the same pair can race. Accepted weakness;
// scores are low-value and a single player rarely runs two sessions.
type ScoreService struct {
	repo  ScoreRepository
	cache LeaderboardCache // optional
	now   func() time.Time
	sf    singleflight.Group
}

func NewScoreService(repo ScoreRepository, cache LeaderboardCache) *ScoreService {
	return &ScoreService{repo: repo, cache: cache, now: time.Now}
}

// NewScoreServiceWithClock is test-only for deterministic timestamps.
func NewScoreServiceWithClock(repo ScoreRepository, cache LeaderboardCache, now func() time.Time) *ScoreService {
	return &ScoreService{repo: repo, cache: cache, now: now}
}

// Submit writes value as the player's new best for game if it beats the
// stored best, updating the existing record in place. Worse or equal attempts
// are skipped without touching the store.
func (s *ScoreService) Submit(ctx context.Context, player domain.PlayerIdentity, game domain.GameID, value int) (domain.SubmitResult, error) {
	player.Name = strings.TrimSpace(player.Name)
	if player.Name == "" {
		return domain.SubmitResult{}, domain.ErrMissingPlayerName
	}
	if value < 0 {
		return domain.SubmitResult{}, domain.ErrNegativeScore
	}
	if _, err := domain.ParseGame(string(game)); err != nil {
		return domain.SubmitResult{}, err
	}

	best, found, err := s.repo.BestVisible(ctx, player, game)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("read best score: %w", err)
	}
	if found && best.Value >= value {
		return domain.SubmitResult{Skipped: true, Record: best}, nil
	}

	now := s.now()
	if found {
		best.Value = value
		best.CreatedAt = now
		best.Visible = true
		best.AccountID = player.AccountID
		if err := s.repo.Update(ctx, best); err != nil {
			return domain.SubmitResult{}, fmt.Errorf("update best score: %w", err)
		}
		s.invalidate(ctx, game)
		return domain.SubmitResult{Record: best}, nil
	}

	rec := domain.ScoreRecord{
		ID:         uuid.NewString(),
		PlayerName: player.Name,
		AccountID:  player.AccountID,
		Game:       game,
		Value:      value,
		CreatedAt:  now,
		Visible:    true,
	}
	inserted, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return domain.SubmitResult{}, fmt.Errorf("insert score: %w", err)
	}
	s.invalidate(ctx, game)
	return domain.SubmitResult{Record: inserted}, nil
}

// TopByGame returns the ranked leaderboard for one game: best visible score
// per distinct player, highest first. Ties rank the earlier achiever first,
// then sort by name for determinism. sinceDays > 0 restricts entries to that
// trailing window.
func (s *ScoreService) TopByGame(ctx context.Context, game domain.GameID, limit, sinceDays int) ([]domain.LeaderboardEntry, error) {
	if _, err := domain.ParseGame(string(game)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, game, limit, sinceDays); ok {
			return entries, nil
		}
	}

	key := fmt.Sprintf("%s|%d|%d", game, limit, sinceDays)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		rows, err := s.repo.ListVisibleByGame(ctx, game)
		if err != nil {
			return nil, fmt.Errorf("list scores: %w", err)
		}
		entries := rankScores(rows, limit, s.cutoff(sinceDays))
		if s.cache != nil {
			s.cache.Set(ctx, game, limit, sinceDays, entries)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (s *ScoreService) cutoff(sinceDays int) time.Time {
	if sinceDays <= 0 {
		return time.Time{}
	}
	return s.now().AddDate(0, 0, -sinceDays)
}

func (s *ScoreService) invalidate(ctx context.Context, game domain.GameID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, game)
	}
}

// rankScores reduces raw rows to one entry per player identity, keeping the
// highest value (earlier record wins a value tie), then orders by value
// descending with earliest-achiever tie-break.
func rankScores(rows []domain.ScoreRecord, limit int, since time.Time) []domain.LeaderboardEntry {
	best := make(map[string]domain.ScoreRecord, len(rows))
	for _, row := range rows {
		if !row.Visible {
			continue
		}
		if !since.IsZero() && row.CreatedAt.Before(since) {
			continue
		}
		key := row.Identity().Key()
		cur, ok := best[key]
		if !ok || row.Value > cur.Value || (row.Value == cur.Value && row.CreatedAt.Before(cur.CreatedAt)) {
			best[key] = row
		}
	}

	ranked := make([]domain.ScoreRecord, 0, len(best))
	for _, rec := range best {
		ranked = append(ranked, rec)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
		}
		return ranked[i].PlayerName < ranked[j].PlayerName
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]domain.LeaderboardEntry, len(ranked))
	for i, rec := range ranked {
		entries[i] = domain.LeaderboardEntry{
			PlayerName: rec.PlayerName,
			Value:      rec.Value,
			AchievedAt: rec.CreatedAt,
		}
	}
	return entries
}
