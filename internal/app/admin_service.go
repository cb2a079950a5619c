package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"werkstatt-service/internal/domain"
)

// AnonymousName replaces the player name when a user's records are anonymized.
const AnonymousName = "Anonymous"

// AdminService covers moderation: visibility toggles, hard deletes, per-game
// soft resets, user record anonymization, and CSV export. All operations are
// straight CRUD over the score store.
type AdminService struct {
	scores   ScoreRepository
	cache    LeaderboardCache // optional
	accounts AccountRepository
}

func NewAdminService(scores ScoreRepository, cache LeaderboardCache, accounts AccountRepository) *AdminService {
	return &AdminService{scores: scores, cache: cache, accounts: accounts}
}

// ListScores returns score rows for the admin table, hidden rows included
// unless onlyVisible is set.
func (s *AdminService) ListScores(ctx context.Context, game domain.GameID, onlyVisible *bool, limit int) ([]domain.ScoreRecord, error) {
	if game != "" {
		if _, err := domain.ParseGame(string(game)); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.scores.List(ctx, ScoreListOptions{Game: game, OnlyVisible: onlyVisible, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return rows, nil
}

// SetScoresVisible flips the moderation flag on the given records.
func (s *AdminService) SetScoresVisible(ctx context.Context, ids []string, visible bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.scores.SetVisible(ctx, ids, visible)
	if err != nil {
		return 0, fmt.Errorf("set visible: %w", err)
	}
	s.invalidateAll(ctx)
	return n, nil
}

// DeleteScores removes records permanently.
func (s *AdminService) DeleteScores(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.scores.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	s.invalidateAll(ctx)
	return nil
}

// HideGame soft-resets one game by hiding every visible record.
func (s *AdminService) HideGame(ctx context.Context, game domain.GameID) (int, error) {
	if _, err := domain.ParseGame(string(game)); err != nil {
		return 0, err
	}
	n, err := s.scores.HideGame(ctx, game)
	if err != nil {
		return 0, fmt.Errorf("hide game: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, game)
	}
	return n, nil
}

// HideUserScores hides all records linked to one account.
func (s *AdminService) HideUserScores(ctx context.Context, accountID string) (int, error) {
	n, err := s.scores.HideAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("hide account scores: %w", err)
	}
	s.invalidateAll(ctx)
	return n, nil
}

// AnonymizeUserScores replaces the player name on an account's records and
// detaches the account link. The rows themselves survive.
func (s *AdminService) AnonymizeUserScores(ctx context.Context, accountID string) (int, error) {
	n, err := s.scores.AnonymizeAccount(ctx, accountID, AnonymousName)
	if err != nil {
		return 0, fmt.Errorf("anonymize account scores: %w", err)
	}
	s.invalidateAll(ctx)
	return n, nil
}

// ListUsers returns accounts for the admin users tab.
func (s *AdminService) ListUsers(ctx context.Context, limit int) ([]domain.UserAccount, error) {
	if limit <= 0 {
		limit = 2000
	}
	return s.accounts.List(ctx, limit)
}

// DeleteUser removes the account after anonymizing its score records.
func (s *AdminService) DeleteUser(ctx context.Context, accountID string) error {
	if _, err := s.AnonymizeUserScores(ctx, accountID); err != nil {
		return err
	}
	return s.accounts.Delete(ctx, accountID)
}

// ExportScoresCSV streams the admin score table as CSV.
func (s *AdminService) ExportScoresCSV(ctx context.Context, w io.Writer, game domain.GameID, limit int) error {
	rows, err := s.ListScores(ctx, game, nil, limit)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "player_name", "game_name", "value", "account_id", "created_at", "visible"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ID,
			r.PlayerName,
			string(r.Game),
			strconv.Itoa(r.Value),
			r.AccountID,
			r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.FormatBool(r.Visible),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *AdminService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, g := range domain.AllGames {
		s.cache.Invalidate(ctx, g)
	}
}
