package app

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"werkstatt-service/internal/domain"
)

// PlayerSession is the menu shell for one signed-in player: it accumulates
// the cross-round total, remembers the device-local best total, and picks the
// next random game from the enabled set.
type PlayerSession struct {
	owner string
	kv    KVStore // optional; best total survives restarts when set
	rnd   *rand.Rand

	mu    sync.Mutex
	total int
	best  int
}

func NewPlayerSession(ctx context.Context, owner string, kv KVStore) *PlayerSession {
	s := &PlayerSession{
		owner: owner,
		kv:    kv,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if kv != nil {
		if raw, ok, err := kv.Get(ctx, s.bestKey()); err == nil && ok {
			if v, err := strconv.Atoi(raw); err == nil {
				s.best = v
			}
		}
	}
	return s
}

// PickGame selects a uniformly random game from the enabled set.
func (s *PlayerSession) PickGame(settings domain.Settings) (domain.GameID, error) {
	enabled := settings.Enabled()
	if len(enabled) == 0 {
		return "", domain.ErrNoGamesEnabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return enabled[s.rnd.Intn(len(enabled))], nil
}

// ApplyRoundResult folds one round's earned points into the running total and
// updates the persisted best total when beaten. Returns (total, best).
func (s *PlayerSession) ApplyRoundResult(ctx context.Context, earned int) (int, int) {
	s.mu.Lock()
	s.total += earned
	total := s.total
	improved := total > s.best
	if improved {
		s.best = total
	}
	best := s.best
	s.mu.Unlock()

	if improved && s.kv != nil {
		// best-effort, same as the local-storage write it replaces
		_ = s.kv.Set(ctx, s.bestKey(), strconv.Itoa(best))
	}
	return total, best
}

// Reset clears the running total, e.g. on sign-out.
func (s *PlayerSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
}

// Totals returns the current (total, best) pair.
func (s *PlayerSession) Totals() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.best
}

func (s *PlayerSession) bestKey() string {
	owner := s.owner
	if owner == "" {
		owner = "default"
	}
	return "highscore:" + owner
}
