package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"werkstatt-service/internal/domain"
)

// LeaderboardCache is an in-memory implementation of app.LeaderboardCache
// with TTL expiry, for running without Redis.
type LeaderboardCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedBoard
}

type cachedBoard struct {
	board     []domain.LeaderboardEntry
	expiresAt time.Time
}

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]cachedBoard),
	}
}

func (c *LeaderboardCache) Get(_ context.Context, game domain.GameID, limit, sinceDays int) ([]domain.LeaderboardEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[boardKey(game, limit, sinceDays)]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.board, true
}

func (c *LeaderboardCache) Set(_ context.Context, game domain.GameID, limit, sinceDays int, board []domain.LeaderboardEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[boardKey(game, limit, sinceDays)] = cachedBoard{
		board:     board,
		expiresAt: c.clock().Add(c.ttl),
	}
}

func (c *LeaderboardCache) Invalidate(_ context.Context, game domain.GameID) {
	prefix := string(game) + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func boardKey(game domain.GameID, limit, sinceDays int) string {
	return fmt.Sprintf("%s|%d|%d", game, limit, sinceDays)
}
