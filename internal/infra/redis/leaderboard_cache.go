package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"werkstatt-service/internal/domain"
)

// LeaderboardCache caches ranked leaderboards in Redis as JSON blobs:
// SET lb:{game}:{limit}:{days} {entries} EX ttl
// Implements app.LeaderboardCache. Reads and writes are best-effort; a Redis
// hiccup degrades to recomputing from the store.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	rnd    *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Get(ctx context.Context, game domain.GameID, limit, sinceDays int) ([]domain.LeaderboardEntry, bool) {
	raw, err := c.client.Get(ctx, c.key(game, limit, sinceDays)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) Set(ctx context.Context, game domain.GameID, limit, sinceDays int, entries []domain.LeaderboardEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(game, limit, sinceDays), raw, c.ttlWithJitter()).Err()
}

// Invalidate drops every cached board for the game, across limits and windows.
func (c *LeaderboardCache) Invalidate(ctx context.Context, game domain.GameID) {
	keys, err := c.client.Keys(ctx, "lb:"+string(game)+":*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, keys...).Err()
}

func (c *LeaderboardCache) key(game domain.GameID, limit, sinceDays int) string {
	return fmt.Sprintf("lb:%s:%d:%d", game, limit, sinceDays)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
