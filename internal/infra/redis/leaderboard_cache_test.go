package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"werkstatt-service/internal/domain"
)

func testClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := testClient(t)
	cache := NewLeaderboardCache(client, time.Minute)

	if _, ok := cache.Get(ctx, domain.GameQuiz, 10, 0); ok {
		t.Fatalf("expected cache miss on empty redis")
	}

	entries := []domain.LeaderboardEntry{
		{PlayerName: "Alice", Value: 12, AchievedAt: time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC)},
		{PlayerName: "Bob", Value: 7, AchievedAt: time.Date(2025, 8, 11, 10, 0, 0, 0, time.UTC)},
	}
	cache.Set(ctx, domain.GameQuiz, 10, 0, entries)

	if !mr.Exists("lb:QUIZ:10:0") {
		t.Fatalf("expected key lb:QUIZ:10:0 in redis")
	}

	got, ok := cache.Get(ctx, domain.GameQuiz, 10, 0)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got) != 2 || got[0].PlayerName != "Alice" || got[0].Value != 12 {
		t.Fatalf("unexpected cached entries: %+v", got)
	}
	if !got[1].AchievedAt.Equal(entries[1].AchievedAt) {
		t.Fatalf("achieved-at timestamp mangled: %v", got[1].AchievedAt)
	}
}

func TestLeaderboardCacheKeySeparation(t *testing.T) {
	ctx := context.Background()
	_, client := testClient(t)
	cache := NewLeaderboardCache(client, time.Minute)

	cache.Set(ctx, domain.GameQuiz, 10, 0, []domain.LeaderboardEntry{{PlayerName: "AllTime", Value: 1}})
	cache.Set(ctx, domain.GameQuiz, 10, 7, []domain.LeaderboardEntry{{PlayerName: "Weekly", Value: 2}})

	allTime, ok := cache.Get(ctx, domain.GameQuiz, 10, 0)
	if !ok || allTime[0].PlayerName != "AllTime" {
		t.Fatalf("all-time board polluted: %+v", allTime)
	}
	weekly, ok := cache.Get(ctx, domain.GameQuiz, 10, 7)
	if !ok || weekly[0].PlayerName != "Weekly" {
		t.Fatalf("weekly board polluted: %+v", weekly)
	}
}

func TestLeaderboardCacheInvalidateDropsAllVariants(t *testing.T) {
	ctx := context.Background()
	_, client := testClient(t)
	cache := NewLeaderboardCache(client, time.Minute)

	cache.Set(ctx, domain.GameQuiz, 10, 0, []domain.LeaderboardEntry{{PlayerName: "A", Value: 1}})
	cache.Set(ctx, domain.GameQuiz, 50, 7, []domain.LeaderboardEntry{{PlayerName: "B", Value: 2}})
	cache.Set(ctx, domain.GameTapFrenzy, 10, 0, []domain.LeaderboardEntry{{PlayerName: "C", Value: 3}})

	cache.Invalidate(ctx, domain.GameQuiz)

	if _, ok := cache.Get(ctx, domain.GameQuiz, 10, 0); ok {
		t.Fatalf("quiz board survived invalidation")
	}
	if _, ok := cache.Get(ctx, domain.GameQuiz, 50, 7); ok {
		t.Fatalf("quiz board variant survived invalidation")
	}
	if _, ok := cache.Get(ctx, domain.GameTapFrenzy, 10, 0); !ok {
		t.Fatalf("unrelated game board dropped by invalidation")
	}
}

func TestLeaderboardCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := testClient(t)
	cache := NewLeaderboardCache(client, time.Minute)

	cache.Set(ctx, domain.GameQuiz, 10, 0, []domain.LeaderboardEntry{{PlayerName: "A", Value: 1}})
	// jitter keeps the TTL within [1m, 1m6s]
	mr.FastForward(2 * time.Minute)

	if _, ok := cache.Get(ctx, domain.GameQuiz, 10, 0); ok {
		t.Fatalf("expected entry to expire")
	}
}
