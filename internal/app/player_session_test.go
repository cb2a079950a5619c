package app_test

import (
	"context"
	"errors"
	"testing"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
	"werkstatt-service/internal/infra/memory"
)

func TestPickGameHonorsEnabledSet(t *testing.T) {
	ctx := context.Background()
	session := app.NewPlayerSession(ctx, "alice", nil)

	settings := domain.DefaultSettings()
	for _, g := range domain.AllGames {
		settings.EnabledGames[g] = false
	}
	settings.EnabledGames[domain.GameBrakeTest] = true

	for i := 0; i < 20; i++ {
		game, err := session.PickGame(settings)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if game != domain.GameBrakeTest {
			t.Fatalf("picked a disabled game: %s", game)
		}
	}

	settings.EnabledGames[domain.GameBrakeTest] = false
	if _, err := session.PickGame(settings); !errors.Is(err, domain.ErrNoGamesEnabled) {
		t.Fatalf("expected ErrNoGamesEnabled, got %v", err)
	}
}

func TestApplyRoundResultAccumulatesAndPersistsBest(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	session := app.NewPlayerSession(ctx, "alice", kv)

	total, best := session.ApplyRoundResult(ctx, 5)
	if total != 5 || best != 5 {
		t.Fatalf("expected 5/5, got %d/%d", total, best)
	}
	total, best = session.ApplyRoundResult(ctx, 3)
	if total != 8 || best != 8 {
		t.Fatalf("expected 8/8, got %d/%d", total, best)
	}

	session.Reset()
	total, best = session.Totals()
	if total != 0 || best != 8 {
		t.Fatalf("reset must keep the best, got %d/%d", total, best)
	}

	// a worse run after reset leaves the best alone
	total, best = session.ApplyRoundResult(ctx, 2)
	if total != 2 || best != 8 {
		t.Fatalf("expected 2/8, got %d/%d", total, best)
	}

	// a fresh session for the same owner reloads the persisted best
	revived := app.NewPlayerSession(ctx, "alice", kv)
	total, best = revived.Totals()
	if total != 0 || best != 8 {
		t.Fatalf("expected persisted best 8 on revival, got %d/%d", total, best)
	}
}

func TestPlayerSessionWithoutStore(t *testing.T) {
	ctx := context.Background()
	session := app.NewPlayerSession(ctx, "", nil)
	if total, best := session.ApplyRoundResult(ctx, 4); total != 4 || best != 4 {
		t.Fatalf("expected 4/4 without a store, got %d/%d", total, best)
	}
}
