package app_test

import (
	"context"
	"testing"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
	"werkstatt-service/internal/infra/memory"
)

func TestSettingsDefaultsOnMissAndGarbage(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	svc := app.NewSettingsService(kv)

	got := svc.Load(ctx, "alice")
	def := domain.DefaultSettings()
	if got.RoundSeconds != def.RoundSeconds || !got.SoundEnabled {
		t.Fatalf("expected defaults on miss, got %+v", got)
	}
	if len(got.Enabled()) != len(domain.AllGames) {
		t.Fatalf("expected all games enabled by default, got %v", got.Enabled())
	}

	// a corrupted blob falls back to defaults instead of erroring
	if err := kv.Set(ctx, "settings:alice", "{not json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got = svc.Load(ctx, "alice")
	if got.RoundSeconds != def.RoundSeconds {
		t.Fatalf("expected defaults on garbage blob, got %+v", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := app.NewSettingsService(memory.NewKVStore())

	in := domain.DefaultSettings()
	in.EnabledGames[domain.GameQuiz] = false
	in.RoundSeconds = 30
	in.SoundEnabled = false

	saved, err := svc.Save(ctx, "alice", in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.EnabledGames[domain.GameQuiz] {
		t.Fatalf("disabled game re-enabled by save: %+v", saved)
	}

	got := svc.Load(ctx, "alice")
	if got.EnabledGames[domain.GameQuiz] || !got.EnabledGames[domain.GameTapFrenzy] {
		t.Fatalf("enabled map did not round-trip: %+v", got.EnabledGames)
	}
	if got.RoundSeconds != 30 || got.SoundEnabled {
		t.Fatalf("scalar fields did not round-trip: %+v", got)
	}

	// per-owner isolation
	other := svc.Load(ctx, "bob")
	if !other.EnabledGames[domain.GameQuiz] {
		t.Fatalf("alice's settings leaked to bob: %+v", other)
	}
}

func TestSettingsNormalizeDropsUnknownGames(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKVStore()
	svc := app.NewSettingsService(kv)

	blob := `{"enabledGames":{"QUIZ":false,"PINBALL":true},"roundSeconds":-5,"soundEnabled":true}`
	if err := kv.Set(ctx, "settings:alice", blob); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := svc.Load(ctx, "alice")
	if _, ok := got.EnabledGames["PINBALL"]; ok {
		t.Fatalf("unknown game survived normalization: %+v", got.EnabledGames)
	}
	if got.EnabledGames[domain.GameQuiz] {
		t.Fatalf("stored flag lost during normalization")
	}
	if !got.EnabledGames[domain.GameTapFrenzy] {
		t.Fatalf("missing game not defaulted to enabled")
	}
	if got.RoundSeconds != domain.DefaultRoundSeconds {
		t.Fatalf("non-positive round length not defaulted, got %d", got.RoundSeconds)
	}
}
