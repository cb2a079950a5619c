package app

import (
	"context"
	"encoding/json"
	"fmt"

	"werkstatt-service/internal/domain"
)

// KVStore is the key -> string persistence port backing settings and local
// bests (device-scoped storage in the original client, memory or Redis here).
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// SettingsService loads and saves the fixed-shape game settings per owner.
// Malformed or missing blobs fall back to defaults instead of propagating.
type SettingsService struct {
	kv KVStore
}

func NewSettingsService(kv KVStore) *SettingsService {
	return &SettingsService{kv: kv}
}

// Load returns the owner's settings, normalized, defaulting on any miss or
// decode failure.
func (s *SettingsService) Load(ctx context.Context, owner string) domain.Settings {
	raw, ok, err := s.kv.Get(ctx, settingsKey(owner))
	if err != nil || !ok {
		return domain.DefaultSettings()
	}
	var settings domain.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return domain.DefaultSettings()
	}
	return settings.Normalize()
}

// Save normalizes and persists the owner's settings.
func (s *SettingsService) Save(ctx context.Context, owner string, settings domain.Settings) (domain.Settings, error) {
	settings = settings.Normalize()
	raw, err := json.Marshal(settings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.kv.Set(ctx, settingsKey(owner), string(raw)); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

func settingsKey(owner string) string {
	if owner == "" {
		owner = "default"
	}
	return "settings:" + owner
}
