package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"werkstatt-service/internal/domain"
)

// SessionStore keeps auth sessions in Redis so they survive restarts and can
// be shared across instances. Implements app.SessionStore.
// Sessions are stored as: SET session:{token} {account JSON} EX ttl
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

type sessionPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *SessionStore) Put(ctx context.Context, token string, acc domain.UserAccount) error {
	raw, err := json.Marshal(sessionPayload{ID: acc.ID, Username: acc.Username, CreatedAt: acc.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.key(token), raw, s.ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, token string) (domain.UserAccount, bool, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err == redis.Nil {
		return domain.UserAccount{}, false, nil
	}
	if err != nil {
		return domain.UserAccount{}, false, fmt.Errorf("get session: %w", err)
	}
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.UserAccount{}, false, fmt.Errorf("decode session: %w", err)
	}
	return domain.UserAccount{ID: payload.ID, Username: payload.Username, CreatedAt: payload.CreatedAt}, true, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}
