package memory

import (
	"context"
	"sync"
	"time"

	"werkstatt-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore with TTL
// expiry checked lazily on read.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	account   domain.UserAccount
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Put(_ context.Context, token string, acc domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	expires := time.Time{}
	if s.ttl > 0 {
		expires = s.clock().Add(s.ttl)
	}
	s.sessions[token] = storedSession{account: acc, expiresAt: expires}
	return nil
}

func (s *SessionStore) Get(_ context.Context, token string) (domain.UserAccount, bool, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return domain.UserAccount{}, false, nil
	}
	if !entry.expiresAt.IsZero() && s.clock().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return domain.UserAccount{}, false, nil
	}
	return entry.account, true, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
