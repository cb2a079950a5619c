package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"werkstatt-service/internal/domain"
)

// AccountRepository abstracts user account persistence.
type AccountRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.UserAccount, bool, error)
	Insert(ctx context.Context, acc domain.UserAccount) (domain.UserAccount, error)
	List(ctx context.Context, limit int) ([]domain.UserAccount, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore holds the token -> account mapping for signed-in players
// (in-memory or Redis, with a TTL).
type SessionStore interface {
	Put(ctx context.Context, token string, acc domain.UserAccount) error
	Get(ctx context.Context, token string) (domain.UserAccount, bool, error)
	Delete(ctx context.Context, token string) error
}

// AuthService is the rudimentary username/password layer. It is deliberately
// not security-grade: no lockout, no refresh, opaque uuid tokens.
type AuthService struct {
	accounts AccountRepository
	sessions SessionStore
	now      func() time.Time
}

func NewAuthService(accounts AccountRepository, sessions SessionStore) *AuthService {
	return &AuthService{accounts: accounts, sessions: sessions, now: time.Now}
}

// SignUp creates an account and signs it in, returning the session token.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (domain.UserAccount, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return domain.UserAccount{}, "", domain.ErrInvalidCredentials
	}
	if _, exists, err := s.accounts.GetByUsername(ctx, username); err != nil {
		return domain.UserAccount{}, "", fmt.Errorf("lookup username: %w", err)
	} else if exists {
		return domain.UserAccount{}, "", domain.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserAccount{}, "", fmt.Errorf("hash password: %w", err)
	}
	acc := domain.UserAccount{
		ID:         uuid.NewString(),
		Username:   username,
		SecretHash: string(hash),
		CreatedAt:  s.now(),
	}
	acc, err = s.accounts.Insert(ctx, acc)
	if err != nil {
		return domain.UserAccount{}, "", fmt.Errorf("insert account: %w", err)
	}
	return s.openSession(ctx, acc)
}

// SignIn verifies credentials and returns a fresh session token.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (domain.UserAccount, string, error) {
	username = strings.TrimSpace(username)
	acc, exists, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return domain.UserAccount{}, "", fmt.Errorf("lookup username: %w", err)
	}
	if !exists {
		return domain.UserAccount{}, "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.SecretHash), []byte(password)) != nil {
		return domain.UserAccount{}, "", domain.ErrInvalidCredentials
	}
	return s.openSession(ctx, acc)
}

// SignOut drops the session; unknown tokens are a no-op.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Resolve maps a session token back to its account.
func (s *AuthService) Resolve(ctx context.Context, token string) (domain.UserAccount, error) {
	if token == "" {
		return domain.UserAccount{}, domain.ErrSessionNotFound
	}
	acc, ok, err := s.sessions.Get(ctx, token)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return domain.UserAccount{}, domain.ErrSessionNotFound
	}
	return acc, nil
}

func (s *AuthService) openSession(ctx context.Context, acc domain.UserAccount) (domain.UserAccount, string, error) {
	token := uuid.NewString()
	if err := s.sessions.Put(ctx, token, acc); err != nil {
		return domain.UserAccount{}, "", fmt.Errorf("store session: %w", err)
	}
	return acc, token, nil
}
