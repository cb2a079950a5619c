package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
)

// QuestionLoader fetches the visible question pool from a backing store.
type QuestionLoader interface {
	LoadVisibleQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionCache caches the visible question pool with TTL to avoid hitting
// the store on every quiz round. Implements app.QuestionSource.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) VisibleQuestions(ctx context.Context) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if c.pool != nil && c.expiresAt.After(now) {
		pool := c.pool
		c.mu.RUnlock()
		return pool, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("pool", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.pool != nil && c.expiresAt.After(now) {
			pool := c.pool
			c.mu.RUnlock()
			return pool, nil
		}
		c.mu.RUnlock()

		pool, err := c.loader.LoadVisibleQuestions(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pool = pool
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached pool so the next read reloads.
func (c *QuestionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool = nil
	c.expiresAt = time.Time{}
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// RepositoryQuestionLoader adapts a QuestionRepository into a loader.
type RepositoryQuestionLoader struct {
	repo app.QuestionRepository
}

func NewRepositoryQuestionLoader(repo app.QuestionRepository) *RepositoryQuestionLoader {
	return &RepositoryQuestionLoader{repo: repo}
}

func (l *RepositoryQuestionLoader) LoadVisibleQuestions(ctx context.Context) ([]domain.Question, error) {
	return l.repo.List(ctx, app.QuestionListOptions{OnlyVisible: true})
}

// StaticQuestionLoader serves a fixed pool (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadVisibleQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(l.questions))
	for _, q := range l.questions {
		if q.Visible {
			out = append(out, q)
		}
	}
	return out, nil
}
