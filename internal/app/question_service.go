package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"werkstatt-service/internal/domain"
)

// QuestionListOptions filters question listings.
type QuestionListOptions struct {
	OnlyVisible bool
	Limit       int
}

// QuestionRepository abstracts question persistence (in-memory, Postgres).
type QuestionRepository interface {
	List(ctx context.Context, opts QuestionListOptions) ([]domain.Question, error)
	Get(ctx context.Context, id string) (domain.Question, error)
	Insert(ctx context.Context, q domain.Question) (domain.Question, error)
	Update(ctx context.Context, q domain.Question) error
	Delete(ctx context.Context, id string) error
}

// QuestionSource serves the visible question pool for live quiz rounds,
// typically from a TTL cache in front of the store.
type QuestionSource interface {
	VisibleQuestions(ctx context.Context) ([]domain.Question, error)
	Invalidate()
}

const defaultQuestionLimit = 2000

// QuestionService owns quiz question content: CRUD with validation for the
// admin panel and random draws for the quiz mini-game.
type QuestionService struct {
	repo   QuestionRepository
	source QuestionSource // optional; falls back to the repository
	now    func() time.Time
	rnd    *rand.Rand
}

func NewQuestionService(repo QuestionRepository, source QuestionSource) *QuestionService {
	return &QuestionService{
		repo:   repo,
		source: source,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// List returns questions newest-first, optionally only visible ones, with a
// case-insensitive search over text and answers.
func (s *QuestionService) List(ctx context.Context, onlyVisible bool, search string, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = defaultQuestionLimit
	}
	rows, err := s.repo.List(ctx, QuestionListOptions{OnlyVisible: onlyVisible, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return rows, nil
	}
	filtered := rows[:0]
	for _, q := range rows {
		if questionMatches(q, needle) {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// RandomVisible draws a uniformly random visible question.
func (s *QuestionService) RandomVisible(ctx context.Context) (domain.Question, error) {
	pool, err := s.visiblePool(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	if len(pool) == 0 {
		return domain.Question{}, domain.ErrNoVisibleQuestions
	}
	return pool[s.rnd.Intn(len(pool))], nil
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, text string, answers []string, correctIndex int, visible bool) (domain.Question, error) {
	q := domain.Question{
		ID:           uuid.NewString(),
		Text:         strings.TrimSpace(text),
		Answers:      trimAnswers(answers),
		CorrectIndex: correctIndex,
		Visible:      visible,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if err := validateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	created, err := s.repo.Insert(ctx, q)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	s.invalidatePool()
	return created, nil
}

// Update applies a partial patch. Patches producing an out-of-range correct
// index or fewer than two answers are rejected, never clamped.
func (s *QuestionService) Update(ctx context.Context, id string, patch domain.QuestionPatch) (domain.Question, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if patch.Text != nil {
		q.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Answers != nil {
		q.Answers = trimAnswers(patch.Answers)
	}
	if patch.CorrectIndex != nil {
		q.CorrectIndex = *patch.CorrectIndex
	}
	if patch.Visible != nil {
		q.Visible = *patch.Visible
	}
	if err := validateQuestion(q); err != nil {
		return domain.Question{}, err
	}
	q.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	s.invalidatePool()
	return q, nil
}

// SetVisible flips the moderation flag on one question.
func (s *QuestionService) SetVisible(ctx context.Context, id string, visible bool) (domain.Question, error) {
	return s.Update(ctx, id, domain.QuestionPatch{Visible: &visible})
}

// Delete removes a question permanently.
func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePool()
	return nil
}

func (s *QuestionService) visiblePool(ctx context.Context) ([]domain.Question, error) {
	if s.source != nil {
		return s.source.VisibleQuestions(ctx)
	}
	return s.repo.List(ctx, QuestionListOptions{OnlyVisible: true, Limit: defaultQuestionLimit})
}

func (s *QuestionService) invalidatePool() {
	if s.source != nil {
		s.source.Invalidate()
	}
}

func questionMatches(q domain.Question, needle string) bool {
	if strings.Contains(strings.ToLower(q.Text), needle) {
		return true
	}
	for _, a := range q.Answers {
		if strings.Contains(strings.ToLower(a), needle) {
			return true
		}
	}
	return false
}

func trimAnswers(answers []string) []string {
	out := make([]string, len(answers))
	for i, a := range answers {
		out[i] = strings.TrimSpace(a)
	}
	return out
}

// validateQuestion enforces the content invariants: non-empty text, at least
// two non-blank answers, correct index inside the answer list.
func validateQuestion(q domain.Question) error {
	if q.Text == "" {
		return fmt.Errorf("%w: text must not be empty", domain.ErrInvalidQuestion)
	}
	if len(q.Answers) < 2 {
		return fmt.Errorf("%w: need at least 2 answers", domain.ErrInvalidQuestion)
	}
	for i, a := range q.Answers {
		if a == "" {
			return fmt.Errorf("%w: answer %d is blank", domain.ErrInvalidQuestion, i)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
		return fmt.Errorf("%w: correct index %d out of range", domain.ErrInvalidQuestion, q.CorrectIndex)
	}
	return nil
}
