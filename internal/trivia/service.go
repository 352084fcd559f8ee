package trivia

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/starquake/trivia/internal/logging"
)

const (
	// AllCategories is the quiz category meaning "no category filter".
	AllCategories int64 = 0
	// DefaultPageSize is the number of questions per listing page.
	DefaultPageSize = 10
)

// Rand picks a number in [0, n). *rand.Rand from math/rand/v2 implements it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the goroutine-safe top-level functions of math/rand/v2.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) } //nolint:gosec // Quiz order is not security sensitive.

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used to pick quiz questions.
func WithRand(r Rand) Option {
	return func(s *Service) {
		s.rand = r
	}
}

// WithCategoryCache puts a cache in front of the category list.
func WithCategoryCache(c CategoryCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// Service answers the queries of the trivia web app: listing, searching, filtering and quiz selection.
// It holds no per-client state; quiz callers pass the questions they have already seen.
type Service struct {
	store  Store
	cache  CategoryCache
	rand   Rand
	logger *slog.Logger
}

// NewService initializes and returns a new instance of Service with the provided store.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		rand:   globalRand{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ListCategories returns all categories as a map of ID to type.
func (s *Service) ListCategories(ctx context.Context) (map[int64]string, error) {
	categories, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}

	return categoryMap(categories), nil
}

// ListQuestions returns page (1-based) of the questions ordered by ID, together with the total number of questions
// and all categories.
// Returns ErrInvalidPage if page or pageSize is below 1 and ErrPageNotFound if the page holds no questions.
func (s *Service) ListQuestions(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page %d, page size %d", ErrInvalidPage, page, pageSize)
	}
	if page-1 > math.MaxInt/pageSize {
		return nil, fmt.Errorf("%w: page %d", ErrPageNotFound, page)
	}
	offset := (page - 1) * pageSize

	var (
		total      int
		questions  []*Question
		categories []*Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.store.CountQuestions(gctx)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}

		return nil
	})
	g.Go(func() error {
		var err error
		questions, err = s.store.ListQuestions(gctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list questions: %w", err)
		}

		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories(gctx)

		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // Errors are wrapped inside the goroutines.
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: page %d of %d questions", ErrPageNotFound, page, total)
	}

	return &Page{
		Questions:      questions,
		TotalQuestions: total,
		Categories:     categoryMap(categories),
	}, nil
}

// CreateQuestion validates and creates a question and returns its new ID.
// Returns a *ValidationError if a field is missing and ErrCategoryNotFound if the category does not exist.
func (s *Service) CreateQuestion(ctx context.Context, q *Question) (int64, error) {
	if problems := q.Valid(ctx); len(problems) > 0 {
		return 0, &ValidationError{Problems: problems}
	}

	if _, err := s.store.GetCategory(ctx, q.CategoryID); err != nil {
		return 0, fmt.Errorf("failed to get category %d: %w", q.CategoryID, err)
	}

	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return 0, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.DebugContext(ctx, "question created", slog.Int64("id", q.ID))

	return q.ID, nil
}

// DeleteQuestion deletes a question. Returns ErrQuestionNotFound if it does not exist.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question %d: %w", id, err)
	}

	s.logger.DebugContext(ctx, "question deleted", slog.Int64("id", id))

	return nil
}

// SearchQuestions returns all questions whose text contains query, ignoring case. An empty query matches every
// question.
func (s *Service) SearchQuestions(ctx context.Context, query string) ([]*Question, error) {
	questions, err := s.store.SearchQuestions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search questions for %q: %w", query, err)
	}

	return questions, nil
}

// QuestionsByCategory returns the questions of a category together with the category.
// An existing category without questions yields an empty slice; an unknown one yields ErrCategoryNotFound.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID int64) ([]*Question, *Category, error) {
	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get category %d: %w", categoryID, err)
	}

	questions, err := s.store.ListQuestionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list questions for category %d: %w", categoryID, err)
	}

	return questions, category, nil
}

// NextQuizQuestion picks a random question that is not in previous, from categoryID or from every category when
// categoryID is AllCategories. It returns nil without error when no question is left.
func (s *Service) NextQuizQuestion(ctx context.Context, categoryID int64, previous []int64) (*Question, error) {
	candidates, err := s.store.ListQuizCandidates(ctx, categoryID, previous)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz candidates: %w", err)
	}

	if len(candidates) == 0 {
		return nil, nil //nolint:nilnil // No question left is the normal end of a quiz.
	}

	return candidates[s.rand.IntN(len(candidates))], nil
}

func (s *Service) categories(ctx context.Context) ([]*Category, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetCategories(ctx)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "error reading category cache", logging.ErrAttr(err))
		case ok:
			return cached, nil
		}
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	if s.cache != nil {
		if err = s.cache.SetCategories(ctx, categories); err != nil {
			s.logger.WarnContext(ctx, "error writing category cache", logging.ErrAttr(err))
		}
	}

	return categories, nil
}

func categoryMap(categories []*Category) map[int64]string {
	m := make(map[int64]string, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Type
	}

	return m
}
