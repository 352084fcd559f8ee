// Package trivia contains the trivia domain: questions, categories and the queries the web app runs over them.
package trivia

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrQuestionNotFound is returned when a question is not found.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrPageNotFound is returned when a listing page holds no questions.
	ErrPageNotFound = errors.New("page not found")
	// ErrInvalidPage is returned for a page or page size below 1.
	ErrInvalidPage = errors.New("invalid page")
	// ErrInvalid is matched by every ValidationError.
	ErrInvalid = errors.New("invalid")
)

// Question represents a trivia question.
type Question struct {
	ID         int64
	Text       string
	Answer     string
	CategoryID int64
	Difficulty int
}

// Valid checks if the question is valid.
func (q *Question) Valid(_ context.Context) map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(q.Text) == "" {
		problems["question"] = "Question is required"
	}
	if strings.TrimSpace(q.Answer) == "" {
		problems["answer"] = "Answer is required"
	}
	if q.CategoryID < 1 {
		problems["category"] = "Category is required"
	}
	if q.Difficulty < 1 {
		problems["difficulty"] = "Difficulty must be a positive number"
	}

	return problems
}

// Category represents a question category. Categories are reference data.
type Category struct {
	ID   int64
	Type string
}

// Page is one page of the question listing.
type Page struct {
	Questions      []*Question
	TotalQuestions int
	Categories     map[int64]string
}

// ValidationError lists the problems found in a request or entity.
type ValidationError struct {
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Problems))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Problems[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap makes errors.Is(err, ErrInvalid) match.
func (*ValidationError) Unwrap() error { return ErrInvalid }

// Store persists questions and categories.
// Every method returning questions orders them by id ascending.
type Store interface {
	// Ping returns the status of the database connection.
	Ping(ctx context.Context) error
	// ListCategories returns all categories.
	ListCategories(ctx context.Context) ([]*Category, error)
	// GetCategory returns a category by its ID. Returns ErrCategoryNotFound if it does not exist.
	GetCategory(ctx context.Context, id int64) (*Category, error)
	// CountQuestions returns the number of questions.
	CountQuestions(ctx context.Context) (int, error)
	// ListQuestions returns at most limit questions, skipping the first offset.
	ListQuestions(ctx context.Context, limit, offset int) ([]*Question, error)
	// CreateQuestion creates a question and sets its ID.
	CreateQuestion(ctx context.Context, q *Question) error
	// DeleteQuestion deletes a question. Returns ErrQuestionNotFound if it does not exist.
	DeleteQuestion(ctx context.Context, id int64) error
	// SearchQuestions returns questions whose text contains term, ignoring case.
	SearchQuestions(ctx context.Context, term string) ([]*Question, error)
	// ListQuestionsByCategory returns the questions of a category.
	ListQuestionsByCategory(ctx context.Context, categoryID int64) ([]*Question, error)
	// ListQuizCandidates returns the questions not in excludeIDs, limited to categoryID unless it is AllCategories.
	ListQuizCandidates(ctx context.Context, categoryID int64, excludeIDs []int64) ([]*Question, error)
}

// CategoryCache keeps the category list out of the database.
type CategoryCache interface {
	// GetCategories returns the cached categories and whether they were found.
	GetCategories(ctx context.Context) ([]*Category, bool, error)
	// SetCategories replaces the cached categories.
	SetCategories(ctx context.Context, categories []*Category) error
}
