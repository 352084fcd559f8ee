// Package seed loads sample categories and questions from a YAML fixture.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starquake/trivia/internal/trivia"
)

// ErrInvalidFixture is returned when a fixture fails validation.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is the content of a seed file.
type Fixture struct {
	Categories []Category `yaml:"categories"`
	Questions  []Question `yaml:"questions"`
}

// Category is a category in a seed file. Existing categories with the same ID are renamed.
type Category struct {
	ID   int64  `yaml:"id"`
	Type string `yaml:"type"`
}

// Question is a question in a seed file. IDs are assigned on insert.
type Question struct {
	Question   string `yaml:"question"`
	Answer     string `yaml:"answer"`
	Category   int64  `yaml:"category"`
	Difficulty int    `yaml:"difficulty"`
}

// Target is where a fixture is applied.
type Target interface {
	CountQuestions(ctx context.Context) (int, error)
	Seed(ctx context.Context, categories []*trivia.Category, questions []*trivia.Question) error
}

// LoadFile reads and validates the fixture at path.
func LoadFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Load(f)
}

// Load parses and validates a single YAML document. Unknown fields are rejected.
func Load(r io.Reader) (*Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: multiple documents are not supported", ErrInvalidFixture)
		}

		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if err := fixture.validate(); err != nil {
		return nil, err
	}

	return &fixture, nil
}

func (f *Fixture) validate() error {
	var problems []string

	seen := make(map[int64]bool, len(f.Categories))
	for i, c := range f.Categories {
		switch {
		case c.ID < 1:
			problems = append(problems, fmt.Sprintf("categories[%d]: id must be positive", i))
		case seen[c.ID]:
			problems = append(problems, fmt.Sprintf("categories[%d]: duplicate id %d", i, c.ID))
		}
		if strings.TrimSpace(c.Type) == "" {
			problems = append(problems, fmt.Sprintf("categories[%d]: type is required", i))
		}
		seen[c.ID] = true
	}

	for i, q := range f.Questions {
		tq := q.toTrivia()
		for _, p := range sortedProblems(tq.Valid(context.Background())) {
			problems = append(problems, fmt.Sprintf("questions[%d]: %s", i, p))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidFixture, strings.Join(problems, "; "))
	}

	return nil
}

func sortedProblems(problems map[string]string) []string {
	out := make([]string, 0, len(problems))
	for _, k := range slices.Sorted(maps.Keys(problems)) {
		out = append(out, problems[k])
	}

	return out
}

func (q Question) toTrivia() *trivia.Question {
	return &trivia.Question{
		Text:       q.Question,
		Answer:     q.Answer,
		CategoryID: q.Category,
		Difficulty: q.Difficulty,
	}
}

// Apply seeds target with the fixture in one transaction unless target already holds questions.
// It returns the number of questions created.
func Apply(ctx context.Context, target Target, f *Fixture) (int, error) {
	n, err := target.CountQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	categories := make([]*trivia.Category, 0, len(f.Categories))
	for _, c := range f.Categories {
		categories = append(categories, &trivia.Category{ID: c.ID, Type: c.Type})
	}
	questions := make([]*trivia.Question, 0, len(f.Questions))
	for _, q := range f.Questions {
		questions = append(questions, q.toTrivia())
	}

	if err = target.Seed(ctx, categories, questions); err != nil {
		return 0, fmt.Errorf("failed to apply seed: %w", err)
	}

	return len(questions), nil
}
