package seed_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starquake/trivia/internal/db"
	"github.com/starquake/trivia/internal/dbtest"
	. "github.com/starquake/trivia/internal/seed"
	"github.com/starquake/trivia/internal/store"
	"github.com/starquake/trivia/internal/trivia"
)

var ErrForced = errors.New("forced error")

func TestMain(m *testing.M) {
	// Configure goose global state exactly once for this package's tests.
	db.SetupGoose()

	// Run tests.
	m.Run()
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	got, err := LoadFile("testdata/small.yaml")
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	want := &Fixture{
		Categories: []Category{{ID: 1, Type: "Natural Science"}, {ID: 7, Type: "Music"}},
		Questions: []Question{
			{Question: "Who discovered penicillin?", Answer: "Alexander Fleming", Category: 1, Difficulty: 3},
			{Question: "How many strings does a violin have?", Answer: "Four", Category: 7, Difficulty: 1},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fixture diff (-want +got):\n%s", diff)
	}
}

func TestLoadFile_SampleData(t *testing.T) {
	t.Parallel()

	got, err := LoadFile("../../data/questions.yaml")
	if err != nil {
		t.Fatalf("failed to load sample data: %v", err)
	}
	if got, want := len(got.Categories), 6; got != want {
		t.Errorf("got %d categories, want %d", got, want)
	}
	if len(got.Questions) == 0 {
		t.Error("got no questions")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile("testdata/missing.yaml"); err == nil {
		t.Error("got nil, want error")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name        string
		input       string
		wantInvalid bool
		wantMessage string
	}{
		{
			name:        "unknown field",
			input:       "questions:\n  - question: Q\n    answer: A\n    category: 1\n    difficulty: 1\n    hint: H\n",
			wantMessage: "field hint not found",
		},
		{
			name:        "not yaml",
			input:       "questions: [",
			wantMessage: "failed to parse seed file",
		},
		{
			name:        "multiple documents",
			input:       "questions: []\n---\nquestions: []\n",
			wantInvalid: true,
			wantMessage: "multiple documents",
		},
		{
			name:        "missing question text",
			input:       "questions:\n  - answer: A\n    category: 1\n    difficulty: 1\n",
			wantInvalid: true,
			wantMessage: "questions[0]: Question is required",
		},
		{
			name:        "duplicate category",
			input:       "categories:\n  - id: 2\n    type: Art\n  - id: 2\n    type: Music\n",
			wantInvalid: true,
			wantMessage: "categories[1]: duplicate id 2",
		},
		{
			name:        "category without type",
			input:       "categories:\n  - id: 3\n",
			wantInvalid: true,
			wantMessage: "categories[0]: type is required",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("got nil, want error")
			}
			if got, want := errors.Is(err, ErrInvalidFixture), tt.wantInvalid; got != want {
				t.Errorf("errors.Is(%v, ErrInvalidFixture) = %t, want %t", err, got, want)
			}
			if got, want := err.Error(), tt.wantMessage; !strings.Contains(got, want) {
				t.Errorf("got %q, want it to contain %q", got, want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	fixture, err := LoadFile("testdata/small.yaml")
	if err != nil {
		t.Fatalf("failed to load fixture: %v", err)
	}

	s := store.NewQuestionStore(dbtest.Open(t), slog.New(slog.DiscardHandler))

	n, err := Apply(t.Context(), s, fixture)
	if err != nil {
		t.Fatalf("failed to apply fixture: %v", err)
	}
	if got, want := n, 2; got != want {
		t.Errorf("got %d questions seeded, want %d", got, want)
	}

	questions, err := s.ListQuestionsByCategory(t.Context(), 7)
	if err != nil {
		t.Fatalf("failed to list questions: %v", err)
	}
	want := []*trivia.Question{
		{ID: 2, Text: "How many strings does a violin have?", Answer: "Four", CategoryID: 7, Difficulty: 1},
	}
	if diff := cmp.Diff(want, questions); diff != "" {
		t.Errorf("questions diff (-want +got):\n%s", diff)
	}

	// A second run leaves a populated store alone.
	n, err = Apply(t.Context(), s, fixture)
	if err != nil {
		t.Fatalf("failed to apply fixture again: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d questions seeded on a populated store, want 0", n)
	}
	total, err := s.CountQuestions(t.Context())
	if err != nil {
		t.Fatalf("failed to count questions: %v", err)
	}
	if got, want := total, 2; got != want {
		t.Errorf("got %d questions, want %d", got, want)
	}
}

type fakeTarget struct {
	count    int
	countErr error
	seedErr  error
	seeded   []*trivia.Question
}

func (f *fakeTarget) CountQuestions(context.Context) (int, error) { return f.count, f.countErr }

func (f *fakeTarget) Seed(_ context.Context, _ []*trivia.Category, questions []*trivia.Question) error {
	if f.seedErr != nil {
		return f.seedErr
	}
	f.seeded = questions

	return nil
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	fixture := &Fixture{Questions: []Question{{Question: "Q", Answer: "A", Category: 1, Difficulty: 1}}}

	for _, tt := range []struct {
		name   string
		target *fakeTarget
	}{
		{name: "count fails", target: &fakeTarget{countErr: ErrForced}},
		{name: "seed fails", target: &fakeTarget{seedErr: ErrForced}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n, err := Apply(t.Context(), tt.target, fixture)
			if got, want := err, ErrForced; !errors.Is(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
			if n != 0 {
				t.Errorf("got %d, want 0", n)
			}
			if tt.target.seeded != nil {
				t.Errorf("got seeded questions %v, want none", tt.target.seeded)
			}
		})
	}
}
