package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starquake/trivia/internal/db"
	"github.com/starquake/trivia/internal/logging"
	"github.com/starquake/trivia/internal/trivia"
)

// SQL used by QuestionStore. Exported for the sqlmock tests.
const (
	ListCategoriesSQL = `SELECT id, type FROM categories ORDER BY id`

	GetCategorySQL = `SELECT id, type FROM categories WHERE id = ?`

	UpsertCategorySQL = `INSERT INTO categories (id, type) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET type = excluded.type`

	CountQuestionsSQL = `SELECT COUNT(*) FROM questions`

	ListQuestionsSQL = `SELECT id, question, answer, category_id, difficulty FROM questions
ORDER BY id LIMIT ? OFFSET ?`

	CreateQuestionSQL = `INSERT INTO questions (question, answer, category_id, difficulty) VALUES (?, ?, ?, ?)`

	DeleteQuestionSQL = `DELETE FROM questions WHERE id = ?`

	SearchQuestionsSQL = `SELECT id, question, answer, category_id, difficulty FROM questions
WHERE ` + FoldFunc + `(question) LIKE ? ESCAPE '\' ORDER BY id`

	ListQuestionsByCategorySQL = `SELECT id, question, answer, category_id, difficulty FROM questions
WHERE category_id = ? ORDER BY id`

	ListQuizCandidatesSQL = `SELECT id, question, answer, category_id, difficulty FROM questions
WHERE (? = 0 OR category_id = ?) AND id NOT IN (SELECT value FROM json_each(?))
ORDER BY id`
)

// QuestionStore stores questions and categories in SQLite.
type QuestionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewQuestionStore initializes a new QuestionStore with the provided database connection and returns it.
func NewQuestionStore(conn *sql.DB, logger *slog.Logger) *QuestionStore {
	return &QuestionStore{db: conn, logger: logger}
}

// Ping checks the connection to the database, ensuring it's reachable and responsive.
func (s *QuestionStore) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// ListCategories returns all categories ordered by ID.
func (s *QuestionStore) ListCategories(ctx context.Context) ([]*trivia.Category, error) {
	rows, err := s.db.QueryContext(ctx, ListCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer s.closeRows(ctx, rows)

	categories := make([]*trivia.Category, 0)
	for rows.Next() {
		c := &trivia.Category{}
		if err = rows.Scan(&c.ID, &c.Type); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// GetCategory returns a category by its ID.
// Returns trivia.ErrCategoryNotFound if the category is not found.
func (s *QuestionStore) GetCategory(ctx context.Context, id int64) (*trivia.Category, error) {
	c := &trivia.Category{}
	err := s.db.QueryRowContext(ctx, GetCategorySQL, id).Scan(&c.ID, &c.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: category %d", trivia.ErrCategoryNotFound, id)
		}

		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

// CountQuestions returns the total number of questions.
func (s *QuestionStore) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, CountQuestionsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}

	return n, nil
}

// ListQuestions returns at most limit questions ordered by ID, skipping the first offset.
func (s *QuestionStore) ListQuestions(ctx context.Context, limit, offset int) ([]*trivia.Question, error) {
	return s.queryQuestions(ctx, ListQuestionsSQL, limit, offset)
}

// CreateQuestion creates a question and sets its ID.
// IDs come from an AUTOINCREMENT key, so IDs of deleted questions are never handed out again.
func (s *QuestionStore) CreateQuestion(ctx context.Context, q *trivia.Question) error {
	res, err := s.db.ExecContext(ctx, CreateQuestionSQL, q.Text, q.Answer, q.CategoryID, q.Difficulty)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error getting last insert ID: %w", err)
	}
	q.ID = id

	return nil
}

// DeleteQuestion deletes a question.
// Returns trivia.ErrQuestionNotFound if no question has the given ID.
func (s *QuestionStore) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, DeleteQuestionSQL, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: question %d", trivia.ErrQuestionNotFound, id)
	}

	return nil
}

// SearchQuestions returns questions whose text contains term. Both sides are case folded with Unicode rules.
func (s *QuestionStore) SearchQuestions(ctx context.Context, term string) ([]*trivia.Question, error) {
	return s.queryQuestions(ctx, SearchQuestionsSQL, "%"+escapeLike(Fold(term))+"%")
}

// ListQuestionsByCategory returns the questions of a category ordered by ID.
func (s *QuestionStore) ListQuestionsByCategory(ctx context.Context, categoryID int64) ([]*trivia.Question, error) {
	return s.queryQuestions(ctx, ListQuestionsByCategorySQL, categoryID)
}

// ListQuizCandidates returns the questions not in excludeIDs ordered by ID. Unless categoryID is
// trivia.AllCategories only questions of that category are returned.
func (s *QuestionStore) ListQuizCandidates(
	ctx context.Context,
	categoryID int64,
	excludeIDs []int64,
) ([]*trivia.Question, error) {
	if excludeIDs == nil {
		// json_each('null') yields a NULL row, which makes NOT IN match nothing.
		excludeIDs = []int64{}
	}
	excluded, err := json.Marshal(excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode excluded IDs: %w", err)
	}

	return s.queryQuestions(ctx, ListQuizCandidatesSQL, categoryID, categoryID, string(excluded))
}

// Seed upserts categories and creates questions in one transaction.
func (s *QuestionStore) Seed(ctx context.Context, categories []*trivia.Category, questions []*trivia.Question) error {
	err := db.ExecTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, c := range categories {
			if _, err := tx.ExecContext(ctx, UpsertCategorySQL, c.ID, c.Type); err != nil {
				return fmt.Errorf("failed to upsert category %d: %w", c.ID, err)
			}
		}

		for _, q := range questions {
			res, err := tx.ExecContext(ctx, CreateQuestionSQL, q.Text, q.Answer, q.CategoryID, q.Difficulty)
			if err != nil {
				return fmt.Errorf("failed to create question %q: %w", q.Text, err)
			}
			if q.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("error getting last insert ID: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}

	return nil
}

func (s *QuestionStore) queryQuestions(ctx context.Context, query string, args ...any) ([]*trivia.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer s.closeRows(ctx, rows)

	questions := make([]*trivia.Question, 0)
	for rows.Next() {
		q := &trivia.Question{}
		if err = rows.Scan(&q.ID, &q.Text, &q.Answer, &q.CategoryID, &q.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}

	return questions, nil
}

func (s *QuestionStore) closeRows(ctx context.Context, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		s.logger.ErrorContext(ctx, "error closing rows", logging.ErrAttr(err))
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
