// Package api provides the HTTP handlers of the trivia JSON API.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/starquake/trivia/internal/httputil"
	"github.com/starquake/trivia/internal/logging"
	"github.com/starquake/trivia/internal/trivia"
)

type questionResponse struct {
	ID         int64  `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int64  `json:"category"`
	Difficulty int    `json:"difficulty"`
}

func newQuestionResponse(q *trivia.Question) *questionResponse {
	return &questionResponse{
		ID:         q.ID,
		Question:   q.Text,
		Answer:     q.Answer,
		Category:   q.CategoryID,
		Difficulty: q.Difficulty,
	}
}

func newQuestionResponses(questions []*trivia.Question) []*questionResponse {
	res := make([]*questionResponse, 0, len(questions))
	for _, q := range questions {
		res = append(res, newQuestionResponse(q))
	}

	return res
}

// HandleCategories returns all categories as a map of ID to type.
func HandleCategories(logger *slog.Logger, service *trivia.Service) http.Handler {
	type categoriesResponse struct {
		Success         bool             `json:"success"`
		Categories      map[int64]string `json:"categories"`
		TotalCategories int              `json:"total_categories"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categories, err := service.ListCategories(r.Context())
		if err != nil {
			writeServiceError(w, r, logger, err, "error listing categories")

			return
		}

		res := categoriesResponse{
			Success:         true,
			Categories:      categories,
			TotalCategories: len(categories),
		}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding categoriesResponse", logging.ErrAttr(err))
		}
	})
}

// HandleQuestionList returns one page of questions. The page comes from the page query parameter and defaults to 1.
// Returns 400 if page is not a positive integer.
// Returns 404 if the page holds no questions.
func HandleQuestionList(logger *slog.Logger, service *trivia.Service, pageSize int) http.Handler {
	type listResponse struct {
		Success         bool                `json:"success"`
		Questions       []*questionResponse `json:"questions"`
		TotalQuestions  int                 `json:"total_questions"`
		Categories      map[int64]string    `json:"categories"`
		CurrentCategory *string             `json:"current_category"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, err := httputil.QueryInt(r, "page", 1)
		if err != nil {
			logger.InfoContext(r.Context(), "invalid page parameter", logging.ErrAttr(err))
			httputil.WriteError(w, r, logger, http.StatusBadRequest, nil)

			return
		}

		p, err := service.ListQuestions(r.Context(), page, pageSize)
		if err != nil {
			writeServiceError(w, r, logger, err, "error listing questions")

			return
		}

		res := listResponse{
			Success:        true,
			Questions:      newQuestionResponses(p.Questions),
			TotalQuestions: p.TotalQuestions,
			Categories:     p.Categories,
		}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding listResponse", logging.ErrAttr(err))
		}
	})
}

// HandleQuestionDelete deletes the question with the ID in the path.
// Returns 422 if no such question exists.
func HandleQuestionDelete(logger *slog.Logger, service *trivia.Service) http.Handler {
	type deleteResponse struct {
		Success bool  `json:"success"`
		Deleted int64 `json:"deleted"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseIDFromPath(w, r, logger, "id")
		if !ok {
			return
		}

		if err := service.DeleteQuestion(r.Context(), id); err != nil {
			writeServiceError(w, r, logger, err, "error deleting question")

			return
		}

		res := deleteResponse{Success: true, Deleted: id}
		if err := httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding deleteResponse", logging.ErrAttr(err))
		}
	})
}

// HandleQuestionCreate creates a question from the request body and returns its ID.
// Returns 201 if the question was created.
// Returns 400 if the body is not valid JSON or difficulty or category is not an integer. Numeric strings and
// integral floats such as 2.0 count as integers.
// Returns 422 if a field is missing or empty, or the category does not exist.
func HandleQuestionCreate(logger *slog.Logger, service *trivia.Service) http.Handler {
	type createRequest struct {
		Question   *string `json:"question"`
		Answer     *string `json:"answer"`
		Difficulty *number `json:"difficulty"`
		Category   *number `json:"category"`
	}

	type createResponse struct {
		Success bool  `json:"success"`
		Created int64 `json:"created"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := httputil.DecodeJSON[createRequest](w, r)
		if err != nil {
			logger.InfoContext(r.Context(), "error decoding createRequest", logging.ErrAttr(err))
			httputil.WriteError(w, r, logger, http.StatusBadRequest, nil)

			return
		}

		problems := make(map[string]string)
		if req.Question == nil {
			problems["question"] = "Question is required"
		}
		if req.Answer == nil {
			problems["answer"] = "Answer is required"
		}
		if req.Difficulty == nil {
			problems["difficulty"] = "Difficulty is required"
		}
		if req.Category == nil {
			problems["category"] = "Category is required"
		}
		if len(problems) > 0 {
			httputil.WriteError(w, r, logger, http.StatusUnprocessableEntity, problems)

			return
		}

		q := &trivia.Question{
			Text:       *req.Question,
			Answer:     *req.Answer,
			CategoryID: int64(*req.Category),
			Difficulty: int(*req.Difficulty),
		}
		id, err := service.CreateQuestion(r.Context(), q)
		if err != nil {
			if errors.Is(err, trivia.ErrCategoryNotFound) {
				httputil.WriteError(w, r, logger, http.StatusUnprocessableEntity,
					map[string]string{"category": "Category does not exist"})

				return
			}
			writeServiceError(w, r, logger, err, "error creating question")

			return
		}

		res := createResponse{Success: true, Created: id}
		if err = httputil.EncodeJSON(w, http.StatusCreated, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding createResponse", logging.ErrAttr(err))
		}
	})
}

// HandleQuestionSearch returns the questions containing the query, ignoring case.
// The legacy searchTerm key is accepted in place of query. An empty query matches every question.
// Returns 422 if neither key is present.
func HandleQuestionSearch(logger *slog.Logger, service *trivia.Service) http.Handler {
	type searchRequest struct {
		Query      *string `json:"query"`
		SearchTerm *string `json:"searchTerm"`
	}

	type searchResponse struct {
		Success         bool                `json:"success"`
		Questions       []*questionResponse `json:"questions"`
		TotalQuestions  int                 `json:"total_questions"`
		CurrentCategory *string             `json:"current_category"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := httputil.DecodeJSON[searchRequest](w, r)
		if err != nil {
			logger.InfoContext(r.Context(), "error decoding searchRequest", logging.ErrAttr(err))
			httputil.WriteError(w, r, logger, http.StatusBadRequest, nil)

			return
		}

		query := req.Query
		if query == nil {
			query = req.SearchTerm
		}
		if query == nil {
			httputil.WriteError(w, r, logger, http.StatusUnprocessableEntity,
				map[string]string{"query": "Query is required"})

			return
		}

		questions, err := service.SearchQuestions(r.Context(), *query)
		if err != nil {
			writeServiceError(w, r, logger, err, "error searching questions")

			return
		}

		res := searchResponse{
			Success:        true,
			Questions:      newQuestionResponses(questions),
			TotalQuestions: len(questions),
		}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding searchResponse", logging.ErrAttr(err))
		}
	})
}

// HandleCategoryQuestions returns the questions of the category with the ID in the path.
// Returns 422 if the category does not exist. A category without questions is not an error.
func HandleCategoryQuestions(logger *slog.Logger, service *trivia.Service) http.Handler {
	type categoryQuestionsResponse struct {
		Success         bool                `json:"success"`
		Questions       []*questionResponse `json:"questions"`
		TotalQuestions  int                 `json:"total_questions"`
		CurrentCategory string              `json:"current_category"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := httputil.ParseIDFromPath(w, r, logger, "id")
		if !ok {
			return
		}

		questions, category, err := service.QuestionsByCategory(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, logger, err, "error listing questions by category")

			return
		}

		res := categoryQuestionsResponse{
			Success:         true,
			Questions:       newQuestionResponses(questions),
			TotalQuestions:  len(questions),
			CurrentCategory: category.Type,
		}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding categoryQuestionsResponse", logging.ErrAttr(err))
		}
	})
}

// HandleQuizNext returns a random question the player has not seen yet, or null when none is left.
// category_id 0 means every category. The legacy quiz_category object is accepted in place of category_id.
// Returns 422 if the category or the previous questions are missing.
func HandleQuizNext(logger *slog.Logger, service *trivia.Service) http.Handler {
	type quizCategory struct {
		ID *number `json:"id"`
	}

	type quizRequest struct {
		CategoryID        *number       `json:"category_id"`
		QuizCategory      *quizCategory `json:"quiz_category"`
		PreviousQuestions []int64       `json:"previous_questions"`
	}

	type quizResponse struct {
		Success  bool              `json:"success"`
		Question *questionResponse `json:"question"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := httputil.DecodeJSON[quizRequest](w, r)
		if err != nil {
			logger.InfoContext(r.Context(), "error decoding quizRequest", logging.ErrAttr(err))
			httputil.WriteError(w, r, logger, http.StatusBadRequest, nil)

			return
		}

		categoryID := req.CategoryID
		if categoryID == nil && req.QuizCategory != nil {
			categoryID = req.QuizCategory.ID
		}

		problems := make(map[string]string)
		if categoryID == nil {
			problems["category_id"] = "Category is required"
		}
		if req.PreviousQuestions == nil {
			problems["previous_questions"] = "Previous questions are required"
		}
		if len(problems) > 0 {
			httputil.WriteError(w, r, logger, http.StatusUnprocessableEntity, problems)

			return
		}

		q, err := service.NextQuizQuestion(r.Context(), int64(*categoryID), req.PreviousQuestions)
		if err != nil {
			writeServiceError(w, r, logger, err, "error picking quiz question")

			return
		}

		res := quizResponse{Success: true}
		if q != nil {
			res.Question = newQuestionResponse(q)
		}
		if err = httputil.EncodeJSON(w, http.StatusOK, res); err != nil {
			logger.ErrorContext(r.Context(), "error encoding quizResponse", logging.ErrAttr(err))
		}
	})
}

// writeServiceError maps a service error to its status code. Unexpected errors are logged with msg.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, msg string) {
	var verr *trivia.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteError(w, r, logger, http.StatusUnprocessableEntity, verr.Problems)
	case errors.Is(err, trivia.ErrInvalidPage):
		httputil.WriteError(w, r, logger, http.StatusBadRequest, nil)
	case errors.Is(err, trivia.ErrPageNotFound):
		httputil.WriteError(w, r, logger, http.StatusNotFound, nil)
	case errors.Is(err, trivia.ErrInvalid),
		errors.Is(err, trivia.ErrCategoryNotFound),
		errors.Is(err, trivia.ErrQuestionNotFound):
		httputil.WriteError(w, r, logger, http.StatusUnprocessableEntity, nil)
	default:
		logger.ErrorContext(r.Context(), msg, logging.ErrAttr(err))
		httputil.WriteError(w, r, logger, http.StatusInternalServerError, nil)
	}
}
