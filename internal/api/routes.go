package api

import (
	"log/slog"
	"net/http"

	"github.com/starquake/trivia/internal/trivia"
)

// AddRoutes registers the trivia API on mux. pageSize is the number of questions per listing page.
func AddRoutes(
	mux *http.ServeMux,
	logger *slog.Logger,
	service *trivia.Service,
	pageSize int,
) {
	mux.Handle("GET /categories", HandleCategories(logger, service))
	mux.Handle("GET /categories/{id}/questions", HandleCategoryQuestions(logger, service))
	mux.Handle("GET /questions", HandleQuestionList(logger, service, pageSize))
	mux.Handle("POST /questions", HandleQuestionCreate(logger, service))
	mux.Handle("DELETE /questions/{id}", HandleQuestionDelete(logger, service))
	mux.Handle("POST /questions/search", HandleQuestionSearch(logger, service))
	mux.Handle("POST /quizzes", HandleQuizNext(logger, service))
}
