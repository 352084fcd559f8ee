package server

import (
	"log/slog"
	"net/http"

	"github.com/starquake/trivia/internal/api"
	"github.com/starquake/trivia/internal/client"
	"github.com/starquake/trivia/internal/config"
	"github.com/starquake/trivia/internal/httputil"
	"github.com/starquake/trivia/internal/trivia"
)

// AddRoutes registers the API, the quiz client and a JSON 404 for everything else.
func AddRoutes(
	mux *http.ServeMux,
	logger *slog.Logger,
	cfg *config.Config,
	service *trivia.Service,
) {
	api.AddRoutes(mux, logger, service, cfg.QuestionsPerPage)
	mux.Handle("GET /client/", client.Handler(cfg))
	mux.Handle("GET /{$}", http.RedirectHandler("/client/", http.StatusFound))
	mux.Handle("/", handleNotFound(logger))
}

func handleNotFound(logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, r, logger, http.StatusNotFound, nil)
	})
}
