// Package server contains everything related to the Server
package server

import (
	"log/slog"
	"net/http"

	"github.com/starquake/trivia/internal/config"
	"github.com/starquake/trivia/internal/trivia"
)

// NewServer creates a new server.
// Requests get an ID, are logged when they complete and carry CORS headers.
func NewServer(logger *slog.Logger, cfg *config.Config, service *trivia.Service) http.Handler {
	mux := http.NewServeMux()
	AddRoutes(mux, logger, cfg, service)

	var handler http.Handler = mux
	handler = logRequests(logger, handler)
	handler = withCORS(cfg.CORSAllowedOrigins, handler)
	handler = withRequestID(handler)

	return handler
}
