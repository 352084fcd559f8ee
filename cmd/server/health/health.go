// Package health provides health check endpoints.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starquake/trivia/internal/httputil"
	"github.com/starquake/trivia/internal/logging"
	"github.com/starquake/trivia/internal/store"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealthz returns a handler that serves health check responses.
// The database is always checked; the category cache only when cache is not nil.
// Returns 503 when a check fails.
func HandleHealthz(logger *slog.Logger, stores *store.Stores, cache Pinger) http.HandlerFunc {
	type healthStatus struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := map[string]Pinger{"database": stores.Questions}
		if cache != nil {
			checks["cache"] = cache
		}

		httpStatus := http.StatusOK
		health := healthStatus{
			Status: "ok",
			Checks: make(map[string]string, len(checks)),
		}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				health.Status = "degraded"
				health.Checks[name] = fmt.Sprintf("unhealthy: %v", err)
				httpStatus = http.StatusServiceUnavailable

				continue
			}
			health.Checks[name] = "healthy"
		}

		logger.DebugContext(ctx, "Health check performed", slog.String("status", health.Status))
		if err := httputil.EncodeJSON(w, httpStatus, health); err != nil {
			logger.ErrorContext(ctx, "error encoding healthStatus", logging.ErrAttr(err))
		}
	}
}
