// Package logging builds the application's slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey struct{}

// RequestIDKey is the attribute key of the request id.
const RequestIDKey = "request_id"

// New returns a logger writing to w. Production uses JSON, everything else text.
// Records logged with a context from WithRequestID carry the request id.
func New(w io.Writer, env string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if env == "production" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(&contextHandler{h})
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)

	return id
}

// ErrAttr creates a new attribute with the key "err" and the given error value.
func ErrAttr(value error) slog.Attr { return slog.Any("err", value) }

type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String(RequestIDKey, id))
	}

	//nolint:wrapcheck // Wrapping would only add noise to the underlying handler error.
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{h.Handler.WithGroup(name)}
}
