package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/starquake/trivia/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("text in development", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.New(&buf, "development", slog.LevelInfo)

		logger.InfoContext(t.Context(), "hello", slog.String("name", "renata"))

		got := buf.String()
		if want := "msg=hello"; !strings.Contains(got, want) {
			t.Errorf("got %q, want substring %q", got, want)
		}
		if want := "name=renata"; !strings.Contains(got, want) {
			t.Errorf("got %q, want substring %q", got, want)
		}
	})

	t.Run("json in production", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.New(&buf, "production", slog.LevelInfo)

		logger.InfoContext(t.Context(), "hello")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if got, want := rec["msg"], "hello"; got != want {
			t.Errorf("got msg %v, want %v", got, want)
		}
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.New(&buf, "development", slog.LevelWarn)

		logger.InfoContext(t.Context(), "dropped")
		logger.WarnContext(t.Context(), "kept")

		got := buf.String()
		if strings.Contains(got, "dropped") {
			t.Errorf("got %q, info record should be filtered", got)
		}
		if !strings.Contains(got, "kept") {
			t.Errorf("got %q, want warn record", got)
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("added to records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.New(&buf, "development", slog.LevelDebug).With(slog.String("component", "test"))

		ctx := logging.WithRequestID(t.Context(), "abc123")
		logger.DebugContext(ctx, "with id")

		got := buf.String()
		if want := logging.RequestIDKey + "=abc123"; !strings.Contains(got, want) {
			t.Errorf("got %q, want substring %q", got, want)
		}
		if want := "component=test"; !strings.Contains(got, want) {
			t.Errorf("got %q, want substring %q", got, want)
		}
	})

	t.Run("absent without id", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := logging.New(&buf, "development", slog.LevelDebug)

		logger.InfoContext(context.Background(), "no id")

		if got := buf.String(); strings.Contains(got, logging.RequestIDKey) {
			t.Errorf("got %q, want no request id", got)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := logging.WithRequestID(t.Context(), "xyz")
		if got, want := logging.RequestID(ctx), "xyz"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if got := logging.RequestID(t.Context()); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

func TestErrAttr(t *testing.T) {
	t.Parallel()

	err := errors.New("jedi error")
	attr := logging.ErrAttr(err)
	if got, want := attr.Key, "err"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := attr.Value.String(), err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
