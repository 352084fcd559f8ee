package client_test

import (
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/starquake/trivia/internal/client"
	"github.com/starquake/trivia/internal/config"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestFS(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"index.html", "app.js", "style.css"} {
		if _, err := fs.Stat(FS(), name); err != nil {
			t.Errorf("embedded %s missing: %v", name, err)
		}
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()

	embedded, err := fs.ReadFile(FS(), "app.js")
	if err != nil {
		t.Fatalf("failed to read embedded app.js: %v", err)
	}

	t.Run("development serves files as is", func(t *testing.T) {
		t.Parallel()

		h := Handler(&config.Config{AppEnvironment: config.AppEnvironmentDefault})

		rec := get(t, h, "/client/app.js")
		if got, want := rec.Code, http.StatusOK; got != want {
			t.Fatalf("got status %d, want %d", got, want)
		}
		if got, want := rec.Body.String(), string(embedded); got != want {
			t.Error("app.js differs from the embedded file")
		}

		rec = get(t, h, "/client/")
		if got, want := rec.Code, http.StatusOK; got != want {
			t.Fatalf("got status %d, want %d", got, want)
		}
		if !strings.Contains(rec.Body.String(), "<title>Trivia</title>") {
			t.Error("index.html not served for /client/")
		}
	})

	t.Run("production minifies", func(t *testing.T) {
		t.Parallel()

		h := Handler(&config.Config{AppEnvironment: config.AppEnvironmentProduction})

		rec := get(t, h, "/client/app.js")
		if got, want := rec.Code, http.StatusOK; got != want {
			t.Fatalf("got status %d, want %d", got, want)
		}
		body, err := io.ReadAll(rec.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		if len(body) == 0 || len(body) >= len(embedded) {
			t.Errorf("got %d bytes, want fewer than the %d embedded bytes", len(body), len(embedded))
		}
	})

	t.Run("client dir", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('live');"), 0o600); err != nil {
			t.Fatalf("failed to write app.js: %v", err)
		}
		h := Handler(&config.Config{AppEnvironment: config.AppEnvironmentDefault, ClientDir: dir})

		rec := get(t, h, "/client/app.js")
		if got, want := rec.Body.String(), "console.log('live');"; got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		h := Handler(&config.Config{AppEnvironment: config.AppEnvironmentDefault})

		if got, want := get(t, h, "/client/missing.js").Code, http.StatusNotFound; got != want {
			t.Errorf("got status %d, want %d", got, want)
		}
	})
}
