// Package client serves the browser quiz client.
package client

import (
	"embed"
	"io/fs"
	"net/http"
	"os"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/starquake/trivia/internal/config"
	"github.com/starquake/trivia/internal/must"
)

//go:embed static/*
var staticFS embed.FS

// FS returns the embedded client files.
func FS() fs.FS {
	return must.Any(fs.Sub(staticFS, "static"))
}

// Handler returns an [http.Handler] that serves the client under /client/.
// Outside production a non-empty cfg.ClientDir replaces the embedded files so the client can be edited live.
// In production responses are minified.
func Handler(cfg *config.Config) http.Handler {
	fsys := FS()
	if cfg.ClientDir != "" && !cfg.IsProduction() {
		fsys = os.DirFS(cfg.ClientDir)
	}

	var h http.Handler = http.FileServer(http.FS(fsys))
	if cfg.IsProduction() {
		h = newMinifier().Middleware(h)
	}

	return http.StripPrefix("/client", h)
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("text/javascript", js.Minify)

	return m
}
