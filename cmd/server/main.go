// Application server is the trivia API and quiz client server.
package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/starquake/trivia/cmd/server/app"
	"github.com/starquake/trivia/internal/config"
	"github.com/starquake/trivia/internal/must"
	_ "modernc.org/sqlite"
)

func run(ctx context.Context, getenv func(string) string) error {
	host, port := getenv("HOST"), getenv("PORT")
	if host == "" {
		host = config.HostDefault
	}
	if port == "" {
		port = config.PortDefault
	}

	listenConfig := &net.ListenConfig{}
	ln, err := listenConfig.Listen(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return fmt.Errorf("error listening on %s:%s: %w", host, port, err)
	}

	return app.Run(ctx, getenv, os.Stdout, ln) //nolint:wrapcheck // Run wraps its own errors.
}

func main() {
	ctx := context.Background()
	must.OK(run(ctx, os.Getenv))
}
