// Package app contains the main entrypoint for the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starquake/trivia/cmd/server/health"
	"github.com/starquake/trivia/internal/cache"
	"github.com/starquake/trivia/internal/config"
	"github.com/starquake/trivia/internal/db"
	"github.com/starquake/trivia/internal/logging"
	"github.com/starquake/trivia/internal/seed"
	"github.com/starquake/trivia/internal/server"
	"github.com/starquake/trivia/internal/store"
	"github.com/starquake/trivia/internal/trivia"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Run starts the application server, connects to the database, runs migrations, and serves requests on ln until
// ctx is canceled or an interrupt arrives. Run closes ln.
//
//nolint:funlen // Wiring reads best top to bottom.
func Run(
	ctx context.Context,
	getenv func(string) string,
	stdout io.Writer,
	ln net.Listener,
) error {
	var err error
	mainCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var cfg *config.Config
	if cfg, err = config.Parse(getenv); err != nil {
		_ = ln.Close()

		return fmt.Errorf("error parsing config: %w", err)
	}

	logger := logging.New(stdout, cfg.AppEnvironment, cfg.LogLevel)

	conn, err := db.Open(mainCtx, cfg.DBDriver, cfg.DBURI, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		_ = ln.Close()

		return fmt.Errorf("error opening database connection: %w", err)
	}
	defer func() {
		if conErr := conn.Close(); conErr != nil {
			logger.ErrorContext(ctx, "error closing database connection", logging.ErrAttr(conErr))
		}
	}()

	if err = db.Migrate(mainCtx, conn, cfg.DBDriver); err != nil {
		msg := "error migrating database"
		logger.ErrorContext(ctx, msg, logging.ErrAttr(err))
		_ = ln.Close()

		return fmt.Errorf("%s: %w", msg, err)
	}

	questionStore := store.NewQuestionStore(conn, logger)
	stores := &store.Stores{
		Questions: questionStore,
	}

	var categoryCache *cache.CategoryCache
	if cfg.RedisAddr != "" {
		redisClient, redisErr := cache.NewClient(mainCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if redisErr != nil {
			logger.ErrorContext(ctx, "error connecting to redis", logging.ErrAttr(redisErr))
			_ = ln.Close()

			return fmt.Errorf("error connecting to redis: %w", redisErr)
		}
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				logger.ErrorContext(ctx, "error closing redis client", logging.ErrAttr(closeErr))
			}
		}()
		categoryCache = cache.NewCategoryCache(redisClient, cfg.CategoryCacheTTL)
	}

	if cfg.SeedFile != "" {
		if err = seedQuestions(mainCtx, logger, cfg.SeedFile, questionStore, categoryCache); err != nil {
			_ = ln.Close()

			return err
		}
	}

	opts := []trivia.Option{}
	// A nil *CategoryCache must not end up in a non-nil interface.
	var cachePinger health.Pinger
	if categoryCache != nil {
		opts = append(opts, trivia.WithCategoryCache(categoryCache))
		cachePinger = categoryCache
	}
	service := trivia.NewService(stores.Questions, logger, opts...)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", health.HandleHealthz(logger, stores, cachePinger))
	mux.Handle("/", server.NewServer(logger, cfg, service))

	httpServer := &http.Server{
		ReadHeaderTimeout: readHeaderTimeout,
		Handler:           mux,
		BaseContext: func(net.Listener) context.Context {
			return mainCtx
		},
	}

	g, gCtx := errgroup.WithContext(mainCtx)
	g.Go(func() error {
		addr := ln.Addr().String()
		logger.InfoContext(ctx, "listening on "+addr, slog.String("addr", addr))
		logger.InfoContext(ctx, fmt.Sprintf("visit http://%s/client/ to play", addr))
		if httpErr := httpServer.Serve(ln); httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			return fmt.Errorf("error listening and serving: %w", httpErr)
		}

		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		// make a new context for the Shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer shutdownCancel()
		logger.InfoContext(shutdownCtx, "shutting down server")
		if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("error shutting down server: %w", shutdownErr)
		}

		return nil
	})

	if err = g.Wait(); err != nil {
		logger.ErrorContext(ctx, "server stopped with error", logging.ErrAttr(err))

		return err //nolint:wrapcheck // Already wrapped by the goroutines.
	}

	return nil
}

func seedQuestions(
	ctx context.Context,
	logger *slog.Logger,
	path string,
	target seed.Target,
	categoryCache *cache.CategoryCache,
) error {
	fixture, err := seed.LoadFile(path)
	if err != nil {
		logger.ErrorContext(ctx, "error loading seed file", slog.String("path", path), logging.ErrAttr(err))

		return fmt.Errorf("error loading seed file: %w", err)
	}

	n, err := seed.Apply(ctx, target, fixture)
	if err != nil {
		logger.ErrorContext(ctx, "error seeding database", slog.String("path", path), logging.ErrAttr(err))

		return fmt.Errorf("error seeding database: %w", err)
	}
	if n == 0 {
		logger.InfoContext(ctx, "database already has questions, skipping seed", slog.String("path", path))

		return nil
	}
	logger.InfoContext(ctx, "seeded database", slog.String("path", path), slog.Int("questions", n))

	if categoryCache != nil {
		if err = categoryCache.Invalidate(ctx); err != nil {
			logger.WarnContext(ctx, "error invalidating category cache", logging.ErrAttr(err))
		}
	}

	return nil
}
