// Package main is the entry point for the Coffee API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pkordes/coffee-api/internal/auth"
	"github.com/pkordes/coffee-api/internal/config"
	"github.com/pkordes/coffee-api/internal/handler"
	"github.com/pkordes/coffee-api/internal/middleware"
	"github.com/pkordes/coffee-api/internal/repo"
	"github.com/pkordes/coffee-api/internal/repo/memory"
	"github.com/pkordes/coffee-api/internal/service"
	"github.com/pkordes/coffee-api/migrations"
)

// stores is the set of repositories the services run on, whichever backend
// provides them.
type stores struct {
	users   repo.UserRepo
	tags    repo.AttributeRepo
	items   repo.AttributeRepo
	coffees repo.CoffeeRepo
	ping    handler.Pinger
	close   func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the server and blocks until it stops. Every failure returns
// through here so deferred cleanup such as closing the pool always runs.
func run() error {
	// --- Config -----------------------------------------------------------
	// A .env file is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ----------------------------------------------------------
	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.close()

	// --- Services ---------------------------------------------------------
	tokens, err := auth.NewTokenService([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		return err
	}
	users, err := service.NewUserService(st.users, tokens)
	if err != nil {
		return err
	}
	server := handler.NewServer(
		users,
		service.NewAttributeService(st.tags),
		service.NewAttributeService(st.items),
		service.NewCoffeeService(st.coffees, st.tags, st.items,
			service.WithStrictAttributeOwnership(cfg.StrictAttributeOwnership)),
		tokens,
		st.ping,
	)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer
	// → CORS → body limit. CORS sits before auth so preflights never need a token.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return serve(ctx, srv, shutdownTimeout)
}

// shutdownTimeout is how long in-flight requests get once a signal arrives.
const shutdownTimeout = 15 * time.Second

// serve runs srv until ctx is cancelled, then shuts it down gracefully,
// giving in-flight requests up to grace to complete. A listener failure is
// returned instead of exiting so the caller's cleanup still runs.
func serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStores picks Postgres when DATABASE_URL is set and the in-memory store
// otherwise.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set; using in-memory store, data will not survive a restart")
		m := memory.New()
		return stores{
			users:   m.Users(),
			tags:    m.Tags(),
			items:   m.Items(),
			coffees: m.Coffees(),
			ping:    m,
			close:   func() {},
		}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	pool, err := repo.OpenPool(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	slog.Info("database connection established")

	if cfg.MigrateOnStart {
		// goose needs database/sql; borrow a connection from the pool.
		db := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return stores{}, err
		}
		slog.Info("migrations applied", "count", applied)
	}

	return stores{
		users:   repo.NewUserRepo(pool),
		tags:    repo.NewTagRepo(pool),
		items:   repo.NewItemRepo(pool),
		coffees: repo.NewCoffeeRepo(pool),
		ping:    pool,
		close:   pool.Close,
	}, nil
}
