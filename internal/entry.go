// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/halvard/ansuz/internal/api"
	"github.com/halvard/ansuz/internal/catalog"
	"github.com/halvard/ansuz/internal/docservice"
	"github.com/halvard/ansuz/internal/history"
	"github.com/halvard/ansuz/internal/index"
	"github.com/halvard/ansuz/internal/mcpserver"
	"github.com/halvard/ansuz/internal/resolver"
	"github.com/halvard/ansuz/internal/sse"
	"github.com/halvard/ansuz/internal/storage"
)

// engine bundles the document components wired over one knowledge root.
type engine struct {
	store   *storage.FS
	docs    *docservice.Service
	scanner *catalog.Scanner
	db      *index.DB
}

// buildEngine constructs the storage, resolver, history, index, and services
// for the configured knowledge root. withIndex controls whether the SQLite
// search index is opened.
func buildEngine(cfg *Config, withIndex bool) (*engine, error) {
	if err := os.MkdirAll(cfg.Knowledge.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create knowledge root: %w", err)
	}

	store, err := storage.NewFS(cfg.Knowledge.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var db *index.DB
	if withIndex {
		db, err = index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
	}

	res := resolver.New(store)
	hist := history.New(store.Root(), store)

	var docIdx index.DocIndex
	if db != nil {
		docIdx = db
	}
	docs := docservice.New(store, res, hist, docIdx)
	scanner := catalog.New(store)

	return &engine{store: store, docs: docs, scanner: scanner, db: db}, nil
}

// RunMCP serves the document tools over MCP stdio. Logging goes to stderr so
// stdout stays reserved for the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	eng, err := buildEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.db.Close()

	if err := index.Sync(eng.db, eng.store, eng.docs.IndexDocument, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	logger.Info("MCP server starting on stdio", slog.String("knowledge_path", cfg.Knowledge.Path))
	return mcpserver.New(eng.docs, eng.scanner, eng.db).ServeStdio()
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("knowledge_path", cfg.Knowledge.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	eng, err := buildEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.db.Close()

	// Run initial sync.
	if err := index.Sync(eng.db, eng.store, eng.docs.IndexDocument, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)

	// Build API router.
	apiRouter := api.NewRouter(eng.docs, eng.scanner, eng.db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, eng.db, eng.store, eng.store.Root(), eng.docs.IndexDocument, logger,
			func(kind, path string) {
				broker.PublishDocEvent(kind, path)
			})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
