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
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/odshub/internal/api"
	"github.com/starford/odshub/internal/index"
	"github.com/starford/odshub/internal/landing"
	"github.com/starford/odshub/internal/metrics"
	"github.com/starford/odshub/internal/pageservice"
	"github.com/starford/odshub/internal/render"
	"github.com/starford/odshub/internal/search"
	"github.com/starford/odshub/internal/sse"
	"github.com/starford/odshub/internal/storage"
)

const sweepInterval = time.Minute

// Run starts the application with the given options.
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
	logger := NewLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_source", cfg.Content.Source),
		slog.String("pages_root", cfg.Content.PagesRoot),
		slog.Bool("watch", cfg.Content.Watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store := app.store
	if store == nil {
		var err error
		if store, err = NewStore(ctx, cfg, logger); err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	svc := NewService(store, cfg, logger)
	registry := svc.NewRegistry(gCtx, cfg.Search.SessionTTL)
	metrics.TrackSessions(registry.Len)

	var broker *sse.Broker
	if cfg.Content.Watch {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(cfg, svc, store, registry, broker, logger),
		ReadHeaderTimeout: cfg.App.HTTP.ReadTimeout,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Expire idle search sessions.
	g.Go(func() error {
		return registry.Run(gCtx, sweepInterval)
	})

	// Preview mode: report checkout changes to SSE clients.
	if broker != nil {
		root := cfg.Content.FSPath
		if fsStore, ok := store.(*storage.FS); ok {
			root = fsStore.Root()
		}
		g.Go(func() error {
			return index.Watch(gCtx, root, logger, func(kind, p string) {
				broker.PublishContentChange(sse.ContentChange{
					Kind: kind,
					Path: p,
					Link: pageLink(cfg.Content.PagesRoot, p),
				})
			})
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Unblock the sweeper and watcher after a signal.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// NewLogger returns the JSON logger used by every command.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewStore builds the content store selected by cfg. The GitHub store is
// pinned to the revision chosen by ResolveRevision.
func NewStore(ctx context.Context, cfg *Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Content.Source {
	case SourceFS:
		return storage.NewFS(cfg.Content.FSPath)
	case SourceGitHub:
		gh, err := storage.NewGitHub(ctx, storage.GitHubConfig{
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.Repo,
			Ref:     ResolveRevision(cfg.GitHub, cfg.GitHub.Host),
			Token:   cfg.GitHub.Token,
			BaseURL: cfg.GitHub.BaseURL,
			Timeout: cfg.GitHub.Timeout,
			Rate:    cfg.GitHub.Rate,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("content revision selected",
			slog.String("repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo),
			slog.String("ref", gh.Ref()))
		metrics.TrackRateLimit(gh.RateRemaining)
		return gh, nil
	default:
		return nil, fmt.Errorf("unknown content source %q", cfg.Content.Source)
	}
}

// NewPipeline builds the Markdown pipeline configured by cfg.
func NewPipeline(cfg *Config) *render.Pipeline {
	opts := []render.Option{
		render.WithLanguageDetection(cfg.Content.LanguageDetection),
	}
	if len(cfg.Content.IframeDomains) > 0 {
		opts = append(opts, render.WithIframeDomains(cfg.Content.IframeDomains))
	}
	for section, color := range cfg.Content.SectionColors {
		opts = append(opts, render.WithSectionTheme(section, render.AccentTheme(color)))
	}
	return render.New(opts...)
}

// NewService wires the page service over store.
func NewService(store storage.Store, cfg *Config, logger *slog.Logger) *pageservice.Service {
	return pageservice.NewService(
		store,
		NewPipeline(cfg),
		landing.NewLoader(store, cfg.Content.LandingPath, logger),
		pageservice.Config{
			PagesRoot:   cfg.Content.PagesRoot,
			Concurrency: cfg.Search.FetchConcurrency,
			Search:      []search.Option{search.WithThreshold(cfg.Search.Threshold)},
		},
		logger,
	)
}

// NewHandler builds the HTTP handler: health checks, metrics and the API
// under /api. broker may be nil.
func NewHandler(cfg *Config, svc *pageservice.Service, store storage.Store, registry *search.Registry, broker *sse.Broker, logger *slog.Logger) http.Handler {
	routes := api.Routes{
		Sessions:       registry,
		Assets:         api.NewAssetHandler(store, cfg.Content.AssetsRoot),
		HighlightStyle: cfg.Content.HighlightStyle,
	}
	if broker != nil {
		routes.Events = broker
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	// Health check endpoints.
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
	r.Handle("/metrics", metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, routes))

	return r
}

// pageLink maps a checkout-relative file path to its page link, or "" when
// the file is not a page.
func pageLink(pagesRoot, p string) string {
	rel, ok := strings.CutPrefix(p, strings.Trim(pagesRoot, "/")+"/")
	if !ok || path.Ext(rel) != ".md" || !strings.Contains(rel, "/") {
		return ""
	}
	return "/post/" + strings.TrimSuffix(rel, ".md")
}
