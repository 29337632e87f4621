// Package app provides the main application struct for centralized dependency
// management and lifecycle control of the server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"sheetpilot/config"
	"sheetpilot/internal/answer"
	"sheetpilot/internal/cache"
	"sheetpilot/internal/providers/gemini"
	"sheetpilot/internal/registry"
	"sheetpilot/internal/server"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config   *config.Config
	registry *registry.Registry
	cache    cache.Cache
	provider *gemini.Provider
	answers  *answer.Service
	server   *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &App{
		config: cfg,
	}

	reg, err := registry.New(cfg.Uploads.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload registry: %w", err)
	}
	app.registry = reg

	// A misconfigured redis backend fails startup rather than degrading
	// silently; the operator asked for it.
	filterCache, err := cache.New(cache.Config{
		Backend:  cfg.Cache.Backend,
		RedisURL: cfg.Cache.RedisURL,
		TTL:      cfg.Cache.TTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filter cache: %w", err)
	}
	app.cache = filterCache

	app.provider = gemini.New(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		BaseURL: cfg.Gemini.BaseURL,
	})

	app.answers = answer.New(reg, app.provider, filterCache, answer.Config{
		MaxRows:         cfg.Answer.MaxRows,
		MaxOutputTokens: cfg.Answer.MaxOutputTokens,
	})

	app.logStartupInfo()

	app.server = server.New(reg, app.answers, &server.Config{
		MasterKey:      cfg.Server.MasterKey,
		MetricsEnabled: cfg.Metrics.Enabled,
	})

	return app, nil
}

// Registry returns the upload registry.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Server returns the HTTP server, mainly for tests.
func (a *App) Server() *server.Server {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order: the
// HTTP server stops accepting requests first, then the cache connection is
// released. Shutdown is idempotent; repeated calls are no-ops. It attempts
// every close step and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Server.MasterKey == "" {
		slog.Info("authentication disabled, API is open")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", "/metrics")
	} else {
		slog.Info("prometheus metrics disabled")
	}

	slog.Info("upload storage configured", "dir", a.registry.Dir())
	slog.Info("filter cache configured",
		"backend", cfg.Cache.Backend,
		"ttl", cfg.Cache.TTL())

	// Absent key is allowed at startup; answer calls will fail until it is
	// provided.
	if cfg.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, answer requests will fail until configured")
	}
	slog.Info("gemini provider configured", "model", a.provider.Model())
}
