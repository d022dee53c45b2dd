// Package tsuki assembles the client core of an anime browsing and
// streaming application: catalog access, the durable watch-history store,
// the playback session controller and the screen view builders. The UI
// toolkit, the video pipeline and the remote APIs stay outside; they plug
// in through the interfaces in internal/domain.
package tsuki

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tsuki/internal/adapter"
	"tsuki/internal/adapter/catalog/consumet"
	"tsuki/internal/adapter/catalog/enime"
	"tsuki/internal/adapter/presence"
	"tsuki/internal/catalog"
	"tsuki/internal/domain"
	"tsuki/internal/service"
	"tsuki/internal/store"
)

// shutdownGracePeriod bounds the wait for the final progress commit when
// the embedding application closes without a deadline of its own.
const shutdownGracePeriod = 5 * time.Second

// App is the assembled application core.
type App struct {
	Store    *store.ProgressStore
	Catalog  *catalog.Cache
	Repo     domain.CatalogRepository
	Playback *service.Controller
	Views    *service.Views

	cfg    *adapter.Config
	logger *slog.Logger
}

// New loads configuration from the platform config directory and assembles
// the application.
func New() (*App, error) {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig assembles the application from an explicit configuration.
func NewWithConfig(cfg *adapter.Config) (*App, error) {
	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	dir, err := cfg.EnsureStorageDir()
	if err != nil {
		return nil, err
	}

	progressStore, err := store.New(dir)
	if err != nil {
		return nil, err
	}

	repo, err := newRepository(cfg, logger)
	if err != nil {
		progressStore.Close()
		return nil, err
	}

	var status domain.Presence = domain.NopPresence{}
	if cfg.Presence.Enabled && cfg.Presence.AppID != "" {
		status = presence.NewDiscord(cfg.Presence.AppID, logger)
	}

	cache := catalog.New()

	app := &App{
		Store:    progressStore,
		Catalog:  cache,
		Repo:     repo,
		Playback: service.NewController(progressStore, repo, status, cfg.Playback.PreferredQuality, logger),
		Views:    service.NewViews(progressStore, cache, repo, logger),
		cfg:      cfg,
		logger:   logger,
	}

	logger.Info("application core ready",
		"provider", cfg.Catalog.Provider, "storage", dir)
	return app, nil
}

// Config returns the live configuration. Changes made by the embedder (a
// settings screen, typically) become durable once SaveConfig is called.
func (a *App) Config() *adapter.Config {
	return a.cfg
}

// SaveConfig persists the current configuration to the platform config
// directory.
func (a *App) SaveConfig() error {
	return adapter.SaveConfig(a.cfg)
}

func newRepository(cfg *adapter.Config, logger *slog.Logger) (domain.CatalogRepository, error) {
	switch cfg.Catalog.Provider {
	case adapter.ProviderEnime:
		return enime.NewClient(cfg.Catalog.EnimeURL, logger), nil
	case adapter.ProviderConsumet:
		return consumet.NewClient(cfg.Catalog.ConsumetURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown catalog provider %q", cfg.Catalog.Provider)
	}
}

// Close is the shutdown hook: it commits the active playback session,
// waiting at most the context deadline (or a default grace period), then
// closes the store. A commit that overruns the wait is abandoned; losing
// one session's progress is preferred over blocking shutdown.
func (a *App) Close(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownGracePeriod)
		defer cancel()
	}

	if err := a.Playback.Shutdown(ctx); err != nil {
		a.logger.Warn("final commit not confirmed", "error", err)
	}

	return a.Store.Close()
}
