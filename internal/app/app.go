// Package app wires configuration into runnable pipelines.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"site2tg/internal/config"
	"site2tg/internal/format"
	"site2tg/internal/pipeline"
	"site2tg/internal/source"
	"site2tg/internal/state"
	"site2tg/internal/telegram"
)

// Application runs every configured site through its own pipeline,
// strictly sequentially.
type Application struct {
	cfg      *config.Config
	registry *source.Registry
	client   *http.Client
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg *config.Config, logger *slog.Logger) *Application {
	return &Application{
		cfg:      cfg,
		registry: source.Defaults(),
		client:   &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
	}
}

// Run validates up front, then executes each site in order. A failing
// site does not stop the remaining ones; the first error determines
// the process exit status.
func (a *Application) Run(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	var firstErr error
	for _, site := range a.cfg.RunSites() {
		logger := a.logger.With("site", site.Label())
		if err := a.runSite(ctx, site, logger); err != nil {
			logger.Error("site run failed", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (a *Application) runSite(ctx context.Context, site config.Site, logger *slog.Logger) error {
	src, err := a.registry.Resolve(site, a.client, logger.With("component", "source"))
	if err != nil {
		return err
	}

	store, err := state.Open(site.StateBackend, site.StatePath, a.cfg.DryRun)
	if err != nil {
		return err
	}
	defer store.Close()

	publisher := telegram.New(a.cfg.BotToken, a.cfg.ChatID, site.DisablePreview, logger.With("component", "telegram"))

	run := pipeline.New(pipeline.Deps{
		Source:    src,
		Store:     store,
		Publisher: publisher,
		Format:    format.Options{Prefix: site.Prefix, Suffix: site.Suffix},
		DryRun:    a.cfg.DryRun,
		PostDelay: a.cfg.PostDelay,
		Logger:    logger.With("component", "pipeline"),
	})

	posted, err := run.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("run complete", "posted", posted, "dry_run", a.cfg.DryRun)
	return nil
}
