// Package source translates raw external content into normalized
// items. Each source kind shares the same contract: a finite, ordered
// snapshot of the items the source currently offers.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"site2tg/internal/config"
	"site2tg/internal/domain"
)

const userAgent = "Mozilla/5.0 (compatible; site2tg/1.0)"

// Source produces the current snapshot of one external source in
// source-natural order (typically newest first). Fetch is not
// restartable; re-invocation re-reads the network.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.Item, error)
}

// Factory builds a source for one configured site.
type Factory func(site config.Site, client *http.Client, logger *slog.Logger) (Source, error)

// Registry maps mode names to source factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory for a mode.
func (r *Registry) Register(mode string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[mode] = factory
}

// Resolve builds the source for the site's configured mode.
func (r *Registry) Resolve(site config.Site, client *http.Client, logger *slog.Logger) (Source, error) {
	factory, ok := r.factories[site.Mode]
	if !ok {
		return nil, &domain.ConfigError{Err: fmt.Errorf("no source registered for mode %q", site.Mode)}
	}
	return factory(site, client, logger)
}

// Defaults returns a registry with both built-in source kinds.
func Defaults() *Registry {
	registry := NewRegistry()
	registry.Register(config.ModeHTML, NewHTMLSource)
	registry.Register(config.ModeFeed, NewFeedSource)
	return registry
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}
