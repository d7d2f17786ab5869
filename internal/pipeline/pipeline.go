// Package pipeline orchestrates one fetch → filter → publish → record
// run against a single source.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"site2tg/internal/domain"
	"site2tg/internal/format"
	"site2tg/internal/source"
	"site2tg/internal/state"
)

// Publisher delivers one rendered message to the destination.
type Publisher interface {
	Send(ctx context.Context, text string) error
}

// Deps wires the collaborators of one run.
type Deps struct {
	Source    source.Source
	Store     state.Store
	Publisher Publisher
	Format    format.Options
	DryRun    bool
	PostDelay time.Duration
	Logger    *slog.Logger
}

// Pipeline is the single-run orchestrator. It never reorders items,
// and it records an identity only after the item's message is
// confirmed delivered, so a crash or failure at any point leaves
// every already-published item recorded and every unpublished item
// eligible for the next run.
type Pipeline struct {
	source    source.Source
	store     state.Store
	publisher Publisher
	format    format.Options
	dryRun    bool
	postDelay time.Duration
	logger    *slog.Logger
}

// New constructs the orchestrator.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		source:    deps.Source,
		store:     deps.Store,
		publisher: deps.Publisher,
		format:    deps.Format,
		dryRun:    deps.DryRun,
		postDelay: deps.PostDelay,
		logger:    deps.Logger,
	}
}

// Run executes one pass and returns the number of items published (or
// rendered, in dry-run). A publish failure stops the run at the
// failing item; everything before it stays recorded.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	items, err := p.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch source: %w", err)
	}
	p.debug("fetched items", "count", len(items))

	fresh := make([]domain.Item, 0, len(items))
	for _, item := range items {
		seen, err := p.store.Contains(ctx, item.Identity)
		if err != nil {
			return 0, fmt.Errorf("check identity %s: %w", item.Identity, err)
		}
		if seen {
			continue
		}
		fresh = append(fresh, item)
	}
	p.debug("new items", "count", len(fresh))

	posted := 0
	for i, item := range fresh {
		text := format.Render(item, p.format)

		if p.dryRun {
			p.info("dry run, would post", "title", item.Title, "message", text)
			posted++
			continue
		}

		if err := p.publisher.Send(ctx, text); err != nil {
			return posted, fmt.Errorf("publish %q: %w", item.Title, err)
		}
		if err := p.store.Record(ctx, item.Identity); err != nil {
			return posted, fmt.Errorf("record %s: %w", item.Identity, err)
		}
		posted++
		p.info("posted", "title", item.Title, "link", item.Link)

		if p.postDelay > 0 && i < len(fresh)-1 {
			if err := sleep(ctx, p.postDelay); err != nil {
				return posted, err
			}
		}
	}

	return posted, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
