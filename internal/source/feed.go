package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"site2tg/internal/config"
	"site2tg/internal/domain"
)

var tagExpr = regexp.MustCompile(`<[^<]+?>`)

// FeedSource maps RSS/Atom entries to items, keeping entry order as
// served by the feed.
type FeedSource struct {
	client  *http.Client
	feedURL string
	limit   int
	parser  *gofeed.Parser
	logger  *slog.Logger
}

// NewFeedSource wires a feed source for one site.
func NewFeedSource(site config.Site, client *http.Client, logger *slog.Logger) (Source, error) {
	if client == nil {
		client = defaultClient()
	}
	return &FeedSource{
		client:  client,
		feedURL: site.URL,
		limit:   site.Limit,
		parser:  gofeed.NewParser(),
		logger:  logger,
	}, nil
}

// Name identifies the source kind inside the registry.
func (s *FeedSource) Name() string {
	return config.ModeFeed
}

// Fetch downloads and parses the feed. Identity comes from the entry
// GUID, falling back to the link; entries with neither are skipped.
func (s *FeedSource) Fetch(ctx context.Context) ([]domain.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("request feed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{Err: fmt.Errorf("feed returned %s", resp.Status)}
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("parse feed: %w", err)}
	}

	items := make([]domain.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		key := coalesce(entry.GUID, entry.Link)
		if key == "" {
			s.debug("skipping entry without guid or link", "title", entry.Title)
			continue
		}

		title := strings.TrimSpace(entry.Title)
		if title == "" {
			title = "(untitled)"
		}

		items = append(items, domain.Item{
			Identity: domain.Fingerprint(key),
			Title:    title,
			Link:     entry.Link,
			Summary:  strings.TrimSpace(tagExpr.ReplaceAllString(entry.Description, "")),
		})
	}

	if s.limit > 0 && len(items) > s.limit {
		items = items[:s.limit]
	}

	s.debug("feed fetch done", "url", s.feedURL, "items", len(items))
	return items, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *FeedSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
