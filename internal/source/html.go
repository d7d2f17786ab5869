package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"site2tg/internal/config"
	"site2tg/internal/domain"
)

// HTMLSource extracts items from a listing page using a CSS selector.
// Each matched element contributes one item: the element itself when
// it is an anchor, otherwise its first anchor descendant.
type HTMLSource struct {
	client   *http.Client
	pageURL  string
	selector string
	base     *url.URL
	limit    int
	logger   *slog.Logger
}

// NewHTMLSource wires an HTML-page source for one site.
func NewHTMLSource(site config.Site, client *http.Client, logger *slog.Logger) (Source, error) {
	if client == nil {
		client = defaultClient()
	}

	var base *url.URL
	if site.BaseURL != "" {
		parsed, err := url.Parse(site.BaseURL)
		if err != nil {
			return nil, &domain.ConfigError{Err: fmt.Errorf("invalid base url %q: %w", site.BaseURL, err)}
		}
		base = parsed
	}

	return &HTMLSource{
		client:   client,
		pageURL:  site.URL,
		selector: site.ItemSelector,
		base:     base,
		limit:    site.Limit,
		logger:   logger,
	}, nil
}

// Name identifies the source kind inside the registry.
func (s *HTMLSource) Name() string {
	return config.ModeHTML
}

// Fetch retrieves the page and extracts one item per selector match,
// in document order. Matched elements without a link target are
// skipped; everything else failing fails the whole fetch.
func (s *HTMLSource) Fetch(ctx context.Context) ([]domain.Item, error) {
	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}

	var (
		items      []domain.Item
		resolveErr error
	)

	doc.Find(s.selector).EachWithBreak(func(_ int, node *goquery.Selection) bool {
		anchor := node
		if !node.Is("a") {
			anchor = node.Find("a").First()
		}

		href, ok := anchor.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			// Matched element without a link target; nothing to post.
			return true
		}

		link, err := s.resolveLink(href)
		if err != nil {
			resolveErr = err
			return false
		}

		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			title = link
		}

		items = append(items, domain.Item{
			Identity: domain.Fingerprint(link),
			Title:    title,
			Link:     link,
			Summary:  nearbySummary(node),
		})
		// Elements beyond the limit are never considered, so a broken
		// link out there cannot abort the run.
		return s.limit <= 0 || len(items) < s.limit
	})

	if resolveErr != nil {
		return nil, resolveErr
	}

	s.debug("html fetch done", "url", s.pageURL, "items", len(items))
	return items, nil
}

func (s *HTMLSource) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	return doc, nil
}

// resolveLink turns an href into an absolute URL. A relative href with
// no configured base URL is a configuration problem surfaced to the
// caller, not a skippable item.
func (s *HTMLSource) resolveLink(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", &domain.FetchError{Err: fmt.Errorf("invalid link %q: %w", href, err)}
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if s.base == nil {
		return "", &domain.ConfigError{Err: fmt.Errorf("relative link %q requires a base url", href)}
	}
	return s.base.ResolveReference(ref).String(), nil
}

// nearbySummary looks for a short description in the closest following
// paragraph: first among the element's own siblings, then next to its
// parent. Absence is not an error.
func nearbySummary(node *goquery.Selection) string {
	paragraph := node.NextAllFiltered("p").First()
	if paragraph.Length() == 0 {
		paragraph = node.Parent().NextAllFiltered("p").First()
	}
	return strings.TrimSpace(paragraph.Text())
}

func (s *HTMLSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
