// Package format renders a normalized item into the final message
// text. Pure functions only; Telegram's HTML parse mode escaping lives
// here so the publisher can stay a plain transport.
package format

import (
	"html"
	"strings"

	"site2tg/internal/domain"
)

const (
	// Telegram caps messages at 4096 characters; staying under 3800
	// leaves room for entity markup.
	maxMessageRunes = 3800
	maxSummaryRunes = 1000
	ellipsis        = "…"
)

// Options carry the per-site decoration around each rendered item.
type Options struct {
	Prefix string
	Suffix string
}

// Render produces the message body: prefix, emphasized title with the
// link underneath, optional summary, suffix. Blocks are separated by
// blank lines; empty parts are omitted entirely.
func Render(item domain.Item, opts Options) string {
	parts := make([]string, 0, 4)

	if prefix := strings.TrimSpace(opts.Prefix); prefix != "" {
		parts = append(parts, prefix)
	}

	heading := "<b>" + html.EscapeString(item.Title) + "</b>"
	if item.Link != "" {
		heading += "\n" + html.EscapeString(item.Link)
	}
	parts = append(parts, heading)

	if summary := strings.TrimSpace(item.Summary); summary != "" {
		parts = append(parts, html.EscapeString(truncate(summary, maxSummaryRunes)))
	}

	if suffix := strings.TrimSpace(opts.Suffix); suffix != "" {
		parts = append(parts, suffix)
	}

	return truncate(strings.Join(parts, "\n\n"), maxMessageRunes)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max-1]), " \n") + ellipsis
}
