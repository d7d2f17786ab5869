package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"site2tg/internal/config"
	"site2tg/internal/domain"
)

const batchFeed = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Working Feed</title>
    <link>https://example.com</link>
    <description>Testing</description>
    <item>
      <title>Entry</title>
      <link>https://example.com/entry</link>
      <guid>entry-1</guid>
    </item>
  </channel>
</rss>`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunBatchContinuesPastFailingSite(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	var workingHits atomic.Int32
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workingHits.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(batchFeed))
	}))
	t.Cleanup(working.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		Sites: []config.Site{
			{
				Name:         "broken",
				Mode:         config.ModeFeed,
				URL:          failing.URL,
				Limit:        5,
				StatePath:    filepath.Join(dir, "broken.json"),
				StateBackend: config.BackendFile,
			},
			{
				Name:         "working",
				Mode:         config.ModeFeed,
				URL:          working.URL,
				Limit:        5,
				StatePath:    filepath.Join(dir, "working.json"),
				StateBackend: config.BackendFile,
			},
		},
		DryRun:   true,
		BotToken: "123:abc",
		ChatID:   "@channel",
		LogLevel: "error",
	}

	application := New(cfg, discardLogger())
	err := application.Run(context.Background())
	if err == nil {
		t.Fatal("expected the failing site's error to surface")
	}

	if workingHits.Load() == 0 {
		t.Error("a failing site must not stop the remaining sites")
	}
	if code := domain.ExitCode(err); code != domain.ExitFetch {
		t.Errorf("expected the first failure's exit code %d, got %d", domain.ExitFetch, code)
	}
}

func TestRunValidatesBeforeFetching(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Site: config.Site{
			Mode:         config.ModeHTML,
			URL:          server.URL,
			Limit:        5,
			StatePath:    filepath.Join(t.TempDir(), "seen.json"),
			StateBackend: config.BackendFile,
		},
		BotToken: "123:abc",
		ChatID:   "@channel",
	}

	application := New(cfg, discardLogger())
	err := application.Run(context.Background())

	if code := domain.ExitCode(err); code != domain.ExitConfig {
		t.Fatalf("html mode without a selector must fail validation, got %v", err)
	}
	if hits.Load() != 0 {
		t.Error("validation failure must not reach the network")
	}
}
