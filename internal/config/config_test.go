package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"site2tg/internal/domain"
)

func validConfig() *Config {
	return &Config{
		Site: Site{
			Mode:         ModeHTML,
			URL:          "https://example.com/blog",
			ItemSelector: "article h2 a",
			Limit:        5,
			StatePath:    "seen.json",
			StateBackend: BackendFile,
		},
		BotToken: "123:abc",
		ChatID:   "@channel",
		LogLevel: "info",
	}
}

func expectConfigError(t *testing.T, err error) {
	t.Helper()
	var configErr *domain.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	t.Parallel()

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.BotToken = ""
	expectConfigError(t, cfg.Validate())

	cfg = validConfig()
	cfg.ChatID = ""
	expectConfigError(t, cfg.Validate())
}

func TestValidateRequiresSelectorInHTMLMode(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Site.ItemSelector = ""
	expectConfigError(t, cfg.Validate())
}

func TestValidateFeedModeNeedsNoSelector(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Site.Mode = ModeFeed
	cfg.Site.ItemSelector = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Site.Mode = "carrier-pigeon"
	expectConfigError(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveLimit(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Site.Limit = 0
	expectConfigError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Site.Limit = -3
	expectConfigError(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Site.StateBackend = "clay-tablet"
	expectConfigError(t, cfg.Validate())
}

func TestValidateRequiresSomeSource(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Site.URL = ""
	expectConfigError(t, cfg.Validate())
}

func TestLoadSitesAppliesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sites.yaml")
	content := `sites:
  - name: blog
    mode: html
    url: https://example.com/blog
    item_selector: "article h2 a"
    base_url: https://example.com
  - name: news
    mode: feed
    url: https://example.com/feed.xml
    limit: 3
    state: news.json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sites file: %v", err)
	}

	sites, err := LoadSites(path)
	if err != nil {
		t.Fatalf("LoadSites: %v", err)
	}

	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}

	blog := sites[0]
	if blog.Limit != 10 {
		t.Errorf("expected default limit 10, got %d", blog.Limit)
	}
	if blog.StatePath != "seen.json" {
		t.Errorf("expected default state path, got %s", blog.StatePath)
	}
	if blog.StateBackend != BackendFile {
		t.Errorf("expected default file backend, got %s", blog.StateBackend)
	}

	news := sites[1]
	if news.Limit != 3 || news.StatePath != "news.json" {
		t.Errorf("explicit values overridden: limit=%d state=%s", news.Limit, news.StatePath)
	}
	if news.Mode != ModeFeed {
		t.Errorf("unexpected mode: %s", news.Mode)
	}
}

func TestLoadSitesMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadSites(filepath.Join(t.TempDir(), "absent.yaml"))
	expectConfigError(t, err)
}

func TestLoadSitesRejectsEmptyList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sites.yaml")
	if err := os.WriteFile(path, []byte("sites: []\n"), 0o644); err != nil {
		t.Fatalf("write sites file: %v", err)
	}

	_, err := LoadSites(path)
	expectConfigError(t, err)
}

func TestParseBuildsSiteFromFlags(t *testing.T) {
	args := []string{
		"--mode", "feed",
		"--url", "https://example.com/feed.xml",
		"--limit", "7",
		"--post-prefix", "News:",
		"--disable-preview",
		"--dry-run",
	}

	cfg, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Site.Mode != ModeFeed || cfg.Site.URL != "https://example.com/feed.xml" {
		t.Errorf("unexpected site: %+v", cfg.Site)
	}
	if cfg.Site.Limit != 7 {
		t.Errorf("unexpected limit: %d", cfg.Site.Limit)
	}
	if cfg.Site.Prefix != "News:" {
		t.Errorf("unexpected prefix: %q", cfg.Site.Prefix)
	}
	if !cfg.Site.DisablePreview || !cfg.DryRun {
		t.Error("boolean flags not applied")
	}
	if cfg.Site.StatePath != "seen.json" || cfg.Site.StateBackend != BackendFile {
		t.Errorf("defaults not applied: %+v", cfg.Site)
	}
}
