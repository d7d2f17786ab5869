package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"site2tg/internal/domain"
)

const (
	ModeHTML = "html"
	ModeFeed = "feed"

	BackendFile   = "file"
	BackendSQLite = "sqlite"

	defaultLimit     = 10
	defaultStatePath = "seen.json"

	tokenEnv  = "TELEGRAM_BOT_TOKEN"
	chatIDEnv = "TELEGRAM_CHAT_ID"
)

// Site holds everything one pipeline run needs to know about its
// source and per-post decoration. The yaml tags serve the batch sites
// file; a single-source run fills the same struct from flags.
type Site struct {
	Name           string `yaml:"name"`
	Mode           string `yaml:"mode"`
	URL            string `yaml:"url"`
	ItemSelector   string `yaml:"item_selector"`
	BaseURL        string `yaml:"base_url"`
	Limit          int    `yaml:"limit"`
	StatePath      string `yaml:"state"`
	StateBackend   string `yaml:"state_backend"`
	Prefix         string `yaml:"post_prefix"`
	Suffix         string `yaml:"post_suffix"`
	DisablePreview bool   `yaml:"disable_preview"`
}

// Label names the site in logs and error messages.
func (s Site) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.URL
}

// Validate checks one site's configuration before any network call.
func (s Site) Validate() error {
	if s.URL == "" {
		return confErrf("site %q: source url is required", s.Label())
	}

	switch s.Mode {
	case ModeHTML:
		if s.ItemSelector == "" {
			return confErrf("site %q: an item selector is required in html mode", s.Label())
		}
	case ModeFeed:
	default:
		return confErrf("site %q: mode must be %q or %q, got %q", s.Label(), ModeHTML, ModeFeed, s.Mode)
	}

	if s.Limit <= 0 {
		return confErrf("site %q: limit must be positive, got %d", s.Label(), s.Limit)
	}

	switch s.StateBackend {
	case BackendFile, BackendSQLite:
	default:
		return confErrf("site %q: state backend must be %q or %q, got %q", s.Label(), BackendFile, BackendSQLite, s.StateBackend)
	}

	return nil
}

func (s *Site) applyDefaults() {
	if s.Mode == "" {
		s.Mode = ModeHTML
	}
	if s.Limit == 0 {
		s.Limit = defaultLimit
	}
	if s.StatePath == "" {
		s.StatePath = defaultStatePath
	}
	if s.StateBackend == "" {
		s.StateBackend = BackendFile
	}
}

// Config is the fully resolved run configuration: the site (or sites)
// to process, destination credentials, and run-wide switches.
type Config struct {
	Site      Site
	Sites     []Site
	DryRun    bool
	PostDelay time.Duration
	LogLevel  string
	BotToken  string
	ChatID    string
}

// RunSites returns the sites this run processes, in order.
func (c *Config) RunSites() []Site {
	if len(c.Sites) > 0 {
		return c.Sites
	}
	return []Site{c.Site}
}

// Validate fails fast with a ConfigError before Fetching begins.
// Credentials are checked first: without them Publishing can never
// succeed, dry-run included.
func (c *Config) Validate() error {
	if c.BotToken == "" || c.ChatID == "" {
		return confErrf("%s and %s environment variables must be set", tokenEnv, chatIDEnv)
	}

	if len(c.Sites) == 0 && c.Site.URL == "" {
		return confErrf("no source configured: pass --url or --sites")
	}

	for _, site := range c.RunSites() {
		if err := site.Validate(); err != nil {
			return err
		}
	}

	return nil
}

type options struct {
	Mode           string        `long:"mode" choice:"html" choice:"feed" description:"Source kind: html listing page or RSS/Atom feed"`
	URL            string        `long:"url" description:"Source URL (listing page for html mode, feed URL for feed mode)"`
	ItemSelector   string        `long:"item-selector" description:"CSS selector locating item links (html mode), e.g. 'article h2 a'"`
	BaseURL        string        `long:"base-url" description:"Base URL for resolving relative links (html mode)"`
	Limit          int           `long:"limit" default:"10" description:"Max number of items considered per run"`
	StatePath      string        `long:"state" default:"seen.json" description:"Path of the dedup state"`
	StateBackend   string        `long:"state-backend" default:"file" choice:"file" choice:"sqlite" description:"Dedup state backend"`
	Prefix         string        `long:"post-prefix" description:"Text prepended to each post"`
	Suffix         string        `long:"post-suffix" description:"Text appended to each post"`
	DisablePreview bool          `long:"disable-preview" description:"Disable link previews in Telegram"`
	DryRun         bool          `long:"dry-run" description:"Render messages without posting or touching state"`
	PostDelay      time.Duration `long:"post-delay" default:"1500ms" description:"Pause between consecutive posts"`
	LogLevel       string        `long:"log-level" default:"info" description:"Log level: debug, info, warn or error"`
	SitesFile      string        `long:"sites" description:"YAML file listing multiple sources to run sequentially"`
}

// Parse reads command-line flags and the out-of-band credential
// environment variables. Flag errors (including a help request) are
// returned as-is for main to classify via WroteHelp.
func Parse(args []string) (*Config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Site: Site{
			Mode:           opts.Mode,
			URL:            opts.URL,
			ItemSelector:   opts.ItemSelector,
			BaseURL:        opts.BaseURL,
			Limit:          opts.Limit,
			StatePath:      opts.StatePath,
			StateBackend:   opts.StateBackend,
			Prefix:         opts.Prefix,
			Suffix:         opts.Suffix,
			DisablePreview: opts.DisablePreview,
		},
		DryRun:    opts.DryRun,
		PostDelay: opts.PostDelay,
		LogLevel:  opts.LogLevel,
		BotToken:  strings.TrimSpace(os.Getenv(tokenEnv)),
		ChatID:    strings.TrimSpace(os.Getenv(chatIDEnv)),
	}

	if opts.SitesFile != "" {
		sites, err := LoadSites(opts.SitesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sites = sites
	}

	return cfg, nil
}

// WroteHelp reports whether the parse error is a help request that was
// already rendered into the error message.
func WroteHelp(err error) bool {
	return flags.WroteHelp(err)
}

func confErrf(format string, args ...any) error {
	return &domain.ConfigError{Err: fmt.Errorf(format, args...)}
}
