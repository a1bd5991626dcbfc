// Package config loads and validates sync configuration.
//
// Configuration is environment-first: credentials and tuning come from the process
// environment (optionally seeded from a .env file), with CLI flags layered on top by
// the command layer. This mirrors how the tool is deployed: users only edit .env.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/retry"
)

// Environment variable names recognized by FromEnv.
const (
	EnvBaseURL             = "CONFLUENCE_BASE_URL"
	EnvEmail               = "CONFLUENCE_EMAIL"
	EnvAPIToken            = "CONFLUENCE_API_TOKEN"
	EnvRootPageID          = "CONFLUENCE_ROOT_PAGE_ID"
	EnvDocsDir             = "DOCS_DIR"
	EnvMkDocsPath          = "MKDOCS_PATH"
	EnvFollowLinks         = "FOLLOW_LINKS"
	EnvMaxLinkDepth        = "MAX_LINK_DEPTH"
	EnvMaxDepth            = "MAX_DEPTH"
	EnvHTTPTimeout         = "HTTP_TIMEOUT"
	EnvRetryBackoff        = "RETRY_BACKOFF"
	EnvRetryInitial        = "RETRY_INITIAL"
	EnvRetryMax            = "RETRY_MAX"
	EnvRetryAttempts       = "RETRY_ATTEMPTS"
	EnvDownloadConcurrency = "DOWNLOAD_CONCURRENCY"
	EnvStatePath           = "STATE_PATH"
	EnvSyncInterval        = "SYNC_INTERVAL"
	EnvDaemonAddr          = "DAEMON_ADDR"
)

// Config represents the full sync configuration.
type Config struct {
	// Remote wiki connection
	BaseURL    string
	Email      string
	APIToken   string
	RootPageID string

	// Output layout
	DocsDir    string // generated Markdown tree
	MkDocsPath string // mkdocs.yml to merge nav into

	// Traversal
	FollowLinks  bool // treat in-body wiki links as additional discovery edges
	MaxLinkDepth int  // depth budget for link-following edges
	MaxDepth     int  // hierarchy depth bound, 0 = unlimited

	// HTTP behavior
	HTTPTimeout         time.Duration
	Retry               retry.Policy
	DownloadConcurrency int

	// Run-history database (sqlite); empty disables history recording.
	StatePath string

	// Daemon mode
	SyncInterval time.Duration // period between scheduled re-syncs
	DaemonAddr   string        // metrics and health listen address
}

// Defaults returns a Config with every non-credential field at its default.
func Defaults() Config {
	return Config{
		DocsDir:             "docs",
		MkDocsPath:          "mkdocs.yml",
		FollowLinks:         false,
		MaxLinkDepth:        2,
		MaxDepth:            0,
		HTTPTimeout:         30 * time.Second,
		Retry:               retry.DefaultPolicy(),
		DownloadConcurrency: 4,
		StatePath:           "wikimirror.db",
		SyncInterval:        time.Hour,
		DaemonAddr:          ":9337",
	}
}

// FromEnv builds a Config from the environment, seeding it from a .env file when
// present. Existing process variables are never overridden by the file.
func FromEnv() (*Config, error) {
	// Best effort; a missing .env just means everything comes from the process env.
	_ = godotenv.Load()
	return fromProcessEnv()
}

// FromEnvFile builds a Config from the named .env file, letting the file
// override variables already present in the process environment. Reload paths
// need the override: the first load exported the old values, and a plain Load
// would keep returning them after an edit.
func FromEnvFile(path string) (*Config, error) {
	if err := godotenv.Overload(path); err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.CategoryConfig, syncerrors.SeverityError, "load env file").
			WithContext("path", path)
	}
	return fromProcessEnv()
}

func fromProcessEnv() (*Config, error) {
	cfg := Defaults()

	required := map[string]*string{
		EnvBaseURL:    &cfg.BaseURL,
		EnvEmail:      &cfg.Email,
		EnvAPIToken:   &cfg.APIToken,
		EnvRootPageID: &cfg.RootPageID,
	}
	var missing []string
	for name, dst := range required {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			missing = append(missing, name)
			continue
		}
		*dst = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, syncerrors.ConfigRequired(strings.Join(missing, ", "))
	}

	if v := os.Getenv(EnvDocsDir); v != "" {
		cfg.DocsDir = v
	}
	if v := os.Getenv(EnvMkDocsPath); v != "" {
		cfg.MkDocsPath = v
	}
	if v := os.Getenv(EnvFollowLinks); v != "" {
		cfg.FollowLinks = Truthy(v)
	}
	if n, ok := envInt(EnvMaxLinkDepth); ok {
		cfg.MaxLinkDepth = max(0, n)
	}
	if n, ok := envInt(EnvMaxDepth); ok {
		cfg.MaxDepth = max(0, n)
	}
	if d, ok := envDuration(EnvHTTPTimeout); ok {
		cfg.HTTPTimeout = d
	}
	if n, ok := envInt(EnvDownloadConcurrency); ok && n > 0 {
		cfg.DownloadConcurrency = n
	}
	if v := os.Getenv(EnvStatePath); v != "" {
		cfg.StatePath = v
	}
	if d, ok := envDuration(EnvSyncInterval); ok {
		cfg.SyncInterval = d
	}
	if v := os.Getenv(EnvDaemonAddr); v != "" {
		cfg.DaemonAddr = v
	}

	mode := retry.NormalizeBackoff(os.Getenv(EnvRetryBackoff))
	initial, _ := envDuration(EnvRetryInitial)
	maxDelay, _ := envDuration(EnvRetryMax)
	attempts := -1
	if n, ok := envInt(EnvRetryAttempts); ok {
		attempts = n
	}
	cfg.Retry = retry.NewPolicy(mode, initial, maxDelay, attempts)

	return &cfg, nil
}

// Validate checks field shapes; it does not touch the network.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return syncerrors.ValidationFailed(EnvBaseURL, "must be an http(s) URL")
	}
	if !strings.Contains(c.Email, "@") {
		return syncerrors.ValidationFailed(EnvEmail, "does not look like an email address")
	}
	if _, err := strconv.ParseUint(c.RootPageID, 10, 64); err != nil {
		return syncerrors.ValidationFailed(EnvRootPageID, "must be a numeric page id")
	}
	if c.DocsDir == "" {
		return syncerrors.ValidationFailed(EnvDocsDir, "must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return syncerrors.ValidationFailed(EnvHTTPTimeout, "must be positive")
	}
	return c.Retry.Validate()
}

// Truthy parses the loose boolean convention used in .env files.
func Truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// envDuration accepts Go duration strings ("30s") and bare seconds ("30").
func envDuration(name string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second, true
	}
	return 0, false
}

// Redacted returns a printable summary safe for logs (token hidden).
func (c *Config) Redacted() string {
	return fmt.Sprintf("base_url=%s email=%s root=%s docs=%s follow_links=%t max_link_depth=%d",
		c.BaseURL, c.Email, c.RootPageID, c.DocsDir, c.FollowLinks, c.MaxLinkDepth)
}
