package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/wikimirror/internal/config"
	"git.home.luguber.info/inful/wikimirror/internal/confluence"
	"git.home.luguber.info/inful/wikimirror/internal/daemon"
	"git.home.luguber.info/inful/wikimirror/internal/state"
	"git.home.luguber.info/inful/wikimirror/internal/syncer"
)

var version = "dev"

var CLI struct {
	Env     string `short:"e" help:"Path to .env file with connection settings" default:".env"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Sync struct {
		NoHistory bool `help:"Skip recording this run in the history database"`
	} `cmd:"" default:"1" help:"Mirror the wiki tree into the docs directory once"`

	Daemon struct{} `cmd:"" help:"Run continuously: periodic re-syncs, config watching, metrics endpoint"`

	History struct {
		Limit int `short:"n" help:"Number of runs to show" default:"10"`
	} `cmd:"" help:"Show recent sync runs"`

	Init struct {
		Force bool `help:"Overwrite an existing .env file"`
	} `cmd:"" help:"Write a starter .env file"`

	Version struct{} `cmd:"" help:"Print the version"`
}

func main() {
	kctx := kong.Parse(&CLI)

	level := slog.LevelInfo
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	switch kctx.Command() {
	case "sync":
		err = runSync()
	case "daemon":
		err = runDaemon()
	case "history":
		err = runHistory()
	case "init":
		err = runInit()
	case "version":
		fmt.Println("wikimirror " + version)
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if CLI.Env != ".env" {
		// A custom env file is loaded explicitly; FromEnv only auto-loads ./.env.
		if err := godotenv.Load(CLI.Env); err != nil {
			return nil, fmt.Errorf("load %s: %w", CLI.Env, err)
		}
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("configuration loaded", "config", cfg.Redacted())
	return cfg, nil
}

func runSync() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var store *state.Store
	if cfg.StatePath != "" && !CLI.Sync.NoHistory {
		store, err = state.Open(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := confluence.New(cfg)
	sum, err := syncer.New(cfg, client, nil, store).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d pages, %d assets, %d links rewritten, %d skipped (%s)\n",
		sum.Outcome, sum.Pages, sum.Assets, sum.RewrittenLinks, len(sum.Skipped), sum.Duration.Round(time.Millisecond))
	for _, s := range sum.Skipped {
		fmt.Printf("  skipped page %s (%s)\n", s.PageID, s.Reason)
	}
	for _, u := range sum.FailedAssets {
		fmt.Printf("  asset left remote: %s\n", u)
	}
	for _, w := range sum.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var store *state.Store
	if cfg.StatePath != "" {
		store, err = state.Open(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return daemon.New(cfg, CLI.Env, store).Run(ctx)
}

func runHistory() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StatePath == "" {
		return fmt.Errorf("history disabled: %s is empty", config.EnvStatePath)
	}
	store, err := state.Open(cfg.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-7s  pages=%-4d assets=%-4d skipped=%-3d requests=%-5d %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.Outcome, r.Pages, r.Assets, r.Skipped, r.Requests, r.Detail)
	}
	return nil
}

const envTemplate = `# Remote wiki connection (required)
CONFLUENCE_BASE_URL=https://your-domain.atlassian.net/wiki
CONFLUENCE_EMAIL=you@example.com
CONFLUENCE_API_TOKEN=
CONFLUENCE_ROOT_PAGE_ID=

# Output layout
DOCS_DIR=docs
MKDOCS_PATH=mkdocs.yml

# Traversal
FOLLOW_LINKS=false
MAX_LINK_DEPTH=2
#MAX_DEPTH=0

# HTTP behavior
HTTP_TIMEOUT=30s
RETRY_BACKOFF=exponential
RETRY_INITIAL=1s
RETRY_MAX=30s
RETRY_ATTEMPTS=3
DOWNLOAD_CONCURRENCY=4

# Run history and daemon mode
STATE_PATH=wikimirror.db
SYNC_INTERVAL=1h
DAEMON_ADDR=:9337
`

func runInit() error {
	if _, err := os.Stat(CLI.Env); err == nil && !CLI.Init.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", CLI.Env)
	}
	if err := os.WriteFile(CLI.Env, []byte(envTemplate), 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote %s; fill in the CONFLUENCE_* values\n", CLI.Env)
	return nil
}
