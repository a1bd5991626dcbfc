// Package daemon runs the mirror continuously: periodic re-syncs on a
// schedule, a config watcher that re-syncs on .env edits, and an HTTP
// endpoint exposing metrics and health.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/wikimirror/internal/config"
	"git.home.luguber.info/inful/wikimirror/internal/confluence"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
	"git.home.luguber.info/inful/wikimirror/internal/metrics"
	"git.home.luguber.info/inful/wikimirror/internal/state"
	"git.home.luguber.info/inful/wikimirror/internal/syncer"
)

// Daemon owns the long-running pieces and rebuilds the pipeline when the
// configuration changes.
type Daemon struct {
	envPath  string
	registry *prometheus.Registry
	recorder *metrics.PrometheusRecorder
	store    *state.Store

	mu      sync.Mutex
	cfg     *config.Config
	runner  *syncer.Runner
	last    *syncer.Summary
	lastErr error
	running bool
}

// New builds a Daemon around an initial configuration. envPath is the .env
// file to watch for edits.
func New(cfg *config.Config, envPath string, store *state.Store) *Daemon {
	registry := prometheus.NewRegistry()
	d := &Daemon{
		envPath:  envPath,
		registry: registry,
		recorder: metrics.NewPrometheusRecorder(registry),
		store:    store,
	}
	d.apply(cfg)
	return d
}

// apply swaps in a configuration and rebuilds the client and runner.
func (d *Daemon) apply(cfg *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	client := confluence.New(cfg, confluence.WithRecorder(d.recorder))
	d.runner = syncer.New(cfg, client, d.recorder, d.store)
}

// Run blocks until ctx is canceled. It syncs once immediately, then on the
// configured interval, and serves HTTP on the daemon address.
func (d *Daemon) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	d.mu.Lock()
	interval := d.cfg.SyncInterval
	addr := d.cfg.DaemonAddr
	d.mu.Unlock()

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.syncOnce(ctx) }),
		gocron.WithName("periodic-sync"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule periodic sync: %w", err)
	}

	watcher, err := NewEnvWatcher(d.envPath, func() { d.reload(ctx) })
	if err != nil {
		slog.Warn("config watcher unavailable, edits require a restart", logfields.Error(err))
	} else {
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("config watcher failed to start", logfields.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	server := newServer(addr, d)
	go func() {
		if err := server.ListenAndServe(); err != nil && ctx.Err() == nil {
			slog.Error("daemon http server stopped", logfields.Error(err))
		}
	}()

	slog.Info("daemon started",
		slog.String("addr", addr),
		slog.Duration("interval", interval))
	scheduler.Start()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	if err := scheduler.Shutdown(); err != nil {
		slog.Warn("scheduler shutdown", logfields.Error(err))
	}
	slog.Info("daemon stopped")
	return nil
}

// syncOnce runs one sync, skipping if a run is already in flight.
func (d *Daemon) syncOnce(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		slog.Warn("sync already in progress, skipping tick")
		return
	}
	d.running = true
	runner := d.runner
	d.mu.Unlock()

	sum, err := runner.Run(ctx)

	d.mu.Lock()
	d.running = false
	d.last = sum
	d.lastErr = err
	d.mu.Unlock()

	if err != nil {
		slog.Error("scheduled sync failed", logfields.Error(err))
	}
}

// reload re-reads the watched file and, when valid, applies it and re-syncs.
// The edited file must win over the values the first load exported into the
// process env, so this goes through FromEnvFile rather than FromEnv. A broken
// edit keeps the previous configuration running.
func (d *Daemon) reload(ctx context.Context) {
	slog.Info("configuration change detected, reloading", logfields.Path(d.envPath))
	cfg, err := config.FromEnvFile(d.envPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("reload rejected, keeping previous configuration", logfields.Error(err))
		return
	}
	d.apply(cfg)
	d.syncOnce(ctx)
}

// Status is the daemon's introspection snapshot.
type Status struct {
	Running     bool            `json:"running"`
	LastRun     *syncer.Summary `json:"last_run,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	LastSuccess *state.Run      `json:"last_success,omitempty"`
}

func (d *Daemon) status(ctx context.Context) Status {
	d.mu.Lock()
	st := Status{Running: d.running, LastRun: d.last}
	if d.lastErr != nil {
		st.LastError = d.lastErr.Error()
	}
	d.mu.Unlock()

	if d.store != nil {
		if run, err := d.store.LastSuccess(ctx); err == nil {
			st.LastSuccess = run
		}
	}
	return st
}
