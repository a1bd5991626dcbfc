package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/wikimirror/internal/logfields"
)

// EnvWatcher watches the .env file and fires a debounced callback on edits.
// The containing directory is watched rather than the file itself, so editors
// that replace the file atomically still trigger.
type EnvWatcher struct {
	path     string
	onChange func()
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stop     chan struct{}
	pending  chan struct{}
}

// NewEnvWatcher builds a watcher for path; onChange runs after edits settle.
func NewEnvWatcher(path string, onChange func()) (*EnvWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve env path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &EnvWatcher{
		path:     abs,
		onChange: onChange,
		watcher:  w,
		debounce: 2 * time.Second,
		stop:     make(chan struct{}),
		pending:  make(chan struct{}, 1),
	}, nil
}

// Start begins watching until ctx is canceled or Stop is called.
func (w *EnvWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.Info("watching configuration file", logfields.Path(w.path))
	go w.watchLoop(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop shuts the watcher down.
func (w *EnvWatcher) Stop() {
	close(w.stop)
	_ = w.watcher.Close()
}

func (w *EnvWatcher) watchLoop(ctx context.Context) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.trigger()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", logfields.Error(err))
		}
	}
}

func (w *EnvWatcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.onChange)
		}
	}
}

func (w *EnvWatcher) trigger() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
}
