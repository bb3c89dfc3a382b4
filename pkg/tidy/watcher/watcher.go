// Package watcher re-runs organization when files land in a watched
// directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("watcher")

// DefaultDebounce is the quiet period before a change triggers a run.
const DefaultDebounce = 2 * time.Second

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnoredNames ignores events for entries with these base names,
// compared case-insensitively. Category folders are passed here.
func WithIgnoredNames(names ...string) Option {
	return func(w *Watcher) {
		for _, n := range names {
			w.ignored[strings.ToLower(n)] = struct{}{}
		}
	}
}

// WithInitialRun makes Run call onChange once before waiting for events.
func WithInitialRun() Option {
	return func(w *Watcher) {
		w.initialRun = true
	}
}

// Watcher watches the top level of one directory.
type Watcher struct {
	root       string
	fsw        *fsnotify.Watcher
	debounce   time.Duration
	ignored    map[string]struct{}
	initialRun bool

	mu     sync.Mutex
	closed bool
}

// New starts watching root. Sub-directories are not watched.
func New(root string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", abs, err)
	}

	w := &Watcher{
		root:     abs,
		fsw:      fsw,
		debounce: DefaultDebounce,
		ignored:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run blocks until ctx is done, calling onChange once the directory has
// been quiet for the debounce period after a relevant event. Events that
// arrive while onChange runs, or within one debounce period after it
// returns, are treated as caused by the run and ignored. An error from
// onChange stops the loop and is returned.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	var (
		timer       *time.Timer
		fire        <-chan time.Time
		quietUntil  time.Time
		lastTrigger string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	if w.initialRun {
		logger.Info("initial run", "dir", w.root)
		if err := onChange(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
		quietUntil = time.Now().Add(w.debounce)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if time.Now().Before(quietUntil) || !w.relevant(event) {
				continue
			}
			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			lastTrigger = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)

		case <-fire:
			fire = nil
			logger.Info("organizing after change", "dir", w.root, "trigger", lastTrigger)
			if err := onChange(ctx); err != nil {
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					return nil
				}
				return err
			}
			quietUntil = time.Now().Add(w.debounce)
		}
	}
}

// relevant reports whether event should schedule a run.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Dir(event.Name) != w.root {
		return false
	}
	if _, skip := w.ignored[strings.ToLower(filepath.Base(event.Name))]; skip {
		return false
	}
	// Directories are never organized. A renamed-away entry no longer
	// exists and still counts.
	if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
		return false
	}
	return true
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
