// SPDX-License-Identifier: Apache-2.0

// Package watcher re-runs a callback when migration unit directories appear in a migrations directory.
package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashgraph/regsync/internal/registry"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called with the units that appeared since the previous call.
type ChangeFunc func(ctx context.Context, added []registry.Identifier)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the directory must stay quiet before the units are listed again.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher monitors the resolved migrations directory and every unit directory in it. Events only mark the
// directory dirty; the callback runs when the set of discovered units has grown, so writes of the registry file,
// its backup or its lock never trigger it.
type Watcher struct {
	dir      string
	root     string
	debounce time.Duration
	logger   *zerolog.Logger
	onChange ChangeFunc

	fsWatcher *fsnotify.Watcher
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	mu        sync.Mutex
	lastEvent time.Time
	dirty     bool
	known     []registry.Identifier
}

// New creates a Watcher for the migrations directory dir.
func New(dir string, onChange ChangeFunc, opts ...Option) *Watcher {
	nop := zerolog.Nop()
	w := &Watcher{
		dir:      dir,
		root:     registry.ResolveDir(dir),
		debounce: DefaultDebounce,
		logger:   &nop,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start records the units present now and begins watching. The callback only sees units added afterwards.
func (w *Watcher) Start(ctx context.Context) error {
	known, err := registry.Discover(w.dir)
	if err != nil {
		return err
	}
	w.known = known

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errorx.ExternalError.Wrap(err, "failed to create file watcher")
	}
	w.fsWatcher = fsw

	if err = fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return errorx.ExternalError.Wrap(err, "failed to watch %s", w.root)
	}
	for _, id := range known {
		w.watchUnit(id.String())
	}

	w.logger.Info().Str("dir", w.root).Int("units", len(known)).Msg("Watching migration units")

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop terminates the watcher and waits for the background goroutine to exit.
// It is safe to call Stop multiple times.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// Run starts the watcher and blocks until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Str("dir", w.root).Msg("File watcher error")

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	// a new unit directory is watched so that its migration.go showing up later is seen too
	if event.Op&fsnotify.Create != 0 && filepath.Dir(event.Name) == w.root {
		name := filepath.Base(event.Name)
		if registry.IsIdentifier(name) {
			w.watchUnit(name)
		}
	}

	w.mu.Lock()
	w.dirty = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) watchUnit(name string) {
	p := filepath.Join(w.root, name)
	if err := w.fsWatcher.Add(p); err != nil {
		w.logger.Debug().Err(err).Str("dir", p).Msg("Cannot watch unit directory")
	}
}

func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	ready := w.dirty && time.Since(w.lastEvent) >= w.debounce
	if ready {
		w.dirty = false
	}
	w.mu.Unlock()

	if !ready {
		return
	}

	current, err := registry.Discover(w.dir)
	if err != nil {
		w.logger.Error().Err(err).Str("dir", w.root).Msg("Failed to list migration units")
		return
	}

	var added []registry.Identifier
	for _, id := range current {
		if !slices.Contains(w.known, id) {
			added = append(added, id)
		}
	}
	w.known = current

	if len(added) == 0 {
		w.logger.Debug().Str("dir", w.root).Msg("No new migration units")
		return
	}

	w.logger.Info().Int("added", len(added)).Str("dir", w.root).Msg("New migration units found")
	w.onChange(ctx, added)
}
