// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/saransh-tui/internal/logging"
)

// =============================================================================
// CONFIG WATCHER
// =============================================================================

// Reload is delivered after the config file changed on disk. Err is set when
// the new file failed to load; the previous config stays in effect.
type Reload struct {
	Config *Config
	Err    error
}

// DefaultDebounce coalesces the write bursts editors produce on save.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes.
//
// The parent directory is watched rather than the file, because editors that
// save by rename replace the inode.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	updates  chan Reload
	log      *slog.Logger

	mu      sync.Mutex
	pending time.Time // last change; zero when nothing is pending

	closeOnce sync.Once
}

// NewWatcher creates a watcher for path. Call Run to start it.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		debounce: debounce,
		updates:  make(chan Reload, 1),
		log:      logging.Component("config-watcher"),
	}, nil
}

// Updates returns the channel reloads are delivered on.
func (w *Watcher) Updates() <-chan Reload {
	return w.updates
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run processes events until ctx ends or Close is called.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "path", w.path, "error", err)

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if due {
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.log.Warn("config reload failed", "path", w.path, "error", err)
	} else {
		w.log.Info("config reloaded", "path", w.path)
	}

	// Keep only the newest result when the consumer is slow.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- Reload{Config: cfg, Err: err}:
	case <-ctx.Done():
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
