// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// =============================================================================
// STATE
// =============================================================================

var (
	mu       sync.Mutex
	levelVar = new(slog.LevelVar)
	logFile  io.Closer
	logPath  string
	current  atomic.Pointer[slog.Handler]
)

func init() {
	installHandler(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}))
}

func installHandler(h slog.Handler) {
	current.Store(&h)
}

// ParseLevel converts debug|info|warn|error to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// =============================================================================
// SETUP
// =============================================================================

// Init opens path for appending and routes all loggers to it. Calling Init
// again replaces the previous file.
func Init(path string, level slog.Level) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logPath = path
	levelVar.Set(level)
	installHandler(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))

	Logger().Info("logger initialized", "path", path, "level", level.String())
	return nil
}

// InitWriter routes all loggers to w. Used by tests and by --verbose on the
// one-shot commands.
func InitWriter(w io.Writer, level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	levelVar.Set(level)
	installHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
}

// SetLevel changes the minimum level at runtime.
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// Path returns the current log file path, or "" when logging to a writer.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Close closes the log file and discards further output.
func Close() {
	Reset()
}

// Reset discards output and closes any open file.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logPath = ""
	levelVar.Set(slog.LevelInfo)
	installHandler(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelVar}))
}

// =============================================================================
// LOGGERS
// =============================================================================

// Logger returns a logger bound to the current handler.
func Logger() *slog.Logger {
	return slog.New(forwardHandler{})
}

// Component returns a logger with the component attribute attached.
func Component(name string) *slog.Logger {
	return Logger().With(slog.String("component", name))
}

// forwardHandler resolves the installed handler on every call, so loggers
// built before Init still reach the log file.
type forwardHandler struct {
	ops []func(slog.Handler) slog.Handler
}

func (f forwardHandler) resolve() slog.Handler {
	h := *current.Load()
	for _, op := range f.ops {
		h = op(h)
	}
	return h
}

func (f forwardHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return (*current.Load()).Enabled(ctx, level)
}

func (f forwardHandler) Handle(ctx context.Context, r slog.Record) error {
	return f.resolve().Handle(ctx, r)
}

func (f forwardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f forwardHandler) WithGroup(name string) slog.Handler {
	return f.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f forwardHandler) with(op func(slog.Handler) slog.Handler) forwardHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(f.ops), len(f.ops)+1)
	copy(ops, f.ops)
	return forwardHandler{ops: append(ops, op)}
}
