// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides turn history persistence for saransh.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/saransh-tui/internal/logging"
)

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one committed prompt and its summary.
type Turn struct {
	ID         int64     `json:"id"`
	Prompt     string    `json:"prompt"`
	Summary    string    `json:"summary"`
	Model      string    `json:"model"`
	Tone       string    `json:"tone,omitempty"`
	Length     string    `json:"length,omitempty"`
	Endpoint   string    `json:"endpoint"`
	Images     int       `json:"images"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt      TEXT NOT NULL,
	summary     TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	tone        TEXT NOT NULL DEFAULT '',
	length      TEXT NOT NULL DEFAULT '',
	endpoint    TEXT NOT NULL DEFAULT '',
	images      INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
`

const turnColumns = `id, prompt, summary, model, tone, length, endpoint, images, duration_ms, created_at`

// =============================================================================
// HISTORY STORE
// =============================================================================

// ErrTurnNotFound is returned when a turn doesn't exist.
var ErrTurnNotFound = errors.New("turn not found")

// History persists turns in SQLite.
type History struct {
	db *sql.DB

	// MaxEntries bounds the table; older turns are pruned on Add (0 = unlimited)
	MaxEntries int

	mu  sync.Mutex
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string, maxEntries int) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if path != ":memory:" {
		_ = os.Chmod(path, 0600)
	}

	return &History{db: db, MaxEntries: maxEntries, now: time.Now}, nil
}

// Close closes the database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Add stores t and returns its ID. CreatedAt defaults to now.
func (h *History) Add(ctx context.Context, t *Turn) (int64, error) {
	if strings.TrimSpace(t.Prompt) == "" {
		return 0, errors.New("empty prompt")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.db.ExecContext(ctx,
		`INSERT INTO turns (prompt, summary, model, tone, length, endpoint, images, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Prompt, t.Summary, t.Model, t.Tone, t.Length, t.Endpoint, t.Images, t.DurationMs,
		t.CreatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to insert turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = id

	if h.MaxEntries > 0 {
		if err := h.prune(ctx); err != nil {
			logging.Component("history").Warn("prune failed", "error", err)
		}
	}
	return id, nil
}

func (h *History) prune(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx,
		`DELETE FROM turns WHERE id NOT IN (SELECT id FROM turns ORDER BY id DESC LIMIT ?)`,
		h.MaxEntries)
	return err
}

// Delete removes a turn by ID.
func (h *History) Delete(ctx context.Context, id int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.db.ExecContext(ctx, `DELETE FROM turns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTurnNotFound
	}
	return nil
}

// Clear removes all turns and returns how many were deleted.
func (h *History) Clear(ctx context.Context) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res, err := h.db.ExecContext(ctx, `DELETE FROM turns`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Get returns one turn.
func (h *History) Get(ctx context.Context, id int64) (*Turn, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+turnColumns+` FROM turns WHERE id = ?`, id)
	t, err := scanTurn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTurnNotFound
	}
	return t, err
}

// List returns up to limit turns, newest first (limit <= 0 means all).
func (h *History) List(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = -1
	}
	return h.query(ctx, `SELECT `+turnColumns+` FROM turns ORDER BY id DESC LIMIT ?`, limit)
}

// Search returns turns whose prompt or summary contains query, newest first.
func (h *History) Search(ctx context.Context, query string, limit int) ([]Turn, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return h.List(ctx, limit)
	}
	if limit <= 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(query) + "%"
	return h.query(ctx,
		`SELECT `+turnColumns+` FROM turns
		 WHERE prompt LIKE ? ESCAPE '\' OR summary LIKE ? ESCAPE '\'
		 ORDER BY id DESC LIMIT ?`,
		pattern, pattern, limit)
}

// Prompts returns up to limit distinct prompts, newest first. The chat view
// walks this list for up-arrow recall.
func (h *History) Prompts(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT prompt FROM turns GROUP BY prompt ORDER BY MAX(id) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// Count returns the number of stored turns.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM turns`).Scan(&n)
	return n, err
}

func (h *History) query(ctx context.Context, q string, args ...any) ([]Turn, error) {
	rows, err := h.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, *t)
	}
	return turns, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTurn(s scanner) (*Turn, error) {
	var t Turn
	var created int64
	if err := s.Scan(&t.ID, &t.Prompt, &t.Summary, &t.Model, &t.Tone, &t.Length,
		&t.Endpoint, &t.Images, &t.DurationMs, &created); err != nil {
		return nil, err
	}
	t.CreatedAt = time.Unix(0, created)
	return &t, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
