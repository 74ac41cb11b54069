// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/storage"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// maxStdinBytes bounds text read from a pipe.
const maxStdinBytes = 8 << 20

// LoadConfig loads the config file and applies the command-line overrides.
func LoadConfig(args Args) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, NewCommandError("config", "load", "cannot read config", err)
	}
	if err := ApplyOverrides(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides copies --url, --model, --tone and --length into cfg.
// Model names may be short ("pegasus") or full ("Pegasus-Marathi").
func ApplyOverrides(cfg *config.Config, args Args) error {
	if args.URL != "" {
		cfg.Backend.URL = strings.TrimRight(args.URL, "/")
	}
	if args.Model != "" {
		info, ok := model.Lookup(args.Model)
		if !ok {
			return NewValidationErrorWithExample("model", args.Model, "unknown model",
				"--model "+strings.Join(model.ShortNames(), " | "))
		}
		cfg.Summary.Model = string(info.Model)
	}
	if args.Tone != "" {
		t, err := summarizer.ParseTone(args.Tone)
		if err != nil {
			return NewValidationError("tone", args.Tone, err.Error())
		}
		cfg.Summary.Tone = string(t)
	}
	if args.Length != "" {
		l, err := summarizer.ParseLength(args.Length)
		if err != nil {
			return NewValidationError("length", args.Length, err.Error())
		}
		cfg.Summary.Length = string(l)
	}
	return nil
}

// NewClient builds the backend client for cfg.
func NewClient(cfg *config.Config) *summarizer.Client {
	return summarizer.NewClientWithConfig(cfg.ClientConfig())
}

// OpenHistory opens the turn history, or returns nil when history is
// disabled.
func OpenHistory(cfg *config.Config) (*storage.History, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	h, err := storage.Open(path, cfg.History.MaxEntries)
	if err != nil {
		return nil, NewCommandError("history", "open", path, err)
	}
	return h, nil
}

// readAllLimited reads r up to limit bytes and fails past it.
func readAllLimited(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("input exceeds %s", formatBytes(limit))
	}
	return string(data), nil
}

// stdinPiped reports whether stdin carries piped data.
func stdinPiped() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

// formatDuration formats a request duration.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}

// formatBytes formats a byte count for display.
func formatBytes(n int64) string {
	return units.HumanSize(float64(n))
}

// firstLine returns the first non-blank line of s, cut to width columns.
func firstLine(s string, width int) string {
	if width < 8 {
		width = 8
	}
	return util.TruncateWidth(util.FirstLine(s), width)
}
