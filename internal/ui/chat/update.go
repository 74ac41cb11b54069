// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/saransh-tui/internal/clipboard"
	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/storage"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

const (
	probeTimeout   = 5 * time.Second
	historyTimeout = 2 * time.Second
	// maxAttachBytes bounds files read by /attach before type checks run.
	maxAttachBytes = 32 << 20
)

// errNoBackend is returned by the submit hand-off when no client exists.
var errNoBackend = errors.New("no summarization backend configured")

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// SummarizeCmd sends one turn to the backend. ctx comes from the cancel
// manager so esc can abort the request.
func SummarizeCmd(ctx context.Context, client *summarizer.Client, id string, req summarizer.Request) tea.Cmd {
	return func() tea.Msg {
		msg := SummaryMsg{ID: id, Prompt: req.Text, Images: len(req.Images)}
		if client == nil {
			msg.Err = errNoBackend
			return msg
		}
		msg.Result, msg.Err = client.Summarize(ctx, req)
		return msg
	}
}

// CheckReadyCmd probes /ready.
func CheckReadyCmd(client *summarizer.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return ReadyMsg{Err: errNoBackend}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		ready, err := client.CheckReady(ctx)
		return ReadyMsg{Ready: ready, Err: err}
	}
}

// WarmUpCmd asks the backend to load its model without waiting for it.
func WarmUpCmd(client *summarizer.Client) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return WarmUpMsg{Err: errNoBackend}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		status, err := client.WarmUp(ctx, false)
		return WarmUpMsg{Status: status, Err: err}
	}
}

func pollReadyAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return readyPollMsg{} })
}

// =============================================================================
// COMPOSER COMMANDS
// =============================================================================

// resizeAfter turns a resize ticket into a timer.
func resizeAfter(t composer.ResizeTicket) tea.Cmd {
	return tea.Tick(t.Delay, func(time.Time) tea.Msg { return resizeMsg{ticket: t} })
}

// restoreCaret fires after the render that follows an insertion.
func restoreCaret() tea.Msg { return caretMsg{} }

// loadFileCmd reads a file for /attach.
func loadFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		f, err := composer.LoadFile(path, maxAttachBytes)
		return FileMsg{Path: path, File: f, Err: err}
	}
}

// preprocessCmd decodes and scales an image for an in-flight ticket.
func preprocessCmd(p composer.Preprocessor, t composer.Ticket, f composer.File) tea.Cmd {
	return func() tea.Msg {
		res, err := p.Preprocess(context.Background(), f)
		return ImageMsg{Ticket: t, Result: res, Err: err}
	}
}

// readClipboardCmd reads an image from the clipboard, falling back to text.
func readClipboardCmd(clip clipboard.Clipboard) tea.Cmd {
	return func() tea.Msg {
		if clip == nil {
			return ClipboardMsg{Err: clipboard.ErrUnavailable}
		}
		img, err := clip.ReadImage()
		if err == nil {
			return ClipboardMsg{Image: &img}
		}
		text, terr := clip.ReadText()
		if terr != nil || text == "" {
			return ClipboardMsg{Err: err}
		}
		return ClipboardMsg{Text: text}
	}
}

func copyCmd(clip clipboard.Clipboard, text string) tea.Cmd {
	return func() tea.Msg {
		if clip == nil {
			return CopiedMsg{Err: clipboard.ErrUnavailable}
		}
		return CopiedMsg{Err: clip.WriteText(text)}
	}
}

// =============================================================================
// HOUSEKEEPING COMMANDS
// =============================================================================

// watchConfigCmd waits for the next reload. It is re-armed after every
// ConfigReloadMsg and ends when the watcher closes.
func watchConfigCmd(w *config.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-w.Updates()
		if !ok {
			return nil
		}
		return ConfigReloadMsg(r)
	}
}

func loadPromptsCmd(h *storage.History, limit int) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		prompts, err := h.Prompts(ctx, limit)
		return PromptsMsg{Prompts: prompts, Err: err}
	}
}

func historyListCmd(h *storage.History, query string, limit int) tea.Cmd {
	return func() tea.Msg {
		if h == nil {
			return HistoryListMsg{Query: query, Err: errHistoryDisabled}
		}
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		var (
			turns []storage.Turn
			err   error
		)
		if query == "" {
			turns, err = h.List(ctx, limit)
		} else {
			turns, err = h.Search(ctx, query, limit)
		}
		msg := HistoryListMsg{Query: query, Err: err}
		for _, t := range turns {
			msg.Prompts = append(msg.Prompts, t.Prompt)
		}
		return msg
	}
}

// recordTurnCmd stores a completed turn.
func recordTurnCmd(h *storage.History, turn *storage.Turn) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		_, err := h.Add(ctx, turn)
		return recordedMsg{Err: err}
	}
}

func expireNoticeAfter(d time.Duration, seq int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return noticeExpiredMsg{seq: seq} })
}
