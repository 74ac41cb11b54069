// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

// =============================================================================
// BACKEND MESSAGES
// =============================================================================

// ReadyMsg reports a readiness probe.
type ReadyMsg struct {
	Ready bool
	Err   error
}

// WarmUpMsg reports the answer to a warm-up request.
type WarmUpMsg struct {
	Status summarizer.LoadStatus
	Err    error
}

// readyPollMsg triggers the next readiness probe.
type readyPollMsg struct{}

// SummaryMsg delivers the outcome of a summarize request.
type SummaryMsg struct {
	ID     string // transcript entry of the pending summary
	Prompt string
	Images int
	Result *summarizer.Result
	Err    error
}

// =============================================================================
// COMPOSER MESSAGES
// =============================================================================

// resizeMsg fires when a debounced resize ticket comes due.
type resizeMsg struct {
	ticket composer.ResizeTicket
}

// caretMsg restores the caret after the render that followed an insertion.
type caretMsg struct{}

// FileMsg delivers a file read for /attach.
type FileMsg struct {
	Path string
	File composer.File
	Err  error
}

// ImageMsg delivers a preprocessed image for an in-flight ticket.
type ImageMsg struct {
	Ticket composer.Ticket
	Result composer.PreprocessResult
	Err    error
}

// ClipboardMsg delivers the clipboard contents for ctrl+v: an image when
// one is present, otherwise text.
type ClipboardMsg struct {
	Image *composer.File
	Text  string
	Err   error
}

// =============================================================================
// HOUSEKEEPING MESSAGES
// =============================================================================

// ConfigReloadMsg carries a reloaded configuration file.
type ConfigReloadMsg config.Reload

// PromptsMsg delivers recent prompts for recall.
type PromptsMsg struct {
	Prompts []string
	Err     error
}

// HistoryListMsg delivers the result of /history.
type HistoryListMsg struct {
	Query   string
	Prompts []string
	Err     error
}

// recordedMsg reports a history write.
type recordedMsg struct {
	Err error
}

// CopiedMsg reports a clipboard write.
type CopiedMsg struct {
	Err error
}

// noticeExpiredMsg clears the status notice with the matching sequence.
type noticeExpiredMsg struct {
	seq int
}
