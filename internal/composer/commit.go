// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"log/slog"
	"strings"

	"github.com/jeranaias/saransh-tui/internal/logging"
)

// =============================================================================
// COMMIT STATE
// =============================================================================

// State is the commit state of the composer.
type State int

const (
	Idle State = iota
	Composing
	Busy
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Busy:
		return "busy"
	}
	return "unknown"
}

// KeyOutcome is what an Enter press did.
type KeyOutcome int

const (
	InsertNewline KeyOutcome = iota
	Submitted
	Refused
	Failed // hand-off to Submit returned an error
)

func (o KeyOutcome) String() string {
	switch o {
	case InsertNewline:
		return "newline"
	case Submitted:
		return "submitted"
	case Refused:
		return "refused"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// RefusalReason explains why a commit was refused.
type RefusalReason int

const (
	RefuseNone RefusalReason = iota
	RefuseEmpty
	RefuseNotReady
	RefuseBusy
)

func (r RefusalReason) String() string {
	switch r {
	case RefuseEmpty:
		return "nothing to send"
	case RefuseNotReady:
		return "backend not ready"
	case RefuseBusy:
		return "waiting for response"
	}
	return ""
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Message is a committed turn. Ownership of Attachments passes to the
// receiver.
type Message struct {
	Text        string
	Attachments []Attachment
}

// SubmitFunc hands a message to the transport. It returns an error only if
// the hand-off itself failed; the response arrives asynchronously.
type SubmitFunc func(Message) error

// CancelFunc aborts the in-flight exchange.
type CancelFunc func()

// ReadyFunc reports whether the backend can accept a turn.
type ReadyFunc func() bool

// Collaborators are the host-supplied functions the composer calls.
type Collaborators struct {
	Submit SubmitFunc
	Cancel CancelFunc
	Ready  ReadyFunc
}

// =============================================================================
// COMMIT CONTROLLER
// =============================================================================

// CommitController gates and performs commits.
type CommitController struct {
	collab      Collaborators
	text        func() string
	attachments func() []Attachment
	busy        bool
	refusal     RefusalReason
	err         error
	log         *slog.Logger
}

// NewCommitController returns a controller reading the draft through text
// and attachments.
func NewCommitController(collab Collaborators, text func() string, attachments func() []Attachment) *CommitController {
	return &CommitController{
		collab:      collab,
		text:        text,
		attachments: attachments,
		log:         logging.Component("commit"),
	}
}

// State derives the current state.
func (c *CommitController) State() State {
	if c.busy {
		return Busy
	}
	if strings.TrimSpace(c.text()) != "" || len(c.attachments()) > 0 {
		return Composing
	}
	return Idle
}

// Busy reports whether a turn is in flight.
func (c *CommitController) Busy() bool { return c.busy }

// LastRefusal returns the reason for the most recent refused commit.
func (c *CommitController) LastRefusal() RefusalReason { return c.refusal }

// Err returns the error from the most recent failed hand-off.
func (c *CommitController) Err() error { return c.err }

// Enter handles an Enter press. With shift it never commits.
func (c *CommitController) Enter(shift bool) KeyOutcome {
	if shift {
		return InsertNewline
	}
	return c.Submit()
}

// Submit commits the draft when it is non-empty, the backend is ready and
// nothing is in flight. The draft is left in place for the caller to reset.
func (c *CommitController) Submit() KeyOutcome {
	c.err = nil
	if reason := c.check(); reason != RefuseNone {
		c.refusal = reason
		c.log.Debug("commit refused", "reason", reason.String())
		return Refused
	}
	c.refusal = RefuseNone

	msg := Message{Text: c.text(), Attachments: c.attachments()}
	c.busy = true
	if c.collab.Submit != nil {
		if err := c.collab.Submit(msg); err != nil {
			c.busy = false
			c.err = err
			c.log.Error("submit failed", "error", err)
			return Failed
		}
	}
	c.log.Debug("committed", "runes", len([]rune(msg.Text)), "attachments", len(msg.Attachments))
	return Submitted
}

func (c *CommitController) check() RefusalReason {
	if c.busy {
		return RefuseBusy
	}
	if strings.TrimSpace(c.text()) == "" {
		return RefuseEmpty
	}
	if c.collab.Ready != nil && !c.collab.Ready() {
		return RefuseNotReady
	}
	return RefuseNone
}

// Cancel aborts the in-flight turn and leaves busy immediately, without
// waiting for the transport. It reports whether anything was cancelled.
func (c *CommitController) Cancel() bool {
	if !c.busy {
		return false
	}
	if c.collab.Cancel != nil {
		c.collab.Cancel()
	}
	c.busy = false
	c.log.Debug("cancelled in-flight turn")
	return true
}

// Done ends the busy state after the response finished or failed.
func (c *CommitController) Done() {
	c.busy = false
}
