// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"strings"
)

// =============================================================================
// HANDLE
// =============================================================================

// Handle is the capability a host receives to drive the composer from
// outside its own event handling: toolbar actions, slash commands, tests.
type Handle interface {
	// Reset clears the text and attachments together and collapses the
	// surface to one row.
	Reset()
	Focus()
	Text() string
	// Resize applies the layout immediately, bypassing the debounce.
	Resize() Layout
	// PasteText inserts text at the caret, wrapping it when it is large.
	PasteText(text string) PasteDecision
	// ClearInput clears the text and attachments and leaves the layout to
	// the next debounced resize.
	ClearInput()
}

// RowCounter is implemented by surfaces that know how many visual rows
// their content needs, soft wraps included.
type RowCounter interface {
	RequiredRows() int
}

// =============================================================================
// COMPOSER
// =============================================================================

// Composer ties the editor, resizer, attachment store and commit controller
// to one Surface.
type Composer struct {
	limits    Limits
	surface   Surface
	editor    *Editor
	resizer   *Resizer
	store     *AttachmentStore
	commit    *CommitController
	pre       Preprocessor
	ticket    ResizeTicket
	hasTicket bool
}

// Option configures a Composer.
type Option func(*Composer)

// WithPreprocessor replaces the default image preprocessor.
func WithPreprocessor(p Preprocessor) Option {
	return func(c *Composer) { c.pre = p }
}

// New returns a composer over s.
func New(limits Limits, s Surface, collab Collaborators, opts ...Option) *Composer {
	c := &Composer{
		limits:  limits,
		surface: s,
		editor:  NewEditor(s),
		resizer: NewResizer(limits.ResizeDelay, limits.MaxRows),
	}
	c.store = NewAttachmentStore(limits, c.editor)
	c.commit = NewCommitController(collab, s.Value, c.store.List)
	c.pre = NewImagePreprocessor(limits.MaxImageDimension)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle returns the host-facing capability for c.
func (c *Composer) Handle() Handle { return handle{c} }

// Limits returns the active limits.
func (c *Composer) Limits() Limits { return c.limits }

// SetLimits applies new limits without touching the draft.
func (c *Composer) SetLimits(l Limits) error {
	if err := l.Validate(); err != nil {
		return err
	}
	c.limits = l
	c.resizer.SetLimits(l.ResizeDelay, l.MaxRows)
	c.store.SetLimits(l)
	if p, ok := c.pre.(*ImagePreprocessor); ok {
		p.MaxDimension = l.MaxImageDimension
	}
	c.schedule()
	return nil
}

func (c *Composer) Editor() *Editor { return c.editor }
func (c *Composer) Attachments() *AttachmentStore { return c.store }
func (c *Composer) Commit() *CommitController { return c.commit }
func (c *Composer) Preprocessor() Preprocessor { return c.pre }
func (c *Composer) Surface() Surface { return c.surface }
func (c *Composer) State() State { return c.commit.State() }
func (c *Composer) Busy() bool { return c.commit.Busy() }
func (c *Composer) Err() error { return c.commit.Err() }
func (c *Composer) LastRefusal() RefusalReason { return c.commit.LastRefusal() }
func (c *Composer) Text() string { return c.surface.Value() }
func (c *Composer) Focus() { c.surface.Focus() }

// IsEmpty reports whether the text is blank.
func (c *Composer) IsEmpty() bool {
	return strings.TrimSpace(c.surface.Value()) == ""
}

// =============================================================================
// TEXT
// =============================================================================

// InterceptPaste handles a paste the host is about to insert. Large pastes
// are wrapped and inserted here; for verbatim pastes the host proceeds with
// its own insertion.
func (c *Composer) InterceptPaste(text string) PasteDecision {
	text = NormalizeNewlines(text)
	d := ClassifyPaste(text, c.limits)
	if !d.Verbatim {
		c.editor.InsertAtCursor(d.Wrapped)
		c.schedule()
	}
	return d
}

// PasteText inserts text at the caret, wrapped or verbatim.
func (c *Composer) PasteText(text string) PasteDecision {
	text = NormalizeNewlines(text)
	d := ClassifyPaste(text, c.limits)
	if d.Verbatim {
		c.editor.InsertAtCursor(text)
	} else {
		c.editor.InsertAtCursor(d.Wrapped)
	}
	c.schedule()
	return d
}

// Insert places text at the caret without classification.
func (c *Composer) Insert(text string) {
	c.editor.InsertAtCursor(text)
	c.schedule()
}

// AttachText inlines a text file at the caret.
func (c *Composer) AttachText(f File) error {
	if err := c.store.AddTextFile(f); err != nil {
		return err
	}
	c.schedule()
	return nil
}

// RestoreCaret applies the caret left by the last insertion.
func (c *Composer) RestoreCaret() bool { return c.editor.RestoreCaret() }

// =============================================================================
// COMMIT
// =============================================================================

// Enter handles the Enter key. With shift a newline is inserted at the caret
// and nothing is committed.
func (c *Composer) Enter(shift bool) KeyOutcome {
	out := c.commit.Enter(shift)
	if out == InsertNewline {
		c.Insert("\n")
	}
	return out
}

// Submit is the explicit submit action.
func (c *Composer) Submit() KeyOutcome { return c.commit.Submit() }

// Cancel aborts the in-flight turn.
func (c *Composer) Cancel() bool { return c.commit.Cancel() }

// Done ends the busy state.
func (c *Composer) Done() { c.commit.Done() }

// Reset clears text and attachments together.
func (c *Composer) Reset() {
	c.clear()
	c.resizer.Cancel()
	c.hasTicket = false
	c.resizer.Apply(1)
}

// ClearInput clears text and attachments and schedules a resize.
func (c *Composer) ClearInput() {
	c.clear()
	c.schedule()
}

func (c *Composer) clear() {
	c.editor.Discard()
	c.surface.SetValue("")
	c.store.Clear()
}

// =============================================================================
// RESIZE
// =============================================================================

// Changed records a host-side mutation such as typing and returns the
// debounce ticket for it.
func (c *Composer) Changed() ResizeTicket {
	c.ticket = c.resizer.Schedule()
	c.hasTicket = false
	return c.ticket
}

// PendingResize returns the ticket scheduled by the last composer-driven
// mutation. The ticket is handed out once.
func (c *Composer) PendingResize() (ResizeTicket, bool) {
	if !c.hasTicket {
		return ResizeTicket{}, false
	}
	c.hasTicket = false
	return c.ticket, true
}

// ResizeDue applies the layout if t is still the latest ticket.
func (c *Composer) ResizeDue(t ResizeTicket) (Layout, bool) {
	if !c.resizer.Due(t) {
		return c.resizer.Layout(), false
	}
	return c.resizer.Apply(c.requiredRows()), true
}

// Resize applies the layout now and drops any scheduled resize.
func (c *Composer) Resize() Layout {
	c.resizer.Cancel()
	c.hasTicket = false
	return c.resizer.Apply(c.requiredRows())
}

// Layout returns the last applied layout.
func (c *Composer) Layout() Layout { return c.resizer.Layout() }

func (c *Composer) schedule() {
	c.ticket = c.resizer.Schedule()
	c.hasTicket = true
}

func (c *Composer) requiredRows() int {
	if rc, ok := c.surface.(RowCounter); ok {
		return rc.RequiredRows()
	}
	return strings.Count(c.surface.Value(), "\n") + 1
}

// =============================================================================
// HANDLE IMPLEMENTATION
// =============================================================================

type handle struct{ c *Composer }

func (h handle) Reset() { h.c.Reset() }
func (h handle) Focus() { h.c.Focus() }
func (h handle) Text() string { return h.c.Text() }
func (h handle) Resize() Layout { return h.c.Resize() }
func (h handle) PasteText(text string) PasteDecision { return h.c.PasteText(text) }
func (h handle) ClearInput() { h.c.ClearInput() }
