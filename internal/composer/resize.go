// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import "time"

// =============================================================================
// AUTO RESIZE
// =============================================================================

// ResizeTicket identifies one scheduled resize. Only the most recent ticket
// is ever due; scheduling again cancels the previous one.
type ResizeTicket struct {
	seq   uint64
	Delay time.Duration
}

// Layout is the result of a resize pass.
type Layout struct {
	// Rows is the visible height in rows, between 1 and MaxRows.
	Rows int
	// Scroll is true when content exceeds Rows and must scroll internally.
	Scroll bool
}

// Resizer debounces height recalculation. The host turns a ticket into a
// timer of ticket.Delay and calls Due when it fires.
type Resizer struct {
	delay   time.Duration
	maxRows int
	seq     uint64
	pending bool
	layout  Layout
}

// NewResizer returns a resizer with the given debounce delay and row budget.
func NewResizer(delay time.Duration, maxRows int) *Resizer {
	if maxRows < 1 {
		maxRows = 1
	}
	return &Resizer{delay: delay, maxRows: maxRows, layout: Layout{Rows: 1}}
}

// Schedule requests a resize after the debounce delay, superseding any
// earlier request.
func (r *Resizer) Schedule() ResizeTicket {
	r.seq++
	r.pending = true
	return ResizeTicket{seq: r.seq, Delay: r.delay}
}

// Due reports whether t is the latest scheduled ticket. A due ticket is
// consumed; calling Due again with it returns false.
func (r *Resizer) Due(t ResizeTicket) bool {
	if !r.pending || t.seq != r.seq {
		return false
	}
	r.pending = false
	return true
}

// Cancel drops any scheduled resize.
func (r *Resizer) Cancel() {
	r.seq++
	r.pending = false
}

// Pending reports whether a resize is scheduled and not yet applied.
func (r *Resizer) Pending() bool { return r.pending }

// Apply computes the layout for content needing requiredRows rows. The
// height never exceeds MaxRows; beyond that the surface scrolls.
func (r *Resizer) Apply(requiredRows int) Layout {
	if requiredRows < 1 {
		requiredRows = 1
	}
	if requiredRows <= r.maxRows {
		r.layout = Layout{Rows: requiredRows}
	} else {
		r.layout = Layout{Rows: r.maxRows, Scroll: true}
	}
	return r.layout
}

// Layout returns the last applied layout.
func (r *Resizer) Layout() Layout { return r.layout }

// SetLimits updates the delay and row budget. The current layout is
// re-clamped on the next Apply.
func (r *Resizer) SetLimits(delay time.Duration, maxRows int) {
	if maxRows < 1 {
		maxRows = 1
	}
	r.delay = delay
	r.maxRows = maxRows
}

// MaxRows returns the row budget.
func (r *Resizer) MaxRows() int { return r.maxRows }
