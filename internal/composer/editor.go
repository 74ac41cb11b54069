// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// SURFACE
// =============================================================================

// Surface is the visible text-entry area a host provides. Offsets are in
// runes from the start of the value.
type Surface interface {
	Value() string
	// Selection returns the selected span. start == end when nothing is
	// selected; both are the caret offset.
	Selection() (start, end int)
	SetValue(text string)
	SetCaret(offset int)
	// Overflowing reports whether the content is taller than the visible area.
	Overflowing() bool
	ScrollToCaret()
	Focus()
}

// Normalizer is implemented by surfaces that rewrite text on SetValue (tab
// expansion, control stripping). Inserted text is normalized before it is
// spliced so the recorded caret matches what the surface stores.
type Normalizer interface {
	Normalize(text string) string
}

// =============================================================================
// BUFFER - in-memory Surface
// =============================================================================

// Buffer is a Surface backed by a string. It is used by the line-mode REPL
// and by tests.
type Buffer struct {
	value   []rune
	selFrom int
	selTo   int
	rows    int // visible rows; 0 means unbounded
	scrolls int
	focused bool
}

// NewBuffer returns an empty, unbounded buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// NewBufferWithRows returns a buffer that reports overflow past rows lines.
func NewBufferWithRows(rows int) *Buffer {
	return &Buffer{rows: rows}
}

func (b *Buffer) Value() string { return string(b.value) }

func (b *Buffer) Selection() (int, int) { return b.selFrom, b.selTo }

// SetValue replaces the content and moves the caret to the end.
func (b *Buffer) SetValue(text string) {
	b.value = []rune(text)
	b.selFrom, b.selTo = len(b.value), len(b.value)
}

func (b *Buffer) SetCaret(offset int) {
	offset = clamp(offset, 0, len(b.value))
	b.selFrom, b.selTo = offset, offset
}

// Select sets a selection span. Out-of-range offsets are clamped.
func (b *Buffer) Select(from, to int) {
	b.selFrom = clamp(from, 0, len(b.value))
	b.selTo = clamp(to, 0, len(b.value))
}

// Type appends text at the caret, like a keystroke would.
func (b *Buffer) Type(text string) {
	start, end := orderedSpan(b.selFrom, b.selTo, len(b.value))
	ins := []rune(text)
	next := make([]rune, 0, len(b.value)-(end-start)+len(ins))
	next = append(next, b.value[:start]...)
	next = append(next, ins...)
	next = append(next, b.value[end:]...)
	b.value = next
	b.SetCaret(start + len(ins))
}

func (b *Buffer) Overflowing() bool {
	return b.rows > 0 && strings.Count(string(b.value), "\n")+1 > b.rows
}

func (b *Buffer) ScrollToCaret() { b.scrolls++ }

// Scrolls reports how many times the buffer was asked to reveal the caret.
func (b *Buffer) Scrolls() int { return b.scrolls }

func (b *Buffer) Focus() { b.focused = true }

// Focused reports whether Focus was called.
func (b *Buffer) Focused() bool { return b.focused }

// =============================================================================
// EDITOR
// =============================================================================

// Editor performs caret-aware insertion into a Surface. Caret placement is
// deferred: InsertAtCursor records the caret and RestoreCaret applies it once
// the host has rendered the new content.
type Editor struct {
	surface Surface
	pending int
	hasPend bool
}

// NewEditor returns an editor over s.
func NewEditor(s Surface) *Editor {
	return &Editor{surface: s}
}

// InsertAtCursor splices text over the current selection (or at the caret)
// and returns the caret offset just past the inserted text. It never fails:
// out-of-range or reversed selections are clamped and ordered.
func (e *Editor) InsertAtCursor(text string) int {
	if norm, ok := e.surface.(Normalizer); ok {
		text = norm.Normalize(text)
	}
	value := e.surface.Value()
	n := utf8.RuneCountInString(value)
	start, end := e.surface.Selection()
	start, end = orderedSpan(start, end, n)

	runes := []rune(value)
	var b strings.Builder
	b.Grow(len(value) + len(text))
	b.WriteString(string(runes[:start]))
	b.WriteString(text)
	b.WriteString(string(runes[end:]))

	e.surface.SetValue(b.String())
	// The suffix is already-stored text, so its length survives SetValue.
	e.pending = clamp(utf8.RuneCountInString(e.surface.Value())-(n-end), start, start+utf8.RuneCountInString(text))
	e.hasPend = true
	return e.pending
}

// PendingCaret returns the caret offset waiting to be restored.
func (e *Editor) PendingCaret() (int, bool) {
	return e.pending, e.hasPend
}

// RestoreCaret applies the pending caret, if any, and scrolls the surface to
// reveal it when the content overflows the visible area.
func (e *Editor) RestoreCaret() bool {
	if !e.hasPend {
		return false
	}
	e.surface.SetCaret(e.pending)
	e.hasPend = false
	if e.surface.Overflowing() {
		e.surface.ScrollToCaret()
	}
	return true
}

// Discard drops any pending caret, used when the surface is reset.
func (e *Editor) Discard() {
	e.hasPend = false
}

func orderedSpan(start, end, n int) (int, int) {
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if end < start {
		start, end = end, start
	}
	return start, end
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
