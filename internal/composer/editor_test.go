// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// EDITOR TESTS
// =============================================================================

func TestInsertAtCursor_AppendIsConcatenation(t *testing.T) {
	for _, existing := range []string{"", "hello", "नमस्कार ", "line\n"} {
		buf := NewBuffer()
		buf.SetValue(existing)
		ed := NewEditor(buf)

		ed.InsertAtCursor("world")
		if got := buf.Value(); got != existing+"world" {
			t.Errorf("Value = %q, want %q", got, existing+"world")
		}
	}
}

func TestInsertAtCursor_ReplacesSelection(t *testing.T) {
	buf := NewBuffer()
	buf.SetValue("hello cruel world")
	buf.Select(6, 12)
	ed := NewEditor(buf)

	caret := ed.InsertAtCursor("kind ")
	if got := buf.Value(); got != "hello kind world" {
		t.Errorf("Value = %q", got)
	}
	if caret != 11 {
		t.Errorf("caret = %d, want 11", caret)
	}
}

func TestInsertAtCursor_ReversedAndOutOfRange(t *testing.T) {
	buf := NewBuffer()
	buf.SetValue("abcdef")
	buf.selFrom, buf.selTo = 99, 2
	ed := NewEditor(buf)

	ed.InsertAtCursor("X")
	if got := buf.Value(); got != "abX" {
		t.Errorf("Value = %q, want %q", got, "abX")
	}
}

func TestInsertAtCursor_RuneOffsets(t *testing.T) {
	buf := NewBuffer()
	buf.SetValue("मराठी")
	buf.SetCaret(2)
	ed := NewEditor(buf)

	caret := ed.InsertAtCursor("-")
	if got := buf.Value(); got != "मर-ाठी" {
		t.Errorf("Value = %q", got)
	}
	if caret != 3 {
		t.Errorf("caret = %d, want 3", caret)
	}
}

func TestRestoreCaret_Deferred(t *testing.T) {
	buf := NewBuffer()
	buf.SetValue("ab")
	buf.SetCaret(1)
	ed := NewEditor(buf)

	ed.InsertAtCursor("XYZ")

	// SetValue moved the caret to the end; restoration is pending.
	if start, _ := buf.Selection(); start != 5 {
		t.Errorf("caret before restore = %d, want 5", start)
	}
	if off, ok := ed.PendingCaret(); !ok || off != 4 {
		t.Errorf("PendingCaret = %d, %v", off, ok)
	}

	if !ed.RestoreCaret() {
		t.Fatal("RestoreCaret returned false")
	}
	if start, end := buf.Selection(); start != 4 || end != 4 {
		t.Errorf("caret after restore = %d..%d, want 4", start, end)
	}
	if ed.RestoreCaret() {
		t.Error("second RestoreCaret should be a no-op")
	}
}

func TestRestoreCaret_ScrollsWhenOverflowing(t *testing.T) {
	buf := NewBufferWithRows(2)
	ed := NewEditor(buf)

	ed.InsertAtCursor("one")
	ed.RestoreCaret()
	if buf.Scrolls() != 0 {
		t.Errorf("scrolled without overflow")
	}

	ed.InsertAtCursor("\ntwo\nthree")
	ed.RestoreCaret()
	if buf.Scrolls() != 1 {
		t.Errorf("Scrolls = %d, want 1", buf.Scrolls())
	}
}

func TestDiscard(t *testing.T) {
	buf := NewBuffer()
	ed := NewEditor(buf)
	ed.InsertAtCursor("x")
	ed.Discard()
	if _, ok := ed.PendingCaret(); ok {
		t.Error("pending caret survived Discard")
	}
}

// =============================================================================
// RESIZER TESTS
// =============================================================================

func TestResizer_OnlyLatestTicketIsDue(t *testing.T) {
	r := NewResizer(100*time.Millisecond, 6)

	first := r.Schedule()
	second := r.Schedule()
	third := r.Schedule()

	if third.Delay != 100*time.Millisecond {
		t.Errorf("Delay = %v", third.Delay)
	}
	if r.Due(first) || r.Due(second) {
		t.Error("superseded ticket reported due")
	}
	if !r.Due(third) {
		t.Fatal("latest ticket not due")
	}
	if r.Due(third) {
		t.Error("ticket due twice")
	}
	if r.Pending() {
		t.Error("still pending after due")
	}
}

func TestResizer_Cancel(t *testing.T) {
	r := NewResizer(0, 6)
	tk := r.Schedule()
	r.Cancel()
	if r.Due(tk) {
		t.Error("cancelled ticket reported due")
	}
}

func TestResizer_ApplyClampsToMaxRows(t *testing.T) {
	r := NewResizer(0, 6)

	tests := []struct {
		required int
		want     Layout
	}{
		{0, Layout{Rows: 1}},
		{1, Layout{Rows: 1}},
		{6, Layout{Rows: 6}},
		{7, Layout{Rows: 6, Scroll: true}},
		{500, Layout{Rows: 6, Scroll: true}},
	}
	for _, tt := range tests {
		if got := r.Apply(tt.required); got != tt.want {
			t.Errorf("Apply(%d) = %+v, want %+v", tt.required, got, tt.want)
		}
	}

	r.SetLimits(0, 3)
	if got := r.Apply(5); got != (Layout{Rows: 3, Scroll: true}) {
		t.Errorf("after SetLimits Apply(5) = %+v", got)
	}
}

// expandingBuffer rewrites tabs on SetValue, like a terminal surface does.
type expandingBuffer struct {
	*Buffer
}

func (b expandingBuffer) Normalize(text string) string {
	return strings.ReplaceAll(text, "\t", "  ")
}

func (b expandingBuffer) SetValue(text string) {
	b.Buffer.SetValue(b.Normalize(text))
}

func TestInsertAtCursor_CaretFollowsNormalizedText(t *testing.T) {
	buf := expandingBuffer{NewBuffer()}
	buf.SetValue("x\ty")
	buf.SetCaret(1)
	ed := NewEditor(buf)

	caret := ed.InsertAtCursor("a\tb")
	if got := buf.Value(); got != "xa  b  y" {
		t.Fatalf("Value = %q", got)
	}
	if caret != 5 {
		t.Errorf("caret = %d, want 5", caret)
	}
}
