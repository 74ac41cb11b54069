// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"errors"
	"testing"
)

// recorder captures collaborator calls.
type recorder struct {
	submits []Message
	cancels int
	ready   bool
	err     error
}

func (r *recorder) collaborators() Collaborators {
	return Collaborators{
		Submit: func(m Message) error {
			r.submits = append(r.submits, m)
			return r.err
		},
		Cancel: func() { r.cancels++ },
		Ready:  func() bool { return r.ready },
	}
}

func newTestComposer(t *testing.T) (*Composer, *Buffer, *recorder) {
	t.Helper()
	buf := NewBuffer()
	rec := &recorder{ready: true}
	c := New(DefaultLimits(), buf, rec.collaborators(), WithPreprocessor(echoPreprocessor))
	return c, buf, rec
}

// =============================================================================
// COMMIT TESTS
// =============================================================================

func TestEnter_SubmitsOnce(t *testing.T) {
	c, buf, rec := newTestComposer(t)
	buf.Type("hello")

	if out := c.Enter(false); out != Submitted {
		t.Fatalf("Enter = %v, want submitted", out)
	}
	if len(rec.submits) != 1 {
		t.Fatalf("Submit called %d times, want 1", len(rec.submits))
	}
	if rec.submits[0].Text != "hello" || len(rec.submits[0].Attachments) != 0 {
		t.Errorf("Submit got %+v", rec.submits[0])
	}

	// The draft is left for the caller to reset.
	if c.Text() != "hello" {
		t.Errorf("text cleared by commit: %q", c.Text())
	}
	if c.State() != Busy {
		t.Errorf("State = %v, want busy", c.State())
	}
}

func TestEnter_BusyGating(t *testing.T) {
	c, buf, rec := newTestComposer(t)
	buf.Type("hello")

	c.Enter(false)
	for i := 0; i < 3; i++ {
		if out := c.Enter(false); out != Refused {
			t.Errorf("Enter while busy = %v, want refused", out)
		}
	}
	if c.Submit() != Refused {
		t.Error("explicit submit while busy should be refused")
	}
	if len(rec.submits) != 1 {
		t.Errorf("Submit called %d times, want 1", len(rec.submits))
	}
	if c.LastRefusal() != RefuseBusy {
		t.Errorf("LastRefusal = %v", c.LastRefusal())
	}
}

func TestEnter_ShiftInsertsNewline(t *testing.T) {
	c, buf, rec := newTestComposer(t)
	buf.Type("hello")

	if out := c.Enter(true); out != InsertNewline {
		t.Fatalf("Enter(shift) = %v", out)
	}
	if c.Text() != "hello\n" {
		t.Errorf("Text = %q, want %q", c.Text(), "hello\n")
	}
	if len(rec.submits) != 0 {
		t.Error("Submit called on shift+enter")
	}

	// Shift+Enter never commits, busy or not.
	c.Enter(false)
	c.Enter(true)
	if len(rec.submits) != 1 {
		t.Errorf("Submit called %d times", len(rec.submits))
	}
}

func TestEnter_Refusals(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		ready  bool
		reason RefusalReason
	}{
		{"empty", "", true, RefuseEmpty},
		{"whitespace", "  \n\t", true, RefuseEmpty},
		{"not ready", "hello", false, RefuseNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, buf, rec := newTestComposer(t)
			rec.ready = tt.ready
			buf.Type(tt.text)

			if out := c.Enter(false); out != Refused {
				t.Errorf("Enter = %v, want refused", out)
			}
			if c.LastRefusal() != tt.reason {
				t.Errorf("LastRefusal = %v, want %v", c.LastRefusal(), tt.reason)
			}
			if len(rec.submits) != 0 {
				t.Error("Submit should not be called")
			}
			if c.Busy() {
				t.Error("refusal must not set busy")
			}
		})
	}
}

func TestSubmit_HandOffFailure(t *testing.T) {
	c, buf, rec := newTestComposer(t)
	rec.err = errors.New("connection refused")
	buf.Type("hello")

	if out := c.Enter(false); out != Failed {
		t.Fatalf("Enter = %v, want failed", out)
	}
	if c.Busy() {
		t.Error("busy after failed hand-off")
	}
	if c.Err() == nil {
		t.Error("Err should report the hand-off failure")
	}

	rec.err = nil
	if out := c.Submit(); out != Submitted {
		t.Errorf("retry = %v, want submitted", out)
	}
}

func TestCancel(t *testing.T) {
	c, buf, rec := newTestComposer(t)

	if c.Cancel() {
		t.Error("Cancel while idle should report false")
	}

	buf.Type("hello")
	c.Enter(false)
	if !c.Cancel() {
		t.Fatal("Cancel while busy should report true")
	}
	if rec.cancels != 1 {
		t.Errorf("transport cancelled %d times", rec.cancels)
	}
	if c.Busy() {
		t.Error("still busy after cancel")
	}
}

func TestDone(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.Type("hello")
	c.Enter(false)
	c.Done()
	if c.State() != Composing {
		t.Errorf("State = %v, want composing", c.State())
	}
	c.Reset()
	if c.State() != Idle {
		t.Errorf("State = %v, want idle", c.State())
	}
}
