// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PASTE SCENARIOS
// =============================================================================

func TestPasteText_FiftyLines(t *testing.T) {
	c, _, _ := newTestComposer(t)
	m := c.Limits().Markers

	lines := make([]string, 50)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	block := strings.Join(lines, "\n")

	d := c.PasteText(block)
	require.False(t, d.Verbatim)

	got := c.Text()
	assert.True(t, strings.HasPrefix(got, m.Begin))
	assert.True(t, strings.HasSuffix(got, m.End+"\n"))
	assert.Equal(t, m.Begin+"\n"+block+"\n"+m.End+"\n", got)
}

func TestPasteText_SmallIsVerbatim(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.Type("say ")

	d := c.PasteText("hi\nthere")
	assert.True(t, d.Verbatim)
	assert.Equal(t, "say hi\nthere", c.Text())
}

func TestPasteText_AlreadyWrapped(t *testing.T) {
	c, _, _ := newTestComposer(t)
	block := WrapSnippet(strings.Repeat("x\n", 20), c.Limits().Markers)

	c.PasteText(block)
	assert.Equal(t, block, c.Text())
}

func TestInterceptPaste(t *testing.T) {
	c, _, _ := newTestComposer(t)

	d := c.InterceptPaste("short")
	assert.True(t, d.Verbatim)
	assert.Empty(t, c.Text(), "verbatim pastes are left to the host")
	_, ok := c.PendingResize()
	assert.False(t, ok)

	d = c.InterceptPaste(strings.Repeat("y\n", 10))
	assert.False(t, d.Verbatim)
	assert.Equal(t, d.Wrapped, c.Text())
	_, ok = c.PendingResize()
	assert.True(t, ok)
}

func TestPasteText_CaretAfterInsertion(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.SetValue("ab")
	buf.SetCaret(1)

	c.PasteText("XY")
	require.True(t, c.RestoreCaret())
	start, end := buf.Selection()
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_ClearsTextAndAttachmentsTogether(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.Type("hello")
	_, err := c.Attachments().AddImage(context.Background(), c.Preprocessor(), pngFile("a.png"), FromFile)
	require.NoError(t, err)

	pending, err := c.Attachments().Begin(FromFile, "late.png")
	require.NoError(t, err)

	c.Reset()

	assert.Equal(t, "", c.Text())
	assert.Equal(t, 0, c.Attachments().Len())
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, Layout{Rows: 1}, c.Layout())

	// A late completion from before the reset must not reappear.
	_, ok := c.Attachments().Complete(pending, fakeResult("late.png"))
	assert.False(t, ok)
	assert.Equal(t, 0, c.Attachments().Len())
}

func TestClearInput(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.Type("hello")
	_, err := c.Attachments().AddImage(context.Background(), c.Preprocessor(), pngFile("a.png"), FromFile)
	require.NoError(t, err)

	c.Handle().ClearInput()
	assert.Empty(t, c.Text())
	assert.Equal(t, 0, c.Attachments().Len())
	_, ok := c.PendingResize()
	assert.True(t, ok)
}

// =============================================================================
// COMMIT WITH ATTACHMENTS
// =============================================================================

func TestCommit_IncludesAllAttachments(t *testing.T) {
	c, buf, rec := newTestComposer(t)
	buf.Type("describe these")
	for _, name := range []string{"a.png", "b.png"} {
		_, err := c.Attachments().AddImage(context.Background(), c.Preprocessor(), pngFile(name), FromFile)
		require.NoError(t, err)
	}

	require.Equal(t, Submitted, c.Enter(false))
	require.Len(t, rec.submits, 1)
	msg := rec.submits[0]
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "a.png", msg.Attachments[0].Filename)
	assert.Equal(t, "b.png", msg.Attachments[1].Filename)

	// Ownership passed to the caller: resetting does not touch its copy.
	c.Reset()
	assert.Len(t, msg.Attachments, 2)
}

func TestCommit_ImagesOnlyIsRefused(t *testing.T) {
	c, _, rec := newTestComposer(t)
	_, err := c.Attachments().AddImage(context.Background(), c.Preprocessor(), pngFile("a.png"), FromFile)
	require.NoError(t, err)

	assert.Equal(t, Composing, c.State())
	assert.Equal(t, Refused, c.Enter(false))
	assert.Equal(t, RefuseEmpty, c.LastRefusal())
	assert.Empty(t, rec.submits)
}

func TestAttachThreeImagesCapTwo(t *testing.T) {
	buf := NewBuffer()
	l := DefaultLimits()
	l.MaxImages = 2
	c := New(l, buf, Collaborators{})

	s := c.Attachments()
	tickets := make([]Ticket, 3)
	for i := range tickets {
		tk, err := s.Begin(FromFile, fmt.Sprintf("%d.png", i))
		require.NoError(t, err)
		tickets[i] = tk
	}
	for _, i := range []int{1, 2, 0} {
		s.Complete(tickets[i], fakeResult(tickets[i].Filename))
	}

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "1.png", list[0].Filename)
	assert.Equal(t, "2.png", list[1].Filename)
}

// =============================================================================
// RESIZE
// =============================================================================

func TestResizeFlow(t *testing.T) {
	c, buf, _ := newTestComposer(t)

	buf.Type("a\nb\nc")
	first := c.Changed()
	buf.Type("\nd")
	second := c.Changed()

	_, applied := c.ResizeDue(first)
	assert.False(t, applied, "superseded ticket must not resize")

	layout, applied := c.ResizeDue(second)
	require.True(t, applied)
	assert.Equal(t, Layout{Rows: 4}, layout)

	c.PasteText(strings.Repeat("x\n", 3))
	tk, ok := c.PendingResize()
	require.True(t, ok)
	layout, applied = c.ResizeDue(tk)
	require.True(t, applied)
	assert.Equal(t, Layout{Rows: 6, Scroll: true}, layout)
}

func TestHandle_Resize(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.Type("1\n2")
	tk := c.Changed()

	h := c.Handle()
	assert.Equal(t, Layout{Rows: 2}, h.Resize())

	_, applied := c.ResizeDue(tk)
	assert.False(t, applied, "Resize consumes the pending debounce")
}

func TestHandle_TextAndFocus(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	h := c.Handle()

	h.PasteText("नमस्कार")
	assert.Equal(t, "नमस्कार", h.Text())

	h.Focus()
	assert.True(t, buf.Focused())

	h.Reset()
	assert.Empty(t, h.Text())
}

func TestSetLimits_KeepsDraft(t *testing.T) {
	c, buf, _ := newTestComposer(t)
	buf.Type("draft")

	l := DefaultLimits()
	l.MaxRows = 2
	require.NoError(t, c.SetLimits(l))
	assert.Equal(t, "draft", c.Text())
	assert.Equal(t, 2, c.Limits().MaxRows)

	bad := l
	bad.MaxRows = 0
	assert.Error(t, c.SetLimits(bad))
	assert.Equal(t, 2, c.Limits().MaxRows)
}

func TestAttachText(t *testing.T) {
	c, _, _ := newTestComposer(t)
	err := c.AttachText(File{Name: "a.txt", MIMEType: "text/plain", Data: []byte("body")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.Text(), "File: a.txt:\n"))
	_, ok := c.PendingResize()
	assert.True(t, ok)
}
