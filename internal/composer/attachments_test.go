// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResult returns a preprocessing result labelled by name.
func fakeResult(name string) PreprocessResult {
	f := File{Name: name, MIMEType: "image/png", Data: []byte(name)}
	return PreprocessResult{DataURI: DataURI(f.MIMEType, f.Data), File: f, Width: 1, Height: 1}
}

var echoPreprocessor = PreprocessorFunc(func(_ context.Context, f File) (PreprocessResult, error) {
	return fakeResult(f.Name), nil
})

func limitsWithCap(n int) Limits {
	l := DefaultLimits()
	l.MaxImages = n
	return l
}

func pngFile(name string) File {
	return File{Name: name, MIMEType: "image/png", Data: []byte(name)}
}

// =============================================================================
// CAPACITY
// =============================================================================

func TestAttachmentStore_CapInSequence(t *testing.T) {
	s := NewAttachmentStore(limitsWithCap(3), nil)

	var capErrs int
	for i := 0; i < 5; i++ {
		_, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("img"), FromFile)
		if errors.Is(err, ErrCapacity) {
			capErrs++
		} else {
			require.NoError(t, err)
		}
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 2, capErrs)
}

func TestAttachmentStore_CapCompletionOrder(t *testing.T) {
	s := NewAttachmentStore(limitsWithCap(2), nil)

	t1, err := s.Begin(FromFile, "one.png")
	require.NoError(t, err)
	t2, err := s.Begin(FromFile, "two.png")
	require.NoError(t, err)
	t3, err := s.Begin(FromFile, "three.png")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Pending())

	// Completion order differs from initiation order.
	_, ok := s.Complete(t3, fakeResult("three.png"))
	assert.True(t, ok)
	_, ok = s.Complete(t1, fakeResult("one.png"))
	assert.True(t, ok)
	_, ok = s.Complete(t2, fakeResult("two.png"))
	assert.False(t, ok, "third completion exceeds the cap")

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "three.png", list[0].Filename)
	assert.Equal(t, "one.png", list[1].Filename)
	assert.Equal(t, 0, s.Pending())
}

func TestAttachmentStore_BeginAtCap(t *testing.T) {
	s := NewAttachmentStore(limitsWithCap(1), nil)
	_, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("a"), FromFile)
	require.NoError(t, err)

	_, err = s.Begin(FromFile, "b")
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestAttachmentStore_ImagesDisabled(t *testing.T) {
	l := DefaultLimits()
	l.ImagePolicy = ImagesDisabled
	s := NewAttachmentStore(l, nil)

	_, err := s.Begin(Pasted, "")
	assert.ErrorIs(t, err, ErrImagesDisabled)
	assert.Equal(t, 0, s.Len())
}

func TestAttachmentStore_UnsupportedType(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)
	_, err := s.AddImage(context.Background(), echoPreprocessor,
		File{Name: "doc.pdf", MIMEType: "application/pdf"}, FromFile)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, 0, s.Pending())
}

// =============================================================================
// GHOSTS
// =============================================================================

func TestAttachmentStore_RemoveInFlight(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)

	tk, err := s.Begin(FromFile, "slow.png")
	require.NoError(t, err)
	assert.True(t, s.Remove(tk.ID))

	_, ok := s.Complete(tk, fakeResult("slow.png"))
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestAttachmentStore_ClearInvalidatesTickets(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)

	tk, err := s.Begin(FromFile, "slow.png")
	require.NoError(t, err)
	s.Clear()

	_, ok := s.Complete(tk, fakeResult("slow.png"))
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Pending())
}

func TestAttachmentStore_Fail(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)
	tk, err := s.Begin(FromFile, "broken.png")
	require.NoError(t, err)

	s.Fail(tk, errors.New("decode failed"))
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 0, s.Len())
}

func TestAttachmentStore_AddImageFailure(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)
	boom := errors.New("boom")
	p := PreprocessorFunc(func(context.Context, File) (PreprocessResult, error) {
		return PreprocessResult{}, boom
	})

	_, err := s.AddImage(context.Background(), p, pngFile("x.png"), FromFile)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Pending())
}

// =============================================================================
// REMOVAL AND PROVENANCE
// =============================================================================

func TestAttachmentStore_Remove(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)
	a, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("a.png"), FromFile)
	require.NoError(t, err)
	b, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("b.png"), FromFile)
	require.NoError(t, err)

	assert.False(t, s.Remove("missing"))
	assert.True(t, s.Remove(a.ID))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	got, ok := s.RemoveAt(0)
	assert.True(t, ok)
	assert.Equal(t, b.ID, got.ID)
	_, ok = s.RemoveAt(0)
	assert.False(t, ok)
}

func TestAttachmentStore_Provenance(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)

	pasted, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("clipboard.png"), Pasted)
	require.NoError(t, err)
	assert.Equal(t, PastedImageName, pasted.Filename)
	assert.Equal(t, Pasted, pasted.Provenance)
	assert.Equal(t, KindImage, pasted.Kind)
	assert.True(t, strings.HasPrefix(pasted.Data, "data:image/png;base64,"))

	file, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("photo.png"), FromFile)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", file.Filename)
	assert.NotEqual(t, pasted.ID, file.ID)
}

func TestAttachmentStore_ListIsCopy(t *testing.T) {
	s := NewAttachmentStore(DefaultLimits(), nil)
	_, err := s.AddImage(context.Background(), echoPreprocessor, pngFile("a.png"), FromFile)
	require.NoError(t, err)

	list := s.List()
	list[0].Filename = "changed"
	assert.Equal(t, "a.png", s.List()[0].Filename)
}

// =============================================================================
// TEXT FILES
// =============================================================================

func TestAttachmentStore_AddTextFile(t *testing.T) {
	buf := NewBuffer()
	buf.SetValue("see: ")
	s := NewAttachmentStore(DefaultLimits(), NewEditor(buf))

	err := s.AddTextFile(File{Name: "notes.md", MIMEType: "text/markdown", Data: []byte("a\r\nb")})
	require.NoError(t, err)

	m := DefaultLimits().Markers
	assert.Equal(t, "see: File: notes.md:\n"+m.Begin+"\na\nb\n"+m.End+"\n", buf.Value())
	assert.Equal(t, 0, s.Len(), "text files are never staged")
}

func TestAttachmentStore_AddTextFileRejections(t *testing.T) {
	l := DefaultLimits()
	l.MaxTextFileBytes = 4
	s := NewAttachmentStore(l, NewEditor(NewBuffer()))

	err := s.AddTextFile(File{Name: "big.txt", MIMEType: "text/plain", Data: []byte("12345")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	err = s.AddTextFile(File{Name: "bin.txt", MIMEType: "text/plain", Data: []byte{0xff, 0xfe}})
	assert.ErrorIs(t, err, ErrNotText)

	err = s.AddTextFile(File{Name: "a.pdf", MIMEType: "application/pdf", Data: []byte("x")})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
