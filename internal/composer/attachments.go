// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jeranaias/saransh-tui/internal/logging"
)

// =============================================================================
// ATTACHMENT TYPES
// =============================================================================

// Kind is the attachment content kind.
type Kind string

const (
	KindImage       Kind = "image"
	KindTextSnippet Kind = "text-snippet"
)

// Provenance records where an attachment came from.
type Provenance string

const (
	Pasted   Provenance = "pasted"
	FromFile Provenance = "from-file"
)

// PastedImageName is the display label for clipboard images.
const PastedImageName = "pasted-image"

// Attachment is a staged image belonging to the draft.
type Attachment struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	MIMEType   string     `json:"mime_type"`
	Data       string     `json:"data"` // data URI
	Size       int64      `json:"size"`
	Provenance Provenance `json:"provenance"`
	Filename   string     `json:"filename"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	AddedAt    time.Time  `json:"added_at"`
}

// Ticket identifies one in-flight image. It is only honoured by Complete
// while it is still tracked and belongs to the current generation.
type Ticket struct {
	ID         string
	Provenance Provenance
	Filename   string
	gen        uint64
}

// Errors returned by the store.
var (
	ErrCapacity        = errors.New("attachment limit reached")
	ErrImagesDisabled  = errors.New("image attachments are disabled")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDropped         = errors.New("attachment was removed before it finished loading")
	ErrNotText         = errors.New("file is not valid UTF-8 text")
)

// =============================================================================
// ATTACHMENT STORE
// =============================================================================

// AttachmentStore holds the staged images for the draft. Image work is split
// into Begin and Complete so that removals and clears issued in between win.
type AttachmentStore struct {
	mu       sync.Mutex
	limits   Limits
	items    []Attachment
	inflight map[string]Ticket
	gen      uint64
	editor   *Editor
	log      *slog.Logger
	now      func() time.Time
}

// NewAttachmentStore returns an empty store. editor receives inlined text
// files and may be nil when text files are not supported.
func NewAttachmentStore(limits Limits, editor *Editor) *AttachmentStore {
	return &AttachmentStore{
		limits:   limits,
		inflight: make(map[string]Ticket),
		editor:   editor,
		log:      logging.Component("attachments"),
		now:      time.Now,
	}
}

// SetLimits replaces the limits. Already staged images are kept even if the
// new cap is lower; the cap applies to later additions.
func (s *AttachmentStore) SetLimits(l Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = l
}

// Begin reserves a ticket for an image about to be preprocessed.
func (s *AttachmentStore) Begin(prov Provenance, filename string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.limits.ImagePolicy == ImagesDisabled {
		s.log.Info("image rejected", "reason", "disabled", "filename", filename)
		return Ticket{}, ErrImagesDisabled
	}
	if len(s.items) >= s.limits.MaxImages {
		s.log.Warn("image dropped", "reason", "capacity", "filename", filename,
			"staged", len(s.items), "cap", s.limits.MaxImages)
		return Ticket{}, ErrCapacity
	}

	if prov == Pasted {
		filename = PastedImageName
	}
	t := Ticket{ID: uuid.NewString(), Provenance: prov, Filename: filename, gen: s.gen}
	s.inflight[t.ID] = t
	return t, nil
}

// Complete stages the preprocessed image for t. It returns false when the
// ticket was removed or cleared in the meantime, or when the cap filled up
// while the image was being processed.
func (s *AttachmentStore) Complete(t Ticket, res PreprocessResult) (Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[t.ID]; !ok || t.gen != s.gen {
		s.log.Debug("stale image completion discarded", "id", t.ID, "filename", t.Filename)
		return Attachment{}, false
	}
	delete(s.inflight, t.ID)

	if len(s.items) >= s.limits.MaxImages {
		s.log.Warn("image dropped", "reason", "capacity", "filename", t.Filename,
			"staged", len(s.items), "cap", s.limits.MaxImages)
		return Attachment{}, false
	}

	a := Attachment{
		ID:         t.ID,
		Kind:       KindImage,
		MIMEType:   res.File.MIMEType,
		Data:       res.DataURI,
		Size:       res.File.Size(),
		Provenance: t.Provenance,
		Filename:   t.Filename,
		Width:      res.Width,
		Height:     res.Height,
		AddedAt:    s.now(),
	}
	s.items = append(s.items, a)
	return a, true
}

// Fail forgets t after a read or decode error.
func (s *AttachmentStore) Fail(t Ticket, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.inflight[t.ID]; ok && cur.gen == t.gen {
		delete(s.inflight, t.ID)
	}
	s.log.Error("image failed to load", "filename", t.Filename, "error", err)
}

// Remove drops the staged or in-flight attachment with id. It reports
// whether anything was removed.
func (s *AttachmentStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.inflight[id]; ok {
		delete(s.inflight, id)
		return true
	}
	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt drops the staged attachment at index i (0-based).
func (s *AttachmentStore) RemoveAt(i int) (Attachment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.items) {
		return Attachment{}, false
	}
	a := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return a, true
}

// Clear drops everything and invalidates all outstanding tickets.
func (s *AttachmentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.inflight = make(map[string]Ticket)
	s.gen++
}

// List returns a copy of the staged attachments in completion order.
func (s *AttachmentStore) List() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Attachment, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of staged attachments.
func (s *AttachmentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Pending returns the number of in-flight images.
func (s *AttachmentStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// =============================================================================
// CONVENIENCE
// =============================================================================

// AddImage stages f synchronously: Begin, preprocess, Complete.
func (s *AttachmentStore) AddImage(ctx context.Context, p Preprocessor, f File, prov Provenance) (Attachment, error) {
	if !s.acceptsImage(f.MIMEType) {
		return Attachment{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, f.Name, f.MIMEType)
	}
	t, err := s.Begin(prov, f.Name)
	if err != nil {
		return Attachment{}, err
	}
	res, err := p.Preprocess(ctx, f)
	if err != nil {
		s.Fail(t, err)
		return Attachment{}, err
	}
	a, ok := s.Complete(t, res)
	if !ok {
		if s.Len() >= s.maxImages() {
			return Attachment{}, ErrCapacity
		}
		return Attachment{}, ErrDropped
	}
	return a, nil
}

// AddTextFile inlines f at the caret as a "File: <name>:" snippet block. Text
// files are never staged.
func (s *AttachmentStore) AddTextFile(f File) error {
	s.mu.Lock()
	limits := s.limits
	s.mu.Unlock()

	if !limits.AcceptsText(f.MIMEType) {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, f.Name, f.MIMEType)
	}
	if limits.MaxTextFileBytes > 0 && f.Size() > limits.MaxTextFileBytes {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, f.Name, f.Size(), limits.MaxTextFileBytes)
	}
	if !utf8.Valid(f.Data) {
		s.log.Error("text file failed to load", "filename", f.Name, "error", ErrNotText)
		return fmt.Errorf("%w: %s", ErrNotText, f.Name)
	}
	if s.editor == nil {
		return errors.New("no editor attached")
	}
	content := NormalizeNewlines(string(f.Data))
	s.editor.InsertAtCursor(FormatTextFile(f.Name, content, limits.Markers))
	return nil
}

func (s *AttachmentStore) acceptsImage(mimeType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits.AcceptsImage(mimeType)
}

func (s *AttachmentStore) maxImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits.MaxImages
}
