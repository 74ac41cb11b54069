// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxMessages bounds the in-memory transcript. Older entries are dropped;
// the history database keeps them.
const MaxMessages = 500

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the message history shown above the composer.
type Transcript struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []*Message `json:"messages"`
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
}

// Add appends msg and returns it.
func (t *Transcript) Add(msg *Message) *Message {
	t.Messages = append(t.Messages, msg)
	t.prune()
	return msg
}

// Find returns the message with id, or nil.
func (t *Transcript) Find(id string) *Message {
	for _, m := range t.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// LastSummary returns the newest completed summary, or nil.
func (t *Transcript) LastSummary() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if m := t.Messages[i]; m.Role == RoleSummary && !m.Pending {
			return m
		}
	}
	return nil
}

// LastUser returns the newest user message, or nil.
func (t *Transcript) LastUser() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return t.Messages[i]
		}
	}
	return nil
}

// Pending returns the in-flight summary placeholder, or nil.
func (t *Transcript) Pending() *Message {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Pending {
			return t.Messages[i]
		}
	}
	return nil
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.Messages) }

// Clear drops all messages.
func (t *Transcript) Clear() {
	t.Messages = nil
}

func (t *Transcript) prune() {
	if over := len(t.Messages) - MaxMessages; over > 0 {
		t.Messages = append([]*Message(nil), t.Messages[over:]...)
	}
}
