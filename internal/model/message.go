// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a transcript entry.
type Role string

const (
	RoleUser    Role = "user"
	RoleSummary Role = "summary"
	RoleSystem  Role = "system"
	RoleError   Role = "error"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleSummary:
		return "सारांश"
	case RoleSystem:
		return "System"
	case RoleError:
		return "Error"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// AttachmentRef describes an attachment that went out with a user message.
// The data URI itself is not kept in the transcript.
type AttachmentRef struct {
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Message is a single transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`

	Attachments []AttachmentRef `json:"attachments,omitempty"`

	// Pending marks a summary still waiting on the backend.
	Pending bool `json:"-"`

	// Summary metadata
	Model    summarizer.Model  `json:"model,omitempty"`
	Endpoint string            `json:"endpoint,omitempty"`
	Tone     summarizer.Tone   `json:"tone,omitempty"`
	Length   summarizer.Length `json:"length,omitempty"`
	Duration time.Duration     `json:"duration_ns,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage records a committed composer message.
func NewUserMessage(msg composer.Message) *Message {
	m := NewMessage(RoleUser, msg.Text)
	for _, a := range msg.Attachments {
		m.Attachments = append(m.Attachments, AttachmentRef{
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     a.Size,
			Width:    a.Width,
			Height:   a.Height,
		})
	}
	return m
}

// NewPendingSummary creates the placeholder shown while the backend works.
func NewPendingSummary(model summarizer.Model) *Message {
	m := NewMessage(RoleSummary, "")
	m.Pending = true
	m.Model = model
	return m
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// NewErrorMessage creates a message describing a failed turn.
func NewErrorMessage(err error) *Message {
	return NewMessage(RoleError, err.Error())
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Complete fills a pending summary from a backend result.
func (m *Message) Complete(res *summarizer.Result) {
	m.Pending = false
	m.Content = res.Summary
	m.Model = res.Model
	m.Endpoint = res.Endpoint
	if res.Model.Tunable() {
		m.Tone = res.Params.Tone
		m.Length = res.Params.Length
	}
	m.Duration = res.Duration
}

// Fail turns a pending summary into an error entry.
func (m *Message) Fail(err error) {
	m.Pending = false
	m.Role = RoleError
	m.Content = err.Error()
}

// Preview returns a truncated single-line preview of the content.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.FirstLine(m.Content), maxLen)
}

// IsEmpty returns true if the message has no content and no attachments.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.Attachments) == 0
}

// FormatStats returns the summary footer, e.g. "Pegasus-Marathi | formal/short | 2.4s".
func (m *Message) FormatStats() string {
	if m.Role != RoleSummary || m.Pending {
		return ""
	}
	parts := []string{string(m.Model)}
	if m.Tone != "" && m.Length != "" {
		parts = append(parts, string(m.Tone)+"/"+string(m.Length))
	}
	if m.Duration > 0 {
		parts = append(parts, formatDuration(m.Duration))
	}
	return strings.Join(parts, " | ")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
