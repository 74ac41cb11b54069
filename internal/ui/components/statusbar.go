// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

// =============================================================================
// BACKEND STATE
// =============================================================================

// Backend is the readiness of the summarization backend as last observed.
type Backend int

const (
	BackendUnknown Backend = iota
	BackendLoading         // warm-up in progress
	BackendReady
	BackendDown
)

// String returns the display string for the state.
func (b Backend) String() string {
	switch b {
	case BackendLoading:
		return "loading model"
	case BackendReady:
		return "ready"
	case BackendDown:
		return "backend offline"
	default:
		return "checking"
	}
}

// Icon returns a shape that carries the state without color.
func (b Backend) Icon() string {
	switch b {
	case BackendReady:
		return styles.StatusIndicators.Success
	case BackendDown:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

// NoticeLevel grades a transient status line message.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom line: backend state, model selection, activity and
// key hints.
type StatusBar struct {
	Backend     Backend
	ModelLabel  string
	Busy        bool
	Activity    string // spinner view while busy
	Notice      string
	NoticeLevel NoticeLevel
	Width       int
	ShowHints   bool
	theme       *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, ShowHints: true, theme: theme}
}

// SetWidth updates the width.
func (s *StatusBar) SetWidth(w int) { s.Width = w }

// SetNotice shows msg until it is cleared or replaced.
func (s *StatusBar) SetNotice(msg string, level NoticeLevel) {
	s.Notice = msg
	s.NoticeLevel = level
}

// ClearNotice removes the notice.
func (s *StatusBar) ClearNotice() { s.Notice = "" }

// Hints returns the key hints for the current state.
func (s *StatusBar) Hints() string {
	if s.Busy {
		return "esc cancel"
	}
	if s.Width < 100 {
		return "enter send · ctrl+o model · /help"
	}
	return "enter send · alt+enter newline · ctrl+v image · ctrl+o model · /help"
}

// View renders the bar.
func (s *StatusBar) View() string {
	t := s.theme
	sep := t.Muted.Render(" │ ")

	var left []string
	left = append(left, s.backendStyle().Render(s.Backend.Icon()+" "+s.Backend.String()))
	if s.ModelLabel != "" && s.Width >= 60 {
		left = append(left, t.StatusModel.Render(s.ModelLabel))
	}
	if s.Busy && s.Activity != "" {
		left = append(left, s.Activity)
	}
	if s.Notice != "" {
		left = append(left, s.noticeStyle().Render(s.Notice))
	}
	line := strings.Join(left, sep)

	if s.ShowHints {
		hints := t.StatusHint.Render(s.Hints())
		gap := s.Width - t.StatusBar.GetHorizontalFrameSize() - lipgloss.Width(line) - lipgloss.Width(hints)
		if gap >= 2 {
			line += strings.Repeat(" ", gap) + hints
		}
	}
	return t.StatusBar.Width(s.Width).MaxHeight(1).Render(line)
}

func (s *StatusBar) backendStyle() lipgloss.Style {
	switch s.Backend {
	case BackendReady:
		return s.theme.StatusReady
	case BackendDown:
		return s.theme.StatusDown
	default:
		return s.theme.StatusLoading
	}
}

func (s *StatusBar) noticeStyle() lipgloss.Style {
	switch s.NoticeLevel {
	case NoticeWarn:
		return s.theme.NoticeWarn
	case NoticeError:
		return s.theme.NoticeError
	default:
		return s.theme.Notice
	}
}
