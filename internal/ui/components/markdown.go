// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// MARKDOWN
// =============================================================================

// Markdown renders summaries through glamour. A renderer is built per width
// and reused until the width or style changes.
type Markdown struct {
	style    string
	enabled  bool
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer using a glamour standard style name.
func NewMarkdown(style string, enabled bool) *Markdown {
	return &Markdown{style: style, enabled: enabled}
}

// SetEnabled toggles markdown rendering. Disabled output is plain wrapped
// text.
func (m *Markdown) SetEnabled(on bool) { m.enabled = on }

// Enabled reports whether markdown rendering is on.
func (m *Markdown) Enabled() bool { return m.enabled }

// SetStyle changes the glamour style.
func (m *Markdown) SetStyle(style string) {
	if style != m.style {
		m.style = style
		m.renderer = nil
	}
}

// Render returns text laid out at width. Rendering errors fall back to plain
// text.
func (m *Markdown) Render(text string, width int) string {
	if width < 20 {
		width = 20
	}
	if !m.enabled {
		return plain(text, width)
	}
	if m.renderer == nil || m.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return plain(text, width)
		}
		m.renderer, m.width = r, width
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return plain(text, width)
	}
	return strings.Trim(out, "\n")
}

func plain(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}
