// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/saransh-tui/internal/ui/styles"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the one-line title bar.
type Header struct {
	Title   string
	Tagline string
	Backend string // backend URL
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with the default branding.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:   "सारांश",
		Tagline: "saransh · Marathi & English summaries",
		Width:   80,
		theme:   theme,
	}
}

// SetWidth updates the width.
func (h *Header) SetWidth(w int) { h.Width = w }

// SetBackend sets the URL shown on the right.
func (h *Header) SetBackend(url string) { h.Backend = url }

// View renders the header.
func (h *Header) View() string {
	t := h.theme
	inner := h.Width - t.Header.GetHorizontalFrameSize()

	left := t.HeaderBrand.Render(h.Title)
	if h.Width >= 60 && h.Tagline != "" {
		left += "  " + t.HeaderInfo.Render(h.Tagline)
	}

	right := ""
	if h.Backend != "" {
		room := inner - lipgloss.Width(left) - 2
		if room > 8 {
			right = t.HeaderInfo.Render(util.TruncateWidth(h.Backend, room))
		}
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return t.Header.Width(h.Width).MaxHeight(1).Render(left + strings.Repeat(" ", gap) + right)
}
