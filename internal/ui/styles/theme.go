// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles used by the chat view.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderInfo  lipgloss.Style

	// Transcript
	UserLabel     lipgloss.Style
	UserBody      lipgloss.Style
	SummaryLabel  lipgloss.Style
	SummaryBody   lipgloss.Style
	SummaryStats  lipgloss.Style
	SystemText    lipgloss.Style
	ErrorText     lipgloss.Style
	Snippet       lipgloss.Style
	SnippetHeader lipgloss.Style

	// Composer
	ComposerBox        lipgloss.Style
	ComposerBoxFocused lipgloss.Style
	ComposerBusy       lipgloss.Style
	Placeholder        lipgloss.Style
	Chip               lipgloss.Style
	ChipPending        lipgloss.Style

	// Status bar
	StatusBar     lipgloss.Style
	StatusReady   lipgloss.Style
	StatusLoading lipgloss.Style
	StatusDown    lipgloss.Style
	StatusModel   lipgloss.Style
	StatusHint    lipgloss.Style
	Notice        lipgloss.Style
	NoticeWarn    lipgloss.Style
	NoticeError   lipgloss.Style

	Muted lipgloss.Style
	Bold  lipgloss.Style
}

// NewTheme builds the theme. mode is dark, light or auto; auto asks the
// terminal for its background.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()
	var isDark bool
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(Saffron)
	t.HeaderInfo = lipgloss.NewStyle().Foreground(TextSecondary)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.UserBody = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBorder).
		PaddingLeft(1)
	t.SummaryLabel = lipgloss.NewStyle().Bold(true).Foreground(Saffron)
	t.SummaryBody = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(SummaryBorder).
		PaddingLeft(1)
	t.SummaryStats = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.SystemText = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.Snippet = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(SnippetBorder).
		Padding(0, 1)
	t.SnippetHeader = lipgloss.NewStyle().Foreground(Purple).Bold(true)

	t.ComposerBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)
	t.ComposerBoxFocused = t.ComposerBox.BorderForeground(Cyan)
	t.ComposerBusy = t.ComposerBox.BorderForeground(Amber)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted)
	t.Chip = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1).
		MarginRight(1)
	t.ChipPending = t.Chip.Background(OverlayDim).Foreground(TextSecondary)

	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Padding(0, 1)
	t.StatusReady = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusLoading = lipgloss.NewStyle().Foreground(Amber)
	t.StatusDown = lipgloss.NewStyle().Foreground(Rose)
	t.StatusModel = lipgloss.NewStyle().Foreground(Purple)
	t.StatusHint = lipgloss.NewStyle().Foreground(TextMuted)
	t.Notice = lipgloss.NewStyle().Foreground(TextSecondary)
	t.NoticeWarn = lipgloss.NewStyle().Foreground(Amber)
	t.NoticeError = lipgloss.NewStyle().Foreground(Rose)

	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Bold = lipgloss.NewStyle().Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)

// GlamourStyle returns the glamour style name matching the background.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// ChromaStyle returns the chroma style name matching the background.
func (t *Theme) ChromaStyle() string {
	if t.IsDark {
		return "catppuccin-mocha"
	}
	return "catppuccin-latte"
}
