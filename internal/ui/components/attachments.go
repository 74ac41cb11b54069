// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// =============================================================================
// ATTACHMENT CHIPS
// =============================================================================

// maxChipName bounds the filename shown in a chip.
const maxChipName = 24

// AttachmentBar renders staged images as a row of chips above the composer.
type AttachmentBar struct {
	theme   *styles.Theme
	width   int
	items   []composer.Attachment
	pending int
}

// NewAttachmentBar creates an empty bar.
func NewAttachmentBar(theme *styles.Theme) *AttachmentBar {
	return &AttachmentBar{theme: theme, width: 80}
}

// SetWidth sets the wrap width.
func (b *AttachmentBar) SetWidth(w int) { b.width = w }

// Set replaces the displayed attachments and the in-flight count.
func (b *AttachmentBar) Set(items []composer.Attachment, pending int) {
	b.items = items
	b.pending = pending
}

// Empty reports whether there is nothing to draw.
func (b *AttachmentBar) Empty() bool { return len(b.items) == 0 && b.pending == 0 }

// ChipLabel formats one attachment: index, name, size and dimensions.
func ChipLabel(i int, a composer.Attachment) string {
	name := a.Filename
	if name == "" {
		name = composer.PastedImageName
	}
	label := fmt.Sprintf("%d %s %s", i+1, util.TruncateWidth(name, maxChipName), units.HumanSize(float64(a.Size)))
	if a.Width > 0 && a.Height > 0 {
		label += fmt.Sprintf(" %dx%d", a.Width, a.Height)
	}
	return label
}

// View renders the chips, wrapping onto further lines when needed.
func (b *AttachmentBar) View() string {
	if b.Empty() {
		return ""
	}
	chip, pendingChip := lipgloss.NewStyle(), lipgloss.NewStyle()
	if b.theme != nil {
		chip, pendingChip = b.theme.Chip, b.theme.ChipPending
	}

	var chips []string
	for i, a := range b.items {
		chips = append(chips, chip.Render(ChipLabel(i, a)))
	}
	if b.pending > 0 {
		chips = append(chips, pendingChip.Render(fmt.Sprintf("processing %d…", b.pending)))
	}

	var lines []string
	var row []string
	rowWidth := 0
	for _, c := range chips {
		w := lipgloss.Width(c)
		if rowWidth > 0 && rowWidth+w > b.width {
			lines = append(lines, strings.Join(row, ""))
			row, rowWidth = nil, 0
		}
		row = append(row, c)
		rowWidth += w
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, ""))
	}
	return strings.Join(lines, "\n")
}
