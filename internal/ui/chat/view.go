// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/model"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders, top to bottom: header, transcript, attachment chips,
// composer, optional key help and the status bar.
func (m Model) View() string {
	if m.width == 0 {
		return "loading…"
	}

	parts := []string{m.header.View(), m.viewport.View()}
	if !m.bar.Empty() {
		parts = append(parts, m.bar.View())
	}
	parts = append(parts, m.input.View())
	if m.showHelp {
		parts = append(parts, m.help.View(m.keys))
	}

	status := *m.status
	status.Activity = m.spinner.View()
	parts = append(parts, status.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// LAYOUT
// =============================================================================

// relayout sizes every region from the window and gives the transcript the
// remaining rows. Heights are measured from rendered output.
func (m *Model) relayout() {
	if m.width == 0 {
		return
	}
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.bar.SetWidth(m.width)
	m.input.SetWidth(m.width)
	m.help.Width = m.width

	reserved := lipgloss.Height(m.header.View()) + m.input.Height() + 1
	if !m.bar.Empty() {
		reserved += lipgloss.Height(m.bar.View())
	}
	if m.showHelp {
		reserved += lipgloss.Height(m.help.View(m.keys))
	}

	height := m.height - reserved
	if height < 1 {
		height = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
	m.refreshTranscript()
}

// applyLayout resizes the composer and reflows the rest of the screen.
func (m *Model) applyLayout(l composer.Layout) {
	m.input.ApplyLayout(l)
	m.relayout()
}

// refreshTranscript re-renders the messages, following the bottom when the
// view was already there.
func (m *Model) refreshTranscript() {
	follow := m.viewport.AtBottom() || m.composer.Busy()
	activity := ""
	if m.spinner.IsActive() {
		activity = m.spinner.View()
	}
	content := m.messages.Render(m.transcript.Messages, m.viewport.Width, activity)
	if len(m.transcript.Messages) == 0 {
		content = m.theme.Muted.Render(emptyHint)
	}
	m.viewport.SetContent(content)
	if follow {
		m.viewport.GotoBottom()
	}
}

// syncChrome copies composer and backend state into the status bar, the
// attachment bar and the input frame.
func (m *Model) syncChrome() {
	busy := m.composer.Busy()
	store := m.composer.Attachments()
	m.bar.Set(store.List(), store.Pending())
	m.input.SetBusy(busy)
	m.status.Busy = busy
	m.status.Backend = m.sess.backend
	m.status.ModelLabel = model.Label(m.selModel, m.selTone, m.selLength)
}

const emptyHint = "मजकूर पेस्ट करा किंवा लिहा आणि Enter दाबा. /help for commands."
