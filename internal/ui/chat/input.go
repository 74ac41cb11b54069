// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/ui/components"
)

var errCancelled = errors.New("cancelled")

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		return m.handlePaste(string(msg.Runes))
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Interrupt):
		return m.handleInterrupt()

	case key.Matches(msg, m.keys.Cancel):
		if m.composer.Busy() {
			return m.cancelTurn()
		}
		if m.showHelp {
			m.showHelp = false
			m.relayout()
		}
		m.status.ClearNotice()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Newline):
		m.recall.reset()
		m.composer.Enter(true)
		return m, m.afterInsert()

	case key.Matches(msg, m.keys.PasteImage):
		return m, readClipboardCmd(m.clip)

	case key.Matches(msg, m.keys.Detach):
		return m, m.detach(-1)

	case key.Matches(msg, m.keys.CycleModel):
		m.selModel = m.selModel.Next()
		m.syncChrome()
		return m, m.notify("model: "+string(m.selModel), components.NoticeInfo)

	case key.Matches(msg, m.keys.CycleTone):
		if !m.selModel.Tunable() {
			return m, m.notify(errNotTunable.Error(), components.NoticeWarn)
		}
		m.selTone = nextTone(m.selTone)
		m.syncChrome()
		return m, nil

	case key.Matches(msg, m.keys.CycleLength):
		if !m.selModel.Tunable() {
			return m, m.notify(errNotTunable.Error(), components.NoticeWarn)
		}
		m.selLength = nextLength(m.selLength)
		m.syncChrome()
		return m, nil

	case key.Matches(msg, m.keys.CopySummary):
		return m.copySummary()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keys.RecallPrev):
		if current := m.input.Value(); current == "" || m.recall.browsing(current) {
			if prompt, ok := m.recall.prev(current); ok {
				return m, m.setDraft(prompt)
			}
			return m, nil
		}

	case key.Matches(msg, m.keys.RecallNext):
		if current := m.input.Value(); m.recall.browsing(current) {
			if prompt, ok := m.recall.next(); ok {
				return m, m.setDraft(prompt)
			}
			return m, nil
		}
	}

	return m.typeKey(msg)
}

// typeKey forwards a key to the textarea and schedules a resize when the
// text changed.
func (m Model) typeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.input.Value()
	cmd := m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	// The user's caret wins over a restore still queued from an insertion.
	m.composer.Editor().Discard()
	m.recall.reset()
	m.syncChrome()
	return m, tea.Batch(cmd, resizeAfter(m.composer.Changed()))
}

// handlePaste routes pasted text through the paste classifier. Small
// pastes take the textarea's own insertion; large ones were already
// wrapped and inserted by the composer.
func (m Model) handlePaste(text string) (tea.Model, tea.Cmd) {
	m.recall.reset()
	clean := components.SanitizeInput(text)
	if clean == "" {
		return m, nil
	}
	d := m.composer.InterceptPaste(clean)
	if !d.Verbatim {
		m.log.Debug("paste wrapped", "newlines", d.Newlines, "runes", d.Runes)
		return m, m.afterInsert()
	}
	cmd := m.input.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(clean), Paste: true})
	m.syncChrome()
	return m, tea.Batch(cmd, resizeAfter(m.composer.Changed()))
}

// handleSubmit runs a slash command or commits the draft.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if c, ok := parseCommand(m.input.Value()); ok {
		m.input.SetValue("")
		m.recall.reset()
		var cmd tea.Cmd
		m, cmd = m.runCommand(c)
		return m, tea.Batch(cmd, resizeAfter(m.composer.Changed()))
	}

	switch m.composer.Enter(false) {
	case composer.Submitted:
		return m.startTurn()
	case composer.Failed:
		return m, m.notify(m.composer.Err().Error(), components.NoticeError)
	case composer.Refused:
		reason := m.composer.LastRefusal()
		var cmds []tea.Cmd
		if reason == composer.RefuseNotReady {
			cmds = append(cmds, CheckReadyCmd(m.sess.client))
		}
		if reason != composer.RefuseEmpty {
			cmds = append(cmds, m.notify(reason.String(), components.NoticeWarn))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

// handleInterrupt is ctrl+c: cancel a running turn, else clear the draft,
// else quit.
func (m Model) handleInterrupt() (tea.Model, tea.Cmd) {
	if m.composer.Busy() {
		return m.cancelTurn()
	}
	if !m.composer.IsEmpty() || m.composer.Attachments().Len() > 0 {
		m.recall.reset()
		m.composer.ClearInput()
		m.syncChrome()
		m.relayout()
		var cmd tea.Cmd
		if t, ok := m.composer.PendingResize(); ok {
			cmd = resizeAfter(t)
		}
		return m, cmd
	}
	m.Shutdown()
	return m, tea.Quit
}

func (m Model) copySummary() (tea.Model, tea.Cmd) {
	last := m.transcript.LastSummary()
	if last == nil || last.Content == "" {
		return m, m.notify("no summary to copy", components.NoticeWarn)
	}
	return m, copyCmd(m.clip, last.Content)
}

// =============================================================================
// HELPERS
// =============================================================================

// afterInsert restores the caret after the next render and arms the
// resize the insertion scheduled.
func (m *Model) afterInsert() tea.Cmd {
	m.syncChrome()
	cmds := []tea.Cmd{restoreCaret}
	if t, ok := m.composer.PendingResize(); ok {
		cmds = append(cmds, resizeAfter(t))
	}
	return tea.Batch(cmds...)
}

// setDraft replaces the draft text, keeping staged attachments.
func (m *Model) setDraft(text string) tea.Cmd {
	m.input.SetValue(text)
	m.syncChrome()
	return resizeAfter(m.composer.Changed())
}

// notify shows a status notice that expires after noticeTTL.
func (m *Model) notify(text string, level components.NoticeLevel) tea.Cmd {
	m.noticeSeq++
	m.status.SetNotice(text, level)
	return expireNoticeAfter(noticeTTL, m.noticeSeq)
}

func nextTone(t summarizer.Tone) summarizer.Tone {
	for i, v := range summarizer.Tones {
		if v == t {
			return summarizer.Tones[(i+1)%len(summarizer.Tones)]
		}
	}
	return summarizer.Tones[0]
}

func nextLength(l summarizer.Length) summarizer.Length {
	for i, v := range summarizer.Lengths {
		if v == l {
			return summarizer.Lengths[(i+1)%len(summarizer.Lengths)]
		}
	}
	return summarizer.Lengths[0]
}
