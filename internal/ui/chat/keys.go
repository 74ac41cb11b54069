// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the chat key bindings. Bindings not listed here go to the
// composer's textarea.
type KeyMap struct {
	Submit      key.Binding
	Newline     key.Binding
	Cancel      key.Binding
	Interrupt   key.Binding
	Quit        key.Binding
	PasteImage  key.Binding
	Detach      key.Binding
	CycleModel  key.Binding
	CycleTone   key.Binding
	CycleLength key.Binding
	CopySummary key.Binding
	RecallPrev  key.Binding
	RecallNext  key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Help        key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "summarize"),
		),
		// Terminals cannot report shift+enter; alt+enter and ctrl+j stand in.
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "new line"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "cancel / clear / quit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "quit"),
		),
		PasteImage: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste image"),
		),
		Detach: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "remove last image"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "next model"),
		),
		CycleTone: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "next tone"),
		),
		CycleLength: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("f3", "next length"),
		),
		CopySummary: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy summary"),
		),
		RecallPrev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous prompt"),
		),
		RecallNext: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next prompt"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "toggle help"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Newline, k.Cancel, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.Cancel, k.Interrupt, k.Quit},
		{k.PasteImage, k.Detach, k.CopySummary},
		{k.CycleModel, k.CycleTone, k.CycleLength},
		{k.RecallPrev, k.RecallNext, k.PageUp, k.PageDown, k.Help},
	}
}
