// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the full-screen conversation view of saransh.

It hosts the composer core on a bubbles textarea and runs every composer
mutation inside the Bubble Tea Update loop. File reads, image
preprocessing, clipboard access and backend requests run as commands and
come back as messages.

# Layout

From top to bottom: header, transcript viewport, attachment chips, the
composer, optional key help, and the status bar.

# Turn lifecycle

Enter commits the draft through the composer. The commit collaborator
parks the message in the session outbox; the model then resets the
composer, appends the user entry and a pending summary, and starts
SummarizeCmd under a context owned by the cancel manager. Esc (or ctrl+c)
while busy cancels that context and leaves busy immediately; the late
SummaryMsg is ignored because its entry is no longer pending.

# Commands

Drafts that start with "/" on a single line run a command: /help, /attach,
/detach, /model, /tone, /length, /copy, /clear, /history, /ready, /warmup
and /quit.

# Usage

	m := chat.New(chat.Options{Config: cfg, History: hist, Clipboard: clipboard.NewSystem()})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
*/
package chat
