// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package composer implements the message composer: the text and attachment
// state of the turn being written, and the rules for committing it.
//
// The package has no terminal or network dependencies. A host (the Bubble Tea
// chat view, the line-mode REPL, the one-shot CLI) owns a Surface that holds
// the visible text and drives the Composer from its own event loop. All
// Composer methods must be called from that single loop; asynchronous work
// (file reads, image preprocessing, submission) happens elsewhere and is
// folded back in through tickets and callbacks.
//
// # Key Types
//
//   - Limits: tunables (row budget, snippet markers, image cap, MIME sets)
//   - Editor: caret-aware insertion over a Surface
//   - Resizer: debounced, row-bounded height calculation
//   - AttachmentStore: staged images with provenance and a per-message cap
//   - CommitController: Enter/submit/cancel state machine
//   - Composer: all of the above over one Surface, exposed to hosts as Handle
//
// # Pastes
//
// Large plain-text pastes (MaxRows or more newlines, or more than
// CharsPerRow*MaxRows characters) are wrapped in the snippet markers before
// insertion so downstream prompts can tell verbatim blocks from prose. Text
// that already contains a marker is inserted untouched.
//
// # Attachments
//
// Only images are staged. Text files are inlined into the draft as a
// "File: <name>:" block. In-flight image work is tracked by Ticket; a
// removal or Clear before completion discards the late result.
//
// # Usage
//
//	c := composer.New(composer.DefaultLimits(), composer.NewBuffer(), composer.Collaborators{
//	    Submit: func(msg composer.Message) error { return send(msg) },
//	    Cancel: transport.Cancel,
//	    Ready:  func() bool { return backendReady },
//	})
//	c.PasteText(clipboardText)
//	if c.Enter(false) == composer.Submitted {
//	    // caller resets once the turn is accepted
//	}
package composer
