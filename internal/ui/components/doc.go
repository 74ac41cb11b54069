// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual pieces of the saransh chat screen.

# Input

ComposerInput (composer_input.go) is the multi-line text surface behind the
composer. It adapts a bubbles textarea to composer.Surface, translating
between the textarea's row/column cursor and rune offsets into the whole
draft, and reports how many visual rows the draft needs.

AttachmentBar (attachments.go) draws staged images as chips.

# Transcript

MessageList (message.go) renders user turns, summaries, notices and errors.
User text goes through SnippetRenderer (snippet.go), which boxes marker
delimited snippets and highlights them with chroma. Summaries go through
Markdown (markdown.go), a cached glamour renderer.

# Chrome

Header (header.go) and StatusBar (statusbar.go) frame the screen. Spinner
(spinner.go) animates while a summary is in flight.

All components take a *styles.Theme:

	theme := styles.NewTheme("auto")
	bar := components.NewStatusBar(theme)
	bar.SetWidth(80)
	bar.Backend = components.BackendReady
	view := bar.View()
*/
package components
