// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// PASTE CLASSIFICATION
// =============================================================================

// PasteDecision is the insertion strategy for a block of pasted text.
type PasteDecision struct {
	// Verbatim means the host's default insertion should proceed untouched.
	Verbatim bool

	// Wrapped is the text to insert at the caret when Verbatim is false.
	Wrapped string

	// Newlines and Runes are the measurements the decision was based on.
	Newlines int
	Runes    int
}

// ClassifyPaste decides whether pasted text is inserted verbatim or wrapped
// in snippet markers. Text already containing a marker is never re-wrapped.
func ClassifyPaste(text string, limits Limits) PasteDecision {
	d := PasteDecision{
		Newlines: strings.Count(text, "\n"),
		Runes:    utf8.RuneCountInString(text),
	}
	if limits.Markers.Contains(text) {
		d.Verbatim = true
		return d
	}
	if d.Newlines >= limits.MaxRows || d.Runes > limits.CharThreshold() {
		d.Wrapped = WrapSnippet(text, limits.Markers)
		return d
	}
	d.Verbatim = true
	return d
}

// WrapSnippet returns text framed as BEGIN\n<text>\nEND\n.
func WrapSnippet(text string, markers SnippetMarkers) string {
	var b strings.Builder
	b.Grow(len(markers.Begin) + len(text) + len(markers.End) + 3)
	b.WriteString(markers.Begin)
	b.WriteByte('\n')
	b.WriteString(text)
	b.WriteByte('\n')
	b.WriteString(markers.End)
	b.WriteByte('\n')
	return b.String()
}

// FormatTextFile returns the inline block for an attached text file.
func FormatTextFile(name, content string, markers SnippetMarkers) string {
	return "File: " + name + ":\n" + WrapSnippet(content, markers)
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
