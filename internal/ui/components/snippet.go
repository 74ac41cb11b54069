// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

// =============================================================================
// SNIPPET SEGMENTS
// =============================================================================

const fileHeaderPrefix = "File: "

// Segment is a run of message text: either prose or a marker-delimited
// snippet.
type Segment struct {
	Text     string
	Snippet  bool
	Filename string // set when the snippet came from an attached text file
}

// SplitSnippets cuts text at snippet markers. An unterminated begin marker
// leaves the rest as prose.
func SplitSnippets(text string, m composer.SnippetMarkers) []Segment {
	if m.Begin == "" || m.End == "" {
		return appendProse(nil, text)
	}

	var segs []Segment
	for text != "" {
		i := strings.Index(text, m.Begin)
		if i < 0 {
			break
		}
		rest := text[i+len(m.Begin):]
		j := strings.Index(rest, m.End)
		if j < 0 {
			break
		}

		before, name := splitFileHeader(text[:i])
		body := strings.TrimPrefix(rest[:j], "\n")
		body = strings.TrimSuffix(body, "\n")

		segs = appendProse(segs, before)
		segs = append(segs, Segment{Text: body, Snippet: true, Filename: name})
		text = strings.TrimPrefix(rest[j+len(m.End):], "\n")
	}
	return appendProse(segs, text)
}

// splitFileHeader detaches a trailing "File: name:" line.
func splitFileHeader(before string) (string, string) {
	if !strings.HasSuffix(before, ":\n") {
		return before, ""
	}
	trimmed := before[:len(before)-1]
	start := strings.LastIndex(trimmed, "\n") + 1
	line := trimmed[start:]
	if !strings.HasPrefix(line, fileHeaderPrefix) {
		return before, ""
	}
	name := strings.TrimSuffix(strings.TrimPrefix(line, fileHeaderPrefix), ":")
	return before[:start], name
}

func appendProse(segs []Segment, text string) []Segment {
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return segs
	}
	return append(segs, Segment{Text: text})
}

// =============================================================================
// HIGHLIGHTING
// =============================================================================

// Highlight colors code for the terminal. The lexer is chosen from the
// filename, then by content analysis. Unknown content is returned as is.
func Highlight(code, filename, style string) string {
	var lexer chroma.Lexer
	if filename != "" {
		lexer = lexers.Match(filename)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// =============================================================================
// RENDERING
// =============================================================================

// SnippetRenderer draws message text with snippets boxed and highlighted.
type SnippetRenderer struct {
	theme     *styles.Theme
	markers   composer.SnippetMarkers
	highlight bool
}

// NewSnippetRenderer creates a renderer for the given markers.
func NewSnippetRenderer(theme *styles.Theme, markers composer.SnippetMarkers, highlight bool) *SnippetRenderer {
	return &SnippetRenderer{theme: theme, markers: markers, highlight: highlight}
}

// SetMarkers updates the markers after a config reload.
func (r *SnippetRenderer) SetMarkers(m composer.SnippetMarkers) { r.markers = m }

// SetHighlight toggles syntax highlighting.
func (r *SnippetRenderer) SetHighlight(on bool) { r.highlight = on }

// Render lays out text at width.
func (r *SnippetRenderer) Render(text string, width int) string {
	segs := SplitSnippets(text, r.markers)
	if len(segs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if !s.Snippet {
			parts = append(parts, lipgloss.NewStyle().Width(width).Render(s.Text))
			continue
		}
		parts = append(parts, r.renderSnippet(s, width))
	}
	return strings.Join(parts, "\n")
}

func (r *SnippetRenderer) renderSnippet(s Segment, width int) string {
	box, header := lipgloss.NewStyle(), lipgloss.NewStyle()
	chromaStyle := "monokai"
	if r.theme != nil {
		box, header = r.theme.Snippet, r.theme.SnippetHeader
		chromaStyle = r.theme.ChromaStyle()
	}

	title := "snippet"
	if s.Filename != "" {
		title = s.Filename
	}
	lines := strings.Count(s.Text, "\n") + 1
	title = fmt.Sprintf("%s · %d %s", title, lines, plural(lines, "line", "lines"))

	body := s.Text
	if r.highlight {
		body = Highlight(s.Text, s.Filename, chromaStyle)
	}

	inner := width - box.GetHorizontalBorderSize()
	if inner < 10 {
		inner = 10
	}
	return box.Width(inner).Render(header.Render(title) + "\n" + body)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
