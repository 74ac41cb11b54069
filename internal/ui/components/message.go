// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"

	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// MessageList renders transcript entries. Finished entries are cached per
// width; pending ones are redrawn every frame.
type MessageList struct {
	theme    *styles.Theme
	snippets *SnippetRenderer
	markdown *Markdown
	cache    map[string]cached
}

type cached struct {
	width   int
	content string
	role    model.Role
	out     string
}

// NewMessageList creates a renderer.
func NewMessageList(theme *styles.Theme, snippets *SnippetRenderer, markdown *Markdown) *MessageList {
	return &MessageList{
		theme:    theme,
		snippets: snippets,
		markdown: markdown,
		cache:    make(map[string]cached),
	}
}

// Invalidate drops cached renders, e.g. after a style change.
func (l *MessageList) Invalidate() { l.cache = make(map[string]cached) }

// Render draws msgs at width. activity replaces the body of pending
// summaries.
func (l *MessageList) Render(msgs []*model.Message, width int, activity string) string {
	if width < 20 {
		width = 20
	}
	blocks := make([]string, 0, len(msgs))
	live := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		live[m.ID] = true
		if m.Pending {
			blocks = append(blocks, l.renderPending(m, activity))
			continue
		}
		if c, ok := l.cache[m.ID]; ok && c.width == width && c.content == m.Content && c.role == m.Role {
			blocks = append(blocks, c.out)
			continue
		}
		out := l.RenderMessage(m, width)
		l.cache[m.ID] = cached{width: width, content: m.Content, role: m.Role, out: out}
		blocks = append(blocks, out)
	}
	for id := range l.cache {
		if !live[id] {
			delete(l.cache, id)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// RenderMessage draws one finished entry.
func (l *MessageList) RenderMessage(m *model.Message, width int) string {
	t := l.theme
	switch m.Role {
	case model.RoleUser:
		bodyWidth := width - t.UserBody.GetHorizontalFrameSize()
		body := l.snippets.Render(m.Content, bodyWidth)
		if refs := attachmentLines(m.Attachments); refs != "" {
			if body != "" {
				body += "\n"
			}
			body += t.Muted.Render(refs)
		}
		return t.UserLabel.Render(m.Role.DisplayName()) + "\n" + t.UserBody.Render(body)

	case model.RoleSummary:
		bodyWidth := width - t.SummaryBody.GetHorizontalFrameSize()
		out := t.SummaryLabel.Render(m.Role.DisplayName()) + "\n" +
			t.SummaryBody.Render(l.markdown.Render(m.Content, bodyWidth))
		if stats := m.FormatStats(); stats != "" {
			out += "\n" + t.SummaryStats.Render(stats)
		}
		return out

	case model.RoleError:
		return t.ErrorText.Width(width).Render(styles.StatusIndicators.Error + " " + m.Content)

	default:
		return t.SystemText.Width(width).Render(m.Content)
	}
}

func (l *MessageList) renderPending(m *model.Message, activity string) string {
	t := l.theme
	if activity == "" {
		activity = "summarizing…"
	}
	label := t.SummaryLabel.Render(m.Role.DisplayName())
	if m.Model != "" {
		label += " " + t.Muted.Render(string(m.Model))
	}
	return label + "\n" + t.SummaryBody.Render(activity)
}

func attachmentLines(refs []model.AttachmentRef) string {
	if len(refs) == 0 {
		return ""
	}
	lines := make([]string, len(refs))
	for i, r := range refs {
		line := fmt.Sprintf("[image] %s (%s", r.Filename, units.HumanSize(float64(r.Size)))
		if r.Width > 0 && r.Height > 0 {
			line += fmt.Sprintf(", %dx%d", r.Width, r.Height)
		}
		lines[i] = line + ")"
	}
	return strings.Join(lines, "\n")
}
