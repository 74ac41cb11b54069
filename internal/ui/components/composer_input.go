// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

// DefaultPlaceholder is shown while the composer is empty.
const DefaultPlaceholder = "मजकूर लिहा किंवा पेस्ट करा… (Enter: summarize, Alt+Enter: new line)"

const tabWidth = 4

// =============================================================================
// COMPOSER INPUT
// =============================================================================

// ComposerInput is the multi-line text surface the composer edits. It wraps
// a bubbles textarea and exposes caret positions as rune offsets into the
// full value.
type ComposerInput struct {
	ta     textarea.Model
	theme  *styles.Theme
	width  int
	layout composer.Layout
	busy   bool
}

// NewComposerInput creates an empty one-row input.
func NewComposerInput(theme *styles.Theme) *ComposerInput {
	ta := textarea.New()
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Placeholder = DefaultPlaceholder
	// Enter commits; the host inserts newlines itself.
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	if theme != nil {
		ta.FocusedStyle.Placeholder = theme.Placeholder
		ta.BlurredStyle.Placeholder = theme.Placeholder
	}
	ta.SetWidth(76)
	ta.SetHeight(1)

	return &ComposerInput{
		ta:     ta,
		theme:  theme,
		width:  80,
		layout: composer.Layout{Rows: 1},
	}
}

// SanitizeInput prepares raw terminal input for the textarea: newlines are
// normalized, tabs become spaces and other control runes are dropped. Caret
// offsets computed on the result stay valid after insertion.
func SanitizeInput(text string) string {
	text = composer.NormalizeNewlines(text)
	if !strings.ContainsFunc(text, func(r rune) bool { return r == '\t' || (unicode.IsControl(r) && r != '\n') }) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\t':
			b.WriteString(strings.Repeat(" ", tabWidth))
		case r == '\n':
			b.WriteRune(r)
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ===== composer.Surface =====

// Value returns the full text.
func (c *ComposerInput) Value() string { return c.ta.Value() }

// Selection returns the caret as a collapsed selection. The textarea has no
// selection model.
func (c *ComposerInput) Selection() (int, int) {
	off := c.caretOffset()
	return off, off
}

// Normalize applies SanitizeInput. It lets the composer place the caret on
// the text the textarea will actually hold.
func (c *ComposerInput) Normalize(text string) string { return SanitizeInput(text) }

// SetValue replaces the text. The caret lands at the end.
func (c *ComposerInput) SetValue(text string) {
	c.ta.SetValue(SanitizeInput(text))
}

// SetCaret moves the caret to a rune offset, clamped to the text.
func (c *ComposerInput) SetCaret(offset int) {
	lines := strings.Split(c.ta.Value(), "\n")
	row, col := locate(lines, offset)

	// Bounded so a textarea quirk can never spin forever.
	guard := utf8.RuneCountInString(c.ta.Value()) + len(lines) + 1
	for i := 0; c.ta.Line() > row && i < guard; i++ {
		c.ta.CursorUp()
	}
	for i := 0; c.ta.Line() < row && i < guard; i++ {
		c.ta.CursorDown()
	}
	c.ta.SetCursor(col)
}

// Overflowing reports whether the content needs more rows than are visible.
func (c *ComposerInput) Overflowing() bool {
	return c.RequiredRows() > c.ta.Height()
}

// ScrollToCaret brings the caret row into view.
func (c *ComposerInput) ScrollToCaret() {
	if !c.ta.Focused() {
		return
	}
	// A nil message runs only the view repositioning.
	c.ta, _ = c.ta.Update(nil)
}

// Focus gives the textarea keyboard focus.
func (c *ComposerInput) Focus() { _ = c.ta.Focus() }

// RequiredRows counts visual rows at the current width, soft wraps included.
func (c *ComposerInput) RequiredRows() int {
	width := c.ta.Width()
	if width <= 0 {
		width = 1
	}
	rows := 0
	for _, line := range strings.Split(c.ta.Value(), "\n") {
		// The textarea keeps a trailing space on every wrapped line, so a
		// line exactly as wide as the input already takes two rows.
		rows += runewidth.StringWidth(line)/width + 1
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (c *ComposerInput) caretOffset() int {
	lines := strings.Split(c.ta.Value(), "\n")
	row := c.ta.Line()
	li := c.ta.LineInfo()
	col := li.StartColumn + li.ColumnOffset

	off := 0
	for i := 0; i < row && i < len(lines); i++ {
		off += utf8.RuneCountInString(lines[i]) + 1
	}
	return off + col
}

// locate converts a rune offset into a row and column.
func locate(lines []string, offset int) (row, col int) {
	if offset < 0 {
		offset = 0
	}
	for i, line := range lines {
		n := utf8.RuneCountInString(line)
		if offset <= n || i == len(lines)-1 {
			if offset > n {
				offset = n
			}
			return i, offset
		}
		offset -= n + 1
	}
	return 0, 0
}

// ===== Layout =====

// SetWidth sizes the input to the available terminal width, box included.
func (c *ComposerInput) SetWidth(width int) {
	c.width = width
	inner := width - c.frameWidth()
	if inner < 10 {
		inner = 10
	}
	c.ta.SetWidth(inner)
}

// ApplyLayout sets the visible row count.
func (c *ComposerInput) ApplyLayout(l composer.Layout) {
	if l.Rows < 1 {
		l.Rows = 1
	}
	c.layout = l
	c.ta.SetHeight(l.Rows)
}

// Layout returns the last applied layout.
func (c *ComposerInput) Layout() composer.Layout { return c.layout }

// Height returns the rendered height, box included.
func (c *ComposerInput) Height() int {
	return c.ta.Height() + c.boxStyle().GetVerticalFrameSize()
}

// SetBusy switches the border to the busy color.
func (c *ComposerInput) SetBusy(busy bool) { c.busy = busy }

// SetPlaceholder replaces the placeholder text.
func (c *ComposerInput) SetPlaceholder(p string) { c.ta.Placeholder = p }

// ===== Bubble Tea =====

// FocusCmd focuses the input and returns the cursor blink command.
func (c *ComposerInput) FocusCmd() tea.Cmd { return c.ta.Focus() }

// Blur removes focus.
func (c *ComposerInput) Blur() { c.ta.Blur() }

// Focused reports whether the input has focus.
func (c *ComposerInput) Focused() bool { return c.ta.Focused() }

// Update forwards a message to the textarea.
func (c *ComposerInput) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	c.ta, cmd = c.ta.Update(msg)
	return cmd
}

// InsertNewline inserts a line break at the caret.
func (c *ComposerInput) InsertNewline() { c.ta.InsertRune('\n') }

// View renders the input inside its box.
func (c *ComposerInput) View() string {
	style := c.boxStyle()
	w := c.width - style.GetHorizontalBorderSize()
	if w < 1 {
		w = 1
	}
	return style.Width(w).Render(c.ta.View())
}

func (c *ComposerInput) boxStyle() lipgloss.Style {
	if c.theme == nil {
		return lipgloss.NewStyle()
	}
	switch {
	case c.busy:
		return c.theme.ComposerBusy
	case c.ta.Focused():
		return c.theme.ComposerBoxFocused
	default:
		return c.theme.ComposerBox
	}
}

func (c *ComposerInput) frameWidth() int {
	return c.boxStyle().GetHorizontalFrameSize()
}

var (
	_ composer.Surface    = (*ComposerInput)(nil)
	_ composer.RowCounter = (*ComposerInput)(nil)
)
