// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/ui/components"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// historyListLimit is how many turns /history shows.
const historyListLimit = 10

var (
	errNotTunable      = errors.New("tone and length apply to " + string(summarizer.ModelPegasus) + " only")
	errHistoryDisabled = errors.New("history is disabled")
)

// =============================================================================
// PARSING
// =============================================================================

// command is one parsed slash command.
type command struct {
	Name string
	Args []string
	Rest string // everything after the name, trimmed
}

// parseCommand recognizes a single-line draft starting with "/".
func parseCommand(text string) (command, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || strings.Contains(text, "\n") {
		return command{}, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return command{}, false
	}
	name := strings.ToLower(fields[0])
	rest := strings.TrimSpace(strings.TrimPrefix(text[1:], fields[0]))
	return command{Name: name, Args: fields[1:], Rest: rest}, true
}

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler runs one command against the model.
type CommandHandler func(m *Model, c command) tea.Cmd

type commandInfo struct {
	usage   string
	summary string
	handler CommandHandler
}

var commands map[string]commandInfo

// commandOrder is the order /help lists commands in.
var commandOrder = []string{
	"help", "attach", "detach", "model", "tone", "length",
	"copy", "clear", "history", "ready", "warmup", "quit",
}

var commandAliases = map[string]string{
	"h":    "help",
	"?":    "help",
	"a":    "attach",
	"m":    "model",
	"c":    "clear",
	"q":    "quit",
	"exit": "quit",
}

func init() {
	commands = map[string]commandInfo{
		"help":    {"/help", "list commands and keys", handleHelpCommand},
		"attach":  {"/attach <path>", "attach an image or inline a text file", handleAttachCommand},
		"detach":  {"/detach [n]", "remove attachment n (default: last)", handleDetachCommand},
		"model":   {"/model [name]", "show or switch the model", handleModelCommand},
		"tone":    {"/tone <formal|casual|neutral>", "set the tone", handleToneCommand},
		"length":  {"/length <short|medium|long>", "set the summary length", handleLengthCommand},
		"copy":    {"/copy", "copy the last summary", handleCopyCommand},
		"clear":   {"/clear", "clear the conversation", handleClearCommand},
		"history": {"/history [query]", "show or search past prompts", handleHistoryCommand},
		"ready":   {"/ready", "check the backend", handleReadyCommand},
		"warmup":  {"/warmup", "ask the backend to load its model", handleWarmUpCommand},
		"quit":    {"/quit", "exit", handleQuitCommand},
	}
}

// lookupCommand resolves a name or alias.
func lookupCommand(name string) (commandInfo, bool) {
	if target, ok := commandAliases[name]; ok {
		name = target
	}
	info, ok := commands[name]
	return info, ok
}

// runCommand executes c.
func (m Model) runCommand(c command) (Model, tea.Cmd) {
	info, ok := lookupCommand(c.Name)
	if !ok {
		return m, m.notify(fmt.Sprintf("unknown command /%s (try /help)", c.Name), components.NoticeWarn)
	}
	m.log.Debug("command", "name", c.Name, "args", len(c.Args))
	cmd := info.handler(&m, c)
	return m, cmd
}

// =============================================================================
// HANDLERS
// =============================================================================

func handleHelpCommand(m *Model, _ command) tea.Cmd {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, name := range commandOrder {
		info := commands[name]
		fmt.Fprintf(&b, "  %-32s %s\n", info.usage, info.summary)
	}
	b.WriteString("\nKeys:\n")
	for _, group := range m.keys.FullHelp() {
		for _, k := range group {
			h := k.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
	}
	m.addSystem(strings.TrimRight(b.String(), "\n"))
	return nil
}

func handleAttachCommand(m *Model, c command) tea.Cmd {
	if c.Rest == "" {
		return m.notify("usage: /attach <path>", components.NoticeWarn)
	}
	return loadFileCmd(expandPath(c.Rest))
}

func handleDetachCommand(m *Model, c command) tea.Cmd {
	if len(c.Args) == 0 {
		return m.detach(-1)
	}
	n, err := strconv.Atoi(c.Args[0])
	if err != nil || n < 1 {
		return m.notify("usage: /detach [n]", components.NoticeWarn)
	}
	return m.detach(n - 1)
}

func handleModelCommand(m *Model, c command) tea.Cmd {
	if len(c.Args) == 0 {
		var b strings.Builder
		b.WriteString("Models:\n")
		for _, info := range model.Models {
			mark := " "
			if info.Model == m.selModel {
				mark = "*"
			}
			fmt.Fprintf(&b, " %s %-16s %-10s %s\n", mark, info.Model, info.ShortName, info.Description)
		}
		m.addSystem(strings.TrimRight(b.String(), "\n"))
		return nil
	}
	info, ok := model.Lookup(c.Rest)
	if !ok {
		return m.notify("unknown model "+c.Rest+" (one of "+strings.Join(model.ShortNames(), ", ")+")", components.NoticeWarn)
	}
	m.selModel = info.Model
	m.syncChrome()
	return m.notify("model: "+string(info.Model), components.NoticeInfo)
}

func handleToneCommand(m *Model, c command) tea.Cmd {
	if !m.selModel.Tunable() {
		return m.notify(errNotTunable.Error(), components.NoticeWarn)
	}
	tone, err := summarizer.ParseTone(c.Rest)
	if err != nil {
		return m.notify(err.Error(), components.NoticeWarn)
	}
	m.selTone = tone
	m.syncChrome()
	return nil
}

func handleLengthCommand(m *Model, c command) tea.Cmd {
	if !m.selModel.Tunable() {
		return m.notify(errNotTunable.Error(), components.NoticeWarn)
	}
	length, err := summarizer.ParseLength(c.Rest)
	if err != nil {
		return m.notify(err.Error(), components.NoticeWarn)
	}
	m.selLength = length
	m.syncChrome()
	return nil
}

func handleCopyCommand(m *Model, _ command) tea.Cmd {
	last := m.transcript.LastSummary()
	if last == nil || last.Content == "" {
		return m.notify("no summary to copy", components.NoticeWarn)
	}
	return copyCmd(m.clip, last.Content)
}

func handleClearCommand(m *Model, _ command) tea.Cmd {
	if m.composer.Cancel() {
		m.spinner.Stop()
	}
	m.transcript.Clear()
	m.messages.Invalidate()
	m.syncChrome()
	m.refreshTranscript()
	return nil
}

func handleHistoryCommand(m *Model, c command) tea.Cmd {
	return historyListCmd(m.history, c.Rest, historyListLimit)
}

func handleReadyCommand(m *Model, _ command) tea.Cmd {
	m.sess.backend = components.BackendUnknown
	m.syncChrome()
	return CheckReadyCmd(m.sess.client)
}

func handleWarmUpCommand(m *Model, _ command) tea.Cmd {
	m.sess.warming = true
	return tea.Batch(WarmUpCmd(m.sess.client), m.notify("warm-up requested", components.NoticeInfo))
}

func handleQuitCommand(m *Model, _ command) tea.Cmd {
	m.Shutdown()
	return tea.Quit
}

// =============================================================================
// RESULTS
// =============================================================================

func (m Model) handleHistoryList(msg HistoryListMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.notify("history: "+msg.Err.Error(), components.NoticeWarn)
	}
	if len(msg.Prompts) == 0 {
		if msg.Query != "" {
			return m, m.notify("no turns match "+msg.Query, components.NoticeInfo)
		}
		return m, m.notify("history is empty", components.NoticeInfo)
	}

	var b strings.Builder
	if msg.Query != "" {
		fmt.Fprintf(&b, "Turns matching %q:\n", msg.Query)
	} else {
		b.WriteString("Recent turns:\n")
	}
	for i, p := range msg.Prompts {
		fmt.Fprintf(&b, "  %2d. %s\n", i+1, util.TruncateRunes(util.FirstLine(p), 70))
	}
	m.addSystem(strings.TrimRight(b.String(), "\n"))
	return m, nil
}

// addSystem appends a system note to the transcript.
func (m *Model) addSystem(text string) {
	m.transcript.Add(model.NewSystemMessage(text))
	m.viewport.GotoBottom()
	m.refreshTranscript()
}

// expandPath strips quotes and expands a leading ~.
func expandPath(p string) string {
	p = strings.Trim(p, `"'`)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
