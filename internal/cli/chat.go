// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode "saransh chat" REPL.
//
// Command: chat
// Aliases: repl
//
// Each line is fed to the same composer the TUI uses. A line ending in a
// backslash continues the draft on the next line; Enter on a plain line
// commits it. Up/down walk previous prompts from the turn history.
//
// Interactive Commands:
//   /help                 Show commands
//   /model [name]         Show or switch model
//   /tone <tone>          Pegasus-Marathi only
//   /length <length>      Pegasus-Marathi only
//   /attach <path>        Attach an image or inline a text file
//   /paste                Attach the clipboard image, or paste its text
//   /detach [n]           Drop attachment n, or all
//   /copy                 Copy the last summary
//   /history [query]      Show recent or matching prompts
//   /ready, /warmup       Backend readiness
//   /clear                Discard the draft
//   /quit                 Exit
//   Ctrl+C                Cancel the running summary, clear the draft, or exit
//   Ctrl+D                Exit

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/saransh-tui/internal/clipboard"
	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/logging"
	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/storage"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/ui/components"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

const recallLimit = 100

// =============================================================================
// INPUT
// =============================================================================

// ChatCLI provides line editing and prompt recall.
type ChatCLI struct {
	line *liner.State
}

// NewChatCLI creates a liner seeded with prompts, newest first.
func NewChatCLI(prompts []string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(true)
	for i := len(prompts) - 1; i >= 0; i-- {
		// liner history is single-line
		line.AppendHistory(strings.ReplaceAll(prompts[i], "\n", " "))
	}
	return &ChatCLI{line: line}
}

// ReadInput reads one line.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close restores the terminal.
func (c *ChatCLI) Close() {
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the composer and backend state of a REPL.
type ChatSession struct {
	cfg    *config.Config
	client *summarizer.Client
	hist   *storage.History
	clip   clipboard.Clipboard
	out    io.Writer
	md     *components.Markdown
	log    *slog.Logger

	comp   *composer.Composer
	outbox *composer.Message

	selModel  summarizer.Model
	selTone   summarizer.Tone
	selLength summarizer.Length

	mu     sync.Mutex
	cancel context.CancelFunc

	turns   int
	started time.Time
	last    string
}

// NewChatSession creates a session writing to out. hist and clip may be nil.
func NewChatSession(cfg *config.Config, client *summarizer.Client, hist *storage.History, clip clipboard.Clipboard, out io.Writer) *ChatSession {
	s := &ChatSession{
		cfg:     cfg,
		client:  client,
		hist:    hist,
		clip:    clip,
		out:     out,
		md:      components.NewMarkdown(styles.NewTheme(cfg.UI.Theme).GlamourStyle(), cfg.UI.RenderMarkdown && IsStdoutTTY()),
		log:     logging.Component("repl"),
		started: time.Now(),
	}
	s.selModel, s.selTone, s.selLength = cfg.Selection()

	limits := cfg.Limits()
	if err := limits.Validate(); err != nil {
		s.log.Warn("invalid composer limits, using defaults", "error", err)
		limits = composer.DefaultLimits()
	}
	s.comp = composer.New(limits, composer.NewBuffer(), composer.Collaborators{
		Submit: func(m composer.Message) error {
			s.outbox = &m
			return nil
		},
		Cancel: func() { s.cancelTurn() },
		Ready:  s.probe,
	})
	return s
}

// Composer exposes the draft.
func (s *ChatSession) Composer() *composer.Composer { return s.comp }

// Selection returns the active model, tone and length.
func (s *ChatSession) Selection() (summarizer.Model, summarizer.Tone, summarizer.Length) {
	return s.selModel, s.selTone, s.selLength
}

// LastSummary returns the most recent summary text.
func (s *ChatSession) LastSummary() string { return s.last }

// probe checks readiness; it is the composer's Ready collaborator.
func (s *ChatSession) probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ok, err := s.client.CheckReady(ctx)
	if err != nil {
		s.printf("%s %v\n", ErrorStyle.Render("[Backend]"), err)
		return false
	}
	if !ok {
		s.printf("%s models are still loading; try /warmup or wait\n", WarningStyle.Render("[Backend]"))
	}
	return ok
}

// cancelTurn aborts the in-flight request. It is safe from any goroutine and
// reports whether a request was running.
func (s *ChatSession) cancelTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	return true
}

// Interrupt cancels the running turn from a signal handler. It only touches
// the request context; the REPL goroutine ends the composer's busy state when
// the request returns. It reports whether a turn was running.
func (s *ChatSession) Interrupt() bool {
	return s.cancelTurn()
}

func (s *ChatSession) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	hist, err := OpenHistory(cfg)
	if err != nil {
		logging.Component("repl").Warn("history unavailable", "error", err)
	}
	defer hist.Close()

	var prompts []string
	if hist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		prompts, _ = hist.Prompts(ctx, recallLimit)
		cancel()
	}

	session := NewChatSession(cfg, NewClient(cfg), hist, clipboard.NewSystem(), os.Stdout)
	input := NewChatCLI(prompts)
	defer input.Close()

	if !args.Quiet {
		session.printWelcome()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if session.Interrupt() {
				fmt.Fprintln(os.Stderr, "\n"+WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		prompt := PromptStyle.Render("saransh> ")
		if session.comp.Text() != "" {
			prompt = DimStyle.Render("     ... ")
		}
		line, err := input.ReadInput(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) && !session.comp.IsEmpty() {
				session.comp.ClearInput()
				session.printf("%s\n", DimStyle.Render("[draft cleared]"))
				continue
			}
			session.printExitSummary()
			return nil
		}
		if !session.HandleLine(line) {
			session.printExitSummary()
			return nil
		}
	}
}

// HandleLine feeds one input line to the session. It returns false when the
// user asked to quit.
func (s *ChatSession) HandleLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	if s.comp.Text() == "" && strings.HasPrefix(trimmed, "/") {
		return s.handleSlashCommand(trimmed)
	}
	if s.comp.Text() == "" && (strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit")) {
		return false
	}

	if strings.HasSuffix(line, `\`) {
		s.comp.PasteText(strings.TrimSuffix(line, `\`))
		s.comp.Enter(true)
		return true
	}
	if line != "" {
		s.comp.PasteText(line)
	}

	switch s.comp.Enter(false) {
	case composer.Submitted:
		s.runTurn()
	case composer.Failed:
		s.printf("%s %v\n", ErrorStyle.Render("[Error]"), s.comp.Err())
	case composer.Refused:
		if s.comp.LastRefusal() == composer.RefuseEmpty && s.comp.Attachments().Len() > 0 {
			s.printf("%s add some text to go with the attachments\n", WarningStyle.Render("[Draft]"))
		}
	}
	return true
}

// runTurn sends the committed outbox and prints the summary.
func (s *ChatSession) runTurn() {
	msg := s.outbox
	s.outbox = nil
	s.comp.Reset()
	if msg == nil {
		s.comp.Done()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer s.cancelTurn()

	req := RequestFor(*msg, s.selModel, s.selTone, s.selLength)
	s.printf("%s\n", DimStyle.Render("summarizing with "+model.Label(s.selModel, s.selTone, s.selLength)+"…"))
	res, err := s.client.Summarize(ctx, req)
	s.comp.Done()
	if err != nil {
		if isInterrupted(err) {
			return
		}
		s.printf("%s %v\n", ErrorStyle.Render("[Error]"), err)
		return
	}

	s.turns++
	s.last = res.Summary
	s.printf("\n%s\n", s.md.Render(res.Summary, GetTerminalWidth()-2))
	s.printf("%s\n\n", DimStyle.Render(res.Endpoint+" · "+formatDuration(res.Duration)))

	if s.hist != nil {
		hctx, hcancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer hcancel()
		if _, err := s.hist.Add(hctx, &storage.Turn{
			Prompt:     msg.Text,
			Summary:    res.Summary,
			Model:      string(res.Model),
			Tone:       string(res.Params.Tone),
			Length:     string(res.Params.Length),
			Endpoint:   res.Endpoint,
			Images:     len(req.Images),
			DurationMs: res.Duration.Milliseconds(),
		}); err != nil {
			s.log.Warn("failed to record turn", "error", err)
		}
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a /command. It returns false to exit.
func (s *ChatSession) handleSlashCommand(line string) bool {
	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))

	var err error
	switch name {
	case "/help", "/h", "/?", "/":
		s.printHelp()
	case "/quit", "/q", "/exit":
		return false
	case "/model", "/m":
		err = s.cmdModel(args)
	case "/tone":
		err = s.cmdTone(args)
	case "/length":
		err = s.cmdLength(args)
	case "/attach", "/a":
		err = s.cmdAttach(rest)
	case "/paste":
		err = s.cmdPaste()
	case "/detach":
		err = s.cmdDetach(args)
	case "/copy":
		err = s.cmdCopy()
	case "/clear", "/c":
		s.comp.ClearInput()
		s.printf("%s\n", DimStyle.Render("[draft cleared]"))
	case "/history":
		err = s.cmdHistory(rest)
	case "/ready":
		if s.probe() {
			s.printf("%s backend ready at %s\n", SuccessStyle.Render("[OK]"), s.client.BaseURL())
		}
	case "/warmup":
		err = s.cmdWarmup()
	default:
		err = fmt.Errorf("unknown command: %s (type /help for commands)", name)
	}
	if err != nil {
		s.printf("%s %v\n", ErrorStyle.Render("[Error]"), err)
	}
	return true
}

func (s *ChatSession) cmdModel(args []string) error {
	if len(args) == 0 {
		for _, info := range model.Models {
			marker := "  "
			if info.Model == s.selModel {
				marker = SuccessStyle.Render("* ")
			}
			s.printf("%s%-16s %-10s %s\n", marker, info.Model, info.ShortName, DimStyle.Render(info.Description))
		}
		return nil
	}
	info, ok := model.Lookup(strings.Join(args, " "))
	if !ok {
		return fmt.Errorf("unknown model %q (%s)", strings.Join(args, " "), strings.Join(model.ShortNames(), ", "))
	}
	s.selModel = info.Model
	s.printf("%s %s\n", SuccessStyle.Render("[OK]"), model.Label(s.selModel, s.selTone, s.selLength))
	return nil
}

var errNotTunable = errors.New("tone and length apply to Pegasus-Marathi only")

func (s *ChatSession) cmdTone(args []string) error {
	if !s.selModel.Tunable() {
		return errNotTunable
	}
	if len(args) == 0 {
		return ErrMissingArgument("tone", "/tone formal | casual | neutral")
	}
	t, err := summarizer.ParseTone(args[0])
	if err != nil {
		return err
	}
	s.selTone = t
	s.printf("%s %s\n", SuccessStyle.Render("[OK]"), model.Label(s.selModel, s.selTone, s.selLength))
	return nil
}

func (s *ChatSession) cmdLength(args []string) error {
	if !s.selModel.Tunable() {
		return errNotTunable
	}
	if len(args) == 0 {
		return ErrMissingArgument("length", "/length short | medium | long")
	}
	l, err := summarizer.ParseLength(args[0])
	if err != nil {
		return err
	}
	s.selLength = l
	s.printf("%s %s\n", SuccessStyle.Render("[OK]"), model.Label(s.selModel, s.selTone, s.selLength))
	return nil
}

func (s *ChatSession) cmdAttach(path string) error {
	if path == "" {
		return ErrMissingArgument("path", "/attach ~/photo.png")
	}
	limits := s.comp.Limits()
	f, err := composer.LoadFile(expandHome(path), maxImageBytes)
	if err != nil {
		return err
	}
	if limits.AcceptsImage(f.MIMEType) {
		return s.stageImage(f, composer.FromFile)
	}
	if limits.MaxTextFileBytes > 0 && f.Size() > limits.MaxTextFileBytes {
		return fmt.Errorf("%w: %s is %s", composer.ErrFileTooLarge, f.Name, formatBytes(f.Size()))
	}
	if err := s.comp.AttachText(f); err != nil {
		return err
	}
	s.printf("%s inlined %s (%s); finish the draft and press Enter\n",
		SuccessStyle.Render("[OK]"), f.Name, formatBytes(f.Size()))
	return nil
}

func (s *ChatSession) stageImage(f composer.File, prov composer.Provenance) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	a, err := s.comp.Attachments().AddImage(ctx, s.comp.Preprocessor(), f, prov)
	if err != nil {
		return err
	}
	if s.comp.Limits().ImagePolicy == composer.ImagesWarn {
		s.printf("%s the selected model may ignore images\n", WarningStyle.Render("[WARN]"))
	}
	s.printf("%s attached %s (%dx%d, %s) [%d/%d]\n", SuccessStyle.Render("[OK]"),
		a.Filename, a.Width, a.Height, formatBytes(a.Size),
		s.comp.Attachments().Len(), s.comp.Limits().MaxImages)
	return nil
}

func (s *ChatSession) cmdPaste() error {
	if s.clip == nil {
		return clipboard.ErrUnavailable
	}
	img, err := s.clip.ReadImage()
	if err == nil {
		return s.stageImage(img, composer.Pasted)
	}
	if !errors.Is(err, clipboard.ErrNoImage) {
		return err
	}
	text, err := s.clip.ReadText()
	if err != nil {
		return err
	}
	d := s.comp.PasteText(text)
	if d.Verbatim {
		s.printf("%s pasted %d characters\n", SuccessStyle.Render("[OK]"), d.Runes)
	} else {
		s.printf("%s pasted %d lines as a snippet\n", SuccessStyle.Render("[OK]"), d.Newlines+1)
	}
	return nil
}

func (s *ChatSession) cmdDetach(args []string) error {
	store := s.comp.Attachments()
	if len(args) == 0 {
		n := store.Len()
		store.Clear()
		s.printf("%s removed %d attachment(s)\n", SuccessStyle.Render("[OK]"), n)
		return nil
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return NewValidationError("attachment", args[0], "not a number")
	}
	a, ok := store.RemoveAt(i - 1)
	if !ok {
		return NewNotFoundError("attachment", args[0])
	}
	s.printf("%s removed %s\n", SuccessStyle.Render("[OK]"), a.Filename)
	return nil
}

func (s *ChatSession) cmdCopy() error {
	if s.last == "" {
		return errors.New("no summary to copy yet")
	}
	if s.clip == nil {
		return clipboard.ErrUnavailable
	}
	if err := s.clip.WriteText(s.last); err != nil {
		return err
	}
	s.printf("%s summary copied\n", SuccessStyle.Render("[OK]"))
	return nil
}

func (s *ChatSession) cmdHistory(query string) error {
	if s.hist == nil {
		return errors.New("history is disabled")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var turns []storage.Turn
	var err error
	if query == "" {
		turns, err = s.hist.List(ctx, 10)
	} else {
		turns, err = s.hist.Search(ctx, query, 10)
	}
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		s.printf("%s\n", DimStyle.Render("no turns"))
		return nil
	}
	for _, t := range turns {
		s.printf("%s %s\n", DimStyle.Render(t.CreatedAt.Format("01-02 15:04")), firstLine(t.Prompt, GetTerminalWidth()-14))
	}
	return nil
}

func (s *ChatSession) cmdWarmup() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	status, err := s.client.WarmUp(ctx, false)
	if err != nil {
		return err
	}
	s.printf("%s %s\n", InfoLabel("[Backend]"), status)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *ChatSession) printWelcome() {
	s.printf("\n%s\n", TitleStyle.Render("saransh chat"))
	s.printf("%s\n", RenderSeparator(30))
	s.printf("%s%s\n", RenderLabel("Backend:"), s.client.BaseURL())
	s.printf("%s%s\n", RenderLabel("Model:"), model.Label(s.selModel, s.selTone, s.selLength))
	s.printf("\n%s\n\n", DimStyle.Render(`Type or paste text and press Enter. End a line with \ to continue. /help for commands.`))
}

func (s *ChatSession) printHelp() {
	commands := []struct{ cmd, desc string }{
		{"/model [name]", "Show or switch model"},
		{"/tone <tone>", "formal | casual | neutral (Pegasus-Marathi)"},
		{"/length <len>", "short | medium | long (Pegasus-Marathi)"},
		{"/attach <path>", "Attach an image or inline a text file"},
		{"/paste", "Clipboard image or text"},
		{"/detach [n]", "Drop attachment n, or all"},
		{"/copy", "Copy the last summary"},
		{"/history [query]", "Recent or matching prompts"},
		{"/ready, /warmup", "Backend readiness"},
		{"/clear", "Discard the draft"},
		{"/quit", "Exit"},
	}
	s.printf("\n%s\n", SectionStyle.Render("Commands"))
	for _, c := range commands {
		s.printf("  %s %s\n", PromptStyle.Render(fmt.Sprintf("%-18s", c.cmd)), DimStyle.Render(c.desc))
	}
	s.printf("\n")
}

func (s *ChatSession) printExitSummary() {
	s.printf("\n%s %d summaries in %s\n", DimStyle.Render("[Session]"),
		s.turns, formatDuration(time.Since(s.started).Round(time.Second)))
}

// InfoLabel renders a neutral bracketed tag.
func InfoLabel(tag string) string {
	return SectionStyle.Render(tag)
}

// expandHome expands a leading ~ to the home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
