// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

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

const (
	noticeTTL = 4 * time.Second
	// downPollInterval is the readiness probe interval while the backend
	// is unreachable.
	downPollInterval = 5 * time.Second
)

// =============================================================================
// SESSION
// =============================================================================

// session is the state the composer's collaborators close over. It lives
// behind a pointer so every copy of Model sees the same backend.
type session struct {
	client  *summarizer.Client
	backend components.Backend
	outbox  *composer.Message
	warming bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model. Only Config is required.
type Options struct {
	Config       *config.Config
	Client       *summarizer.Client
	History      *storage.History
	Clipboard    clipboard.Clipboard
	Watcher      *config.Watcher
	Theme        *styles.Theme
	Preprocessor composer.Preprocessor
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	sess       *session
	composer   *composer.Composer
	input      *components.ComposerInput
	transcript *model.Transcript
	cancelMgr  *cancelManager
	recall     *recall

	history *storage.History
	clip    clipboard.Clipboard
	watcher *config.Watcher

	// Rendering
	viewport viewport.Model
	messages *components.MessageList
	snippets *components.SnippetRenderer
	markdown *components.Markdown
	bar      *components.AttachmentBar
	header   *components.Header
	status   *components.StatusBar
	spinner  components.Spinner
	help     help.Model
	showHelp bool

	// Selection
	selModel  summarizer.Model
	selTone   summarizer.Tone
	selLength summarizer.Length

	noticeSeq int
	log       *slog.Logger
}

// New creates the chat model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	client := opts.Client
	if client == nil {
		client = summarizer.NewClientWithConfig(cfg.ClientConfig())
	}

	sess := &session{client: client, backend: components.BackendUnknown}
	cancelMgr := newCancelManager()

	input := components.NewComposerInput(theme)
	collab := composer.Collaborators{
		Submit: func(msg composer.Message) error {
			if sess.client == nil {
				return errNoBackend
			}
			sess.outbox = &msg
			return nil
		},
		Cancel: cancelMgr.cancel,
		Ready:  func() bool { return sess.backend == components.BackendReady },
	}
	var copts []composer.Option
	if opts.Preprocessor != nil {
		copts = append(copts, composer.WithPreprocessor(opts.Preprocessor))
	}
	limits := cfg.Limits()
	if err := limits.Validate(); err != nil {
		logging.Component("chat").Warn("invalid composer limits, using defaults", "error", err)
		limits = composer.DefaultLimits()
	}
	comp := composer.New(limits, input, collab, copts...)
	input.Focus()

	snippets := components.NewSnippetRenderer(theme, limits.Markers, cfg.UI.HighlightSnippets)
	markdown := components.NewMarkdown(theme.GlamourStyle(), cfg.UI.RenderMarkdown)

	header := components.NewHeader(theme)
	header.SetBackend(client.BaseURL())

	h := help.New()
	h.ShowAll = true

	sp := components.NewSpinner("summarizing")

	m := Model{
		cfg:        cfg,
		theme:      theme,
		keys:       DefaultKeyMap(),
		sess:       sess,
		composer:   comp,
		input:      input,
		transcript: model.NewTranscript(),
		cancelMgr:  cancelMgr,
		recall:     newRecall(),
		history:    opts.History,
		clip:       opts.Clipboard,
		watcher:    opts.Watcher,
		viewport:   viewport.New(80, 20),
		messages:   components.NewMessageList(theme, snippets, markdown),
		snippets:   snippets,
		markdown:   markdown,
		bar:        components.NewAttachmentBar(theme),
		header:     header,
		status:     components.NewStatusBar(theme),
		spinner:    sp,
		help:       h,
		showHelp:   cfg.UI.ShowHelp,
		log:        logging.Component("chat"),
	}
	m.selModel, m.selTone, m.selLength = cfg.Selection()
	m.syncChrome()
	return m
}

// Init starts the readiness probe, prompt recall and config watching.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.FocusCmd(),
		CheckReadyCmd(m.sess.client),
		loadPromptsCmd(m.history, recallLimit),
		watchConfigCmd(m.watcher),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.relayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	// Backend
	case ReadyMsg:
		return m.handleReady(msg)
	case WarmUpMsg:
		return m.handleWarmUp(msg)
	case readyPollMsg:
		return m, CheckReadyCmd(m.sess.client)
	case SummaryMsg:
		return m.handleSummary(msg)

	// Composer
	case resizeMsg:
		if layout, ok := m.composer.ResizeDue(msg.ticket); ok {
			m.applyLayout(layout)
		}
		return m, nil
	case caretMsg:
		m.composer.RestoreCaret()
		return m, nil
	case FileMsg:
		return m.handleFile(msg)
	case ImageMsg:
		return m.handleImage(msg)
	case ClipboardMsg:
		return m.handleClipboard(msg)

	// Housekeeping
	case ConfigReloadMsg:
		return m.handleConfigReload(msg)
	case PromptsMsg:
		if msg.Err != nil {
			m.log.Warn("loading prompt history failed", "error", msg.Err)
			return m, nil
		}
		m.recall.load(msg.Prompts)
		return m, nil
	case HistoryListMsg:
		return m.handleHistoryList(msg)
	case recordedMsg:
		if msg.Err != nil {
			m.log.Warn("recording turn failed", "error", msg.Err)
		}
		return m, nil
	case CopiedMsg:
		if msg.Err != nil {
			return m, m.notify("copy failed: "+msg.Err.Error(), components.NoticeError)
		}
		return m, m.notify("summary copied", components.NoticeInfo)
	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.status.ClearNotice()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.spinner.IsActive() {
			m.refreshTranscript()
		}
		return m, cmd
	}

	cmd := m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// BACKEND HANDLERS
// =============================================================================

func (m Model) handleReady(msg ReadyMsg) (tea.Model, tea.Cmd) {
	poll := m.cfg.ClientConfig().ReadyPollInterval
	if poll <= 0 {
		poll = summarizer.DefaultConfig().ReadyPollInterval
	}

	switch {
	case msg.Ready:
		was := m.sess.backend
		m.sess.backend = components.BackendReady
		m.sess.warming = false
		m.syncChrome()
		if was == components.BackendLoading {
			return m, m.notify("model loaded", components.NoticeInfo)
		}
		return m, nil

	case msg.Err != nil:
		m.log.Debug("backend probe failed", "error", msg.Err)
		m.sess.backend = components.BackendDown
		m.syncChrome()
		return m, pollReadyAfter(downPollInterval)
	}

	// Reachable but the model is not loaded yet.
	m.sess.backend = components.BackendLoading
	m.syncChrome()
	if m.cfg.Backend.WarmUpOnStart && !m.sess.warming {
		m.sess.warming = true
		return m, tea.Batch(WarmUpCmd(m.sess.client), pollReadyAfter(poll))
	}
	return m, pollReadyAfter(poll)
}

func (m Model) handleWarmUp(msg WarmUpMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.sess.warming = false
		return m, m.notify("warm-up failed: "+msg.Err.Error(), components.NoticeError)
	}
	switch msg.Status {
	case summarizer.StatusLoaded, summarizer.StatusAlreadyLoaded:
		return m.handleReady(ReadyMsg{Ready: true})
	}
	m.sess.backend = components.BackendLoading
	m.syncChrome()
	return m, m.notify("loading model…", components.NoticeInfo)
}

// startTurn takes the committed message from the outbox and sends it.
func (m Model) startTurn() (tea.Model, tea.Cmd) {
	out := m.sess.outbox
	m.sess.outbox = nil
	if out == nil {
		m.composer.Done()
		return m, nil
	}

	m.composer.Reset()
	m.applyLayout(m.composer.Layout())
	m.recall.push(out.Text)
	m.status.ClearNotice()

	m.transcript.Add(model.NewUserMessage(*out))
	pending := m.transcript.Add(model.NewPendingSummary(m.selModel))

	req := summarizer.Request{
		Text:   out.Text,
		Model:  m.selModel,
		Tone:   m.selTone,
		Length: m.selLength,
	}
	for _, a := range out.Attachments {
		req.Images = append(req.Images, a.Data)
	}

	ctx := m.cancelMgr.begin(context.Background())
	spin := m.spinner.Start()
	m.syncChrome()
	m.viewport.GotoBottom()
	m.refreshTranscript()

	m.log.Info("turn submitted", "model", req.Model, "images", len(req.Images))
	return m, tea.Batch(SummarizeCmd(ctx, m.sess.client, pending.ID, req), spin)
}

func (m Model) handleSummary(msg SummaryMsg) (tea.Model, tea.Cmd) {
	entry := m.transcript.Find(msg.ID)
	if entry == nil || !entry.Pending {
		// Cancelled or cleared while in flight.
		return m, nil
	}
	m.cancelMgr.cancel()
	m.composer.Done()
	m.spinner.Stop()

	var cmds []tea.Cmd
	if msg.Err != nil {
		entry.Fail(msg.Err)
		if summarizer.IsNotRunning(msg.Err) {
			m.sess.backend = components.BackendDown
			cmds = append(cmds, pollReadyAfter(downPollInterval))
		}
		m.log.Warn("summarize failed", "error", msg.Err)
		cmds = append(cmds, m.notify("summary failed", components.NoticeError))
	} else {
		entry.Complete(msg.Result)
		cmds = append(cmds, recordTurnCmd(m.history, &storage.Turn{
			Prompt:     msg.Prompt,
			Summary:    msg.Result.Summary,
			Model:      string(msg.Result.Model),
			Tone:       string(entry.Tone),
			Length:     string(entry.Length),
			Endpoint:   msg.Result.Endpoint,
			Images:     msg.Images,
			DurationMs: msg.Result.Duration.Milliseconds(),
		}))
	}
	m.syncChrome()
	m.refreshTranscript()
	return m, tea.Batch(cmds...)
}

// cancelTurn aborts the in-flight summary.
func (m Model) cancelTurn() (tea.Model, tea.Cmd) {
	if !m.composer.Cancel() {
		return m, nil
	}
	m.spinner.Stop()
	if p := m.transcript.Pending(); p != nil {
		p.Fail(errCancelled)
	}
	m.syncChrome()
	m.refreshTranscript()
	return m, m.notify("cancelled", components.NoticeWarn)
}

// =============================================================================
// ATTACHMENT HANDLERS
// =============================================================================

// attachImage starts staging an image. The slot is reserved now; the
// preprocessed result arrives as an ImageMsg.
func (m *Model) attachImage(f composer.File, prov composer.Provenance) tea.Cmd {
	limits := m.composer.Limits()
	if !limits.AcceptsImage(f.MIMEType) {
		return m.notify(f.Name+": "+composer.ErrUnsupportedType.Error(), components.NoticeWarn)
	}
	t, err := m.composer.Attachments().Begin(prov, f.Name)
	if err != nil {
		return m.notify(err.Error(), components.NoticeWarn)
	}
	m.syncChrome()
	m.relayout()

	cmds := []tea.Cmd{preprocessCmd(m.composer.Preprocessor(), t, f)}
	if limits.ImagePolicy == composer.ImagesWarn {
		cmds = append(cmds, m.notify("images are experimental; the backend may ignore them", components.NoticeWarn))
	}
	return tea.Batch(cmds...)
}

func (m Model) handleImage(msg ImageMsg) (tea.Model, tea.Cmd) {
	store := m.composer.Attachments()
	var cmd tea.Cmd
	if msg.Err != nil {
		store.Fail(msg.Ticket, msg.Err)
		cmd = m.notify("could not read image: "+msg.Err.Error(), components.NoticeError)
	} else if _, ok := store.Complete(msg.Ticket, msg.Result); !ok {
		m.log.Debug("image completion dropped", "ticket", msg.Ticket.ID)
	}
	m.syncChrome()
	m.relayout()
	return m, cmd
}

func (m Model) handleFile(msg FileMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.notify(msg.Err.Error(), components.NoticeError)
	}
	limits := m.composer.Limits()
	switch {
	case limits.AcceptsImage(msg.File.MIMEType):
		return m, m.attachImage(msg.File, composer.FromFile)
	case limits.AcceptsText(msg.File.MIMEType):
		if err := m.composer.AttachText(msg.File); err != nil {
			return m, m.notify(msg.File.Name+": "+err.Error(), components.NoticeWarn)
		}
		return m, m.afterInsert()
	}
	return m, m.notify(msg.File.Name+": "+composer.ErrUnsupportedType.Error(), components.NoticeWarn)
}

func (m Model) handleClipboard(msg ClipboardMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Image != nil:
		return m, m.attachImage(*msg.Image, composer.Pasted)
	case msg.Text != "":
		return m.handlePaste(msg.Text)
	case msg.Err != nil:
		return m, m.notify("clipboard: "+msg.Err.Error(), components.NoticeWarn)
	}
	return m, nil
}

// detach removes the attachment at index i, or the last one when i < 0.
func (m *Model) detach(i int) tea.Cmd {
	store := m.composer.Attachments()
	if i < 0 {
		i = store.Len() - 1
	}
	a, ok := store.RemoveAt(i)
	if !ok {
		return m.notify("no such attachment", components.NoticeWarn)
	}
	m.syncChrome()
	m.relayout()
	return m.notify("removed "+a.Filename, components.NoticeInfo)
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleConfigReload(msg ConfigReloadMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{watchConfigCmd(m.watcher)}
	if msg.Err != nil {
		m.log.Warn("config reload failed", "error", msg.Err)
		cmds = append(cmds, m.notify("config reload failed: "+msg.Err.Error(), components.NoticeError))
		return m, tea.Batch(cmds...)
	}
	cfg := msg.Config

	limits := cfg.Limits()
	if err := m.composer.SetLimits(limits); err != nil {
		cmds = append(cmds, m.notify("composer settings ignored: "+err.Error(), components.NoticeWarn))
	} else {
		m.snippets.SetMarkers(limits.Markers)
		if t, ok := m.composer.PendingResize(); ok {
			cmds = append(cmds, resizeAfter(t))
		}
	}

	m.markdown.SetEnabled(cfg.UI.RenderMarkdown)
	m.snippets.SetHighlight(cfg.UI.HighlightSnippets)
	m.messages.Invalidate()
	m.selModel, m.selTone, m.selLength = cfg.Selection()

	if client := summarizer.NewClientWithConfig(cfg.ClientConfig()); client.BaseURL() != m.sess.client.BaseURL() {
		m.sess.client = client
		m.sess.backend = components.BackendUnknown
		m.sess.warming = false
		m.header.SetBackend(m.sess.client.BaseURL())
		cmds = append(cmds, CheckReadyCmd(m.sess.client))
	}
	m.cfg = cfg

	m.syncChrome()
	m.relayout()
	m.log.Info("config reloaded")
	cmds = append(cmds, m.notify("config reloaded", components.NoticeInfo))
	return m, tea.Batch(cmds...)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Composer returns the composer core, for hosts and tests.
func (m Model) Composer() *composer.Composer { return m.composer }

// Handle returns the host-facing composer capability.
func (m Model) Handle() composer.Handle { return m.composer.Handle() }

// Transcript returns the conversation so far.
func (m Model) Transcript() *model.Transcript { return m.transcript }

// Backend returns the last known backend state.
func (m Model) Backend() components.Backend { return m.sess.backend }

// Selection returns the model, tone and length used for the next turn.
func (m Model) Selection() (summarizer.Model, summarizer.Tone, summarizer.Length) {
	return m.selModel, m.selTone, m.selLength
}

// Notice returns the status bar notice.
func (m Model) Notice() string { return m.status.Notice }

// Shutdown cancels any in-flight request.
func (m Model) Shutdown() {
	m.cancelMgr.cancel()
}
