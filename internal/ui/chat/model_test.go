// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/saransh-tui/internal/clipboard"
	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/ui/components"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

type fakeClipboard struct {
	image   *composer.File
	text    string
	written string
}

func (f *fakeClipboard) ReadImage() (composer.File, error) {
	if f.image == nil {
		return composer.File{}, clipboard.ErrNoImage
	}
	return *f.image, nil
}

func (f *fakeClipboard) ReadText() (string, error) { return f.text, nil }

func (f *fakeClipboard) WriteText(text string) error {
	f.written = text
	return nil
}

var echoPreprocessor = composer.PreprocessorFunc(func(_ context.Context, f composer.File) (composer.PreprocessResult, error) {
	return composer.PreprocessResult{DataURI: "data:" + f.MIMEType + ";base64,AA==", File: f, Width: 4, Height: 3}, nil
})

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Backend.URL = "http://127.0.0.1:1"
	cfg.Backend.WarmUpOnStart = true
	cfg.UI.ShowHelp = false
	cfg.Composer.Images = string(composer.ImagesAllowed)
	return cfg
}

func newTestModel(t *testing.T, clip clipboard.Clipboard) Model {
	t.Helper()
	m := New(Options{
		Config:       testConfig(),
		Theme:        styles.NewTheme("dark"),
		Clipboard:    clip,
		Preprocessor: echoPreprocessor,
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, text string) Model {
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func press(m Model, k tea.KeyType) (Model, tea.Cmd) {
	return update(m, tea.KeyMsg{Type: k})
}

func ready(m Model) Model {
	m, _ = update(m, ReadyMsg{Ready: true})
	return m
}

// runCmd executes cmd and flattens batches. Only use it on commands that
// contain no timers.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func pngFile(name string) composer.File {
	return composer.File{Name: name, MIMEType: "image/png", Data: []byte("png")}
}

// =============================================================================
// TURN LIFECYCLE
// =============================================================================

func TestSubmitAndComplete(t *testing.T) {
	m := ready(newTestModel(t, nil))
	m = typeText(m, "पुणे शहरातील बातमी")

	m, _ = press(m, tea.KeyEnter)
	require.True(t, m.Composer().Busy())
	assert.Empty(t, m.input.Value(), "draft is reset after commit")
	require.Equal(t, 2, m.Transcript().Len())

	user := m.Transcript().Messages[0]
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "पुणे शहरातील बातमी", user.Content)
	pending := m.Transcript().Pending()
	require.NotNil(t, pending)

	m, _ = update(m, SummaryMsg{ID: pending.ID, Prompt: user.Content, Result: &summarizer.Result{
		Summary: "छोटी बातमी",
		Model:   summarizer.ModelPegasus,
	}})
	assert.False(t, m.Composer().Busy())
	last := m.Transcript().LastSummary()
	require.NotNil(t, last)
	assert.Equal(t, "छोटी बातमी", last.Content)
}

func TestSubmit_RefusedWhileBackendNotReady(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "text")

	m, cmd := press(m, tea.KeyEnter)
	assert.NotNil(t, cmd)
	assert.Equal(t, 0, m.Transcript().Len())
	assert.Equal(t, "text", m.input.Value(), "refused drafts are kept")
	assert.Equal(t, composer.RefuseNotReady.String(), m.Notice())
}

func TestSubmit_BusyRefusesSecondCommit(t *testing.T) {
	m := ready(newTestModel(t, nil))
	m = typeText(m, "first")
	m, _ = press(m, tea.KeyEnter)

	m = typeText(m, "second")
	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, 2, m.Transcript().Len())
	assert.Equal(t, "second", m.input.Value())
	assert.Equal(t, composer.RefuseBusy, m.Composer().LastRefusal())
}

func TestCancel_IgnoresLateResult(t *testing.T) {
	m := ready(newTestModel(t, nil))
	m = typeText(m, "cancel me")
	m, _ = press(m, tea.KeyEnter)
	pending := m.Transcript().Pending()
	require.NotNil(t, pending)

	m, _ = press(m, tea.KeyEsc)
	assert.False(t, m.Composer().Busy(), "cancel leaves busy immediately")
	assert.Equal(t, model.RoleError, pending.Role)
	assert.Equal(t, "cancelled", pending.Content)

	m, _ = update(m, SummaryMsg{ID: pending.ID, Result: &summarizer.Result{Summary: "late"}})
	assert.Equal(t, "cancelled", pending.Content)
	assert.Nil(t, m.Transcript().LastSummary())
}

func TestSummaryFailure_MarksBackendDown(t *testing.T) {
	m := ready(newTestModel(t, nil))
	m = typeText(m, "hello")
	m, _ = press(m, tea.KeyEnter)
	pending := m.Transcript().Pending()

	m, _ = update(m, SummaryMsg{ID: pending.ID, Err: summarizer.ErrNotRunning})
	assert.False(t, m.Composer().Busy())
	assert.Equal(t, model.RoleError, pending.Role)
	assert.Equal(t, components.BackendDown, m.Backend())
}

// =============================================================================
// KEYS
// =============================================================================

func TestInterrupt_ClearsThenQuits(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "draft")

	m, _ = press(m, tea.KeyCtrlC)
	assert.Empty(t, m.input.Value())

	_, cmd := press(m, tea.KeyCtrlC)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNewlineKey_InsertsAtCaret(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "ab")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m, _ = update(m, caretMsg{})
	m = typeText(m, "cd")
	assert.Equal(t, "ab\ncd", m.input.Value())
}

func TestTypingBeforeCaretRestoreKeepsUserCaret(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "abcd")
	m, _ = press(m, tea.KeyLeft)
	m, _ = press(m, tea.KeyLeft)
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	require.Equal(t, "ab\ncd", m.input.Value())

	// A keystroke handled before the queued caret restore.
	m = typeText(m, "X")
	m, _ = update(m, caretMsg{})
	m = typeText(m, "Y")
	assert.Equal(t, "ab\ncdXY", m.input.Value())
}

func TestCycleModelAndTone(t *testing.T) {
	m := newTestModel(t, nil)
	start, _, _ := m.Selection()

	m, _ = press(m, tea.KeyCtrlO)
	next, _, _ := m.Selection()
	assert.Equal(t, start.Next(), next)

	for sel, _, _ := m.Selection(); sel != summarizer.ModelMT5; sel, _, _ = m.Selection() {
		m, _ = press(m, tea.KeyCtrlO)
	}
	m, _ = press(m, tea.KeyF2)
	assert.Contains(t, m.Notice(), "only")
}

// =============================================================================
// PASTE AND ATTACHMENTS
// =============================================================================

func TestPaste_SmallIsVerbatim(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a\tb"), Paste: true})
	assert.Equal(t, "a    b", m.input.Value())
}

func TestPaste_LargeIsWrapped(t *testing.T) {
	m := newTestModel(t, nil)
	markers := m.Composer().Limits().Markers
	block := strings.Repeat("ओळ\n", 10)

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(block), Paste: true})
	require.NotNil(t, cmd)
	m, _ = update(m, caretMsg{})

	value := m.input.Value()
	assert.True(t, strings.HasPrefix(value, markers.Begin+"\n"))
	assert.True(t, strings.HasSuffix(value, markers.End+"\n"))
	from, _ := m.input.Selection()
	assert.Equal(t, len([]rune(value)), from, "caret sits after the snippet")
}

func TestClipboardImage_StagedAfterPreprocess(t *testing.T) {
	img := pngFile("shot.png")
	m := newTestModel(t, &fakeClipboard{image: &img})

	msgs := runCmd(readClipboardCmd(m.clip))
	require.Len(t, msgs, 1)
	m, cmd := update(m, msgs[0])
	store := m.Composer().Attachments()
	assert.Equal(t, 1, store.Pending())

	msgs = runCmd(cmd)
	require.Len(t, msgs, 1)
	require.IsType(t, ImageMsg{}, msgs[0])
	m, _ = update(m, msgs[0])

	require.Equal(t, 1, store.Len())
	assert.Equal(t, composer.Pasted, store.List()[0].Provenance)
	assert.Contains(t, m.View(), composer.PastedImageName)
}

func TestClipboardText_FallsBackToPaste(t *testing.T) {
	m := newTestModel(t, &fakeClipboard{text: "from clipboard"})
	msgs := runCmd(readClipboardCmd(m.clip))
	require.Len(t, msgs, 1)
	m, _ = update(m, msgs[0])
	assert.Equal(t, "from clipboard", m.input.Value())
}

func TestImageOnlyDraftIsRefused(t *testing.T) {
	img := pngFile("a.png")
	m := ready(newTestModel(t, nil))
	m, cmd := update(m, ClipboardMsg{Image: &img})
	for _, msg := range runCmd(cmd) {
		m, _ = update(m, msg)
	}
	require.Equal(t, 1, m.Composer().Attachments().Len())

	m, _ = press(m, tea.KeyEnter)
	assert.Equal(t, composer.RefuseEmpty, m.Composer().LastRefusal())
	assert.Equal(t, 0, m.Transcript().Len())
}

func TestSubmit_CarriesAttachments(t *testing.T) {
	img := pngFile("scan.png")
	m := ready(newTestModel(t, nil))
	m, cmd := update(m, ClipboardMsg{Image: &img})
	for _, msg := range runCmd(cmd) {
		m, _ = update(m, msg)
	}
	m = typeText(m, "describe")
	m, _ = press(m, tea.KeyEnter)

	require.Equal(t, 2, m.Transcript().Len())
	user := m.Transcript().Messages[0]
	require.Len(t, user.Attachments, 1)
	assert.Equal(t, composer.PastedImageName, user.Attachments[0].Filename)
	assert.Equal(t, 0, m.Composer().Attachments().Len(), "attachments leave with the message")
}

func TestInFlightImageDroppedByReset(t *testing.T) {
	img := pngFile("late.png")
	m := newTestModel(t, nil)
	m = typeText(m, "x")
	m, cmd := update(m, ClipboardMsg{Image: &img})
	msgs := runCmd(cmd)

	m, _ = press(m, tea.KeyCtrlC)
	for _, msg := range msgs {
		m, _ = update(m, msg)
	}
	assert.Equal(t, 0, m.Composer().Attachments().Len())
}

func TestFileMsg_TextIsInlined(t *testing.T) {
	m := newTestModel(t, nil)
	f := composer.File{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("line")}
	m, _ = update(m, FileMsg{Path: "notes.txt", File: f})
	m, _ = update(m, caretMsg{})

	markers := m.Composer().Limits().Markers
	assert.Equal(t, composer.FormatTextFile("notes.txt", "line", markers), m.input.Value())
	assert.Equal(t, 0, m.Composer().Attachments().Len())
}

func TestFileMsg_Unsupported(t *testing.T) {
	m := newTestModel(t, nil)
	f := composer.File{Name: "a.zip", MIMEType: "application/zip", Data: []byte("PK")}
	m, _ = update(m, FileMsg{File: f})
	assert.Contains(t, m.Notice(), composer.ErrUnsupportedType.Error())
}

// =============================================================================
// BACKEND STATE
// =============================================================================

func TestReadyMsg_States(t *testing.T) {
	m := newTestModel(t, nil)

	m, cmd := update(m, ReadyMsg{Err: errors.New("connection refused")})
	assert.Equal(t, components.BackendDown, m.Backend())
	assert.NotNil(t, cmd)

	m, _ = update(m, ReadyMsg{Ready: false})
	assert.Equal(t, components.BackendLoading, m.Backend())
	assert.True(t, m.sess.warming, "warm-up is requested once")

	m, _ = update(m, WarmUpMsg{Status: summarizer.StatusLoaded})
	assert.Equal(t, components.BackendReady, m.Backend())
}

func TestConfigReload_KeepsDraft(t *testing.T) {
	m := newTestModel(t, nil)
	m = typeText(m, "keep me")

	cfg := testConfig()
	cfg.Composer.MaxRows = 3
	cfg.Summary.Model = string(summarizer.ModelIndicBART)
	m, _ = update(m, ConfigReloadMsg{Config: cfg})

	assert.Equal(t, 3, m.Composer().Limits().MaxRows)
	assert.Equal(t, "keep me", m.input.Value())
	sel, _, _ := m.Selection()
	assert.Equal(t, summarizer.ModelIndicBART, sel)
}

func TestConfigReload_SameBackendKeepsState(t *testing.T) {
	m := ready(newTestModel(t, nil))
	require.Equal(t, components.BackendReady, m.Backend())

	cfg := testConfig()
	cfg.Backend.URL += "/"
	m, _ = update(m, ConfigReloadMsg{Config: cfg})
	assert.Equal(t, components.BackendReady, m.Backend())

	cfg = testConfig()
	cfg.Backend.URL = "http://127.0.0.1:2"
	m, _ = update(m, ConfigReloadMsg{Config: cfg})
	assert.Equal(t, components.BackendUnknown, m.Backend())
}

func TestConfigReload_Error(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = update(m, ConfigReloadMsg{Err: errors.New("bad toml")})
	assert.Contains(t, m.Notice(), "bad toml")
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

func TestSummarizeAndReadyCmds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"loaded": true})
	})
	mux.HandleFunc("/summarize", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "short"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := summarizer.NewClientWithConfig(&summarizer.ClientConfig{BaseURL: srv.URL})

	msg := CheckReadyCmd(client)()
	assert.Equal(t, ReadyMsg{Ready: true}, msg)

	req := summarizer.Request{Text: "a short english text", Model: summarizer.ModelPegasus}
	res := SummarizeCmd(context.Background(), client, "id-1", req)().(SummaryMsg)
	require.NoError(t, res.Err)
	assert.Equal(t, "id-1", res.ID)
	assert.Equal(t, "short", res.Result.Summary)
	assert.Equal(t, "/summarize", res.Result.Endpoint)
}

func TestSummarizeCmd_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	client := summarizer.NewClientWithConfig(&summarizer.ClientConfig{BaseURL: srv.URL})

	cm := newCancelManager()
	ctx := cm.begin(context.Background())
	cm.cancel()
	res := SummarizeCmd(ctx, client, "x", summarizer.Request{Text: "text"})().(SummaryMsg)
	assert.True(t, summarizer.IsCancelled(res.Err))
	assert.False(t, cm.active())
}
