// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/storage"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

// =============================================================================
// HELPERS
// =============================================================================

// fakeBackend records the last summarize request.
type fakeBackend struct {
	*httptest.Server
	mu     sync.Mutex
	loaded bool
	text   string
	path   string
}

func newFakeBackend(t *testing.T, loaded bool) *fakeBackend {
	t.Helper()
	b := &fakeBackend{loaded: loaded}
	mux := http.NewServeMux()
	summarize := func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.text, b.path = body.Text, r.URL.Path
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "थोडक्यात सारांश"})
	}
	mux.HandleFunc("/summarize", summarize)
	mux.HandleFunc("/summarize-marathi", summarize)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]bool{"loaded": b.loaded})
	})
	mux.HandleFunc("/load", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "loading"})
	})
	mux.HandleFunc("/diagnose", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"model_loaded": b.loaded, "device": "cpu"})
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) lastRequest() (text, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.path
}

// testConfig isolates the config directory and points at url.
func testConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigDir, dir)
	cfg := config.Default()
	cfg.Backend.URL = url
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Logging.Path = filepath.Join(dir, "saransh.log")
	return cfg
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		want  Command
		check func(t *testing.T, a Args)
	}{
		{name: "no args starts the TUI", raw: nil, want: CmdTUI},
		{
			name: "summarize joins text",
			raw:  []string{"summarize", "पुणे", "शहर", "--json"},
			want: CmdSummarize,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "पुणे शहर", a.Text)
				assert.True(t, a.JSON)
			},
		},
		{
			name: "flags before the command word",
			raw:  []string{"-m", "pegasus", "--tone=formal", "s", "text"},
			want: CmdSummarize,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "pegasus", a.Model)
				assert.Equal(t, "formal", a.Tone)
				assert.Equal(t, "text", a.Text)
			},
		},
		{
			name: "repeatable file and image flags",
			raw:  []string{"sum", "--file", "a.txt", "-f", "b.txt", "-i", "c.png"},
			want: CmdSummarize,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, []string{"a.txt", "b.txt"}, a.Files)
				assert.Equal(t, []string{"c.png"}, a.Images)
				assert.Empty(t, a.Text)
			},
		},
		{
			name: "double dash ends flags",
			raw:  []string{"summarize", "--", "--json"},
			want: CmdSummarize,
			check: func(t *testing.T, a Args) {
				assert.False(t, a.JSON)
				assert.Equal(t, "--json", a.Text)
			},
		},
		{
			name: "config set",
			raw:  []string{"config", "SET", "ui.theme", "light"},
			want: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, []string{"ui.theme", "light"}, a.Rest)
			},
		},
		{
			name: "history search with limit",
			raw:  []string{"hist", "search", "पाऊस", "-n", "5"},
			want: CmdHistory,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "search", a.Subcommand)
				assert.Equal(t, []string{"पाऊस"}, a.Rest)
				assert.Equal(t, 5, a.Limit)
			},
		},
		{
			name:  "warmup wait",
			raw:   []string{"load", "-w"},
			want:  CmdWarmup,
			check: func(t *testing.T, a Args) { assert.True(t, a.Wait) },
		},
		{name: "chat alias", raw: []string{"repl"}, want: CmdChat},
		{name: "doctor alias", raw: []string{"doctor"}, want: CmdDiagnose},
		{name: "version flag", raw: []string{"--version"}, want: CmdVersion},
		{name: "help flag", raw: []string{"-h"}, want: CmdHelp},
		{
			name:  "unknown word",
			raw:   []string{"sumarize", "x"},
			want:  CmdUnknown,
			check: func(t *testing.T, a Args) { assert.Equal(t, []string{"sumarize", "x"}, a.Raw) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.raw)
			assert.Equal(t, tt.want, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParseArgs_InvalidLimitIgnored(t *testing.T) {
	_, args := ParseArgs([]string{"history", "-n", "abc"})
	assert.Zero(t, args.Limit)
}

func TestHandleUnknown_Suggests(t *testing.T) {
	_, args := ParseArgs([]string{"hisotry"})
	err := HandleUnknown(args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "history"`)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestSuggestCommand(t *testing.T) {
	assert.Equal(t, "summarize", SuggestCommand("sumarize"))
	assert.Equal(t, "history", SuggestCommand("HISOTRY"))
	assert.Equal(t, "", SuggestCommand("x"))
	assert.Equal(t, "", SuggestCommand("chat"), "exact matches need no suggestion")
	assert.Equal(t, "", SuggestCommand("kubernetes"))
}

func TestLevenshteinDistance_Runes(t *testing.T) {
	assert.Equal(t, 0, levenshteinDistance("", ""))
	assert.Equal(t, 3, levenshteinDistance("", "abc"))
	assert.Equal(t, 1, levenshteinDistance("पाऊस", "पाउस"))
	assert.Equal(t, 3, levenshteinDistance("kitten", "sitting"))
}

// =============================================================================
// OVERRIDES
// =============================================================================

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	err := ApplyOverrides(cfg, Args{URL: "http://gpu:8000/", Model: "mt5", Tone: "casual", Length: "long"})
	require.NoError(t, err)

	assert.Equal(t, "http://gpu:8000", cfg.Backend.URL)
	assert.Equal(t, string(summarizer.ModelMT5), cfg.Summary.Model)
	assert.Equal(t, "casual", cfg.Summary.Tone)
	assert.Equal(t, "long", cfg.Summary.Length)
}

func TestApplyOverrides_Invalid(t *testing.T) {
	var valErr *ValidationError

	err := ApplyOverrides(config.Default(), Args{Model: "gpt"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "model", valErr.Field)
	assert.Contains(t, valErr.Example, "pegasus")

	err = ApplyOverrides(config.Default(), Args{Tone: "angry"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "tone", valErr.Field)
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "y", "bad"), ExitUsageError},
		{"tty", &TTYRequiredError{Operation: "chat"}, ExitUsageError},
		{"empty text", summarizer.ErrEmptyText, ExitUsageError},
		{"config validation", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"config command", NewCommandError("config", "load", "x", errors.New("boom")), ExitConfigError},
		{"not found", NewNotFoundError("turn", "9"), ExitNotFoundError},
		{"cancelled", summarizer.ErrCancelled, ExitCancelled},
		{"timeout", fmt.Errorf("wrapped: %w", summarizer.ErrTimeout), ExitTimeoutError},
		{"not running", summarizer.ErrNotRunning, ExitNetworkError},
		{"not ready", ErrNotReady, ExitNotReady},
		{"capacity", composer.ErrCapacity, ExitInputError},
		{"missing file", fmt.Errorf("open: %w", os.ErrNotExist), ExitInputError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

// =============================================================================
// MESSAGE ASSEMBLY
// =============================================================================

func TestBuildMessage_InlinesTextFiles(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	path := filepath.Join(t.TempDir(), "lekh.txt")
	require.NoError(t, os.WriteFile(path, []byte("पहिली ओळ\r\nदुसरी ओळ"), 0600))

	msg, err := BuildMessage(context.Background(), cfg, Args{Text: "सारांश करा", Files: []string{path}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg.Text, "सारांश करा\n\n"))
	assert.Contains(t, msg.Text, "File: lekh.txt:")
	assert.Contains(t, msg.Text, "पहिली ओळ\nदुसरी ओळ")
	assert.Empty(t, msg.Attachments)
}

func TestBuildMessage_BlankTextRefused(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	_, err := BuildMessage(context.Background(), cfg, Args{Text: "   \n "})
	assert.ErrorIs(t, err, summarizer.ErrEmptyText)
}

func TestBuildMessage_MissingFile(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	_, err := BuildMessage(context.Background(), cfg, Args{Text: "x", Files: []string{filepath.Join(t.TempDir(), "nope.txt")}})
	require.Error(t, err)
	assert.Equal(t, ExitInputError, GetExitCode(err))
}

func TestBuildMessage_ImagesDisabled(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Composer.Images = string(composer.ImagesDisabled)
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0600))

	_, err := BuildMessage(context.Background(), cfg, Args{Text: "x", Images: []string{path}})
	assert.ErrorIs(t, err, composer.ErrImagesDisabled)
}

func TestRequestFor(t *testing.T) {
	msg := composer.Message{
		Text:        "मजकूर",
		Attachments: []composer.Attachment{{Data: "data:image/png;base64,AA=="}},
	}
	req := RequestFor(msg, summarizer.ModelPegasus, summarizer.ToneFormal, summarizer.LengthShort)
	assert.Equal(t, "मजकूर", req.Text)
	assert.Equal(t, []string{"data:image/png;base64,AA=="}, req.Images)
	assert.Equal(t, summarizer.ToneFormal, req.Tone)
}

// =============================================================================
// READINESS
// =============================================================================

func TestEnsureReady(t *testing.T) {
	b := newFakeBackend(t, false)
	cfg := testConfig(t, b.URL)
	client := NewClient(cfg)

	err := ensureReady(context.Background(), client, false)
	assert.ErrorIs(t, err, ErrNotReady)

	b.mu.Lock()
	b.loaded = true
	b.mu.Unlock()
	assert.NoError(t, ensureReady(context.Background(), client, false))
}

func TestEnsureReady_Unreachable(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	err := ensureReady(context.Background(), NewClient(cfg), false)
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
}

// =============================================================================
// REPL SESSION
// =============================================================================

func newTestSession(t *testing.T, b *fakeBackend, hist *storage.History) (*ChatSession, *bytes.Buffer) {
	t.Helper()
	cfg := testConfig(t, b.URL)
	out := &bytes.Buffer{}
	return NewChatSession(cfg, NewClient(cfg), hist, nil, out), out
}

func TestChatSession_ContinuationAndSubmit(t *testing.T) {
	b := newFakeBackend(t, true)
	s, out := newTestSession(t, b, nil)

	require.True(t, s.HandleLine(`पहिली ओळ\`))
	assert.Equal(t, "पहिली ओळ\n", s.Composer().Text())

	require.True(t, s.HandleLine("दुसरी ओळ"))
	text, path := b.lastRequest()
	assert.Equal(t, "पहिली ओळ\nदुसरी ओळ", text)
	assert.Equal(t, "/summarize-marathi", path)

	assert.Equal(t, "थोडक्यात सारांश", s.LastSummary())
	assert.Contains(t, out.String(), "थोडक्यात सारांश")
	assert.Empty(t, s.Composer().Text(), "draft is reset after a turn")
	assert.False(t, s.Composer().Busy())
}

func TestChatSession_NotReadyKeepsDraft(t *testing.T) {
	b := newFakeBackend(t, false)
	s, out := newTestSession(t, b, nil)

	s.HandleLine("draft")
	assert.Equal(t, "draft", s.Composer().Text())
	assert.Contains(t, out.String(), "still loading")
	text, _ := b.lastRequest()
	assert.Empty(t, text)
}

func TestChatSession_RecordsHistory(t *testing.T) {
	b := newFakeBackend(t, true)
	hist, err := storage.Open(filepath.Join(t.TempDir(), "h.db"), 10)
	require.NoError(t, err)
	defer hist.Close()

	s, _ := newTestSession(t, b, hist)
	s.HandleLine("english news text")

	turns, err := hist.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "english news text", turns[0].Prompt)
	assert.Equal(t, "थोडक्यात सारांश", turns[0].Summary)
}

func TestChatSession_SlashCommands(t *testing.T) {
	b := newFakeBackend(t, true)
	s, out := newTestSession(t, b, nil)

	assert.False(t, s.HandleLine("/quit"))
	assert.True(t, s.HandleLine("/help"))
	assert.Contains(t, out.String(), "/attach")

	s.HandleLine("/model mt5")
	m, _, _ := s.Selection()
	assert.Equal(t, summarizer.ModelMT5, m)

	out.Reset()
	s.HandleLine("/tone formal")
	assert.Contains(t, out.String(), "Pegasus-Marathi only")

	s.HandleLine("/model pegasus")
	s.HandleLine("/length short")
	_, _, l := s.Selection()
	assert.Equal(t, summarizer.LengthShort, l)

	out.Reset()
	s.HandleLine("/bogus")
	assert.Contains(t, out.String(), "unknown command")
}

func TestChatSession_SlashOnlyAtDraftStart(t *testing.T) {
	b := newFakeBackend(t, false)
	s, _ := newTestSession(t, b, nil)

	s.HandleLine(`first\`)
	s.HandleLine("/model mt5")
	assert.Contains(t, s.Composer().Text(), "/model mt5", "slash text mid-draft is content")
}

func TestChatSession_AttachTextFile(t *testing.T) {
	b := newFakeBackend(t, true)
	s, out := newTestSession(t, b, nil)

	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# शीर्षक"), 0600))

	s.HandleLine("/attach " + path)
	assert.Contains(t, s.Composer().Text(), "File: notes.md:")
	assert.Contains(t, out.String(), "inlined notes.md")
	assert.Zero(t, s.Composer().Attachments().Len())
}

func TestChatSession_CopyWithoutSummary(t *testing.T) {
	b := newFakeBackend(t, true)
	s, out := newTestSession(t, b, nil)

	s.HandleLine("/copy")
	assert.Contains(t, out.String(), "no summary to copy")
}

func TestChatSession_InterruptFromAnotherGoroutine(t *testing.T) {
	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"loaded": true})
	})
	mux.HandleFunc("/summarize", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			_ = json.NewEncoder(w).Encode(map[string]string{"summary": "too late"})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL)
	out := &bytes.Buffer{}
	s := NewChatSession(cfg, NewClient(cfg), nil, nil, out)
	assert.False(t, s.Interrupt(), "nothing running yet")

	interrupted := make(chan bool, 1)
	go func() {
		<-started
		interrupted <- s.Interrupt()
	}()

	require.True(t, s.HandleLine("hello"))
	assert.True(t, <-interrupted)
	assert.False(t, s.Composer().Busy())
	assert.Empty(t, s.LastSummary())
	assert.NotContains(t, out.String(), "[Error]")
}

// =============================================================================
// DIAGNOSE
// =============================================================================

func TestRunChecks_Healthy(t *testing.T) {
	b := newFakeBackend(t, true)
	cfg := testConfig(t, b.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := RunChecks(ctx, cfg, nil, NewClient(cfg), nil)

	_, _, failed := r.Counts()
	assert.Zero(t, failed)
	assert.Equal(t, "cpu", r.Backend["device"])

	data := r.Data()
	assert.True(t, data.Healthy)
	assert.Len(t, data.Checks, len(r.Checks))
}

func TestRunChecks_BackendDown(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	r := RunChecks(context.Background(), cfg, nil, NewClient(cfg), nil)

	var backend *HealthCheck
	for _, c := range r.Checks {
		if c.Name == "Backend" {
			backend = c
		}
		assert.NotEqual(t, "Models", c.Name, "model check is skipped when unreachable")
	}
	require.NotNil(t, backend)
	assert.Equal(t, CheckFail, backend.Status)
	assert.False(t, r.Data().Healthy)
}

func TestRunChecks_ConfigLoadError(t *testing.T) {
	b := newFakeBackend(t, true)
	cfg := testConfig(t, b.URL)

	r := RunChecks(context.Background(), cfg, errors.New("bad toml"), NewClient(cfg), nil)
	require.NotEmpty(t, r.Checks)
	assert.Equal(t, CheckFail, r.Checks[0].Status)
	assert.Contains(t, r.Checks[0].Fix, "config reset")
}

// =============================================================================
// CONFIRMATION AND OUTPUT
// =============================================================================

func TestPromptYesNo(t *testing.T) {
	var out bytes.Buffer
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false} {
		got, err := promptYesNo(strings.NewReader(input), &out, "Proceed?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
	}
	assert.Contains(t, out.String(), "Proceed? [y/N]")
}

func TestConfirm_RequiresYesInJSONMode(t *testing.T) {
	ok, err := confirm("clear", "saransh history clear", Args{Yes: true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = confirm("clear", "saransh history clear", Args{JSON: true})
	assert.False(t, ok)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "saransh history clear --yes", valErr.Example)
}

func TestJSONResponse_Write(t *testing.T) {
	var buf bytes.Buffer
	resp := NewJSONResponse("summarize", SummarizeData{Summary: "<सारांश>", Model: "Pegasus-Marathi", Images: 1})
	require.NoError(t, resp.Write(&buf))

	assert.Contains(t, buf.String(), "<सारांश>", "HTML is not escaped")

	var decoded struct {
		Success bool          `json:"success"`
		Command string        `json:"command"`
		Error   *string       `json:"error"`
		Data    SummarizeData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, "summarize", decoded.Command)
	assert.Nil(t, decoded.Error)
	assert.Equal(t, 1, decoded.Data.Images)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", firstLine("\n a\nb", 40))
	assert.Equal(t, "abcdefghij...", firstLine("abcdefghijklmnopq", 13))
	assert.Equal(t, "पाऊस", firstLine("  पाऊस  ", 10))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
}
