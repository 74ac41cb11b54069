// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a fake summarization server.
type backend struct {
	*httptest.Server
	last     atomic.Value // summarizeBody
	path     atomic.Value // string
	readyAt  int32        // /ready reports loaded from this probe on
	probes   atomic.Int32
	loadHits atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	summarize := func(w http.ResponseWriter, r *http.Request) {
		var body summarizeBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"detail":"bad json"}`, http.StatusUnprocessableEntity)
			return
		}
		b.last.Store(body)
		b.path.Store(r.URL.Path)
		if body.Text == "explode" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail":"CUDA out of memory"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "सारांश"})
	}
	mux.HandleFunc("/summarize", summarize)
	mux.HandleFunc("/summarize-marathi", summarize)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		n := b.probes.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]bool{"loaded": b.readyAt > 0 && n >= b.readyAt})
	})
	mux.HandleFunc("/load", func(w http.ResponseWriter, r *http.Request) {
		b.loadHits.Add(1)
		status := "loading"
		if r.URL.Query().Get("blocking") == "true" {
			status = "loaded"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	})
	mux.HandleFunc("/diagnose", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"python_version":"3.11.4","model_loaded":true,"torch":true}`))
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *backend) client() *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: b.URL, ReadyPollInterval: 5 * time.Millisecond})
}

// =============================================================================
// SUMMARIZE TESTS
// =============================================================================

func TestSummarize_RoutesByScript(t *testing.T) {
	b := newBackend(t)
	c := b.client()

	res, err := c.Summarize(context.Background(), Request{Text: "मराठी भाषा ही महाराष्ट्राची राजभाषा आहे."})
	require.NoError(t, err)
	assert.Equal(t, "सारांश", res.Summary)
	assert.Equal(t, "/summarize-marathi", b.path.Load())
	assert.Equal(t, endpointMarathi, res.Endpoint)

	_, err = c.Summarize(context.Background(), Request{Text: "The quick brown fox."})
	require.NoError(t, err)
	assert.Equal(t, "/summarize", b.path.Load())
}

func TestSummarize_ToneAndLengthOnlyForPegasus(t *testing.T) {
	b := newBackend(t)
	c := b.client()

	_, err := c.Summarize(context.Background(), Request{
		Text: "some text", Model: ModelPegasus, Tone: ToneFormal, Length: LengthLong,
	})
	require.NoError(t, err)
	body := b.last.Load().(summarizeBody)
	assert.Equal(t, 60, body.MinLength)
	assert.Equal(t, 200, body.MaxLength)
	assert.Equal(t, "formal", body.Tone)
	assert.Equal(t, "Pegasus-Marathi", body.Model)

	_, err = c.Summarize(context.Background(), Request{
		Text: "some text", Model: ModelMT5, Tone: ToneFormal, Length: LengthLong,
	})
	require.NoError(t, err)
	body = b.last.Load().(summarizeBody)
	assert.Equal(t, 30, body.MinLength)
	assert.Equal(t, 100, body.MaxLength)
	assert.Empty(t, body.Tone)
}

func TestSummarize_SendsImagesAndNormalizedText(t *testing.T) {
	b := newBackend(t)
	c := b.client()

	decomposed := "e\u0301" // e + combining acute
	_, err := c.Summarize(context.Background(), Request{
		Text:   "  caf" + decomposed + "  ",
		Images: []string{"data:image/png;base64,AAAA"},
	})
	require.NoError(t, err)
	body := b.last.Load().(summarizeBody)
	assert.Equal(t, "caf\u00e9", body.Text)
	assert.Equal(t, []string{"data:image/png;base64,AAAA"}, body.Images)
}

func TestSummarize_EmptyText(t *testing.T) {
	c := NewClient()
	_, err := c.Summarize(context.Background(), Request{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSummarize_ServerError(t *testing.T) {
	b := newBackend(t)
	_, err := b.client().Summarize(context.Background(), Request{Text: "explode"})
	require.Error(t, err)

	var ce *ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrTypeServer, ce.Type)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
	assert.Contains(t, ce.Error(), "CUDA out of memory")
}

func TestSummarize_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClientWithConfig(&ClientConfig{BaseURL: url})
	_, err := c.Summarize(context.Background(), Request{Text: "hello"})
	assert.True(t, IsNotRunning(err), "got %v", err)
	assert.False(t, c.Ready(context.Background()))
}

func TestSummarize_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}).Summarize(ctx, Request{Text: "hello"})
	assert.True(t, IsCancelled(err), "got %v", err)
}

func TestSummarize_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Summarize(context.Background(), Request{Text: "hello"})
	assert.True(t, IsTimeout(err), "got %v", err)
}

// =============================================================================
// READINESS TESTS
// =============================================================================

func TestWarmUp(t *testing.T) {
	b := newBackend(t)
	c := b.client()

	status, err := c.WarmUp(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, status)

	status, err = c.WarmUp(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
	assert.Equal(t, int32(2), b.loadHits.Load())
}

func TestWaitReady(t *testing.T) {
	b := newBackend(t)
	b.readyAt = 3
	c := b.client()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.WaitReady(ctx))
	assert.GreaterOrEqual(t, b.probes.Load(), int32(3))
}

func TestWaitReady_ContextEnds(t *testing.T) {
	b := newBackend(t) // never ready
	c := b.client()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := c.WaitReady(ctx)
	assert.Error(t, err)
}

func TestDiagnose(t *testing.T) {
	b := newBackend(t)
	d, err := b.client().Diagnose(context.Background())
	require.NoError(t, err)
	assert.True(t, d.ModelLoaded())
	assert.Equal(t, []string{"model_loaded", "python_version", "torch"}, d.Keys())
}

// =============================================================================
// ROUTING AND PARAMS
// =============================================================================

func TestIsDevanagari(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"नमस्कार", true},
		{"hello", false},
		{"", false},
		{"12345", false},
		{"Pune पुणे शहर", true},
		{"The city of पुणे is large", false},
	}
	for _, tt := range tests {
		if got := IsDevanagari(tt.text); got != tt.want {
			t.Errorf("IsDevanagari(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestResolveParams(t *testing.T) {
	p := ResolveParams(ModelPegasus, ToneCasual, LengthShort)
	if p.Tone != ToneCasual || p.MinLength != 20 || p.MaxLength != 60 {
		t.Errorf("Pegasus params = %+v", p)
	}

	p = ResolveParams(ModelIndicBART, ToneCasual, LengthShort)
	if p.Tone != ToneNeutral || p.Length != LengthMedium {
		t.Errorf("IndicBART params = %+v", p)
	}

	p = ResolveParams(ModelPegasus, "", "")
	if p.Tone != ToneNeutral || p.Length != LengthMedium {
		t.Errorf("Pegasus defaults = %+v", p)
	}
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("pegasus-marathi")
	require.NoError(t, err)
	assert.Equal(t, ModelPegasus, m)

	_, err = ParseModel("gpt")
	assert.Error(t, err)

	assert.Equal(t, ModelIndicBART, ModelMT5.Next())
	assert.Equal(t, ModelMT5, ModelPegasus.Next())
}
