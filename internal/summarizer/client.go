// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/saransh-tui/internal/logging"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the summarizer client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int // HTTP status for ErrTypeServer
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same type, so errors.Is works against
// the sentinels below.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeCancelled
	ErrTypeInvalidResponse
	ErrTypeServer
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotRunning:
		return "not_running"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCancelled:
		return "cancelled"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeServer:
		return "server"
	}
	return "unknown"
}

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "summarization backend is not running"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCancelled  = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
	ErrEmptyText  = errors.New("nothing to summarize")
)

// IsNotRunning reports whether err means the backend is unreachable.
func IsNotRunning(err error) bool { return errors.Is(err, ErrNotRunning) }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for summarize requests (default: 120s). Model inference on
	// CPU is slow.
	Timeout time.Duration

	// ReadyPollInterval between /ready probes in WaitReady (default: 2s)
	ReadyPollInterval time.Duration

	// WarmUpTimeout bounds a blocking /load (default: 5m)
	WarmUpTimeout time.Duration

	// DefaultModel to use if none specified (default: Pegasus-Marathi)
	DefaultModel Model
}

// DefaultBaseURL is the backend address when nothing is configured.
const DefaultBaseURL = "http://localhost:8000"

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           DefaultBaseURL,
		Timeout:           120 * time.Second,
		ReadyPollInterval: 2 * time.Second,
		WarmUpTimeout:     5 * time.Minute,
		DefaultModel:      ModelPegasus,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the summarization backend.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration. Zero
// fields take their defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	def := DefaultConfig()
	if config == nil {
		config = def
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.ReadyPollInterval == 0 {
		cfg.ReadyPollInterval = def.ReadyPollInterval
	}
	if cfg.WarmUpTimeout == 0 {
		cfg.WarmUpTimeout = def.WarmUpTimeout
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = def.DefaultModel
	}

	return &Client{
		config: &cfg,
		// Per-request deadlines come from contexts; the transport keeps
		// idle connections to the local backend.
		httpClient: &http.Client{},
		log:        logging.Component("summarizer"),
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.config.BaseURL }

// Config returns a copy of the effective configuration.
func (c *Client) Config() ClientConfig { return *c.config }

// =============================================================================
// SUMMARIZE
// =============================================================================

// Summarize sends req to the matching endpoint and returns the summary.
func (c *Client) Summarize(ctx context.Context, req Request) (*Result, error) {
	text := strings.TrimSpace(Normalize(req.Text))
	if text == "" {
		return nil, ErrEmptyText
	}
	model := req.Model
	if model == "" {
		model = c.config.DefaultModel
	}
	params := ResolveParams(model, req.Tone, req.Length)
	endpoint := EndpointFor(text)

	body := summarizeBody{
		Text:      text,
		MinLength: params.MinLength,
		MaxLength: params.MaxLength,
		Model:     string(model),
		Images:    req.Images,
	}
	if model.Tunable() {
		body.Tone = string(params.Tone)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	var out summarizeResponse
	if err := c.do(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		c.log.Warn("summarize failed", "endpoint", endpoint, "model", model, "error", err)
		return nil, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "backend returned an empty summary"}
	}

	res := &Result{
		Summary:  out.Summary,
		Model:    model,
		Endpoint: endpoint,
		Params:   params,
		Duration: time.Since(start),
	}
	c.log.Info("summarized", "endpoint", endpoint, "model", model,
		"runes", len([]rune(text)), "images", len(req.Images), "duration", res.Duration)
	return res, nil
}

// =============================================================================
// READINESS
// =============================================================================

// CheckReady queries /ready.
func (c *Client) CheckReady(ctx context.Context) (bool, error) {
	var out readyResponse
	if err := c.do(ctx, http.MethodGet, "/ready", nil, &out); err != nil {
		return false, err
	}
	return out.Loaded, nil
}

// Ready reports whether the model is loaded. Errors count as not ready.
func (c *Client) Ready(ctx context.Context) bool {
	ok, err := c.CheckReady(ctx)
	if err != nil {
		c.log.Debug("ready check failed", "error", err)
	}
	return ok
}

// WarmUp asks the backend to load its model. With blocking the call returns
// once loading finished.
func (c *Client) WarmUp(ctx context.Context, blocking bool) (LoadStatus, error) {
	if blocking {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WarmUpTimeout)
		defer cancel()
	}
	var out loadResponse
	path := "/load?blocking=" + strconv.FormatBool(blocking)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	c.log.Info("warm-up requested", "blocking", blocking, "status", out.Status)
	return LoadStatus(out.Status), nil
}

// WaitReady polls /ready until the model is loaded or ctx ends.
func (c *Client) WaitReady(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Every(c.config.ReadyPollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				// the next probe would land past the deadline
				return ErrTimeout
			}
			return c.mapError(ctx, err)
		}
		ok, err := c.CheckReady(ctx)
		if ok {
			return nil
		}
		if err != nil && (IsCancelled(err) || IsTimeout(err)) {
			return err
		}
	}
}

// Diagnose returns the backend's diagnostics.
func (c *Client) Diagnose(ctx context.Context) (Diagnostics, error) {
	out := Diagnostics{}
	if err := c.do(ctx, http.MethodGet, "/diagnose", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &ClientError{Type: ErrTypeNotRunning, Message: "failed to create request", Cause: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.mapError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.mapError(ctx, ctxErr)
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func (c *Client) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if ctx.Err() != nil {
		return c.mapError(context.Background(), ctx.Err())
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message + " at " + c.config.BaseURL, Cause: err}
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(data))

	var env serverError
	if json.Unmarshal(data, &env) == nil && env.Detail != nil {
		switch d := env.Detail.(type) {
		case string:
			msg = d
		default:
			if b, err := json.Marshal(d); err == nil {
				msg = string(b)
			}
		}
	}
	if msg == "" {
		msg = resp.Status
	}
	return &ClientError{
		Type:    ErrTypeServer,
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("backend error (%d): %s", resp.StatusCode, msg),
	}
}
