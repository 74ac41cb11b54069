// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - --json output envelope shared by all commands.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/saransh-tui/internal/storage"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Error     *string     `json:"error"`
	Timestamp string      `json:"timestamp"`
	Command   string      `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print writes the response to stdout.
func (r *JSONResponse) Print() error {
	return r.Write(os.Stdout)
}

// Write writes the indented response to w.
func (r *JSONResponse) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(r)
}

// StderrPrint prints to stderr so --json stdout stays parseable.
func StderrPrint(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// VersionData is the payload of "version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// SummarizeData is the payload of "summarize --json".
type SummarizeData struct {
	Summary    string `json:"summary"`
	Model      string `json:"model"`
	Tone       string `json:"tone,omitempty"`
	Length     string `json:"length,omitempty"`
	Endpoint   string `json:"endpoint"`
	Images     int    `json:"images"`
	InputRunes int    `json:"input_runes"`
	DurationMs int64  `json:"duration_ms"`
}

// ReadyData is the payload of "ready" and "warmup".
type ReadyData struct {
	URL    string `json:"url"`
	Ready  bool   `json:"ready"`
	Status string `json:"status"`
}

// DiagnoseCheck is one health check result.
type DiagnoseCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // pass, warn, fail
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DiagnoseData is the payload of "diagnose --json".
type DiagnoseData struct {
	Checks  []DiagnoseCheck        `json:"checks"`
	Backend map[string]interface{} `json:"backend,omitempty"`
	Passed  int                    `json:"passed"`
	Warned  int                    `json:"warned"`
	Failed  int                    `json:"failed"`
	Healthy bool                   `json:"healthy"`
}

// HistoryData is the payload of "history list|search --json".
type HistoryData struct {
	Query string         `json:"query,omitempty"`
	Turns []storage.Turn `json:"turns"`
	Total int            `json:"total"`
}

// ConfigPathData is the payload of "config path --json".
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}
