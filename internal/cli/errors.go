// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for saransh commands.
//
// Handlers always return errors; main decides how to show them and which
// exit code to use.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a config file or settings error
	ExitConfigError = 3
	// ExitNotReady indicates the backend is up but its models are not loaded
	ExitNotReady = 4
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitInputError indicates an unreadable or unsupported input file
	ExitInputError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitCancelled indicates the user interrupted the operation
	ExitCancelled = 130
)

// ErrNotReady is returned by commands that need loaded models.
var ErrNotReady = errors.New("backend models are not loaded (run: saransh warmup --wait)")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "history"
	Action  string // e.g. "clear"
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError prints err to stderr, or as a JSON error object to stdout in
// JSON mode.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// DisplayErrorJSON outputs an error as JSON.
func DisplayErrorJSON(err error) {
	output := map[string]interface{}{
		"error":      err.Error(),
		"success":    false,
		"error_type": errorType(err),
		"exit_code":  GetExitCode(err),
	}

	var cmdErr *CommandError
	var valErr *ValidationError
	var nfErr *NotFoundError
	switch {
	case errors.As(err, &valErr):
		output["field"] = valErr.Field
		output["value"] = valErr.Value
		if valErr.Example != "" {
			output["example"] = valErr.Example
		}
	case errors.As(err, &nfErr):
		output["resource"] = nfErr.Resource
		output["id"] = nfErr.ID
	case errors.As(err, &cmdErr):
		output["command"] = cmdErr.Command
		output["action"] = cmdErr.Action
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

func errorType(err error) string {
	var clientErr *summarizer.ClientError
	var valErr *ValidationError
	var nfErr *NotFoundError
	var cmdErr *CommandError
	switch {
	case errors.As(err, &valErr):
		return "validation_error"
	case errors.As(err, &nfErr):
		return "not_found_error"
	case errors.As(err, &clientErr):
		return "backend_" + clientErr.Type.String()
	case errors.As(err, &cmdErr):
		return "command_error"
	default:
		return "generic_error"
	}
}

// HandleErrorAndExit displays err and exits with its exit code.
func HandleErrorAndExit(err error, jsonMode bool) {
	if err == nil {
		return
	}
	DisplayError(err, jsonMode)
	os.Exit(GetExitCode(err))
}

// GetExitCode maps an error to its exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var valErr *ValidationError
	var nfErr *NotFoundError
	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	var ttyErr *TTYRequiredError
	var cmdErr *CommandError

	switch {
	case errors.As(err, &valErr), errors.As(err, &ttyErr), errors.Is(err, summarizer.ErrEmptyText):
		return ExitUsageError
	case errors.As(err, &cfgErrs), errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &cmdErr) && cmdErr.Command == "config":
		return ExitConfigError
	case errors.As(err, &nfErr):
		return ExitNotFoundError
	case summarizer.IsCancelled(err):
		return ExitCancelled
	case summarizer.IsTimeout(err):
		return ExitTimeoutError
	case summarizer.IsNotRunning(err):
		return ExitNetworkError
	case errors.Is(err, ErrNotReady):
		return ExitNotReady
	case errors.Is(err, composer.ErrUnsupportedType),
		errors.Is(err, composer.ErrFileTooLarge),
		errors.Is(err, composer.ErrNotText),
		errors.Is(err, composer.ErrImagesDisabled),
		errors.Is(err, composer.ErrCapacity),
		errors.Is(err, os.ErrNotExist):
		return ExitInputError
	}
	return ExitGeneralError
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
