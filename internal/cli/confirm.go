// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation for destructive commands.
//
//   1. --yes proceeds without prompting
//   2. --json requires --yes (no interactive prompts in JSON mode)
//   3. A non-terminal stdin requires --yes
//   4. Otherwise the user is asked y/N
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// errConfirmationRequired is returned when a prompt is impossible.
var errConfirmationRequired = errors.New("confirmation required: pass --yes")

// confirm asks before a destructive action. usage is the command to
// repeat with --yes.
func confirm(action, usage string, args Args) (bool, error) {
	if args.Yes {
		return true, nil
	}
	if args.JSON || !IsTTY() {
		return false, NewValidationErrorWithExample("--yes", "", errConfirmationRequired.Error(),
			usage+" --yes")
	}
	return promptYesNo(os.Stdin, os.Stdout, "Are you sure you want to "+action+"?")
}

// promptYesNo writes question and reads a y/N answer from in.
func promptYesNo(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes", nil
}
