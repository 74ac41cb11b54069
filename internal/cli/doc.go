// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands of
// saransh.
//
// # Key Types
//
//   - Command: Enumeration of all available commands
//   - Args: Parsed arguments with global and command-specific flags
//   - JSONResponse: The envelope every --json command prints
//   - ChatSession: The line-mode REPL state around a composer
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdSummarize:
//	    err = cli.HandleSummarize(args)
//	case cli.CmdChat:
//	    err = cli.HandleChat(args)
//	// ... other commands
//	}
//	if err != nil {
//	    cli.HandleErrorAndExit(err, args.JSON)
//	}
//
// # Commands Overview
//
//   - summarize: One-shot summary of args, files or stdin
//   - chat: Line-mode REPL sharing the TUI's composer
//   - ready, warmup: Backend readiness
//   - diagnose: Health checks
//   - config: Configuration management
//   - history: Saved turns
//
// Every command accepts --json and maps failures to stable exit codes.
package cli
