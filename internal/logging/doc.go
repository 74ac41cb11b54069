// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the process-wide structured logger.
//
// Logs go to a file (default ~/.saransh/saransh.log), never to stdout, since
// the TUI owns the terminal. Until Init is called everything is discarded.
//
// Component loggers can be created before Init; they forward to whatever
// handler is installed at the time a record is written:
//
//	log := logging.Component("composer")
//	log.Warn("attachment dropped", "reason", "capacity")
package logging
