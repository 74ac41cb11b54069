// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps the turn history in a local SQLite database
// (~/.saransh/history.db) using the pure Go modernc.org/sqlite driver.
//
// The chat view records every completed turn and walks Prompts for
// up-arrow recall; the history CLI command lists, searches and clears it.
//
//	h, err := storage.Open(path, cfg.History.MaxEntries)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//	_, err = h.Add(ctx, &storage.Turn{Prompt: text, Summary: res.Summary})
package storage
