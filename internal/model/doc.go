// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the transcript data structures for the chat view.
//
//   - Message: one transcript entry (user prompt, summary, system note, error)
//   - Transcript: the bounded list shown above the composer
//   - ModelInfo: the selectable backend models
package model
