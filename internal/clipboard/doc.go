// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package clipboard reads pasted images for the composer and copies
// summaries out of the chat view.
package clipboard
