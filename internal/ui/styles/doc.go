// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the saransh TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
The ui.theme setting can pin the background instead of asking the terminal.

# Color System (colors.go)

  - Saffron - Brand color and summary accents
  - Cyan - User prompts and the focused composer
  - Purple - Model labels and attachment chips
  - Emerald - Backend ready
  - Amber - Warm-up in progress, warnings, busy composer
  - Rose - Errors and refusals

# Theme (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(width, height)
	box := theme.ComposerBoxFocused.Render(input)

GlamourStyle and ChromaStyle pick renderer styles that match the background.
*/
package styles
