// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for saransh.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ComposerConfig: Composer limits (rows, images, snippet markers)
//   - BackendConfig: Summarization backend connection
//   - Watcher: Reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SARANSH_*)
//   - ~/.saransh/config.toml
//   - ~/.saransh/config.json
//   - Built-in defaults
//
// SARANSH_CONFIG_DIR moves the whole directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c := composer.New(cfg.Limits(), surface, collab)
//	client := summarizer.NewClientWithConfig(cfg.ClientConfig())
package config
