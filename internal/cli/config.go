// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for saransh.
//
// Command: config [subcommand]
// Aliases: cfg
//
// Subcommands:
//   show (default)      Display the effective configuration
//   get <key>           Print one value
//   set <key> <value>   Set a value in the config file
//   keys                List every settable key
//   reset               Reset the file to defaults
//   path                Show the config file location
//
// Examples:
//   saransh config
//   saransh config get summary.model
//   saransh config set composer.max_images 3
//   saransh config set composer.images warn
//   saransh config set backend.url http://gpu-box:8000
//   saransh config reset --yes
//
// "show" reflects environment overrides; "set" and "reset" edit the file
// only, so an override in the environment is never written back.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/saransh-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	case "keys":
		return handleConfigKeys(args)
	case "reset":
		return handleConfigReset(args)
	case "path":
		return handleConfigPath(args)
	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown config subcommand", "saransh config show | get | set | keys | reset | path")
	}
}

// =============================================================================
// SHOW / GET / KEYS
// =============================================================================

func handleConfigShow(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config show", cfg).Print()
	}

	path, _ := config.Path()
	fmt.Println()
	fmt.Println(TitleStyle.Render("saransh configuration"))
	fmt.Println(DimStyle.Render(path))
	fmt.Println(RenderSeparator(41))

	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		return WrapError(err, "failed to encode config")
	}
	fmt.Println()
	return nil
}

func handleConfigGet(args Args) error {
	if len(args.Rest) == 0 {
		return ErrMissingArgument("key", "saransh config get summary.model")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	key := args.Rest[0]
	val, err := cfg.Get(key)
	if err != nil {
		return NewNotFoundError("config key", key)
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{"key": key, "value": val}).Print()
	}
	switch v := val.(type) {
	case []string:
		fmt.Println(strings.Join(v, ","))
	default:
		fmt.Println(v)
	}
	return nil
}

func handleConfigKeys(args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Print()
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

// =============================================================================
// SET / RESET
// =============================================================================

// loadFileConfig reads the config file without environment overrides.
func loadFileConfig() (*config.Config, string, error) {
	path, err := config.Path()
	if err != nil {
		return nil, "", err
	}
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.HasSuffix(path, ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return nil, path, NewCommandError("config", "load", path, err)
		}
	}
	return cfg, path, nil
}

func saveFileConfig(cfg *config.Config, path string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func handleConfigSet(args Args) error {
	if len(args.Rest) < 2 {
		return ErrMissingArgument("key and value", "saransh config set composer.max_images 3")
	}
	key := args.Rest[0]
	value := strings.Join(args.Rest[1:], " ")

	cfg, path, err := loadFileConfig()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return NewCommandError("config", "set", key, err)
	}
	if err := saveFileConfig(cfg, path); err != nil {
		return NewCommandError("config", "save", path, err)
	}

	if args.JSON {
		return NewJSONResponse("config set", map[string]interface{}{"key": key, "value": value, "path": path}).Print()
	}
	if !args.Quiet {
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	}
	return nil
}

func handleConfigReset(args Args) error {
	confirmed, err := confirm("reset the configuration to defaults", "saransh config reset", args)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println(DimStyle.Render("Cancelled."))
		return nil
	}

	path, err := config.Path()
	if err != nil {
		return err
	}
	if err := saveFileConfig(config.Default(), path); err != nil {
		return NewCommandError("config", "reset", path, err)
	}
	if args.JSON {
		return NewJSONResponse("config reset", ConfigPathData{Path: path, Exists: true}).Print()
	}
	fmt.Printf("%s configuration reset (%s)\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func handleConfigPath(args Args) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	exists := !errors.Is(statErr, os.ErrNotExist)
	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: exists}).Print()
	}
	fmt.Println(path)
	if !exists && !args.Quiet {
		StderrPrint("%s\n", DimStyle.Render("(not created yet; defaults are in effect)"))
	}
	return nil
}
