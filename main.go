// saransh - Marathi and English summarization in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/saransh-tui/internal/cli"
	"github.com/jeranaias/saransh-tui/internal/clipboard"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/logging"
	"github.com/jeranaias/saransh-tui/internal/ui/chat"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdHelp:
		cli.HandleHelp()
		return
	case cli.CmdVersion:
		exitOnError(cli.HandleVersion(args), args)
		return
	case cli.CmdUnknown:
		exitOnError(cli.HandleUnknown(args), args)
		return
	}

	setupLogging(args)
	defer logging.Close()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdSummarize:
		err = cli.HandleSummarize(args)
	case cli.CmdChat:
		err = cli.HandleChat(args)
	case cli.CmdReady:
		err = cli.HandleReady(args)
	case cli.CmdWarmup:
		err = cli.HandleWarmup(args)
	case cli.CmdDiagnose:
		err = cli.HandleDiagnose(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdHistory:
		err = cli.HandleHistory(args)
	}
	if err != nil {
		logging.Close()
	}
	exitOnError(err, args)
}

func exitOnError(err error, args cli.Args) {
	if err != nil {
		cli.HandleErrorAndExit(err, args.JSON)
	}
}

// setupLogging sends logs to the configured file. Failures are non-fatal:
// the TUI owns the terminal, so logs never go to stderr.
func setupLogging(args cli.Args) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if args.Verbose {
		level = slog.LevelDebug
	}
	path, err := cfg.LogPath()
	if err != nil {
		return
	}
	if err := logging.Init(path, level); err != nil && args.Verbose {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
}

// runTUI starts the interactive interface.
func runTUI(args cli.Args) error {
	if err := cli.RequiresTTY("the interactive TUI"); err != nil {
		return err
	}
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return err
	}
	log := logging.Component("main")

	hist, err := cli.OpenHistory(cfg)
	if err != nil {
		log.Warn("history unavailable", "error", err)
	}
	defer hist.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watcher *config.Watcher
	if err := config.EnsureConfigDir(); err != nil {
		log.Warn("config directory unavailable", "error", err)
	}
	if path, err := config.Path(); err == nil {
		if watcher, err = config.NewWatcher(path, config.DefaultDebounce); err != nil {
			log.Warn("config watching disabled", "error", err)
			watcher = nil
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	m := chat.New(chat.Options{
		Config:    cfg,
		Client:    cli.NewClient(cfg),
		History:   hist,
		Clipboard: clipboard.NewSystem(),
		Watcher:   watcher,
		Theme:     styles.NewTheme(cfg.UI.Theme),
	})
	defer m.Shutdown()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running saransh: %w", err)
	}
	return nil
}
