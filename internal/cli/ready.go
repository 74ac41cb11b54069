// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ready.go - Backend readiness commands.
//
// Commands:
//   ready               Probe /ready; exits 4 while models are loading
//   warmup [--wait]     Ask the backend to load its models
//
// Examples:
//   saransh ready && saransh summarize -f lekh.txt
//   saransh warmup --wait
//   saransh ready --json --url http://gpu-box:8000
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

// readyProbeTimeout bounds a single readiness probe.
const readyProbeTimeout = 5 * time.Second

// HandleReady handles the "ready" command.
func HandleReady(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	client := NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), readyProbeTimeout)
	defer cancel()
	ok, err := client.CheckReady(ctx)
	if err != nil {
		return err
	}

	data := ReadyData{URL: client.BaseURL(), Ready: ok, Status: "loading"}
	if ok {
		data.Status = string(summarizer.StatusLoaded)
	}
	if args.JSON {
		if err := NewJSONResponse("ready", data).Print(); err != nil {
			return err
		}
	} else if !args.Quiet {
		printReady(data)
	}
	if !ok {
		return ErrNotReady
	}
	return nil
}

// HandleWarmup handles the "warmup" command. With --wait it blocks until the
// backend reports the models loaded.
func HandleWarmup(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	client := NewClient(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args.Wait && !args.Quiet && !args.JSON {
		StderrPrint("%s\n", DimStyle.Render("loading models at "+client.BaseURL()+"…"))
	}
	status, err := client.WarmUp(ctx, args.Wait)
	if err != nil {
		return err
	}
	if args.Wait && status == summarizer.StatusLoading {
		wctx, cancel := context.WithTimeout(ctx, cfg.ClientConfig().WarmUpTimeout)
		defer cancel()
		if err := client.WaitReady(wctx); err != nil {
			return err
		}
		status = summarizer.StatusLoaded
	}

	data := ReadyData{
		URL:    client.BaseURL(),
		Ready:  status != summarizer.StatusLoading,
		Status: string(status),
	}
	if args.JSON {
		return NewJSONResponse("warmup", data).Print()
	}
	if !args.Quiet {
		printReady(data)
	}
	return nil
}

func printReady(d ReadyData) {
	fmt.Printf("%s%s\n", RenderLabel("Backend:"), d.URL)
	fmt.Printf("%s%s %s\n", RenderLabel("Status:"), RenderStatus(d.Status), d.Status)
}
