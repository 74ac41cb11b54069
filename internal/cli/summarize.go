// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// summarize.go - One-shot "saransh summarize" command.
//
// Command: summarize [text]
// Aliases: sum, s
//
// Examples:
//   saransh summarize "मजकूर..."                      Summarize the argument
//   saransh summarize --file lekh.txt                 Summarize a file
//   cat notes.txt | saransh summarize --json          Read stdin, print JSON
//   saransh summarize -f a.txt -i chart.png --model pegasus --tone formal
//
// Text from the arguments, stdin and --file is assembled in one composer
// draft, so files are inlined exactly as the TUI inlines them. Images go
// through the same preprocessing and per-message cap.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/config"
	"github.com/jeranaias/saransh-tui/internal/logging"
	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/storage"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/ui/components"
	"github.com/jeranaias/saransh-tui/internal/ui/styles"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// imageWorkers bounds concurrent image preprocessing.
const imageWorkers = 4

// HandleSummarize handles the "summarize" command.
func HandleSummarize(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := NewClient(cfg)
	msg, err := BuildMessage(ctx, cfg, args)
	if err != nil {
		return err
	}

	if err := ensureReady(ctx, client, args.Wait); err != nil {
		return err
	}

	m, tone, length := cfg.Selection()
	req := RequestFor(msg, m, tone, length)

	if !args.Quiet && !args.JSON && IsStdoutTTY() {
		StderrPrint("%s\n", DimStyle.Render("summarizing with "+model.Label(m, tone, length)+"…"))
	}
	res, err := client.Summarize(ctx, req)
	if err != nil {
		return err
	}

	recordTurn(cfg, msg, req, res)

	if args.JSON {
		return NewJSONResponse("summarize", summarizeData(msg, res)).Print()
	}
	printSummary(cfg, res, len(req.Images), args.Quiet)
	return nil
}

// BuildMessage assembles the draft from the argument text, piped stdin,
// --file and --image, and commits it through a composer.
func BuildMessage(ctx context.Context, cfg *config.Config, args Args) (composer.Message, error) {
	var out *composer.Message
	comp := composer.New(cfg.Limits(), composer.NewBuffer(), composer.Collaborators{
		Submit: func(m composer.Message) error {
			out = &m
			return nil
		},
		Ready: func() bool { return true },
	})

	text := args.Text
	if text == "" || text == "-" {
		text = ""
		if stdinPiped() {
			in, err := readAllLimited(os.Stdin, maxStdinBytes)
			if err != nil {
				return composer.Message{}, WrapError(err, "failed to read stdin")
			}
			text = in
		}
	}
	if text != "" {
		comp.Insert(composer.NormalizeNewlines(text))
	}

	limits := comp.Limits()
	for _, path := range args.Files {
		f, err := composer.LoadFile(path, limits.MaxTextFileBytes)
		if err != nil {
			return composer.Message{}, err
		}
		if comp.Text() != "" {
			comp.Insert("\n\n")
		}
		if err := comp.AttachText(f); err != nil {
			return composer.Message{}, err
		}
	}

	if err := attachImages(ctx, comp, args.Images); err != nil {
		return composer.Message{}, err
	}

	switch comp.Submit() {
	case composer.Submitted:
		return *out, nil
	case composer.Failed:
		return composer.Message{}, comp.Err()
	default:
		if args.Text == "" && len(args.Files) == 0 {
			return composer.Message{}, ErrMissingArgument("text",
				`saransh summarize "text" | saransh summarize --file F | cat F | saransh summarize`)
		}
		return composer.Message{}, summarizer.ErrEmptyText
	}
}

// attachImages loads paths and preprocesses them in parallel. The first
// failure is returned after the batch settles.
func attachImages(ctx context.Context, comp *composer.Composer, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	limits := comp.Limits()
	store := comp.Attachments()

	files := make([]composer.File, 0, len(paths))
	tickets := make([]composer.Ticket, 0, len(paths))
	for _, path := range paths {
		f, err := composer.LoadFile(path, maxImageBytes)
		if err != nil {
			return err
		}
		if !limits.AcceptsImage(f.MIMEType) {
			if limits.ImagePolicy == composer.ImagesDisabled {
				return composer.ErrImagesDisabled
			}
			return fmt.Errorf("%w: %s (%s)", composer.ErrUnsupportedType, f.Name, f.MIMEType)
		}
		t, err := store.Begin(composer.FromFile, f.Name)
		if err != nil {
			return err
		}
		if limits.ImagePolicy == composer.ImagesWarn {
			StderrPrint("%s %s: the selected model may ignore images\n", WarningStyle.Render("[WARN]"), f.Name)
		}
		files = append(files, f)
		tickets = append(tickets, t)
	}

	var firstErr error
	err := composer.PreprocessAll(ctx, comp.Preprocessor(), files, imageWorkers,
		func(i int, res composer.PreprocessResult, err error) {
			if err != nil {
				store.Fail(tickets[i], err)
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", files[i].Name, err)
				}
				return
			}
			if _, ok := store.Complete(tickets[i], res); !ok && firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", files[i].Name, composer.ErrCapacity)
			}
		})
	if err != nil {
		return err
	}
	return firstErr
}

// maxImageBytes bounds a single image read from disk.
const maxImageBytes = 32 << 20

// RequestFor builds the backend request for a committed message.
func RequestFor(msg composer.Message, m summarizer.Model, tone summarizer.Tone, length summarizer.Length) summarizer.Request {
	req := summarizer.Request{Text: msg.Text, Model: m, Tone: tone, Length: length}
	for _, a := range msg.Attachments {
		req.Images = append(req.Images, a.Data)
	}
	return req
}

// ensureReady probes the backend. With wait it blocks until the models are
// loaded, requesting a warm-up first.
func ensureReady(ctx context.Context, client *summarizer.Client, wait bool) error {
	probe, cancel := context.WithTimeout(ctx, 5*time.Second)
	ready, err := client.CheckReady(probe)
	cancel()
	if err != nil {
		return err
	}
	if ready {
		return nil
	}
	if !wait {
		return ErrNotReady
	}
	if _, err := client.WarmUp(ctx, false); err != nil {
		return err
	}
	return client.WaitReady(ctx)
}

func recordTurn(cfg *config.Config, msg composer.Message, req summarizer.Request, res *summarizer.Result) {
	hist, err := OpenHistory(cfg)
	if err != nil || hist == nil {
		if err != nil {
			logging.Component("cli").Warn("history unavailable", "error", err)
		}
		return
	}
	defer hist.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = hist.Add(ctx, &storage.Turn{
		Prompt:     msg.Text,
		Summary:    res.Summary,
		Model:      string(res.Model),
		Tone:       string(res.Params.Tone),
		Length:     string(res.Params.Length),
		Endpoint:   res.Endpoint,
		Images:     len(req.Images),
		DurationMs: res.Duration.Milliseconds(),
	})
	if err != nil {
		logging.Component("cli").Warn("failed to record turn", "error", err)
	}
}

func summarizeData(msg composer.Message, res *summarizer.Result) SummarizeData {
	d := SummarizeData{
		Summary:    res.Summary,
		Model:      string(res.Model),
		Endpoint:   res.Endpoint,
		Images:     len(msg.Attachments),
		InputRunes: util.RuneLen(msg.Text),
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Model.Tunable() {
		d.Tone = string(res.Params.Tone)
		d.Length = string(res.Params.Length)
	}
	return d
}

// printSummary renders the summary as markdown on a terminal and as plain
// text otherwise. Metadata goes to stderr.
func printSummary(cfg *config.Config, res *summarizer.Result, images int, quiet bool) {
	if !IsStdoutTTY() {
		fmt.Println(strings.TrimSpace(res.Summary))
		return
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	md := components.NewMarkdown(theme.GlamourStyle(), cfg.UI.RenderMarkdown)
	fmt.Println(md.Render(res.Summary, GetTerminalWidth()-2))

	if quiet {
		return
	}
	meta := []string{
		model.Label(res.Model, res.Params.Tone, res.Params.Length),
		res.Endpoint,
		formatDuration(res.Duration),
	}
	if images > 0 {
		meta = append(meta, fmt.Sprintf("%d image(s)", images))
	}
	StderrPrint("%s\n", DimStyle.Render(strings.Join(meta, " · ")))
}

// isInterrupted reports whether err came from ctrl+c.
func isInterrupted(err error) bool {
	return summarizer.IsCancelled(err) || errors.Is(err, context.Canceled)
}
