// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Turn history command.
//
// Command: history [subcommand]
// Aliases: hist
//
// Subcommands:
//   list (default)      Recent turns, newest first
//   search <query>      Turns whose prompt or summary contains query
//   show <id>           One turn with its full summary
//   delete <id>         Remove one turn
//   clear               Remove every turn
//
// Flags:
//   -n, --limit N       Number of turns (default: 20)
//   -y, --yes           Skip the clear confirmation
//   --json              Output in JSON format
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/saransh-tui/internal/model"
	"github.com/jeranaias/saransh-tui/internal/storage"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
)

const defaultHistoryLimit = 20

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	hist, err := OpenHistory(cfg)
	if err != nil {
		return err
	}
	if hist == nil {
		return NewCommandError("history", args.Subcommand, "history is disabled (history.enabled = false)", nil)
	}
	defer hist.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	switch args.Subcommand {
	case "", "list", "ls":
		turns, err := hist.List(ctx, limit)
		if err != nil {
			return err
		}
		return printTurns(ctx, hist, args, "", turns)

	case "search", "find":
		query := strings.Join(args.Rest, " ")
		if strings.TrimSpace(query) == "" {
			return ErrMissingArgument("query", `saransh history search "बातमी"`)
		}
		turns, err := hist.Search(ctx, query, limit)
		if err != nil {
			return err
		}
		return printTurns(ctx, hist, args, query, turns)

	case "show":
		id, err := turnID(args)
		if err != nil {
			return err
		}
		t, err := hist.Get(ctx, id)
		if err != nil {
			return notFound(err, args.Rest[0])
		}
		if args.JSON {
			return NewJSONResponse("history show", t).Print()
		}
		printTurn(t)
		return nil

	case "delete", "rm":
		id, err := turnID(args)
		if err != nil {
			return err
		}
		if err := hist.Delete(ctx, id); err != nil {
			return notFound(err, args.Rest[0])
		}
		if args.JSON {
			return NewJSONResponse("history delete", map[string]int64{"id": id}).Print()
		}
		fmt.Printf("%s deleted turn %d\n", SuccessStyle.Render("[OK]"), id)
		return nil

	case "clear":
		confirmed, err := confirm("delete every saved turn", "saransh history clear", args)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println(DimStyle.Render("Cancelled."))
			return nil
		}
		n, err := hist.Clear(ctx)
		if err != nil {
			return err
		}
		if args.JSON {
			return NewJSONResponse("history clear", map[string]int64{"deleted": n}).Print()
		}
		fmt.Printf("%s deleted %d turn(s)\n", SuccessStyle.Render("[OK]"), n)
		return nil

	default:
		return NewValidationErrorWithExample("subcommand", args.Subcommand,
			"unknown history subcommand", "saransh history list | search | show | delete | clear")
	}
}

func turnID(args Args) (int64, error) {
	if len(args.Rest) == 0 {
		return 0, ErrMissingArgument("id", "saransh history show 42")
	}
	id, err := strconv.ParseInt(args.Rest[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError("id", args.Rest[0], "must be a positive number")
	}
	return id, nil
}

func notFound(err error, id string) error {
	if errors.Is(err, storage.ErrTurnNotFound) {
		return NewNotFoundError("turn", id)
	}
	return err
}

func printTurns(ctx context.Context, hist *storage.History, args Args, query string, turns []storage.Turn) error {
	if args.JSON {
		total, err := hist.Count(ctx)
		if err != nil {
			return err
		}
		if turns == nil {
			turns = []storage.Turn{}
		}
		return NewJSONResponse("history", HistoryData{Query: query, Turns: turns, Total: total}).Print()
	}
	if len(turns) == 0 {
		if !args.Quiet {
			fmt.Println(DimStyle.Render("No turns."))
		}
		return nil
	}

	width := GetTerminalWidth() - 30
	for _, t := range turns {
		meta := DimStyle.Render(fmt.Sprintf("%5d  %s  %-10s %6s",
			t.ID, t.CreatedAt.Local().Format("2006-01-02 15:04"), shortModel(t.Model),
			formatDuration(time.Duration(t.DurationMs)*time.Millisecond)))
		fmt.Printf("%s  %s\n", meta, firstLine(t.Prompt, width))
	}
	return nil
}

func printTurn(t *storage.Turn) {
	fmt.Println()
	fmt.Printf("%s%d\n", RenderLabel("Turn:"), t.ID)
	fmt.Printf("%s%s\n", RenderLabel("When:"), t.CreatedAt.Local().Format(time.RFC1123))
	fmt.Printf("%s%s\n", RenderLabel("Model:"), model.Label(summarizer.Model(t.Model), summarizer.Tone(t.Tone), summarizer.Length(t.Length)))
	fmt.Printf("%s%s\n", RenderLabel("Endpoint:"), t.Endpoint)
	if t.Images > 0 {
		fmt.Printf("%s%d\n", RenderLabel("Images:"), t.Images)
	}
	fmt.Println()
	fmt.Println(SectionStyle.Render("Prompt"))
	fmt.Println(t.Prompt)
	fmt.Println()
	fmt.Println(SectionStyle.Render("Summary"))
	fmt.Println(t.Summary)
	fmt.Println()
}

// shortModel maps a stored model name to its short flag form.
func shortModel(name string) string {
	if info, ok := model.Lookup(name); ok {
		return info.ShortName
	}
	return name
}
