// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command represents a CLI command.
type Command int

const (
	// CmdTUI launches the interactive TUI (default).
	CmdTUI Command = iota
	// CmdSummarize summarizes text once and exits.
	CmdSummarize
	// CmdChat starts the line-mode REPL.
	CmdChat
	// CmdReady probes backend readiness.
	CmdReady
	// CmdWarmup asks the backend to load its models.
	CmdWarmup
	// CmdDiagnose runs health checks against config, history and backend.
	CmdDiagnose
	// CmdConfig shows or edits the config file.
	CmdConfig
	// CmdHistory lists, searches or clears turn history.
	CmdHistory
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage.
	CmdHelp
	// CmdUnknown is an unrecognised command word.
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:       "tui",
	CmdSummarize: "summarize",
	CmdChat:      "chat",
	CmdReady:     "ready",
	CmdWarmup:    "warmup",
	CmdDiagnose:  "diagnose",
	CmdConfig:    "config",
	CmdHistory:   "history",
	CmdVersion:   "version",
	CmdHelp:      "help",
}

// String returns the command word.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	JSON    bool
	Quiet   bool
	Verbose bool
	URL     string // overrides backend.url

	// Selection overrides
	Model  string
	Tone   string
	Length string

	// summarize
	Text   string
	Files  []string
	Images []string

	// warmup
	Wait bool

	// config / history
	Subcommand string
	Rest       []string
	Limit      int
	Yes        bool

	// Raw holds the unparsed remainder; for CmdUnknown Raw[0] is the word.
	Raw []string
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `saransh - Marathi and English summarization in your terminal

USAGE:
  saransh [command] [options]

COMMANDS:
  (none)                 Start the interactive TUI
  summarize [text]       Summarize text from args, --file or stdin
  chat                   Line-mode chat in the current terminal
  ready                  Check whether the backend has its models loaded
  warmup [--wait]        Ask the backend to load its models
  diagnose               Check config, history and backend health
  config [sub]           show | get <key> | set <key> <value> | keys | path | reset
  history [sub]          list | search <query> | show <id> | delete <id> | clear
  version                Show version information
  help                   Show this help

SUMMARIZE OPTIONS:
  -f, --file <path>      Read text from a file (repeatable)
  -i, --image <path>     Attach an image (repeatable)
  -w, --wait             Warm the backend up and wait instead of failing

SELECTION OPTIONS:
  -m, --model <name>     mt5 | indicbart | pegasus
  --tone <tone>          formal | casual | neutral (Pegasus-Marathi only)
  --length <length>      short | medium | long (Pegasus-Marathi only)

GLOBAL OPTIONS:
  --url <url>            Backend base URL (overrides config)
  --json                 Machine-readable output
  -n, --limit <n>        Number of history entries
  -y, --yes              Skip confirmation prompts
  -q, --quiet            Minimal output
  -v, --verbose          Debug logging

EXAMPLES:
  saransh
  saransh summarize --file lekh.txt --model pegasus --tone formal
  cat report.txt | saransh summarize --json
  saransh warmup --wait
  saransh config set composer.max_rows 12
  saransh history search पाऊस

ENVIRONMENT:
  SARANSH_CONFIG_DIR     Config directory (default ~/.saransh)
  SARANSH_BACKEND_URL    Backend base URL
  NO_COLOR               Disable colored output
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("saransh %s\n", Version)
	fmt.Printf("  Commit: %s\n", GitCommit)
	fmt.Printf("  Built:  %s\n", BuildDate)
	fmt.Printf("  Go:     %s\n", runtime.Version())
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses raw arguments into a command and its options. Flags may
// appear before or after the command word.
func ParseArgs(raw []string) (Command, Args) {
	remaining, args := parseFlags(raw)
	if len(remaining) == 0 {
		return CmdTUI, args
	}

	word := strings.ToLower(remaining[0])
	rest := remaining[1:]

	switch word {
	case "tui":
		return CmdTUI, args

	case "summarize", "sum", "s":
		args.Text = strings.Join(rest, " ")
		return CmdSummarize, args

	case "chat", "repl":
		return CmdChat, args

	case "ready":
		return CmdReady, args

	case "warmup", "load":
		return CmdWarmup, args

	case "diagnose", "doctor":
		return CmdDiagnose, args

	case "config", "cfg":
		parseSubcommand(&args, rest)
		return CmdConfig, args

	case "history", "hist":
		parseSubcommand(&args, rest)
		return CmdHistory, args

	case "version", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		args.Raw = remaining
		return CmdUnknown, args
	}
}

// valueFlags take the next argument as their value.
var valueFlags = map[string]string{
	"-f": "file", "--file": "file",
	"-i": "image", "--image": "image",
	"-m": "model", "--model": "model",
	"--tone":   "tone",
	"--length": "length",
	"--url":    "url",
	"-n": "limit", "--limit": "limit",
}

// parseFlags extracts every known flag and returns the positional words in
// order. "--" ends flag parsing.
func parseFlags(raw []string) ([]string, Args) {
	var args Args
	var remaining []string

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			remaining = append(remaining, raw[i+1:]...)
			break
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "--") {
			name, value, hasValue = arg, "", false
		}

		if key, ok := valueFlags[name]; ok {
			if !hasValue {
				if i+1 >= len(raw) {
					remaining = append(remaining, arg)
					continue
				}
				i++
				value = raw[i]
			}
			setValueFlag(&args, key, value)
			continue
		}

		switch arg {
		case "--json":
			args.JSON = true
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--wait", "-w":
			args.Wait = true
		case "-y", "--yes":
			args.Yes = true
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, args
}

func setValueFlag(args *Args, key, value string) {
	switch key {
	case "file":
		args.Files = append(args.Files, value)
	case "image":
		args.Images = append(args.Images, value)
	case "model":
		args.Model = value
	case "tone":
		args.Tone = value
	case "length":
		args.Length = value
	case "url":
		args.URL = value
	case "limit":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			args.Limit = n
		}
	}
}

// parseSubcommand splits "config set key value" style arguments.
func parseSubcommand(args *Args, rest []string) {
	if len(rest) > 0 {
		args.Subcommand = strings.ToLower(rest[0])
		args.Rest = rest[1:]
	}
}

// =============================================================================
// SIMPLE HANDLERS
// =============================================================================

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}

// HandleUnknown reports an unrecognised command, suggesting the closest one.
func HandleUnknown(args Args) error {
	word := ""
	if len(args.Raw) > 0 {
		word = args.Raw[0]
	}
	reason := "unknown command"
	if s := SuggestCommand(word); s != "" {
		reason = fmt.Sprintf("unknown command (did you mean %q?)", s)
	}
	return NewValidationErrorWithExample("command", word, reason, "saransh help")
}
