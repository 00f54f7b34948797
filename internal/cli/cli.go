// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command line parsing and the command table.

package cli

import (
	"fmt"
	"io"
	"strings"
)

// Build information, set from main via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command is a top-level vedantra command.
type Command int

const (
	// CmdTUI starts the full-screen chat (the default)
	CmdTUI Command = iota
	// CmdChat starts the line-mode chat
	CmdChat
	// CmdAsk sends one question and prints the answer
	CmdAsk
	// CmdHistory shows, clears or exports the stored conversation
	CmdHistory
	// CmdServe runs the backend proxy
	CmdServe
	// CmdModels lists the selectable models
	CmdModels
	// CmdConfig shows or edits the configuration
	CmdConfig
	// CmdVersion prints build information
	CmdVersion
	// CmdHelp prints usage
	CmdHelp
)

var commandNames = map[Command]string{
	CmdTUI:     "tui",
	CmdChat:    "chat",
	CmdAsk:     "ask",
	CmdHistory: "history",
	CmdServe:   "serve",
	CmdModels:  "models",
	CmdConfig:  "config",
	CmdVersion: "version",
	CmdHelp:    "help",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}

var commandAliases = map[string]Command{
	"tui":     CmdTUI,
	"chat":    CmdChat,
	"ask":     CmdAsk,
	"a":       CmdAsk,
	"history": CmdHistory,
	"serve":   CmdServe,
	"server":  CmdServe,
	"models":  CmdModels,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// =============================================================================
// PARSED ARGUMENTS
// =============================================================================

// Args holds the global flags and the command's own arguments.
type Args struct {
	// Model overrides chat.default_model for this run.
	Model string
	// ConfigPath loads this file instead of the config directory.
	ConfigPath string
	Quiet      bool
	Verbose    bool

	// Cmd holds the arguments after the command name.
	Cmd *ArgParser
}

// commandBoolFlags lists the boolean flags of each command so the parser
// never takes a following argument as their value.
var commandBoolFlags = map[Command][]string{
	CmdAsk:     {"save", "raw"},
	CmdHistory: {"json", "yes", "y", "no-metadata", "no-timestamps"},
	CmdModels:  {"remote", "json"},
	CmdConfig:  {"force", "json"},
}

// Parse splits argv (without the program name) into a command and its
// arguments. Global flags may appear anywhere before "--".
func Parse(argv []string) (Command, Args, error) {
	remaining, args, helpOrVersion, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}
	if helpOrVersion != 0 {
		args.Cmd = NewArgParser(nil)
		return helpOrVersion, args, nil
	}

	if len(remaining) == 0 {
		args.Cmd = NewArgParser(nil)
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	cmd, ok := commandAliases[name]
	if !ok {
		args.Cmd = NewArgParser(nil)
		return CmdHelp, args, NewUsageError("unknown command %q", remaining[0])
	}
	args.Cmd = NewArgParser(remaining[1:], commandBoolFlags[cmd]...)
	return cmd, args, nil
}

// parseGlobalFlags removes the global flags from argv. It returns CmdHelp
// or CmdVersion when -h or --version was given.
func parseGlobalFlags(argv []string) ([]string, Args, Command, error) {
	var (
		args      Args
		remaining []string
		short     Command
	)
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			remaining = append(remaining, argv[i:]...)
			break
		}

		name, inline, hasInline := strings.Cut(arg, "=")
		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			if i+1 >= len(argv) {
				return "", NewUsageError("%s requires a value", name)
			}
			i++
			return argv[i], nil
		}

		var err error
		switch name {
		case "-m", "--model":
			args.Model, err = value()
		case "-c", "--config":
			args.ConfigPath, err = value()
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "-h", "--help":
			short = CmdHelp
		case "--version":
			short = CmdVersion
		default:
			remaining = append(remaining, arg)
		}
		if err != nil {
			return nil, args, 0, err
		}
	}
	if args.Quiet && args.Verbose {
		return nil, args, 0, NewUsageError("--quiet and --verbose cannot be combined")
	}
	return remaining, args, short, nil
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `Vedantra AI - chat with Vedantra models from the terminal

Usage:
  vedantra [global flags] [command] [arguments]

Commands:
  (none), tui            Full-screen chat
  chat                   Line-mode chat with slash commands
  ask QUESTION           Ask one question (reads stdin when piped)
  history show           Print the stored conversation
  history clear          Delete the stored conversation
  history export         Write the conversation to a file
  serve                  Run the backend proxy
  models                 List the selectable models
  config show|path|init  Inspect or create the configuration
  config get KEY         Print one setting
  config set KEY VALUE   Change one setting
  version                Print build information
  help                   Show this help

Global flags:
  -m, --model ID         Model for this run
  -c, --config PATH      Config file to use
  -q, --quiet            Less output
  -v, --verbose          Debug logging
  -h, --help             Show this help
      --version          Print build information

Command flags:
  ask      --save                  Keep the exchange in the stored conversation
  history  show --json             Print as JSON
           clear --yes             Skip the confirmation prompt
           export --format FMT     md, html or json (default md)
           export --output DIR     Target directory (default .)
           export --theme THEME    light or dark page for html
  serve    --port N                Listen port
           --host HOST             Listen address
  models   --remote                Ask the backend instead of the local catalog
  config   init --force            Overwrite an existing file

Keys (full-screen chat):
  Enter send, Alt+Enter newline, Ctrl+Up/Ctrl+Down select a message,
  Ctrl+R regenerate, Ctrl+Y copy (the selection, else the last reply),
  Ctrl+T theme, Ctrl+L clear, Ctrl+O next model, PgUp/PgDn scroll,
  Esc/Ctrl+C quit
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes build information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "vedantra %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
