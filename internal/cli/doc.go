// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses the vedantra command line and runs its commands.
//
// # Key Types
//
//   - Command: the top-level commands (tui, chat, ask, history, serve, ...)
//   - Args: global flags plus the command's own ArgParser
//   - App: runs a command against a set of standard streams
//   - LineRenderer: chat.Renderer and chat.Notifier for line output
//   - REPL: the line-mode chat loop with slash commands
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	if err != nil {
//	    cli.DisplayError(os.Stderr, err)
//	    os.Exit(cli.GetExitCode(err))
//	}
//	if err := cli.NewApp().Run(ctx, cmd, args); err != nil {
//	    cli.DisplayError(os.Stderr, err)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
//   - (none), tui: full-screen chat
//   - chat: line-mode chat
//   - ask: one question, answer on stdout
//   - history: show, clear or export the stored conversation
//   - serve: the backend proxy
//   - models, config, version, help
package cli
