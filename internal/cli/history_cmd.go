// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - The "history" command.
//
// Examples:
//
//	vedantra history                          Print the conversation
//	vedantra history show --json              Print it as JSON
//	vedantra history clear --yes              Delete it without asking
//	vedantra history export --format html --output ~/Documents

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/export"
	"github.com/jeranaias/vedantra/internal/model"
)

func (a *App) runHistory(ctx context.Context, e *env) error {
	args := e.args.Cmd
	switch sub := args.Subcommand(); sub {
	case "", "show", "list":
		if err := rejectUnknown(args, "history show", "json"); err != nil {
			return err
		}
		return a.historyShow(ctx, e, args.BoolFlag("json"))
	case "clear":
		if err := rejectUnknown(args, "history clear", "yes", "y"); err != nil {
			return err
		}
		return a.historyClear(ctx, e, args.BoolFlag("yes", "y"))
	case "export":
		if err := rejectUnknown(args, "history export",
			"format", "f", "output", "o", "theme", "title", "no-metadata", "no-timestamps"); err != nil {
			return err
		}
		return a.historyExport(ctx, e, args)
	default:
		return NewUsageError("history: unknown subcommand %q (want show, clear or export)", sub)
	}
}

func (a *App) historyShow(ctx context.Context, e *env, asJSON bool) error {
	msgs := e.history.Load(ctx)
	if asJSON {
		enc := json.NewEncoder(a.Stdout)
		enc.SetIndent("", "  ")
		if msgs == nil {
			msgs = []model.Message{}
		}
		return enc.Encode(msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.Stdout, "No conversation stored.")
		return nil
	}

	r := NewLineRenderer(a.Stdout, a.Stderr, LineOptions{
		TTY:        a.StdoutTTY,
		Width:      a.Width,
		Transcript: true,
	})
	if a.StdoutTTY {
		theme := chat.ThemeDark
		if !a.darkBackground(e.cfg) {
			theme = chat.ThemeLight
		}
		if stored, ok := e.prefs.Theme(ctx); ok {
			theme = stored
		}
		r.final = &themedTerminal{
			theme: func() string { return theme },
			width: wrapWidth(e.cfg.UI.WordWrap, a.Width),
		}
	}
	r.RenderAll(msgs)
	return nil
}

func (a *App) historyClear(ctx context.Context, e *env, yes bool) error {
	msgs := e.history.Load(ctx)
	if len(msgs) == 0 || (len(msgs) == 1 && msgs[0].IsWelcome()) {
		fmt.Fprintln(a.Stdout, chat.MsgAlreadyEmpty)
		return nil
	}
	if !yes {
		if !a.StdinTTY {
			return NewUsageError("history clear: refusing to clear without --yes when stdin is not a terminal")
		}
		fmt.Fprintf(a.Stdout, "%s [y/N] ", chat.ClearPrompt)
		answer, err := newReaderPrompter(a.Stdin).Prompt("")
		if err != nil {
			return nil
		}
		if reply := strings.ToLower(strings.TrimSpace(answer)); reply != "y" && reply != "yes" {
			return nil
		}
	}
	if err := e.history.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Cleared %d messages.\n", len(msgs))
	return nil
}

func (a *App) historyExport(ctx context.Context, e *env, args *ArgParser) error {
	opts := export.DefaultOptions()
	opts.OutputDir = args.FlagOrDefault(".", "output", "o")
	opts.IncludeMetadata = !args.BoolFlag("no-metadata")
	opts.IncludeTimestamps = !args.BoolFlag("no-timestamps")
	if theme := args.Flag("theme"); theme != "" {
		if theme != chat.ThemeLight && theme != chat.ThemeDark {
			return NewUsageError("history export: --theme must be light or dark")
		}
		opts.Theme = theme
	}

	exporter, err := export.ForFormat(args.FlagOrDefault("md", "format", "f"), opts)
	if err != nil {
		return &UsageError{Message: "history export: " + err.Error()}
	}

	msgs := e.history.Load(ctx)
	if len(msgs) == 0 {
		return fmt.Errorf("history export: %w", export.ErrEmpty)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("history export: %w", err)
	}

	path, err := export.ExportToFile(msgs, exporter, export.Meta{
		Title: args.Flag("title"),
		Model: lastModel(msgs),
	}, opts)
	if err != nil {
		return fmt.Errorf("history export: %w", err)
	}
	e.logger.Info("conversation exported", "path", path, "messages", len(msgs))
	fmt.Fprintln(a.Stdout, path)
	return nil
}

// lastModel is the model of the most recent message that names one.
func lastModel(msgs []model.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Model != "" {
			return msgs[i].Model
		}
	}
	return ""
}
