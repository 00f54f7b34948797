// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - The "ask" command: one question, one answer.
//
// Examples:
//
//	vedantra ask "What is a goroutine?"
//	git diff | vedantra ask "Review this change"
//	echo "Summarize Go generics" | vedantra ask
//	vedantra ask --save "Remember this one"
//
// Piped stdin is appended to the question, separated by a blank line.
// Unless --save is given the exchange is not added to the stored
// conversation. --raw skips Markdown rendering on a terminal.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/format"
	"github.com/jeranaias/vedantra/internal/model"
)

// maxStdinBytes caps how much piped input ask reads.
const maxStdinBytes = 1 << 20

func (a *App) runAsk(ctx context.Context, e *env) error {
	args := e.args.Cmd
	if err := rejectUnknown(args, "ask", "save", "raw"); err != nil {
		return err
	}

	question, err := a.question(args)
	if err != nil {
		return err
	}
	if question == "" {
		return NewUsageError("ask: no question given")
	}

	var history chat.History = &memoryHistory{}
	if args.BoolFlag("save") {
		history = e.history
	}

	renderer := NewLineRenderer(a.Stdout, a.Stderr, LineOptions{
		TTY:   a.StdoutTTY,
		Width: a.Width,
		Quiet: e.args.Quiet,
	})
	session := chat.New(e.client, history, renderer, renderer,
		append(a.sessionOptions(e), chat.WithFormatter(format.Plain{}))...)
	if a.StdoutTTY && !args.BoolFlag("raw") {
		renderer.final = format.NewTerminal(session.Theme(), wrapWidth(e.cfg.UI.WordWrap, a.Width))
	}
	session.Start(ctx)

	if err := session.Send(ctx, question); err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	return nil
}

// question joins the positional arguments with piped stdin.
func (a *App) question(args *ArgParser) (string, error) {
	parts := []string{strings.TrimSpace(args.JoinPositional(0))}
	if !a.StdinTTY && a.Stdin != nil {
		data, err := io.ReadAll(io.LimitReader(a.Stdin, maxStdinBytes))
		if err != nil {
			return "", fmt.Errorf("ask: failed to read stdin: %w", err)
		}
		parts = append(parts, strings.TrimSpace(string(data)))
	}

	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n"), nil
}

// memoryHistory keeps a one-shot exchange out of the stored conversation.
type memoryHistory struct {
	msgs []model.Message
}

func (h *memoryHistory) Load(context.Context) []model.Message { return nil }

func (h *memoryHistory) Save(_ context.Context, msgs []model.Message) error {
	h.msgs = msgs
	return nil
}
