// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat_cmd.go - The "chat" and default full-screen commands.
//
// Examples:
//
//	vedantra                         Full-screen chat
//	vedantra chat                    Line-mode chat
//	vedantra chat -m deepseek-r1-distill-llama-8b

package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/config"
	"github.com/jeranaias/vedantra/internal/format"
	ui "github.com/jeranaias/vedantra/internal/ui/chat"
)

// =============================================================================
// LINE MODE
// =============================================================================

func (a *App) runChat(ctx context.Context, e *env) error {
	if err := rejectUnknown(e.args.Cmd, "chat"); err != nil {
		return err
	}

	var input Prompter
	if a.StdinTTY && a.StdoutTTY {
		c := NewChatCLI()
		defer func() {
			if err := c.Close(); err != nil {
				e.logger.Warn("failed to save prompt history", "error", err)
			}
		}()
		input = c
	} else {
		input = newReaderPrompter(a.Stdin)
	}

	repl := &REPL{
		Input:  input,
		Out:    a.Stdout,
		Styled: a.StdoutTTY,
	}
	final := &themedTerminal{
		theme: func() string { return repl.Session.Theme() },
		width: wrapWidth(e.cfg.UI.WordWrap, a.Width),
	}
	repl.Renderer = NewLineRenderer(a.Stdout, a.Stderr, LineOptions{
		TTY:        a.StdoutTTY,
		Width:      a.Width,
		Final:      final,
		Transcript: true,
		Quiet:      e.args.Quiet,
	})

	opts := append(a.sessionOptions(e),
		chat.WithFormatter(format.Plain{}),
		chat.WithConfirmer(repl.Confirmer()),
	)
	repl.Session = chat.New(e.client, e.history, repl.Renderer, repl.Renderer, opts...)

	checkBackend(ctx, e, repl.Renderer)
	return repl.Run(ctx)
}

// HealthTimeout bounds the startup health check.
const HealthTimeout = 3 * time.Second

// checkBackend warns through n when the backend fails GET /health. Chat
// still starts: the backend may come up before the first message.
func checkBackend(ctx context.Context, e *env, n chat.Notifier) {
	hctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()
	if err := e.client.CheckHealth(hctx); err != nil {
		e.logger.Warn("backend health check failed", "url", e.client.BaseURL(), "error", err)
		n.Notify(chat.Notification{Kind: chat.KindWarning, Text: "Backend unreachable at " + e.client.BaseURL()})
	}
}

// wrapWidth fits the configured wrap width into the terminal.
func wrapWidth(configured, terminal int) int {
	if configured <= 0 {
		configured = format.DefaultWordWrap
	}
	if terminal > 0 && terminal-2 < configured {
		return max(terminal-2, MinTerminalWidth)
	}
	return configured
}

// themedTerminal renders Markdown in the session's current theme.
type themedTerminal struct {
	theme func() string
	width int

	mu  sync.Mutex
	cur *format.Terminal
}

// Format implements format.Formatter.
func (t *themedTerminal) Format(text string) string {
	theme := t.theme()
	t.mu.Lock()
	if t.cur == nil || t.cur.Style() != theme {
		t.cur = format.NewTerminal(theme, t.width)
	}
	cur := t.cur
	t.mu.Unlock()
	return cur.Format(text)
}

// =============================================================================
// FULL SCREEN
// =============================================================================

func (a *App) runTUI(ctx context.Context, e *env) error {
	if err := rejectUnknown(e.args.Cmd, "tui"); err != nil {
		return err
	}

	bridge := ui.NewBridge()
	opts := append(a.sessionOptions(e), chat.WithConfirmer(bridge))
	session := chat.New(e.client, e.history, bridge, bridge, opts...)

	p := ui.NewProgram(ctx, session, bridge, ui.Options{WordWrap: e.cfg.UI.WordWrap})
	go checkBackend(ctx, e, bridge)

	if path := configPath(e.args); path != "" {
		w, err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
			if err != nil {
				e.logger.Warn("config reload failed", "path", path, "error", err)
				return
			}
			e.client.SetBaseURL(cfg.Backend.URL)
			p.Send(ui.ConfigReloadedMsg{Theme: cfg.UI.Theme, WordWrap: cfg.UI.WordWrap})
			e.logger.Info("config reloaded", "path", path, "backend", cfg.Backend.URL)
		})
		if err != nil {
			e.logger.Warn("config watch unavailable", "path", path, "error", err)
		} else {
			e.logger.Debug("watching config", "path", w.Path())
			defer w.Close()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
