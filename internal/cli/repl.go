// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-mode chat.
//
// Command: chat
//
// Interactive commands:
//
//	/regen [N]     Regenerate reply N, or the last reply
//	/copy [N]      Copy message N, or the last reply
//	/clear         Clear the conversation
//	/model [ID]    Show or switch the model
//	/models        List models
//	/theme         Toggle light/dark rendering
//	/history       Print the conversation
//	/help          Show commands
//	/quit          Exit (also Ctrl+D)

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/config"
	"github.com/jeranaias/vedantra/internal/model"
)

// HistoryFile is the prompt history file inside the config directory.
const HistoryFile = "chat_history"

// =============================================================================
// PROMPTERS
// =============================================================================

// Prompter reads one line of input. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// ChatCLI wraps liner with a persistent prompt history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI starts line editing. Ctrl+C at the prompt aborts it.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, HistoryFile)}
	c.LoadHistory()
	return c
}

// LoadHistory reads earlier prompts from disk. A missing file is fine.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt implements Prompter and records non-blank input.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	text, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		c.line.AppendHistory(text)
	}
	return text, nil
}

// SaveHistory writes the prompt history, owner read/write only.
func (c *ChatCLI) SaveHistory() error {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(c.historyFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = c.line.WriteHistory(f)
	return err
}

// Close saves the history and restores the terminal.
func (c *ChatCLI) Close() error {
	saveErr := c.SaveHistory()
	if err := c.line.Close(); err != nil {
		return err
	}
	return saveErr
}

// readerPrompter reads lines from a non-terminal stdin.
type readerPrompter struct {
	scanner *bufio.Scanner
}

func newReaderPrompter(in io.Reader) *readerPrompter {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &readerPrompter{scanner: s}
}

// Prompt implements Prompter. The prompt is not echoed; io.EOF ends input.
func (p *readerPrompter) Prompt(string) (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

// =============================================================================
// REPL
// =============================================================================

// REPL runs the line-mode chat loop over a session.
type REPL struct {
	Session  *chat.Session
	Renderer *LineRenderer
	Input    Prompter
	Out      io.Writer
	// Styled colors the prompt and banner.
	Styled bool
}

// Confirmer asks yes/no questions on the REPL's input.
func (r *REPL) Confirmer() chat.Confirmer {
	return chat.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		answer, err := r.Input.Prompt(prompt + " [y/N] ")
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

// Run reads input until /quit, Ctrl+D, Ctrl+C at the prompt, or ctx ends.
func (r *REPL) Run(ctx context.Context) error {
	r.banner()
	r.Session.Start(ctx)

	prompt := "> "
	if r.Styled {
		prompt = "you> "
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		text, err := r.Input.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.Out)
				return nil
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "/") {
			if quit := r.command(ctx, text); quit {
				return nil
			}
			continue
		}
		// Failed cycles are reported through the notifier; the loop goes on.
		_ = r.Session.Send(ctx, text)
	}
}

func (r *REPL) banner() {
	title := "Vedantra AI"
	if r.Styled {
		title = promptStyle.Render(title)
	}
	fmt.Fprintf(r.Out, "%s  model: %s\n", title, r.Session.Catalog().DisplayName(r.Session.Model()))
	fmt.Fprintln(r.Out, "Type /help for commands, /quit to exit.")
	fmt.Fprintln(r.Out)
}

// command runs one slash command and reports whether to quit.
func (r *REPL) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	name, rest := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h", "/?":
		r.help()

	case "/regen", "/regenerate", "/r":
		msg, ok := r.pick(rest, "regenerate")
		if !ok {
			return false
		}
		if msg.Role != model.RoleAssistant {
			r.note(chat.KindWarning, chat.MsgNotAReply)
			return false
		}
		_ = r.Session.Regenerate(ctx, msg.ID)

	case "/copy", "/y":
		if msg, ok := r.pick(rest, "copy"); ok {
			_ = r.Session.Copy(msg.ID)
		}

	case "/clear", "/c":
		_ = r.Session.Clear(ctx)

	case "/model", "/m":
		if len(rest) == 0 {
			fmt.Fprintf(r.Out, "Current model: %s\n", r.Session.Catalog().DisplayName(r.Session.Model()))
			return false
		}
		if err := r.Session.SelectModel(rest[0]); err != nil {
			r.note(chat.KindError, fmt.Sprintf("Unknown model %q. Use /models to list them.", rest[0]))
		}

	case "/models":
		r.models()

	case "/theme", "/t":
		theme := r.Session.ToggleTheme(ctx)
		r.note(chat.KindInfo, "Theme: "+theme)

	case "/history":
		for i, msg := range r.Session.Messages() {
			r.Renderer.printNumbered(i+1, msg)
		}

	default:
		r.note(chat.KindWarning, fmt.Sprintf("Unknown command %s. Type /help for commands.", fields[0]))
	}
	return false
}

// pick resolves the message a /regen or /copy acts on: number N as shown
// by /history, or the last reply when no number is given.
func (r *REPL) pick(args []string, verb string) (model.Message, bool) {
	if len(args) == 0 {
		last, ok := r.Session.LastAssistant()
		if !ok {
			r.note(chat.KindWarning, "Nothing to "+verb)
		}
		return last, ok
	}
	msgs := r.Session.Messages()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(msgs) {
		r.note(chat.KindWarning, fmt.Sprintf("No message %s. Use /history to see the numbers.", args[0]))
		return model.Message{}, false
	}
	return msgs[n-1], true
}

func (r *REPL) note(kind chat.NotificationKind, text string) {
	r.Renderer.Notify(chat.Notification{Kind: kind, Text: text})
}

func (r *REPL) models() {
	current := r.Session.Model()
	for _, m := range r.Session.Catalog().Models() {
		marker := "  "
		if m.ID == current {
			marker = "* "
		}
		fmt.Fprintf(r.Out, "%s%s\n", marker, m)
		if m.Description != "" {
			fmt.Fprintf(r.Out, "    %s\n", m.Description)
		}
	}
}

const replHelp = `Commands:
  /regen [N]     Regenerate reply N (see /history), or the last reply
  /copy [N]      Copy message N to the clipboard, or the last reply
  /clear         Clear the conversation
  /model [ID]    Show or switch the model
  /models        List models
  /theme         Toggle light/dark rendering
  /history       Print the numbered conversation
  /help          Show this help
  /quit          Exit (also Ctrl+D)
`

func (r *REPL) help() {
	fmt.Fprint(r.Out, replHelp)
}

// printNumbered prints one message under a "#n" marker.
func (r *LineRenderer) printNumbered(n int, msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, r.style(infoStyle, "#"+strconv.Itoa(n))+" ")
	r.printMessage(msg)
}
