// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// line.go - Renderer and notifier for line-oriented output.
//
// Replies are printed as their text arrives. On a terminal the raw text is
// erased once the reply is complete and printed again through the Markdown
// formatter; on a pipe the raw increments are all there is.

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/format"
	"github.com/jeranaias/vedantra/internal/model"
	"github.com/jeranaias/vedantra/internal/ui/styles"
	"github.com/jeranaias/vedantra/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle    = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	userStyle      = lipgloss.NewStyle().Foreground(styles.Blue).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	infoStyle      = lipgloss.NewStyle().Foreground(styles.TextSecondary)
	successStyle   = lipgloss.NewStyle().Foreground(styles.Emerald)
	warningStyle   = lipgloss.NewStyle().Foreground(styles.Amber)
	failureStyle   = lipgloss.NewStyle().Foreground(styles.Rose)
)

// =============================================================================
// LINE RENDERER
// =============================================================================

// LineRenderer writes the conversation to a stream. It implements
// chat.Renderer and chat.Notifier. The session feeding it must use a
// pass-through formatter so updates carry the raw accumulated text.
type LineRenderer struct {
	mu sync.Mutex

	out    io.Writer
	notes  io.Writer
	tty    bool
	width  int
	final  format.Formatter
	styled bool

	// transcript prints history, user turns and reply headers. Off for
	// one-shot questions, where only the answer is wanted.
	transcript bool
	quiet      bool

	next  chat.PlaceholderID
	live  chat.PlaceholderID
	shown string
}

// LineOptions configures a LineRenderer.
type LineOptions struct {
	// TTY enables in-place rewriting and styling.
	TTY bool
	// Width is the terminal width used to count wrapped rows.
	Width int
	// Final renders completed replies on a TTY. Nil prints them raw.
	Final format.Formatter
	// Transcript prints the whole conversation, not just replies.
	Transcript bool
	// Quiet drops info and success notifications.
	Quiet bool
}

// NewLineRenderer writes replies to out and notifications to notes.
func NewLineRenderer(out, notes io.Writer, opts LineOptions) *LineRenderer {
	if opts.Width <= 0 {
		opts.Width = DefaultTerminalWidth
	}
	if notes == nil {
		notes = out
	}
	return &LineRenderer{
		out:        out,
		notes:      notes,
		tty:        opts.TTY,
		width:      opts.Width,
		final:      opts.Final,
		styled:     opts.TTY,
		transcript: opts.Transcript,
		quiet:      opts.Quiet,
	}
}

func (r *LineRenderer) style(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// RenderAll implements chat.Renderer.
func (r *LineRenderer) RenderAll(msgs []model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.transcript {
		return
	}
	for _, msg := range msgs {
		r.printMessage(msg)
	}
}

// Append implements chat.Renderer.
func (r *LineRenderer) Append(msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.transcript {
		return
	}
	// The user already sees what they typed at the prompt.
	if msg.Role == model.RoleUser && r.tty {
		return
	}
	r.printMessage(msg)
}

func (r *LineRenderer) printMessage(msg model.Message) {
	r.printHeader(msg.Role, msg.Clock())
	fmt.Fprintln(r.out, r.body(msg.Content))
	fmt.Fprintln(r.out)
}

func (r *LineRenderer) printHeader(role model.Role, clock string) {
	label := role.DisplayName()
	st := assistantStyle
	if role == model.RoleUser {
		st = userStyle
	}
	header := r.style(st, label)
	if clock != "" {
		header += " " + r.style(infoStyle, clock)
	}
	fmt.Fprintln(r.out, header)
}

func (r *LineRenderer) body(content string) string {
	if r.tty && r.final != nil {
		return r.final.Format(content)
	}
	return content
}

// BeginPlaceholder implements chat.Renderer.
func (r *LineRenderer) BeginPlaceholder() chat.PlaceholderID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.live = r.next
	r.shown = ""
	if r.transcript {
		r.printHeader(model.RoleAssistant, "")
	}
	return r.live
}

// UpdatePlaceholder implements chat.Renderer. Only the text not yet shown
// is written.
func (r *LineRenderer) UpdatePlaceholder(id chat.PlaceholderID, markup string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.live {
		return
	}
	if strings.HasPrefix(markup, r.shown) {
		io.WriteString(r.out, markup[len(r.shown):])
	} else {
		r.erase()
		io.WriteString(r.out, markup)
	}
	r.shown = markup
}

// FinalizePlaceholder implements chat.Renderer.
func (r *LineRenderer) FinalizePlaceholder(id chat.PlaceholderID, msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.live {
		return
	}
	if r.tty && r.final != nil {
		r.erase()
		fmt.Fprintln(r.out, r.final.Format(msg.Content))
	} else if !strings.HasSuffix(r.shown, "\n") {
		fmt.Fprintln(r.out)
	}
	if r.transcript {
		fmt.Fprintln(r.out)
	}
	r.live = 0
	r.shown = ""
}

// RemovePlaceholder implements chat.Renderer.
func (r *LineRenderer) RemovePlaceholder(id chat.PlaceholderID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.live {
		return
	}
	switch {
	case r.tty:
		r.erase()
	case r.shown != "" && !strings.HasSuffix(r.shown, "\n"):
		fmt.Fprintln(r.out)
	}
	r.live = 0
	r.shown = ""
}

// Clear implements chat.Renderer.
func (r *LineRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tty {
		termenv.NewOutput(r.out).ClearScreen()
	}
}

// SetTyping implements chat.Renderer. Line output shows the reply itself
// as the progress indicator.
func (r *LineRenderer) SetTyping(bool) {}

// erase removes the raw text written for the live reply. Only a terminal
// can take text back.
func (r *LineRenderer) erase() {
	if !r.tty || r.shown == "" {
		return
	}
	up := rows(r.shown, r.width) - 1
	if up > 0 {
		fmt.Fprintf(r.out, termenv.CSI+termenv.CursorPreviousLineSeq, up)
	} else {
		io.WriteString(r.out, "\r")
	}
	fmt.Fprintf(r.out, termenv.CSI+termenv.EraseDisplaySeq, 0)
	r.shown = ""
}

// rows counts the terminal rows text occupies at the given width.
func rows(text string, width int) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		w := util.StringWidth(line)
		if w == 0 {
			n++
			continue
		}
		n += (w + width - 1) / width
	}
	return n
}

// Notify implements chat.Notifier.
func (r *LineRenderer) Notify(n chat.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var marker string
	var st lipgloss.Style
	switch n.Kind {
	case chat.KindSuccess:
		if r.quiet {
			return
		}
		marker, st = styles.Indicators.Success, successStyle
	case chat.KindWarning:
		marker, st = styles.Indicators.Warning, warningStyle
	case chat.KindError:
		marker, st = styles.Indicators.Error, failureStyle
	default:
		if r.quiet {
			return
		}
		marker, st = styles.Indicators.Info, infoStyle
	}
	fmt.Fprintln(r.notes, r.style(st, marker+" "+n.Text))
}
