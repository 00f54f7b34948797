// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/model"
)

// upper stands in for the Markdown formatter.
type upper struct{}

func (upper) Format(text string) string { return strings.ToUpper(text) }

func reply(content string) model.Message {
	msg := model.NewAssistantMessage(content, model.DefaultModel)
	msg.Timestamp = time.Date(2025, 3, 1, 14, 5, 0, 0, time.Local)
	return msg
}

// =============================================================================
// STREAMING
// =============================================================================

func TestLineRenderer_PipeWritesIncrements(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{Final: upper{}})

	id := r.BeginPlaceholder()
	r.UpdatePlaceholder(id, "Hel")
	assert.Equal(t, "Hel", out.String())
	r.UpdatePlaceholder(id, "Hello")
	assert.Equal(t, "Hello", out.String())
	r.FinalizePlaceholder(id, reply("Hello"))

	// No terminal: the formatter is never applied and nothing is erased.
	assert.Equal(t, "Hello\n", out.String())
}

func TestLineRenderer_PipeKeepsTrailingNewline(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{})

	id := r.BeginPlaceholder()
	r.UpdatePlaceholder(id, "done\n")
	r.FinalizePlaceholder(id, reply("done\n"))
	assert.Equal(t, "done\n", out.String())
}

func TestLineRenderer_TTYRewritesInPlace(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{TTY: true, Width: 80, Final: upper{}})

	id := r.BeginPlaceholder()
	r.UpdatePlaceholder(id, "Hello")
	r.FinalizePlaceholder(id, reply("Hello"))

	assert.Equal(t, "Hello\r\x1b[0JHELLO\n", out.String())
}

func TestLineRenderer_TTYErasesEveryRow(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{TTY: true, Width: 80, Final: upper{}})

	id := r.BeginPlaceholder()
	r.UpdatePlaceholder(id, "line one\nline two")
	r.FinalizePlaceholder(id, reply("line one\nline two"))

	assert.Equal(t, "line one\nline two\x1b[1F\x1b[0JLINE ONE\nLINE TWO\n", out.String())
}

func TestLineRenderer_RemovePlaceholder(t *testing.T) {
	t.Run("pipe ends the partial line", func(t *testing.T) {
		var out bytes.Buffer
		r := NewLineRenderer(&out, nil, LineOptions{})
		id := r.BeginPlaceholder()
		r.UpdatePlaceholder(id, "partial")
		r.RemovePlaceholder(id)
		assert.Equal(t, "partial\n", out.String())
	})

	t.Run("terminal erases the partial reply", func(t *testing.T) {
		var out bytes.Buffer
		r := NewLineRenderer(&out, nil, LineOptions{TTY: true})
		id := r.BeginPlaceholder()
		r.UpdatePlaceholder(id, "partial")
		r.RemovePlaceholder(id)
		assert.Equal(t, "partial\r\x1b[0J", out.String())
	})

	t.Run("nothing shown prints nothing", func(t *testing.T) {
		var out bytes.Buffer
		r := NewLineRenderer(&out, nil, LineOptions{})
		r.RemovePlaceholder(r.BeginPlaceholder())
		assert.Empty(t, out.String())
	})
}

func TestLineRenderer_StaleIDsAreIgnored(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{})

	first := r.BeginPlaceholder()
	r.FinalizePlaceholder(first, reply(""))
	out.Reset()

	r.UpdatePlaceholder(first, "late")
	r.RemovePlaceholder(first)
	assert.Empty(t, out.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func TestLineRenderer_Transcript(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{Transcript: true})

	user := model.NewUserMessage("hi", model.DefaultModel)
	user.Timestamp = time.Date(2025, 3, 1, 14, 4, 0, 0, time.Local)
	r.RenderAll([]model.Message{user, reply("hello")})

	assert.Equal(t, "You 14:04\nhi\n\nVedantra AI 14:05\nhello\n\n", out.String())

	out.Reset()
	id := r.BeginPlaceholder()
	r.UpdatePlaceholder(id, "streamed")
	r.FinalizePlaceholder(id, reply("streamed"))
	assert.Equal(t, "Vedantra AI\nstreamed\n\n", out.String())
}

func TestLineRenderer_NoTranscriptPrintsOnlyReplies(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{})

	r.RenderAll([]model.Message{reply("old")})
	r.Append(model.NewUserMessage("question", ""))
	assert.Empty(t, out.String())
}

func TestLineRenderer_TTYSkipsEchoOfUserInput(t *testing.T) {
	var out bytes.Buffer
	r := NewLineRenderer(&out, nil, LineOptions{TTY: true, Transcript: true})
	r.Append(model.NewUserMessage("typed at the prompt", ""))
	assert.Empty(t, out.String())
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

func TestLineRenderer_Notify(t *testing.T) {
	var out, notes bytes.Buffer
	r := NewLineRenderer(&out, &notes, LineOptions{})

	r.Notify(chat.Notification{Kind: chat.KindSuccess, Text: chat.MsgCopied})
	r.Notify(chat.Notification{Kind: chat.KindError, Text: chat.MsgCycleFailed})

	assert.Empty(t, out.String())
	assert.Equal(t, "[OK] "+chat.MsgCopied+"\n[X] "+chat.MsgCycleFailed+"\n", notes.String())
}

func TestLineRenderer_QuietKeepsProblems(t *testing.T) {
	var notes bytes.Buffer
	r := NewLineRenderer(&bytes.Buffer{}, &notes, LineOptions{Quiet: true})

	r.Notify(chat.Notification{Kind: chat.KindInfo, Text: "info"})
	r.Notify(chat.Notification{Kind: chat.KindSuccess, Text: "ok"})
	r.Notify(chat.Notification{Kind: chat.KindWarning, Text: chat.MsgBusy})

	assert.Equal(t, "[!] "+chat.MsgBusy+"\n", notes.String())
}

// =============================================================================
// HELPERS
// =============================================================================

func TestRows(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  int
	}{
		{"", 80, 1},
		{"abc", 80, 1},
		{"a\nb", 80, 2},
		{"a\n", 80, 2},
		{strings.Repeat("x", 100), 40, 3},
		{strings.Repeat("x", 80), 80, 1},
		{"日本", 3, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rows(tt.text, tt.width), "rows(%q, %d)", tt.text, tt.width)
	}
}

func TestWrapWidth(t *testing.T) {
	assert.Equal(t, 80, wrapWidth(0, 0))
	assert.Equal(t, 80, wrapWidth(80, 120))
	assert.Equal(t, 58, wrapWidth(80, 60))
	assert.Equal(t, MinTerminalWidth, wrapWidth(80, 20))
}
