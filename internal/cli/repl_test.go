// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/format"
	"github.com/jeranaias/vedantra/internal/logging"
	"github.com/jeranaias/vedantra/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeBackend struct {
	mu      sync.Mutex
	replies []string
	err     error
	reqs    []backend.ChatRequest
}

func (f *fakeBackend) StreamChat(ctx context.Context, req backend.ChatRequest) (*backend.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	text := "reply"
	if n := len(f.reqs) - 1; n < len(f.replies) {
		text = f.replies[n]
	}
	return backend.NewStream(ctx, io.NopCloser(strings.NewReader(text))), nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type testHistory struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (h *testHistory) Load(context.Context) []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Message(nil), h.msgs...)
}

func (h *testHistory) Save(_ context.Context, msgs []model.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append([]model.Message(nil), msgs...)
	return nil
}

type testClipboard struct{ text string }

func (c *testClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

// script feeds canned lines and records the prompts shown.
type script struct {
	lines   []string
	prompts []string
}

func (s *script) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

type replHarness struct {
	repl    *REPL
	input   *script
	backend *fakeBackend
	clip    *testClipboard
	out     *bytes.Buffer
	notes   *bytes.Buffer
}

func newREPL(t *testing.T, fb *fakeBackend, lines ...string) *replHarness {
	t.Helper()
	h := &replHarness{
		input:   &script{lines: lines},
		backend: fb,
		clip:    &testClipboard{},
		out:     &bytes.Buffer{},
		notes:   &bytes.Buffer{},
	}
	r := &REPL{Input: h.input, Out: h.out}
	r.Renderer = NewLineRenderer(h.out, h.notes, LineOptions{Transcript: true})
	r.Session = chat.New(fb, &testHistory{}, r.Renderer, r.Renderer,
		chat.WithFormatter(format.Plain{}),
		chat.WithConfirmer(r.Confirmer()),
		chat.WithClipboard(h.clip),
		chat.WithLogger(logging.Discard()),
	)
	h.repl = r
	return h
}

func (h *replHarness) run(t *testing.T) {
	t.Helper()
	require.NoError(t, h.repl.Run(context.Background()))
}

// =============================================================================
// REPL TESTS
// =============================================================================

func TestREPL_SendAndQuit(t *testing.T) {
	h := newREPL(t, &fakeBackend{replies: []string{"Hi there"}}, "hello", "/quit", "never read")
	h.run(t)

	assert.Contains(t, h.out.String(), "Vedantra AI  model: Llama 3.3 Nemotron Super 49B")
	assert.Contains(t, h.out.String(), model.WelcomeText)
	assert.Contains(t, h.out.String(), "Vedantra AI\nHi there\n\n")
	assert.Equal(t, 1, h.backend.calls())
	assert.Equal(t, []string{"never read"}, h.input.lines)

	msgs := h.repl.Session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.Equal(t, "Hi there", msgs[2].Content)
}

func TestREPL_EOFEnds(t *testing.T) {
	h := newREPL(t, &fakeBackend{})
	h.run(t)
	assert.Equal(t, 0, h.backend.calls())
}

func TestREPL_BlankLinesAreSkipped(t *testing.T) {
	h := newREPL(t, &fakeBackend{}, "", "   ")
	h.run(t)
	assert.Equal(t, 0, h.backend.calls())
}

func TestREPL_FailedSendKeepsGoing(t *testing.T) {
	fb := &fakeBackend{err: &backend.ClientError{Type: backend.ErrTypeConnection, Message: "refused"}}
	h := newREPL(t, fb, "hello", "again")
	h.run(t)

	assert.Equal(t, 2, fb.calls())
	assert.Equal(t, 2, strings.Count(h.notes.String(), chat.MsgCycleFailed))
	assert.Equal(t, chat.StateDiscarded, h.repl.Session.LastOutcome())
}

func TestREPL_ModelCommands(t *testing.T) {
	h := newREPL(t, &fakeBackend{},
		"/model",
		"/model deepseek-r1-distill-llama-8b",
		"/model nope",
		"/models",
	)
	h.run(t)

	assert.Equal(t, "deepseek-r1-distill-llama-8b", h.repl.Session.Model())
	assert.Contains(t, h.out.String(), "Current model: Llama 3.3 Nemotron Super 49B")
	assert.Contains(t, h.notes.String(), "Switched to DeepSeek R1 Distill Llama 8B model")
	assert.Contains(t, h.notes.String(), `Unknown model "nope"`)
	assert.Contains(t, h.out.String(), "* DeepSeek R1 Distill Llama 8B (deepseek-r1-distill-llama-8b)")
	assert.Contains(t, h.out.String(), "  Llama 3.3 Nemotron Super 49B ("+model.DefaultModel+")")
}

func TestREPL_Clear(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		wantMsgs int
	}{
		{name: "confirmed", answer: "y", wantMsgs: 1},
		{name: "confirmed long form", answer: "YES", wantMsgs: 1},
		{name: "declined", answer: "n", wantMsgs: 3},
		{name: "empty answer declines", answer: "", wantMsgs: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newREPL(t, &fakeBackend{}, "hello", "/clear", tt.answer)
			h.run(t)

			assert.Contains(t, h.input.prompts, chat.ClearPrompt+" [y/N] ")
			msgs := h.repl.Session.Messages()
			require.Len(t, msgs, tt.wantMsgs)
			assert.True(t, msgs[0].IsWelcome())
		})
	}
}

func TestREPL_ClearWhenEmptyDoesNotAsk(t *testing.T) {
	h := newREPL(t, &fakeBackend{}, "/clear")
	h.run(t)

	assert.NotContains(t, h.input.prompts, chat.ClearPrompt+" [y/N] ")
	assert.Contains(t, h.notes.String(), chat.MsgAlreadyEmpty)
}

func TestREPL_RegenerateAndCopy(t *testing.T) {
	fb := &fakeBackend{replies: []string{"first", "second"}}
	h := newREPL(t, fb, "hello", "/regen", "/copy")
	h.run(t)

	assert.Equal(t, 2, fb.calls())
	last, ok := h.repl.Session.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
	assert.Len(t, h.repl.Session.Messages(), 3)

	assert.Equal(t, "second", h.clip.text)
	assert.Contains(t, h.notes.String(), chat.MsgCopied)

	// The regenerated request ends with the same prompt, sent once.
	turns := fb.reqs[1].Messages
	assert.Equal(t, "hello", turns[len(turns)-1].Content)
}

func TestREPL_RegenerateAndCopyByNumber(t *testing.T) {
	fb := &fakeBackend{replies: []string{"first", "second", "third"}}
	h := newREPL(t, fb, "one", "two", "/regen 3", "/copy 2", "/regen 2", "/regen 9", "/copy x")
	h.run(t)

	// Regenerating reply 3 drops it and everything after, then answers
	// "one" again.
	assert.Equal(t, 3, fb.calls())
	turns := fb.reqs[2].Messages
	assert.Equal(t, "one", turns[len(turns)-1].Content)

	msgs := h.repl.Session.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)

	// Any message can be copied, user messages included.
	assert.Equal(t, "one", h.clip.text)

	notes := h.notes.String()
	assert.Contains(t, notes, chat.MsgNotAReply)
	assert.Contains(t, notes, "No message 9.")
	assert.Contains(t, notes, "No message x.")
}

func TestREPL_Theme(t *testing.T) {
	h := newREPL(t, &fakeBackend{}, "/theme", "/theme")
	h.run(t)

	assert.Contains(t, h.notes.String(), "[i] Theme: dark\n[i] Theme: light\n")
	assert.Equal(t, chat.ThemeLight, h.repl.Session.Theme())
}

func TestREPL_HistoryAndHelp(t *testing.T) {
	h := newREPL(t, &fakeBackend{replies: []string{"answer"}}, "question", "/history", "/help", "/bogus")
	h.run(t)

	out := h.out.String()
	idx := strings.LastIndex(out, "You ")
	require.GreaterOrEqual(t, idx, 0)
	assert.Contains(t, out[idx:], "question\n\n#3 Vedantra AI ")
	assert.Contains(t, out, "#1 Vedantra AI ")
	assert.Contains(t, out, "#2 You ")
	assert.Contains(t, out, "/regen")
	assert.Contains(t, h.notes.String(), "Unknown command /bogus")
}

func TestREPL_CanceledContextStops(t *testing.T) {
	h := newREPL(t, &fakeBackend{}, "hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.repl.Run(ctx))
	assert.Equal(t, 0, h.backend.calls())
}

// =============================================================================
// PROMPTER TESTS
// =============================================================================

func TestReaderPrompter(t *testing.T) {
	p := newReaderPrompter(strings.NewReader("one\ntwo\n"))

	line, err := p.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	line, err = p.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "two", line)

	_, err = p.Prompt("> ")
	assert.True(t, errors.Is(err, io.EOF))
}
