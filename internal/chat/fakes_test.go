// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/model"
)

// =============================================================================
// RENDERER
// =============================================================================

type fakeRenderer struct {
	mu         sync.Mutex
	shown      []model.Message
	renderAlls int
	clears     int
	next       PlaceholderID
	open       map[PlaceholderID]string
	updates    []string
	finalized  []model.Message
	removed    []PlaceholderID
	typing     []bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{open: make(map[PlaceholderID]string)}
}

func (r *fakeRenderer) RenderAll(msgs []model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderAlls++
	r.shown = append([]model.Message(nil), msgs...)
}

func (r *fakeRenderer) Append(msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, msg)
}

func (r *fakeRenderer) BeginPlaceholder() PlaceholderID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.open[r.next] = ""
	return r.next
}

func (r *fakeRenderer) UpdatePlaceholder(id PlaceholderID, markup string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[id] = markup
	r.updates = append(r.updates, markup)
}

func (r *fakeRenderer) FinalizePlaceholder(id PlaceholderID, msg model.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, id)
	r.finalized = append(r.finalized, msg)
	r.shown = append(r.shown, msg)
}

func (r *fakeRenderer) RemovePlaceholder(id PlaceholderID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, id)
	r.removed = append(r.removed, id)
}

func (r *fakeRenderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.shown = nil
}

func (r *fakeRenderer) SetTyping(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.typing = append(r.typing, on)
}

func (r *fakeRenderer) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

func (r *fakeRenderer) lastUpdate() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return ""
	}
	return r.updates[len(r.updates)-1]
}

// =============================================================================
// NOTIFIER
// =============================================================================

type fakeNotifier struct {
	mu   sync.Mutex
	seen []Notification
}

func (n *fakeNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = append(n.seen, note)
}

func (n *fakeNotifier) all() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.seen...)
}

func (n *fakeNotifier) has(kind NotificationKind, text string) bool {
	for _, note := range n.all() {
		if note.Kind == kind && note.Text == text {
			return true
		}
	}
	return false
}

// =============================================================================
// BACKEND
// =============================================================================

// chunkReader returns one chunk per Read, then err (io.EOF when nil).
type chunkReader struct {
	chunks []string
	err    error
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	if n < len(c.chunks[0]) {
		c.chunks[0] = c.chunks[0][n:]
	} else {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []backend.ChatRequest
	called   chan struct{}
	respond  func(ctx context.Context, req backend.ChatRequest) (*backend.Stream, error)
}

func (b *fakeBackend) StreamChat(ctx context.Context, req backend.ChatRequest) (*backend.Stream, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if b.called != nil {
		b.called <- struct{}{}
	}
	return b.respond(ctx, req)
}

func (b *fakeBackend) calls() []backend.ChatRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]backend.ChatRequest(nil), b.requests...)
}

func replying(chunks ...string) *fakeBackend {
	return &fakeBackend{respond: func(ctx context.Context, _ backend.ChatRequest) (*backend.Stream, error) {
		cs := append([]string(nil), chunks...)
		return backend.NewStream(ctx, io.NopCloser(&chunkReader{chunks: cs})), nil
	}}
}

func failingWith(err error) *fakeBackend {
	return &fakeBackend{respond: func(context.Context, backend.ChatRequest) (*backend.Stream, error) {
		return nil, err
	}}
}

func breakingAfter(err error, chunks ...string) *fakeBackend {
	return &fakeBackend{respond: func(ctx context.Context, _ backend.ChatRequest) (*backend.Stream, error) {
		cs := append([]string(nil), chunks...)
		return backend.NewStream(ctx, io.NopCloser(&chunkReader{chunks: cs, err: err})), nil
	}}
}

// =============================================================================
// HISTORY, THEMES, CLIPBOARD
// =============================================================================

type memHistory struct {
	mu      sync.Mutex
	initial []model.Message
	saved   [][]model.Message
	saveErr error
}

func (h *memHistory) Load(context.Context) []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Message(nil), h.initial...)
}

func (h *memHistory) Save(_ context.Context, msgs []model.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, append([]model.Message(nil), msgs...))
	return h.saveErr
}

func (h *memHistory) saves() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.saved)
}

func (h *memHistory) last() []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.saved) == 0 {
		return nil
	}
	return h.saved[len(h.saved)-1]
}

type memThemes struct {
	theme string
	ok    bool
	sets  []string
}

func (m *memThemes) Theme(context.Context) (string, bool) { return m.theme, m.ok }

func (m *memThemes) SetTheme(_ context.Context, theme string) error {
	m.sets = append(m.sets, theme)
	m.theme, m.ok = theme, true
	return nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

var errBoom = errors.New("boom")
