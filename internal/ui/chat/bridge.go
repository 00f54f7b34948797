// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/model"
)

// =============================================================================
// BRIDGE MESSAGES
// =============================================================================

type (
	renderAllMsg struct{ msgs []model.Message }
	appendMsg    struct{ msg model.Message }
	beginMsg     struct{ id core.PlaceholderID }
	updateMsg    struct {
		id     core.PlaceholderID
		markup string
	}
	finalizeMsg struct {
		id  core.PlaceholderID
		msg model.Message
	}
	removeMsg  struct{ id core.PlaceholderID }
	clearMsg   struct{}
	typingMsg  struct{ on bool }
	notifyMsg  struct{ n core.Notification }
	confirmMsg struct {
		prompt string
		reply  chan<- bool
	}
)

// =============================================================================
// BRIDGE
// =============================================================================

// Bridge forwards session callbacks to a running program. Calls made before
// Attach are dropped.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
	next atomic.Int64
}

// NewBridge creates an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach sets the delivery function, normally (*tea.Program).Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) emit(msg tea.Msg) bool {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send == nil {
		return false
	}
	send(msg)
	return true
}

// RenderAll implements core.Renderer.
func (b *Bridge) RenderAll(msgs []model.Message) { b.emit(renderAllMsg{msgs: msgs}) }

// Append implements core.Renderer.
func (b *Bridge) Append(msg model.Message) { b.emit(appendMsg{msg: msg}) }

// BeginPlaceholder implements core.Renderer.
func (b *Bridge) BeginPlaceholder() core.PlaceholderID {
	id := core.PlaceholderID(b.next.Add(1))
	b.emit(beginMsg{id: id})
	return id
}

// UpdatePlaceholder implements core.Renderer.
func (b *Bridge) UpdatePlaceholder(id core.PlaceholderID, markup string) {
	b.emit(updateMsg{id: id, markup: markup})
}

// FinalizePlaceholder implements core.Renderer.
func (b *Bridge) FinalizePlaceholder(id core.PlaceholderID, msg model.Message) {
	b.emit(finalizeMsg{id: id, msg: msg})
}

// RemovePlaceholder implements core.Renderer.
func (b *Bridge) RemovePlaceholder(id core.PlaceholderID) { b.emit(removeMsg{id: id}) }

// Clear implements core.Renderer.
func (b *Bridge) Clear() { b.emit(clearMsg{}) }

// SetTyping implements core.Renderer.
func (b *Bridge) SetTyping(on bool) { b.emit(typingMsg{on: on}) }

// Notify implements core.Notifier.
func (b *Bridge) Notify(n core.Notification) { b.emit(notifyMsg{n: n}) }

// Confirm implements core.Confirmer. It shows the overlay and blocks until
// the user answers or ctx ends; an unattached bridge answers no.
func (b *Bridge) Confirm(ctx context.Context, prompt string) bool {
	reply := make(chan bool, 1)
	if !b.emit(confirmMsg{prompt: prompt, reply: reply}) {
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
