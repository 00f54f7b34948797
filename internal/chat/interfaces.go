// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/model"
)

// =============================================================================
// RENDERER
// =============================================================================

// PlaceholderID names the display slot of a reply that is still streaming.
type PlaceholderID int

// Renderer projects the conversation onto a front end. It only ever
// receives copies of messages.
type Renderer interface {
	// RenderAll replaces everything on screen with msgs.
	RenderAll(msgs []model.Message)

	// Append shows one more finalized message.
	Append(msg model.Message)

	// BeginPlaceholder adds an empty reply slot and returns its id.
	BeginPlaceholder() PlaceholderID

	// UpdatePlaceholder replaces the slot's content with markup.
	UpdatePlaceholder(id PlaceholderID, markup string)

	// FinalizePlaceholder binds the slot to the stored message so copy and
	// regenerate act on it.
	FinalizePlaceholder(id PlaceholderID, msg model.Message)

	// RemovePlaceholder deletes the slot and anything shown in it.
	RemovePlaceholder(id PlaceholderID)

	// Clear empties the display.
	Clear()

	// SetTyping toggles the "is typing" indicator.
	SetTyping(on bool)
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// NotificationKind is the severity of a notification.
type NotificationKind int

const (
	KindInfo NotificationKind = iota
	KindSuccess
	KindWarning
	KindError
)

func (k NotificationKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient, non-blocking message for the user.
type Notification struct {
	Kind NotificationKind
	Text string
}

// Notifier shows notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// =============================================================================
// CLIPBOARD
// =============================================================================

// Clipboard receives copied message text.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend opens reply streams. *backend.Client satisfies it.
type Backend interface {
	StreamChat(ctx context.Context, req backend.ChatRequest) (*backend.Stream, error)
}

// History persists the conversation log. *storage.HistoryStore satisfies it.
type History interface {
	Load(ctx context.Context) []model.Message
	Save(ctx context.Context, msgs []model.Message) error
}

// ThemeStore persists the theme choice. *storage.Preferences satisfies it.
type ThemeStore interface {
	Theme(ctx context.Context) (string, bool)
	SetTheme(ctx context.Context, theme string) error
}
