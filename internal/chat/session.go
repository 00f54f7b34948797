// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/vedantra/internal/format"
	"github.com/jeranaias/vedantra/internal/logging"
	"github.com/jeranaias/vedantra/internal/model"
)

// User-facing texts.
const (
	MsgBusy         = "Please wait for current response to complete"
	MsgCycleFailed  = "Failed to get response. Please try again."
	MsgCopied       = "Message copied to clipboard!"
	MsgCopyFailed   = "Failed to copy message"
	MsgAlreadyEmpty = "Chat is already empty"
	MsgNotAReply    = "Only replies can be regenerated"
	ClearPrompt     = "Are you sure you want to clear the chat history?"
)

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var (
	// ErrBusy is returned when a cycle is already in flight.
	ErrBusy = errors.New("a response is already in progress")

	// ErrUnknownModel is returned by SelectModel for ids outside the catalog.
	ErrUnknownModel = errors.New("unknown model")

	// ErrNotFound is returned by Copy for unknown message ids.
	ErrNotFound = errors.New("message not found")
)

// =============================================================================
// OPTIONS
// =============================================================================

// Option configures a Session.
type Option func(*Session)

// WithModel sets the initially selected model.
func WithModel(id string) Option {
	return func(s *Session) { s.model = id }
}

// WithCatalog sets the selectable models.
func WithCatalog(c *model.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// WithFormatter sets the formatter applied to streamed text.
func WithFormatter(f format.Formatter) Option {
	return func(s *Session) { s.formatter = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithConfirmer sets the confirmation prompt used by Clear.
func WithConfirmer(c Confirmer) Option {
	return func(s *Session) { s.confirmer = c }
}

// WithClipboard overrides the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

// WithThemeStore persists theme changes.
func WithThemeStore(t ThemeStore) Option {
	return func(s *Session) { s.themes = t }
}

// WithDarkBackground supplies the ambient light/dark signal used when no
// theme has been stored.
func WithDarkBackground(dark bool) Option {
	return func(s *Session) { s.ambientDark = dark }
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns the conversation and runs request/stream cycles against the
// backend. At most one cycle is in flight at a time; send, regenerate and
// clear are refused with a warning while one is.
type Session struct {
	conv *model.Conversation

	// awaiting is the single-flight flag.
	awaiting atomic.Bool
	state    atomic.Int32
	outcome  atomic.Int32

	mu          sync.RWMutex
	model       string
	theme       string
	formatter   format.Formatter
	catalog     *model.Catalog
	ambientDark bool

	backend   Backend
	history   History
	renderer  Renderer
	notifier  Notifier
	confirmer Confirmer
	clipboard Clipboard
	themes    ThemeStore
	logger    *slog.Logger
}

// New creates a session. Call Start before anything else.
func New(b Backend, h History, r Renderer, n Notifier, opts ...Option) *Session {
	s := &Session{
		conv:      model.NewConversation(),
		model:     model.DefaultModel,
		formatter: format.HTML{},
		backend:   b,
		history:   h,
		renderer:  r,
		notifier:  n,
		clipboard: SystemClipboard{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = model.DefaultCatalog()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notifier == nil {
		s.notifier = NotifierFunc(func(Notification) {})
	}
	s.theme = ThemeLight
	if s.ambientDark {
		s.theme = ThemeDark
	}
	return s
}

// Start loads history, seeds the welcome message into an empty log, resolves
// the theme and renders everything.
func (s *Session) Start(ctx context.Context) {
	ctx = logging.WithComponent(ctx, "chat")

	s.conv.Replace(s.history.Load(ctx))
	if _, seeded := s.conv.SeedWelcome(s.Model()); seeded {
		s.persist(ctx)
	}

	if s.themes != nil {
		if theme, ok := s.themes.Theme(ctx); ok {
			s.mu.Lock()
			s.theme = theme
			s.mu.Unlock()
		}
	}

	s.renderer.RenderAll(s.conv.Messages())
	s.logger.DebugContext(ctx, "session started", "messages", s.conv.Len(), "theme", s.Theme())
}

// =============================================================================
// COMMANDS
// =============================================================================

// Send appends text as a user message and runs a cycle for it. Blank input
// is ignored. The call blocks until the reply is finalized or discarded.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !s.claim() {
		return ErrBusy
	}
	defer s.release()

	ctx = logging.WithComponent(ctx, "chat")
	msg := model.NewUserMessage(text, s.Model())
	s.conv.Append(msg)
	s.persist(ctx)
	s.renderer.Append(msg)

	return s.runCycle(ctx, text)
}

// Regenerate drops the message with the given id and everything after it,
// then asks again using the new last message as the prompt. Unknown ids are
// ignored.
func (s *Session) Regenerate(ctx context.Context, id string) error {
	if !s.claim() {
		return ErrBusy
	}
	defer s.release()

	ctx = logging.WithComponent(ctx, "chat")
	if !s.conv.TruncateBefore(id) {
		s.logger.DebugContext(ctx, "regenerate target not found", "id", id)
		return nil
	}
	s.persist(ctx)
	s.renderer.RenderAll(s.conv.Messages())

	last, ok := s.conv.Last()
	if !ok {
		// Nothing left to answer: start over like a cold start.
		if welcome, seeded := s.conv.SeedWelcome(s.Model()); seeded {
			s.persist(ctx)
			s.renderer.Append(welcome)
		}
		return nil
	}
	return s.runCycle(ctx, last.Content)
}

// Clear empties the conversation after confirmation and re-seeds the
// welcome message. A log holding only the welcome message is reported as
// already empty without asking.
func (s *Session) Clear(ctx context.Context) error {
	if s.Busy() {
		s.warnBusy()
		return ErrBusy
	}
	if s.conv.OnlyWelcome() {
		s.notify(KindWarning, MsgAlreadyEmpty)
		return nil
	}
	if s.confirmer == nil || !s.confirmer.Confirm(ctx, ClearPrompt) {
		return nil
	}

	// A cycle may have started while the prompt was open.
	if !s.claim() {
		return ErrBusy
	}
	defer s.release()

	ctx = logging.WithComponent(ctx, "chat")
	s.conv.Reset()
	s.renderer.Clear()
	s.persist(ctx)
	if welcome, seeded := s.conv.SeedWelcome(s.Model()); seeded {
		s.persist(ctx)
		s.renderer.Append(welcome)
	}
	s.logger.InfoContext(ctx, "conversation cleared")
	return nil
}

// SelectModel switches the model used for new messages. A running cycle
// keeps the model it started with.
func (s *Session) SelectModel(id string) error {
	info, ok := s.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	s.mu.Lock()
	s.model = info.ID
	s.mu.Unlock()
	s.notify(KindSuccess, "Switched to "+info.Name+" model")
	return nil
}

// ToggleTheme flips between light and dark, persists the choice and
// returns the new theme.
func (s *Session) ToggleTheme(ctx context.Context) string {
	s.mu.Lock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	theme := s.theme
	s.mu.Unlock()

	if s.themes != nil {
		if err := s.themes.SetTheme(ctx, theme); err != nil {
			s.logger.WarnContext(ctx, "failed to save theme", "error", err)
		}
	}
	return theme
}

// SetDefaultTheme changes the theme used when none is stored, e.g. after
// ui.theme is edited on disk. A theme picked with ToggleTheme keeps
// winning. It returns the theme in effect.
func (s *Session) SetDefaultTheme(ctx context.Context, theme string) string {
	if theme != ThemeLight && theme != ThemeDark {
		return s.Theme()
	}
	if s.themes != nil {
		if _, stored := s.themes.Theme(ctx); stored {
			return s.Theme()
		}
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return theme
}

// Copy puts the content of the message with the given id on the clipboard.
func (s *Session) Copy(id string) error {
	msg, ok := s.conv.Get(id)
	if !ok {
		s.notify(KindError, MsgCopyFailed)
		return ErrNotFound
	}
	return s.CopyText(msg.Content)
}

// CopyText puts text on the clipboard and reports the outcome.
func (s *Session) CopyText(text string) error {
	if s.clipboard == nil {
		s.notify(KindError, MsgCopyFailed)
		return errors.New("no clipboard available")
	}
	if err := s.clipboard.WriteAll(text); err != nil {
		s.logger.Warn("failed to copy text", "error", err)
		s.notify(KindError, MsgCopyFailed)
		return err
	}
	s.notify(KindSuccess, MsgCopied)
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Busy reports whether a cycle is in flight.
func (s *Session) Busy() bool { return s.awaiting.Load() }

// State returns the phase of the running cycle, Idle when none runs.
func (s *Session) State() CycleState { return CycleState(s.state.Load()) }

// LastOutcome returns how the most recent cycle ended, Idle before the first.
func (s *Session) LastOutcome() CycleState { return CycleState(s.outcome.Load()) }

// Messages returns a copy of the conversation.
func (s *Session) Messages() []model.Message { return s.conv.Messages() }

// LastAssistant returns the most recent assistant message.
func (s *Session) LastAssistant() (model.Message, bool) {
	return s.conv.LastOfRole(model.RoleAssistant)
}

// Catalog returns the selectable models.
func (s *Session) Catalog() *model.Catalog { return s.catalog }

// Model returns the selected model id.
func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Theme returns "light" or "dark".
func (s *Session) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetFormatter swaps the formatter, e.g. after a theme change.
func (s *Session) SetFormatter(f format.Formatter) {
	s.mu.Lock()
	s.formatter = f
	s.mu.Unlock()
}

func (s *Session) currentFormatter() format.Formatter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formatter
}

// =============================================================================
// HELPERS
// =============================================================================

// claim takes the single-flight flag, warning the user when it is held.
func (s *Session) claim() bool {
	if s.awaiting.CompareAndSwap(false, true) {
		return true
	}
	s.warnBusy()
	return false
}

func (s *Session) release() {
	s.state.Store(int32(StateIdle))
	s.awaiting.Store(false)
}

func (s *Session) warnBusy() {
	s.notify(KindWarning, MsgBusy)
}

func (s *Session) notify(kind NotificationKind, text string) {
	s.notifier.Notify(Notification{Kind: kind, Text: text})
}

// persist saves the log. Failures are logged and otherwise ignored. The
// save outlives cancellation of ctx so a quit never loses finished work.
func (s *Session) persist(ctx context.Context) {
	if err := s.history.Save(context.WithoutCancel(ctx), s.conv.Messages()); err != nil {
		s.logger.WarnContext(ctx, "failed to save history", "error", err)
	}
}
