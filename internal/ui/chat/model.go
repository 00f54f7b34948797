// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/format"
	"github.com/jeranaias/vedantra/internal/model"
	"github.com/jeranaias/vedantra/internal/ui/components"
	"github.com/jeranaias/vedantra/internal/ui/styles"
)

// TypingText is shown while a reply is in flight.
const TypingText = "Vedantra AI is typing"

// Layout rows outside the viewport: title, typing line, input box, status.
const (
	inputHeight  = 3
	chromeHeight = 1 + 1 + inputHeight + 2 + 1
)

// =============================================================================
// MESSAGES
// =============================================================================

type (
	startedMsg   struct{ theme string }
	themeMsg     struct{ theme string }
	cycleDoneMsg struct{ err error }
)

// ConfigReloadedMsg tells the view that display settings changed on disk.
// An empty Theme or a zero WordWrap leaves that setting alone.
type ConfigReloadedMsg struct {
	Theme    string
	WordWrap int
}

// =============================================================================
// MODEL
// =============================================================================

// entry is one block of the transcript. A streaming reply has a placeholder
// id and no message yet.
type entry struct {
	msg         model.Message
	placeholder core.PlaceholderID
	markup      string
}

func (e entry) streaming() bool { return e.placeholder != 0 }

// Options configures the view.
type Options struct {
	// WordWrap caps the rendered text width. Zero means format.DefaultWordWrap.
	WordWrap int
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx     context.Context
	session *core.Session
	keys    KeyMap

	theme     *styles.Theme
	themeName string
	formatter *format.Terminal
	wordWrap  int

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	toasts   *components.ToastManager

	entries []entry
	// selected indexes the highlighted entry, -1 for none. ^R and ^Y act
	// on it instead of the latest reply.
	selected int
	typing   bool
	confirm  *confirmMsg

	width  int
	height int
	ready  bool
}

// New creates the chat view for a session. The session is started from
// Init, so nothing is loaded until the program runs.
func New(ctx context.Context, s *core.Session, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.Prompt = "> "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	wrap := opts.WordWrap
	if wrap <= 0 {
		wrap = format.DefaultWordWrap
	}

	m := Model{
		ctx:      ctx,
		session:  s,
		keys:     DefaultKeyMap(),
		wordWrap: wrap,
		viewport: viewport.New(0, 0),
		input:    ta,
		spinner:  sp,
		help:     help.New(),
		toasts:   components.NewToastManager(),
		selected: -1,
	}
	m.setTheme(s.Theme())
	return m
}

// Init starts the session and the periodic ticks.
func (m Model) Init() tea.Cmd {
	s, ctx := m.session, m.ctx
	start := func() tea.Msg {
		s.Start(ctx)
		return startedMsg{theme: s.Theme()}
	}
	return tea.Batch(textarea.Blink, m.spinner.Tick, components.ToastTickCmd(), start)
}

// =============================================================================
// SESSION COMMANDS
// =============================================================================

// These run in tea.Cmd goroutines: the session reports back through the
// bridge, which must never be called from inside Update.

func (m Model) sendCmd(text string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return cycleDoneMsg{err: s.Send(ctx, text)}
	}
}

// regenerateCmd re-asks for id, or for the latest reply when id is empty.
func (m Model) regenerateCmd(id string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		if id == "" {
			last, ok := s.LastAssistant()
			if !ok {
				return nil
			}
			id = last.ID
		}
		return cycleDoneMsg{err: s.Regenerate(ctx, id)}
	}
}

// copyCmd copies message id, or the latest reply when id is empty.
func (m Model) copyCmd(id string) tea.Cmd {
	s := m.session
	return func() tea.Msg {
		if id == "" {
			last, ok := s.LastAssistant()
			if !ok {
				return nil
			}
			id = last.ID
		}
		_ = s.Copy(id)
		return nil
	}
}

func (m Model) clearCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		_ = s.Clear(ctx)
		return nil
	}
}

func (m Model) themeCmd() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return themeMsg{theme: s.ToggleTheme(ctx)}
	}
}

// defaultThemeCmd hands a reloaded ui.theme to the session, which keeps a
// stored preference over it.
func (m Model) defaultThemeCmd(theme string) tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return themeMsg{theme: s.SetDefaultTheme(ctx, theme)}
	}
}

func (m Model) nextModelCmd() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		next := s.Catalog().Next(s.Model())
		_ = s.SelectModel(next.ID)
		return nil
	}
}

// =============================================================================
// RENDERING STATE
// =============================================================================

// setTheme switches colors and the markdown renderer, then re-renders every
// finalized message. Streaming entries pick the new formatter up on their
// next chunk.
func (m *Model) setTheme(theme string) {
	if theme != styles.Light {
		theme = styles.Dark
	}
	styles.Apply(theme)
	m.themeName = theme
	m.theme = styles.NewTheme()
	m.rebuildFormatter()
}

func (m *Model) rebuildFormatter() {
	m.formatter = format.NewTerminal(m.themeName, m.wrapWidth())
	m.session.SetFormatter(m.formatter)
	for i := range m.entries {
		if !m.entries[i].streaming() {
			m.entries[i].markup = m.render(m.entries[i].msg.Content)
		}
	}
}

func (m Model) wrapWidth() int {
	w := m.wordWrap
	if m.width > 0 && m.width-4 < w {
		w = m.width - 4
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) render(content string) string {
	return strings.TrimRight(m.formatter.Format(content), "\n")
}

func (m *Model) setMessages(msgs []model.Message) {
	m.entries = m.entries[:0]
	for _, msg := range msgs {
		m.entries = append(m.entries, entry{msg: msg, markup: m.render(msg.Content)})
	}
}

// =============================================================================
// SELECTION
// =============================================================================

// selection returns the highlighted message.
func (m Model) selection() (model.Message, bool) {
	if m.selected < 0 || m.selected >= len(m.entries) || m.entries[m.selected].streaming() {
		return model.Message{}, false
	}
	return m.entries[m.selected].msg, true
}

// moveSelection steps the highlight by delta, skipping streaming entries.
// Stepping down past the newest entry drops the highlight; stepping up
// past the oldest keeps it.
func (m *Model) moveSelection(delta int) {
	i := m.selected
	if i < 0 {
		if delta > 0 {
			return
		}
		i = len(m.entries)
	}
	for i += delta; i >= 0 && i < len(m.entries); i += delta {
		if !m.entries[i].streaming() {
			m.selected = i
			return
		}
	}
	if delta > 0 {
		m.selected = -1
	}
}

// selectionLine is the transcript line of the highlighted entry's header.
func (m Model) selectionLine() int {
	line := 0
	for i := 0; i < m.selected && i < len(m.entries); i++ {
		line += strings.Count(m.entries[i].markup, "\n") + 3
	}
	return line
}

func (m Model) find(id core.PlaceholderID) int {
	for i, e := range m.entries {
		if e.placeholder == id {
			return i
		}
	}
	return -1
}

func (m *Model) answer(yes bool) {
	if m.confirm == nil {
		return
	}
	m.confirm.reply <- yes
	m.confirm = nil
}

// notifyToast maps a session notification onto a toast.
func notifyToast(n core.Notification) components.Toast {
	kind := components.ToastInfo
	switch n.Kind {
	case core.KindSuccess:
		kind = components.ToastSuccess
	case core.KindWarning:
		kind = components.ToastWarning
	case core.KindError:
		kind = components.ToastError
	}
	return components.NewToast(kind, n.Text)
}
