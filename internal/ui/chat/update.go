// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/model"
	"github.com/jeranaias/vedantra/internal/ui/components"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.rebuildFormatter()
		m.ready = true
		m.refresh(true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// Session lifecycle
	case startedMsg:
		if msg.theme != m.themeName {
			m.setTheme(msg.theme)
			m.refresh(true)
		}
		return m, nil

	case themeMsg:
		m.setTheme(msg.theme)
		m.refresh(false)
		return m, nil

	case cycleDoneMsg:
		// Failures were already reported through the notifier.
		return m, nil

	case ConfigReloadedMsg:
		if msg.WordWrap > 0 {
			m.wordWrap = msg.WordWrap
		}
		m.rebuildFormatter()
		m.refresh(false)
		if msg.Theme == core.ThemeLight || msg.Theme == core.ThemeDark {
			return m, m.defaultThemeCmd(msg.Theme)
		}
		return m, nil

	// Renderer
	case renderAllMsg:
		m.setMessages(msg.msgs)
		m.selected = -1
		m.refresh(true)
		return m, nil

	case appendMsg:
		m.entries = append(m.entries, entry{msg: msg.msg, markup: m.render(msg.msg.Content)})
		m.refresh(true)
		return m, nil

	case beginMsg:
		m.entries = append(m.entries, entry{placeholder: msg.id})
		m.refresh(true)
		return m, nil

	case updateMsg:
		if i := m.find(msg.id); i >= 0 {
			m.entries[i].markup = strings.TrimRight(msg.markup, "\n")
			m.refresh(false)
		}
		return m, nil

	case finalizeMsg:
		if i := m.find(msg.id); i >= 0 {
			m.entries[i] = entry{msg: msg.msg, markup: m.render(msg.msg.Content)}
			m.refresh(false)
		}
		return m, nil

	case removeMsg:
		if i := m.find(msg.id); i >= 0 {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			if i < m.selected {
				m.selected--
			}
			m.refresh(false)
		}
		return m, nil

	case clearMsg:
		m.entries = nil
		m.selected = -1
		m.refresh(true)
		return m, nil

	case typingMsg:
		m.typing = msg.on
		return m, nil

	// Notifier and confirmer
	case notifyMsg:
		m.toasts.Add(notifyToast(msg.n))
		return m, nil

	case confirmMsg:
		m.answer(false)
		m.confirm = &msg
		return m, nil

	// Ticks
	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey routes a key press. An open confirmation takes every key.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			m.answer(true)
		case "n", "N", "esc", "ctrl+c":
			m.answer(false)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back) && m.selected >= 0:
		m.selected = -1
		m.refresh(false)
		return m, nil

	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
		return m, tea.Quit

	case key.Matches(msg, m.keys.SelectPrev):
		m.moveSelection(-1)
		m.showSelection()
		return m, nil

	case key.Matches(msg, m.keys.SelectNext):
		m.moveSelection(1)
		m.showSelection()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		// While busy the session warns and the draft stays in the box.
		if !m.session.Busy() {
			m.input.Reset()
		}
		return m, m.sendCmd(text)

	case key.Matches(msg, m.keys.Regenerate):
		sel, ok := m.selection()
		if ok && sel.Role != model.RoleAssistant {
			m.toasts.Add(components.NewToast(components.ToastWarning, core.MsgNotAReply))
			return m, nil
		}
		return m, m.regenerateCmd(sel.ID)

	case key.Matches(msg, m.keys.Copy):
		sel, _ := m.selection()
		return m, m.copyCmd(sel.ID)

	case key.Matches(msg, m.keys.Theme):
		return m, m.themeCmd()

	case key.Matches(msg, m.keys.Clear):
		return m, m.clearCmd()

	case key.Matches(msg, m.keys.Model):
		return m, m.nextModelCmd()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// showSelection re-renders the highlight and scrolls it into view.
func (m *Model) showSelection() {
	m.refresh(false)
	if m.selected < 0 {
		return
	}
	line := m.selectionLine()
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line)
	}
}

// layout sizes the viewport and input to the window.
func (m *Model) layout() {
	m.viewport.Width = m.width
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
	m.input.SetWidth(m.width - 4)
	m.help.Width = m.width
}
