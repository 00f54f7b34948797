// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/vedantra/internal/model"
	"github.com/jeranaias/vedantra/internal/ui/components"
	"github.com/jeranaias/vedantra/internal/util"
)

// SelectedMarker prefixes the header of the highlighted message.
const SelectedMarker = "▸ "

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.confirm != nil {
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.renderConfirm())
	}

	typing := ""
	if m.typing {
		typing = m.theme.Typing.Render(m.spinner.View() + " " + TypingText)
	}

	sections := []string{
		m.renderTitle(),
		body,
	}
	if toasts := components.RenderToastStack(m.toasts.Toasts(), m.width); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections,
		typing,
		m.theme.Input.Width(m.width-2).Render(m.input.View()),
		m.renderStatus(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// refresh rebuilds the transcript. The view follows new output only when
// it was already at the bottom, unless toBottom forces it.
func (m *Model) refresh(toBottom bool) {
	follow := toBottom || m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if i == m.selected {
			sb.WriteString(m.theme.Selected.Render(SelectedMarker))
		}
		sb.WriteString(m.renderHeader(e))
		sb.WriteString("\n")
		sb.WriteString(e.markup)
	}
	return sb.String()
}

func (m Model) renderHeader(e entry) string {
	if e.streaming() {
		return m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName())
	}
	label := m.theme.AssistantLabel
	if e.msg.Role == model.RoleUser {
		label = m.theme.UserLabel
	}
	header := label.Render(e.msg.Role.DisplayName())
	if clock := e.msg.Clock(); clock != "" {
		header += " " + m.theme.Timestamp.Render(clock)
	}
	return header
}

func (m Model) renderTitle() string {
	title := m.theme.Title.Render("Vedantra AI")
	return title + m.theme.Hint.Render(util.TruncateWidth(m.session.Catalog().DisplayName(m.session.Model()), m.width/2))
}

func (m Model) renderStatus() string {
	state := "ready"
	if m.session.Busy() {
		state = m.session.State().String()
	}
	if m.selected >= 0 {
		state += " | #" + strconv.Itoa(m.selected+1) + " selected"
	}
	left := m.theme.StatusKey.Render(m.session.Model()) +
		m.theme.StatusBar.Render(m.themeName+" | "+state)
	right := m.help.ShortHelpView(m.keys.ShortHelp())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderConfirm() string {
	prompt := m.confirm.prompt + "\n\n" + m.theme.Hint.Render("[y] yes   [n] no")
	return m.theme.Overlay.Render(prompt)
}
