// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// Theme names.
const (
	Light = "light"
	Dark  = "dark"
)

// Apply makes adaptive colors resolve for theme. Anything other than
// "light" counts as dark.
func Apply(theme string) {
	lipgloss.SetHasDarkBackground(theme != Light)
}

// Current returns the theme adaptive colors currently resolve to.
func Current() string {
	if lipgloss.HasDarkBackground() {
		return Dark
	}
	return Light
}

// Theme holds the styles of the chat view.
type Theme struct {
	Title          lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Timestamp      lipgloss.Style
	Hint           lipgloss.Style
	Typing         lipgloss.Style
	Input          lipgloss.Style
	StatusBar      lipgloss.Style
	StatusKey      lipgloss.Style
	Overlay        lipgloss.Style
	Divider        lipgloss.Style
	Selected       lipgloss.Style
}

// NewTheme builds the chat view styles.
func NewTheme() *Theme {
	return &Theme{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Blue),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Purple),
		Timestamp: lipgloss.NewStyle().
			Foreground(TextMuted),
		Hint: lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true),
		Typing: lipgloss.NewStyle().
			Foreground(Purple).
			Italic(true).
			Padding(0, 1),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(SurfaceDim).
			Bold(true),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Foreground(TextPrimary).
			Padding(1, 3),
		Divider: lipgloss.NewStyle().
			Foreground(Overlay),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(Amber),
	}
}
