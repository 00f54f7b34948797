// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles holds the colors and Lip Gloss styles of the terminal UI.
//
// Colors are lipgloss.AdaptiveColor values. Which half is used follows
// lipgloss.HasDarkBackground, so switching themes is a matter of calling
// Apply and re-rendering.
//
// # Key Types
//
//   - Theme: every style the chat view uses
//
// # Usage
//
//	styles.Apply("dark")
//	theme := styles.NewTheme()
//	fmt.Println(theme.AssistantLabel.Render("Vedantra AI"))
package styles
