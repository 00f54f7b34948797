// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/vedantra/internal/chat"
)

// NewProgram builds the full-screen program for a session and attaches the
// bridge to it. The session must have been created with bridge as its
// Renderer, Notifier and Confirmer. The program stops when ctx ends.
func NewProgram(ctx context.Context, s *core.Session, bridge *Bridge, opts Options) *tea.Program {
	p := tea.NewProgram(
		New(ctx, s, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	bridge.Attach(p.Send)
	return p
}
