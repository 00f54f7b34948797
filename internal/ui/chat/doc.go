// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen terminal front end.
//
// The session in internal/chat does the work; this package draws it. A
// Bridge implements the session's Renderer, Notifier and Confirmer by
// forwarding each call into the Bubble Tea program as a message, so all
// drawing state is touched only from Update. Session commands block for the
// length of a reply and therefore always run inside tea.Cmd goroutines.
//
// # Key Types
//
//   - Bridge: session callbacks to tea.Msg values
//   - Model: the Bubble Tea model
//   - KeyMap: key bindings
//
// # Usage
//
//	bridge := chat.NewBridge()
//	session := core.New(client, history, bridge, bridge, core.WithConfirmer(bridge))
//	p := chat.NewProgram(ctx, session, bridge, chat.Options{WordWrap: 80})
//	_, err := p.Run()
package chat
