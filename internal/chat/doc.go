// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs the conversation: it owns the message log, guards it
// with a single in-flight flag, and drives one request/stream cycle at a
// time against the backend.
//
// A cycle moves Idle -> Sending -> Streaming -> Finalized or Discarded.
// The reply is shown in a placeholder while it streams; the whole
// accumulated text is reformatted on every chunk. Only a complete reply is
// stored. Failures remove the placeholder and leave the log untouched.
//
// Front ends implement Renderer, Notifier and Confirmer and call the
// command methods (Send, Regenerate, Clear, SelectModel, ToggleTheme,
// Copy). Commands block for the length of a cycle, so interactive front
// ends call them from their own goroutine.
//
// # Key Types
//
//   - Session: state and commands
//   - Renderer, Notifier, Confirmer, Clipboard: front-end collaborators
//   - Backend, History, ThemeStore: satisfied by backend and storage types
//   - CycleState: phase of the running cycle
//
// # Usage
//
//	sess := chat.New(client, history, renderer, notifier,
//	    chat.WithModel(cfg.Chat.DefaultModel),
//	    chat.WithConfirmer(confirmer),
//	)
//	sess.Start(ctx)
//	if err := sess.Send(ctx, "Hello"); err != nil && !errors.Is(err, chat.ErrBusy) {
//	    logger.Warn("send failed", "error", err)
//	}
package chat
