// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable pieces of the terminal UI.
//
// Toasts are non-blocking notifications drawn in the bottom-right corner
// that dismiss themselves after a few seconds.
//
// # Key Types
//
//   - Toast: one notification
//   - ToastManager: the visible stack, newest first
//
// # Usage
//
//	toasts := components.NewToastManager()
//	toasts.Add(components.NewToast(components.ToastSuccess, "Message copied to clipboard!"))
//	overlay := components.RenderToastStack(toasts.Tick(), width)
package components
