// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across vedantra.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth, PadRight: column-aware helpers (go-runewidth)
//   - Preview: one-line summary of multi-line message content
//
// File Operations:
//   - AtomicWriteFile: crash-safe whole-file replacement with fsync
//   - OpenAppend: append-only file handle for logs
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	line := util.Preview(msg.Content, 60)
package util
