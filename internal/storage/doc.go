// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation log and user preferences.
//
// Everything sits on a Slot, a durable single-value-per-key store. Two
// slots exist: FileSlot (one file per key, atomic rename) and SQLiteSlot
// (a kv table in a pure Go SQLite database).
//
// # Key Types
//
//   - Slot: key/value persistence interface
//   - HistoryStore: the whole message log as one JSON array
//   - Preferences: the light/dark theme choice
//   - StorageError: wraps slot failures with the operation and key
//
// # Usage
//
//	slot, err := storage.Open(storage.Options{Backend: "file", DataDir: dir})
//	history := storage.NewHistoryStore(slot, logger)
//	msgs := history.Load(ctx) // empty on missing or corrupt data
//	if err := history.Save(ctx, msgs); err != nil {
//	    logger.Warn("save failed", "error", err)
//	}
//
// # Storage Location
//
// The data directory defaults to ~/.vedantra/data.
package storage
