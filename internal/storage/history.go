// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/vedantra/internal/model"
)

// Storage keys.
const (
	HistoryKey = "vedantra-chat-messages"
	ThemeKey   = "theme"
)

// =============================================================================
// ERRORS
// =============================================================================

// StorageError reports a failed slot operation. Persistence is best-effort:
// callers log it and carry on.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore persists the whole conversation log as one JSON array.
type HistoryStore struct {
	slot   Slot
	logger *slog.Logger
}

// NewHistoryStore returns a history store over slot.
func NewHistoryStore(slot Slot, logger *slog.Logger) *HistoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStore{slot: slot, logger: logger.With("component", "history")}
}

// storedMessage tolerates records written by older clients: missing IDs and
// timestamps in any RFC 3339 shape.
type storedMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp json.RawMessage `json:"timestamp"`
	Model     string          `json:"model"`
}

// Save overwrites the stored log with msgs.
func (h *HistoryStore) Save(ctx context.Context, msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return &StorageError{Op: "encode", Key: HistoryKey, Err: err}
	}
	if err := h.slot.Put(ctx, HistoryKey, string(data)); err != nil {
		return &StorageError{Op: "save", Key: HistoryKey, Err: err}
	}
	return nil
}

// Load returns the stored log. A missing, unreadable or corrupt value yields
// an empty log; Load never fails.
func (h *HistoryStore) Load(ctx context.Context) []model.Message {
	raw, ok, err := h.slot.Get(ctx, HistoryKey)
	if err != nil {
		h.logger.Warn("history read failed", "error", err)
		return []model.Message{}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Message{}
	}

	var records []storedMessage
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		h.logger.Warn("history is corrupt, starting empty", "error", err)
		return []model.Message{}
	}

	msgs := make([]model.Message, 0, len(records))
	for _, r := range records {
		role := model.Role(r.Role)
		if !role.Valid() {
			continue
		}
		id := r.ID
		if id == "" {
			id = model.NewID()
		}
		msgs = append(msgs, model.Message{
			ID:        id,
			Role:      role,
			Content:   r.Content,
			Timestamp: parseTimestamp(r.Timestamp),
			Model:     r.Model,
		})
	}
	return msgs
}

// Clear removes the stored log.
func (h *HistoryStore) Clear(ctx context.Context) error {
	if err := h.slot.Delete(ctx, HistoryKey); err != nil {
		return &StorageError{Op: "delete", Key: HistoryKey, Err: err}
	}
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var t time.Time
	if err := json.Unmarshal(raw, &t); err == nil {
		return t
	}
	// Epoch milliseconds.
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}

// =============================================================================
// PREFERENCES
// =============================================================================

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences stores small user settings.
type Preferences struct {
	slot Slot
}

// NewPreferences returns preferences stored in slot.
func NewPreferences(slot Slot) *Preferences {
	return &Preferences{slot: slot}
}

// Theme returns the stored theme. ok is false when nothing valid is stored.
func (p *Preferences) Theme(ctx context.Context) (string, bool) {
	v, ok, err := p.slot.Get(ctx, ThemeKey)
	if err != nil || !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v != ThemeLight && v != ThemeDark {
		return "", false
	}
	return v, true
}

// SetTheme stores theme, which must be "light" or "dark".
func (p *Preferences) SetTheme(ctx context.Context, theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return &StorageError{Op: "save", Key: ThemeKey, Err: fmt.Errorf("unknown theme %q", theme)}
	}
	if err := p.slot.Put(ctx, ThemeKey, theme); err != nil {
		return &StorageError{Op: "save", Key: ThemeKey, Err: err}
	}
	return nil
}
