// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vedantra/internal/model"
)

// =============================================================================
// SLOT CONTRACT TESTS
// =============================================================================

func slotFactories() map[string]func(t *testing.T) Slot {
	return map[string]func(t *testing.T) Slot{
		"file": func(t *testing.T) Slot {
			s, err := NewFileSlot(t.TempDir())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Slot {
			s, err := OpenSQLiteSlot(filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestSlot_Contract(t *testing.T) {
	ctx := context.Background()
	for name, newSlot := range slotFactories() {
		t.Run(name, func(t *testing.T) {
			s := newSlot(t)

			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, "k", "first"))
			require.NoError(t, s.Put(ctx, "k", "second"))

			v, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "second", v)

			require.NoError(t, s.Delete(ctx, "k"))
			require.NoError(t, s.Delete(ctx, "k"))
			_, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileSlot_RejectsBadKeys(t *testing.T) {
	s, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape", "a/b", ".hidden"} {
		err := s.Put(context.Background(), key, "x")
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestSQLiteSlot_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	s, err := OpenSQLiteSlot(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, HistoryKey, "[]"))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteSlot(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, HistoryKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &FileSlot{}, s)

	s, err = Open(Options{Backend: BackendSQLite, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteSlot{}, s)
	require.NoError(t, s.Close())

	_, err = Open(Options{Backend: "redis", DataDir: dir})
	assert.Error(t, err)

	_, err = Open(Options{})
	assert.Error(t, err)
}

// =============================================================================
// HISTORY STORE TESTS
// =============================================================================

func newHistory(t *testing.T) (*HistoryStore, *FileSlot) {
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)
	return NewHistoryStore(slot, nil), slot
}

func TestHistoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	h, _ := newHistory(t)

	msgs := []model.Message{
		model.NewAssistantMessage(model.WelcomeText, model.DefaultModel),
		model.NewUserMessage("hi", model.DefaultModel),
		model.NewAssistantMessage("hello", "deepseek-r1-distill-llama-8b"),
	}
	require.NoError(t, h.Save(ctx, msgs))

	got := h.Load(ctx)
	require.Len(t, got, 3)
	for i := range msgs {
		assert.Equal(t, msgs[i].ID, got[i].ID)
		assert.Equal(t, msgs[i].Role, got[i].Role)
		assert.Equal(t, msgs[i].Content, got[i].Content)
		assert.Equal(t, msgs[i].Model, got[i].Model)
		assert.True(t, msgs[i].Timestamp.Equal(got[i].Timestamp))
	}
}

func TestHistoryStore_SaveEmptyIsArray(t *testing.T) {
	ctx := context.Background()
	h, slot := newHistory(t)

	require.NoError(t, h.Save(ctx, nil))

	v, ok, err := slot.Get(ctx, HistoryKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", v)
	assert.Empty(t, h.Load(ctx))
}

func TestHistoryStore_LoadFailsSoft(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "{not json"},
		{"object", `{"role":"user"}`},
		{"truncated", `[{"role":"user","content":"hi"`},
		{"blank", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			h, slot := newHistory(t)
			require.NoError(t, slot.Put(ctx, HistoryKey, tt.value))

			got := h.Load(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestHistoryStore_LoadMissing(t *testing.T) {
	h, _ := newHistory(t)
	got := h.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHistoryStore_LoadLegacyRecords(t *testing.T) {
	ctx := context.Background()
	h, slot := newHistory(t)

	legacy := `[
		{"role":"assistant","content":"welcome","timestamp":"2025-02-03T10:20:30.123Z","model":"llama-3.3-nemotron-super-49b-v1"},
		{"role":"system","content":"ignored"},
		{"role":"user","content":"question","timestamp":"not a time"},
		{"role":"tool","content":"dropped"}
	]`
	require.NoError(t, slot.Put(ctx, HistoryKey, legacy))

	got := h.Load(ctx)
	require.Len(t, got, 2)

	assert.NotEmpty(t, got[0].ID)
	assert.NotEmpty(t, got[1].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, model.RoleAssistant, got[0].Role)
	assert.Equal(t, time.Date(2025, 2, 3, 10, 20, 30, 123000000, time.UTC), got[0].Timestamp.UTC())
	assert.True(t, got[1].Timestamp.IsZero())
}

type failingSlot struct{ err error }

func (f failingSlot) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingSlot) Put(context.Context, string, string) error         { return f.err }
func (f failingSlot) Delete(context.Context, string) error              { return f.err }
func (f failingSlot) Close() error                                      { return nil }

func TestHistoryStore_SaveFailure(t *testing.T) {
	boom := errors.New("disk full")
	h := NewHistoryStore(failingSlot{err: boom}, nil)

	err := h.Save(context.Background(), []model.Message{model.NewUserMessage("x", "m")})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "save", se.Op)
	assert.Equal(t, HistoryKey, se.Key)
	assert.ErrorIs(t, err, boom)

	assert.Empty(t, h.Load(context.Background()))
}

func TestHistoryStore_FileIsPrivate(t *testing.T) {
	ctx := context.Background()
	h, slot := newHistory(t)
	require.NoError(t, h.Save(ctx, []model.Message{model.NewUserMessage("x", "m")}))

	info, err := os.Stat(filepath.Join(slot.Dir, HistoryKey))
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestHistoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	h, _ := newHistory(t)
	require.NoError(t, h.Save(ctx, []model.Message{model.NewUserMessage("x", "m")}))

	require.NoError(t, h.Clear(ctx))
	assert.Empty(t, h.Load(ctx))
}

// =============================================================================
// PREFERENCES TESTS
// =============================================================================

func TestPreferences_Theme(t *testing.T) {
	ctx := context.Background()
	slot, err := NewFileSlot(t.TempDir())
	require.NoError(t, err)
	p := NewPreferences(slot)

	_, ok := p.Theme(ctx)
	assert.False(t, ok)

	require.NoError(t, p.SetTheme(ctx, ThemeDark))
	theme, ok := p.Theme(ctx)
	assert.True(t, ok)
	assert.Equal(t, ThemeDark, theme)

	assert.Error(t, p.SetTheme(ctx, "solarized"))

	require.NoError(t, slot.Put(ctx, ThemeKey, "purple"))
	_, ok = p.Theme(ctx)
	assert.False(t, ok)
}
