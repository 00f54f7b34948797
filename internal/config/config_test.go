// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

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

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(DirEnv, dir)
	for _, key := range []string{
		"VEDANTRA_BACKEND_URL", "VEDANTRA_MODEL", "VEDANTRA_DATA_DIR", "VEDANTRA_STORAGE",
		"VEDANTRA_THEME", "VEDANTRA_LOG_LEVEL", "VEDANTRA_LOG_FORMAT", "VEDANTRA_PORT",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

// =============================================================================
// DEFAULTS AND LOADING
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, model.DefaultModel, cfg.Chat.DefaultModel)
	assert.Equal(t, "127.0.0.1:8787", cfg.ServerAddr())
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout())
	assert.Equal(t, 2, cfg.Catalog().Len())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Backend, cfg.Backend)

	dataDir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, dataDir)
}

func TestLoad_TOMLFillsMissingValues(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[backend]
url = "http://chat.local:9000"

[storage]
backend = "sqlite"

[ui]
theme = "dark"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://chat.local:9000", cfg.Backend.URL)
	assert.Equal(t, 10, cfg.Backend.ConnectTimeoutSecs)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, 80, cfg.UI.WordWrap)
	assert.Equal(t, "NVIDIA_API_KEY", cfg.Server.Upstream.APIKeyEnv)
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.json"), `{"log": {"level": "debug", "format": "json"}}`)

	path, err := ActivePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.json"), path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_CustomCatalog(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
[[chat.models]]
id = "tiny"
name = "Tiny"

[[chat.models]]
id = "huge"
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "tiny", cfg.Chat.DefaultModel)
	assert.Equal(t, []string{"tiny", "huge"}, cfg.Catalog().IDs())
	assert.Equal(t, "huge", cfg.Catalog().DisplayName("huge"))
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "[backend\nurl=")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("VEDANTRA_BACKEND_URL", "https://override.example")
	t.Setenv("VEDANTRA_MODEL", "deepseek-r1-distill-llama-8b")
	t.Setenv("VEDANTRA_STORAGE", "SQLite")
	t.Setenv("VEDANTRA_PORT", "9999")
	t.Setenv("VEDANTRA_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://override.example", cfg.Backend.URL)
	assert.Equal(t, "deepseek-r1-distill-llama-8b", cfg.Chat.DefaultModel)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv("VEDANTRA_PORT", "not-a-port")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 8787, cfg.Server.Port)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "VEDANTRA_TEST_KEY=from-file\nVEDANTRA_TEST_SET=from-file\n")
	t.Setenv("VEDANTRA_TEST_SET", "from-env")
	t.Setenv("VEDANTRA_TEST_KEY", "")
	os.Unsetenv("VEDANTRA_TEST_KEY")

	LoadDotEnv()
	assert.Equal(t, "from-file", os.Getenv("VEDANTRA_TEST_KEY"))
	assert.Equal(t, "from-env", os.Getenv("VEDANTRA_TEST_SET"))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad backend scheme", func(c *Config) { c.Backend.URL = "ftp://x" }, "backend.url"},
		{"backend without host", func(c *Config) { c.Backend.URL = "http://" }, "backend.url"},
		{"negative timeout", func(c *Config) { c.Backend.ConnectTimeoutSecs = -1 }, "backend.connect_timeout_secs"},
		{"unknown model", func(c *Config) { c.Chat.DefaultModel = "gpt-99" }, "chat.default_model"},
		{"blank catalog id", func(c *Config) { c.Chat.Models = []model.ModelInfo{{ID: " "}} }, "chat.models[0].id"},
		{"storage backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
		{"theme", func(c *Config) { c.UI.Theme = "sepia" }, "ui.theme"},
		{"word wrap", func(c *Config) { c.UI.WordWrap = 1000 }, "ui.word_wrap"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"rate", func(c *Config) { c.Server.RateLimit.RPS = -1 }, "server.rate_limit.rps"},
		{"trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.1", "proxy.local"} }, "server.trusted_proxies"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var errs ValidateErrors
			require.True(t, errors.As(err, &errs))
			fields := make([]string, 0, len(errs))
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "sepia"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
	assert.Contains(t, err.Error(), "; ")
}

// =============================================================================
// SAVE, GET, SET
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Backend.URL = "http://saved:1"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:1", loaded.Backend.URL)
	assert.Equal(t, []string{"http://localhost:3000"}, loaded.Server.AllowedOrigins)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.UI.Theme = "light"

	require.NoError(t, SaveJSON(cfg, path))
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "light", loaded.UI.Theme)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("server.upstream.base_url")
	require.NoError(t, err)
	assert.Equal(t, "https://integrate.api.nvidia.com/v1", v)

	require.NoError(t, cfg.Set("server.port", "9000"))
	assert.Equal(t, 9000, cfg.Server.Port)

	require.NoError(t, cfg.Set("server.rate_limit.rps", "0.5"))
	assert.InDelta(t, 0.5, cfg.Server.RateLimit.RPS, 1e-9)

	require.NoError(t, cfg.Set("server.allowed_origins", "http://a, http://b"))
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)

	require.NoError(t, cfg.Set("server.trusted_proxies", "10.0.0.0/8,192.168.1.5"))
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.Server.TrustedProxies)
	assert.NoError(t, cfg.Validate())

	require.NoError(t, cfg.Set("ui.word_wrap", 100))
	assert.Equal(t, 100, cfg.UI.WordWrap)

	assert.Error(t, cfg.Set("server.port", "many"))
	_, err = cfg.Get("server.nope")
	assert.ErrorContains(t, err, "unknown field: server.nope")
	_, err = cfg.Get("backend.url.scheme")
	assert.ErrorContains(t, err, "not a section")
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestKeys_AllResolve(t *testing.T) {
	cfg := Default()
	for _, key := range Keys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	cfg.Server.AllowedOrigins = []string{"a"}
	cfg.Server.TrustedProxies = []string{"10.0.0.1"}
	clone := cfg.Clone()
	clone.Server.AllowedOrigins[0] = "b"
	clone.Server.TrustedProxies[0] = "10.0.0.2"
	clone.Backend.URL = "http://other:1"

	assert.Equal(t, "a", cfg.Server.AllowedOrigins[0])
	assert.Equal(t, "10.0.0.1", cfg.Server.TrustedProxies[0])
	assert.NotEqual(t, cfg.Backend.URL, clone.Backend.URL)
	assert.Contains(t, cfg.String(), "[backend]")
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	w, err := WatchWithDebounce(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
		if err == nil {
			changes <- cfg
		}
	})
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, path, w.Path())

	updated := Default()
	updated.UI.Theme = "dark"
	require.NoError(t, SaveTOML(updated, path))

	select {
	case cfg := <-changes:
		assert.Equal(t, "dark", cfg.UI.Theme)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 4)
	w, err := WatchWithDebounce(ctx, path, 10*time.Millisecond, func(*Config, error) {
		changes <- struct{}{}
	})
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "history.json"), "[]")

	select {
	case <-changes:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
	require.NoError(t, w.Close())
}
