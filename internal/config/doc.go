// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads, validates and saves the vedantra configuration.
//
// Supports both TOML and JSON configuration files, with built-in defaults,
// .env loading, environment variable overrides and hot reload.
//
// # Key Types
//
//   - Config: the complete configuration (backend, chat, storage, ui, server, log)
//   - ValidationError / ValidateErrors: aggregated validation failures
//   - Watcher: debounced fsnotify reload of the config file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (VEDANTRA_*), including those from .env
//   - ~/.vedantra/config.toml
//   - ~/.vedantra/config.json
//   - Built-in defaults
//
// VEDANTRA_HOME moves the whole directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := backend.NewClient(backend.Config{BaseURL: cfg.Backend.URL})
//
// Reload on change:
//
//	w, err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
//	    if err == nil {
//	        client.SetBaseURL(cfg.Backend.URL)
//	    }
//	})
package config
