// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.
//
// Examples:
//
//	vedantra config                       Show the effective configuration
//	vedantra config path                  Print the config file path
//	vedantra config init                  Write the defaults to disk
//	vedantra config get backend.url
//	vedantra config set ui.theme dark

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jeranaias/vedantra/internal/config"
)

func (a *App) runConfig(args Args) error {
	cmd := args.Cmd
	switch sub := cmd.Subcommand(); sub {
	case "", "show":
		if err := rejectUnknown(cmd, "config show", "json"); err != nil {
			return err
		}
		cfg, err := a.loadConfig(args)
		if err != nil {
			return err
		}
		if cmd.BoolFlag("json") {
			enc := json.NewEncoder(a.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		}
		fmt.Fprint(a.Stdout, cfg.String())
		return nil

	case "path":
		path, err := targetPath(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.Stdout, path)
		return nil

	case "init":
		if err := rejectUnknown(cmd, "config init", "force"); err != nil {
			return err
		}
		return a.configInit(args, cmd.BoolFlag("force"))

	case "get":
		key := cmd.Positional(1)
		if key == "" {
			return NewUsageError("config get: missing KEY (one of %s)", strings.Join(config.Keys(), ", "))
		}
		cfg, err := a.loadConfig(args)
		if err != nil {
			return err
		}
		value, err := cfg.Get(key)
		if err != nil {
			return &NotFoundError{Resource: "setting", ID: key}
		}
		fmt.Fprintln(a.Stdout, formatValue(value))
		return nil

	case "set":
		key, value := cmd.Positional(1), cmd.JoinPositional(2)
		if key == "" || cmd.PositionalCount() < 3 {
			return NewUsageError("config set: usage is 'config set KEY VALUE'")
		}
		return a.configSet(args, key, value)

	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(a.Stdout, k)
		}
		return nil

	default:
		return NewUsageError("config: unknown subcommand %q (want show, path, init, get, set or keys)", sub)
	}
}

// targetPath is the file config commands read and write.
func targetPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	path, err := config.ActivePath()
	if err != nil {
		return "", &ConfigError{Err: err}
	}
	return path, nil
}

func (a *App) configInit(args Args, force bool) error {
	path, err := targetPath(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return NewUsageError("config init: %s already exists (use --force to overwrite)", path)
	}
	if err := writeConfig(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Wrote %s\n", path)
	return nil
}

func (a *App) configSet(args Args, key, value string) error {
	if !slices.Contains(config.Keys(), key) {
		return &NotFoundError{Resource: "setting", ID: key}
	}
	path, err := targetPath(args)
	if err != nil {
		return err
	}

	// Decode the file over the defaults only, so environment overrides
	// never end up saved.
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		var err error
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return &ConfigError{Err: err}
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return NewUsageError("config set %s: %v", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	if err := writeConfig(cfg, path); err != nil {
		return err
	}
	stored, _ := cfg.Get(key)
	fmt.Fprintf(a.Stdout, "%s = %s\n", key, formatValue(stored))
	return nil
}

func writeConfig(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return &ConfigError{Err: err}
	}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = config.SaveJSON(cfg, path)
	} else {
		err = config.SaveTOML(cfg, path)
	}
	if err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

func formatValue(v any) string {
	if list, ok := v.([]string); ok {
		return strings.Join(list, ",")
	}
	return fmt.Sprint(v)
}
