// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Command dispatch and the shared wiring every command uses:
// configuration, logging, storage and the backend client.

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/chat"
	"github.com/jeranaias/vedantra/internal/config"
	"github.com/jeranaias/vedantra/internal/logging"
	"github.com/jeranaias/vedantra/internal/storage"
)

// =============================================================================
// APP
// =============================================================================

// App runs commands against a set of standard streams.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	StdinTTY  bool
	StdoutTTY bool
	Width     int

	// Clipboard overrides the system clipboard.
	Clipboard chat.Clipboard
}

// NewApp returns an App on the process's standard streams.
func NewApp() *App {
	return &App{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		StdinTTY:  IsTTY(),
		StdoutTTY: IsStdoutTTY(),
		Width:     GetTerminalWidth(),
	}
}

// Run executes cmd.
func (a *App) Run(ctx context.Context, cmd Command, args Args) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(a.Stdout)
		return nil
	case CmdVersion:
		PrintVersion(a.Stdout)
		return nil
	case CmdConfig:
		return a.runConfig(args)
	}

	cfg, err := a.loadConfig(args)
	if err != nil {
		return err
	}

	switch cmd {
	case CmdServe:
		return a.runServe(ctx, cfg, args)
	case CmdModels:
		return a.runModels(ctx, cfg, args)
	}

	env, err := a.open(cfg, args)
	if err != nil {
		return err
	}
	defer env.Close()

	switch cmd {
	case CmdTUI:
		return a.runTUI(ctx, env)
	case CmdChat:
		return a.runChat(ctx, env)
	case CmdAsk:
		return a.runAsk(ctx, env)
	case CmdHistory:
		return a.runHistory(ctx, env)
	default:
		return NewUsageError("unknown command %s", cmd)
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// loadConfig reads the config file and applies the global flags.
func (a *App) loadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		config.LoadDotEnv()
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	if args.Model != "" {
		if !cfg.Catalog().Has(args.Model) {
			return nil, NewUsageError("unknown model %q (see 'vedantra models')", args.Model)
		}
		cfg.Chat.DefaultModel = args.Model
	}
	if args.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// configPath is the file the running config came from, or "" when it
// came from defaults only.
func configPath(args Args) string {
	if args.ConfigPath != "" {
		return args.ConfigPath
	}
	path, err := config.ActivePath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// env is the opened state shared by the chat commands.
type env struct {
	cfg     *config.Config
	args    Args
	logger  *slog.Logger
	client  *backend.Client
	slot    storage.Slot
	history *storage.HistoryStore
	prefs   *storage.Preferences
	logFile io.Closer
}

// open sets up logging to the data directory, opens storage and builds the
// backend client. Stdout belongs to the conversation, so logs go to a file.
func (a *App) open(cfg *config.Config, args Args) (*env, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	e := &env{cfg: cfg, args: args}
	logFile, err := logging.OpenFile(filepath.Join(dataDir, logging.LogFile))
	if err != nil {
		e.logger = logging.Setup(cfg.Log, a.Stderr)
		e.logger.Warn("log file unavailable, logging to stderr", "error", err)
	} else {
		e.logFile = logFile
		e.logger = logging.Setup(cfg.Log, logFile)
	}

	slot, err := storage.Open(storage.Options{Backend: cfg.Storage.Backend, DataDir: dataDir})
	if err != nil {
		e.Close()
		return nil, err
	}
	e.slot = slot
	e.history = storage.NewHistoryStore(slot, e.logger)
	e.prefs = storage.NewPreferences(slot)

	e.client = backend.NewClient(backend.Config{
		BaseURL:        cfg.Backend.URL,
		ConnectTimeout: cfg.ConnectTimeout(),
		RequestTimeout: cfg.RequestTimeout(),
	})
	e.logger.Debug("environment ready", "data_dir", dataDir, "storage", cfg.Storage.Backend, "backend", e.client.BaseURL())
	return e, nil
}

// Close releases storage and the log file.
func (e *env) Close() error {
	var first error
	if e.slot != nil {
		first = e.slot.Close()
	}
	if e.logFile != nil {
		if err := e.logFile.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// sessionOptions are the options common to every front end.
func (a *App) sessionOptions(e *env) []chat.Option {
	opts := []chat.Option{
		chat.WithModel(e.cfg.Chat.DefaultModel),
		chat.WithCatalog(e.cfg.Catalog()),
		chat.WithLogger(e.logger),
		chat.WithThemeStore(e.prefs),
		chat.WithDarkBackground(a.darkBackground(e.cfg)),
	}
	if a.Clipboard != nil {
		opts = append(opts, chat.WithClipboard(a.Clipboard))
	}
	return opts
}

// darkBackground resolves ui.theme; "auto" asks the terminal.
func (a *App) darkBackground(cfg *config.Config) bool {
	switch cfg.UI.Theme {
	case chat.ThemeLight:
		return false
	case chat.ThemeDark:
		return true
	}
	if !a.StdoutTTY {
		return true
	}
	return DarkBackground()
}
