// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/vedantra/internal/backend"
	"github.com/jeranaias/vedantra/internal/config"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{name: "no arguments starts the TUI", argv: nil, wantCmd: CmdTUI},
		{name: "tui", argv: []string{"tui"}, wantCmd: CmdTUI},
		{name: "chat", argv: []string{"chat"}, wantCmd: CmdChat},
		{name: "case insensitive", argv: []string{"CHAT"}, wantCmd: CmdChat},
		{
			name:    "ask with question",
			argv:    []string{"ask", "what", "is", "go"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "what is go", a.Cmd.JoinPositional(0))
			},
		},
		{name: "ask alias", argv: []string{"a", "hi"}, wantCmd: CmdAsk},
		{
			name:    "history export flags",
			argv:    []string{"history", "export", "--format", "html", "-o", "out"},
			wantCmd: CmdHistory,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "export", a.Cmd.Subcommand())
				assert.Equal(t, "html", a.Cmd.Flag("format"))
				assert.Equal(t, "out", a.Cmd.Flag("output", "o"))
			},
		},
		{
			name:    "history bool flag keeps subcommand",
			argv:    []string{"history", "--json", "show"},
			wantCmd: CmdHistory,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "show", a.Cmd.Subcommand())
				assert.True(t, a.Cmd.BoolFlag("json"))
			},
		},
		{
			name:    "serve port",
			argv:    []string{"serve", "--port", "9000"},
			wantCmd: CmdServe,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "9000", a.Cmd.Flag("port"))
			},
		},
		{name: "models", argv: []string{"models"}, wantCmd: CmdModels},
		{name: "config", argv: []string{"config", "path"}, wantCmd: CmdConfig},
		{name: "version", argv: []string{"version"}, wantCmd: CmdVersion},
		{name: "--version", argv: []string{"--version"}, wantCmd: CmdVersion},
		{name: "help", argv: []string{"help"}, wantCmd: CmdHelp},
		{name: "-h wins over command", argv: []string{"chat", "-h"}, wantCmd: CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd)
			require.NotNil(t, args.Cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParse_GlobalFlagsAnywhere(t *testing.T) {
	cmd, args, err := Parse([]string{"ask", "-m", "deepseek-r1-distill-llama-8b", "hello", "--config=/tmp/v.toml", "-q"})
	require.NoError(t, err)
	assert.Equal(t, CmdAsk, cmd)
	assert.Equal(t, "deepseek-r1-distill-llama-8b", args.Model)
	assert.Equal(t, "/tmp/v.toml", args.ConfigPath)
	assert.True(t, args.Quiet)
	assert.Equal(t, "hello", args.Cmd.JoinPositional(0))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{name: "unknown command", argv: []string{"frobnicate"}, want: "unknown command"},
		{name: "model without value", argv: []string{"chat", "--model"}, want: "requires a value"},
		{name: "quiet and verbose", argv: []string{"-q", "-v"}, want: "cannot be combined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.argv)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, ExitUsageError, GetExitCode(err))
		})
	}
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "history", CmdHistory.String())
	assert.Equal(t, "Command(99)", Command(99).String())
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "plain", err: errors.New("boom"), want: ExitGeneralError},
		{name: "usage", err: NewUsageError("bad flag"), want: ExitUsageError},
		{name: "wrapped usage", err: fmt.Errorf("ask: %w", NewUsageError("x")), want: ExitUsageError},
		{name: "not found", err: &NotFoundError{Resource: "setting", ID: "x.y"}, want: ExitNotFoundError},
		{name: "config", err: &ConfigError{Err: errors.New("bad toml")}, want: ExitConfigError},
		{
			name: "validation",
			err:  fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}),
			want: ExitConfigError,
		},
		{
			name: "backend unreachable is a general failure",
			err:  fmt.Errorf("ask: %w", &backend.ClientError{Type: backend.ErrTypeConnection, Message: "refused"}),
			want: ExitGeneralError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, NewUsageError("unknown flag --x"))
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "unknown flag --x")
	assert.Contains(t, buf.String(), "vedantra help")

	buf.Reset()
	DisplayError(&buf, errors.New("backend down"))
	assert.NotContains(t, buf.String(), "vedantra help")

	buf.Reset()
	DisplayError(&buf, nil)
	assert.Empty(t, buf.String())
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "setting", ID: "ui.colour"}
	assert.Equal(t, "setting not found: ui.colour", err.Error())
}
