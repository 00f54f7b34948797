// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Style names accepted by NewTerminal.
const (
	StyleDark  = "dark"
	StyleLight = "light"
)

// DefaultWordWrap is used when no width is given.
const DefaultWordWrap = 80

// Terminal renders Markdown with ANSI styling through glamour.
type Terminal struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	style    string
	width    int
}

// NewTerminal builds a terminal formatter for the given style and wrap width.
// Unknown styles fall back to dark. If glamour cannot be initialized the
// formatter passes text through unchanged.
func NewTerminal(style string, width int) *Terminal {
	if style != StyleLight {
		style = StyleDark
	}
	if width <= 0 {
		width = DefaultWordWrap
	}
	t := &Terminal{style: style, width: width}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		t.renderer = r
	}
	return t
}

// Style returns the glamour style in use.
func (t *Terminal) Style() string { return t.style }

// Width returns the wrap width.
func (t *Terminal) Width() int { return t.width }

// Format implements Formatter. Rendering errors yield the raw text.
func (t *Terminal) Format(text string) string {
	if t == nil || t.renderer == nil {
		return text
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out, err := t.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// PLAIN FORMATTER
// =============================================================================

// Plain returns text unchanged. Used when output is not a terminal.
type Plain struct{}

// Format implements Formatter.
func (Plain) Format(text string) string { return text }
