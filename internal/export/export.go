// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/vedantra/internal/model"
	"github.com/jeranaias/vedantra/internal/util"
)

// ErrEmpty is returned when there is nothing to export.
var ErrEmpty = errors.New("conversation has no messages")

// DefaultTitle heads exports that set no title.
const DefaultTitle = "Vedantra AI conversation"

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts the messages to the target format.
	Export(msgs []model.Message, meta Meta) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Meta describes the conversation as a whole.
type Meta struct {
	Title    string
	Model    string
	Exported time.Time
}

func (m Meta) withDefaults() Meta {
	if m.Title == "" {
		m.Title = DefaultTitle
	}
	if m.Exported.IsZero() {
		m.Exported = time.Now()
	}
	return m
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeMetadata adds the header block (model, dates, counts).
	IncludeMetadata bool

	// IncludeTimestamps adds the clock time to each message.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark"). Default: "dark".
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"md", "html", "json"}

// ForFormat returns the exporter for a format name.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "html", "htm":
		return NewHTMLExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", name, strings.Join(Formats, ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders msgs with exporter and writes
// conversation_<timestamp><ext> into opts.OutputDir. It returns the path.
func ExportToFile(msgs []model.Message, exporter Exporter, meta Meta, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	meta = meta.withDefaults()

	content, err := exporter.Export(msgs, meta)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	filename := "conversation_" + meta.Exported.Format("20060102_150405") + exporter.FileExtension()
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// roleLabel is the heading shown above a message.
func roleLabel(role model.Role) string {
	if role == "" {
		return "Unknown"
	}
	return role.DisplayName()
}

// modelsUsed returns the distinct model ids in first-use order.
func modelsUsed(msgs []model.Message) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range msgs {
		if m.Model == "" || seen[m.Model] {
			continue
		}
		seen[m.Model] = true
		out = append(out, m.Model)
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}
