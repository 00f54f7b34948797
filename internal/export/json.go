// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/vedantra/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONDocument is the shape written by JSONExporter. Messages use the same
// encoding as persisted history, so an export can be inspected or restored
// with the same tooling.
type JSONDocument struct {
	Title    string          `json:"title"`
	Model    string          `json:"model,omitempty"`
	Exported time.Time       `json:"exported"`
	Messages []model.Message `json:"messages"`
}

// JSONExporter exports conversations to JSON. It always writes the full
// messages regardless of options.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export implements Exporter.
func (e *JSONExporter) Export(msgs []model.Message, meta Meta) ([]byte, error) {
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}
	meta = meta.withDefaults()
	doc := JSONDocument{
		Title:    meta.Title,
		Model:    meta.Model,
		Exported: meta.Exported,
		Messages: msgs,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string { return "application/json" }
