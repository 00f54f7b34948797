// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation to Markdown, HTML or JSON.
//
// # Key Types
//
//   - Exporter: one output format
//   - Meta: title and model shown in the document header
//   - Options: output directory, theme and which metadata to include
//
// # Usage
//
//	exp, err := export.ForFormat("html", opts)
//	path, err := export.ExportToFile(session.Messages(), exp, export.Meta{Model: id}, opts)
package export
