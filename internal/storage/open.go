// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DatabaseFile is the SQLite file name inside the data directory.
const DatabaseFile = "vedantra.db"

// Options selects and locates the slot backend.
type Options struct {
	Backend string
	DataDir string
}

// Open returns the slot described by opts. An empty backend means file.
func Open(opts Options) (Slot, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("storage: data directory not set")
	}
	switch opts.Backend {
	case "", BackendFile:
		return NewFileSlot(opts.DataDir)
	case BackendSQLite:
		return OpenSQLiteSlot(filepath.Join(opts.DataDir, DatabaseFile))
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
}
