// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// DefaultModel is selected until the user picks another model.
const DefaultModel = "llama-3.3-nemotron-super-49b-v1"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes one selectable model.
type ModelInfo struct {
	// ID is sent to the backend in the request body.
	ID string `json:"id" toml:"id"`

	// Name is the human-readable display name.
	Name string `json:"name" toml:"name"`

	Description string `json:"description,omitempty" toml:"description"`
}

// String returns "Name (id)".
func (m ModelInfo) String() string {
	if m.Name == "" || m.Name == m.ID {
		return m.ID
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}

// =============================================================================
// CATALOG
// =============================================================================

// DefaultModels is the built-in model list, in menu order.
var DefaultModels = []ModelInfo{
	{
		ID:          DefaultModel,
		Name:        "Llama 3.3 Nemotron Super 49B",
		Description: "General purpose assistant",
	},
	{
		ID:          "deepseek-r1-distill-llama-8b",
		Name:        "DeepSeek R1 Distill Llama 8B",
		Description: "Step-by-step reasoning",
	},
}

// Catalog is an ordered, immutable set of selectable models.
type Catalog struct {
	models []ModelInfo
	byID   map[string]int
}

// NewCatalog builds a catalog from models. Later duplicates of an ID
// replace earlier ones in place; entries without an ID are skipped.
func NewCatalog(models ...ModelInfo) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(models))}
	for _, m := range models {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			continue
		}
		if m.Name == "" {
			m.Name = m.ID
		}
		if i, ok := c.byID[m.ID]; ok {
			c.models[i] = m
			continue
		}
		c.byID[m.ID] = len(c.models)
		c.models = append(c.models, m)
	}
	return c
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultModels...)
}

// Lookup returns the model with the given ID.
func (c *Catalog) Lookup(id string) (ModelInfo, bool) {
	i, ok := c.byID[id]
	if !ok {
		return ModelInfo{}, false
	}
	return c.models[i], true
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// DisplayName returns the model's name, or id itself when unknown.
func (c *Catalog) DisplayName(id string) string {
	if m, ok := c.Lookup(id); ok {
		return m.Name
	}
	return id
}

// Models returns the catalog entries in order.
func (c *Catalog) Models() []ModelInfo {
	out := make([]ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// IDs returns the model IDs in order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.models))
	for i, m := range c.models {
		ids[i] = m.ID
	}
	return ids
}

// Len returns the number of models.
func (c *Catalog) Len() int {
	return len(c.models)
}

// Next returns the model after id, wrapping around. Unknown ids yield the
// first model.
func (c *Catalog) Next(id string) ModelInfo {
	if len(c.models) == 0 {
		return ModelInfo{}
	}
	i, ok := c.byID[id]
	if !ok {
		return c.models[0]
	}
	return c.models[(i+1)%len(c.models)]
}
