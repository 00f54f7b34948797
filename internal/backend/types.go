// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"github.com/jeranaias/vedantra/internal/model"
)

// Turn is one message of the request history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
}

// TurnsFrom converts stored messages to request turns.
func TurnsFrom(msgs []model.Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role.String(), Content: m.Content})
	}
	return turns
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Default string            `json:"default"`
	Models  []model.ModelInfo `json:"models"`
}

// ErrorResponse is the JSON error body returned by the server.
type ErrorResponse struct {
	Error string `json:"error"`
}
