// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleSystem only appears on the wire; conversations never hold it.
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r may be stored in a conversation.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Vedantra AI"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// TimeLayout is the short clock format shown next to each message.
const TimeLayout = "15:04"

// Message is one finalized entry of a conversation. Content never changes
// after the message is created; streaming text lives outside the log until
// the cycle completes.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
}

// NewMessage creates a message with a fresh ID stamped with the current time.
func NewMessage(role Role, content, modelID string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Model:     modelID,
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content, modelID string) Message {
	return NewMessage(RoleUser, content, modelID)
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content, modelID string) Message {
	return NewMessage(RoleAssistant, content, modelID)
}

// NewID returns a new message identity.
func NewID() string {
	return uuid.NewString()
}

// Clock returns the timestamp formatted for display.
func (m Message) Clock() string {
	if m.Timestamp.IsZero() {
		return ""
	}
	return m.Timestamp.Local().Format(TimeLayout)
}

// IsWelcome reports whether m is the synthetic greeting.
func (m Message) IsWelcome() bool {
	return m.Role == RoleAssistant && m.Content == WelcomeText
}
