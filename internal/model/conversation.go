// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
)

// WelcomeText is the greeting seeded into an empty conversation.
const WelcomeText = "Hello! I'm Vedantra AI assistant. How can I help you today?\n\n" +
	"Here are some things I can do:\n" +
	"- Explain complex technical concepts\n" +
	"- Help with coding problems\n" +
	"- Provide detailed analysis\n" +
	"- Answer general knowledge questions"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the ordered message log. Insertion order is display
// order; messages are never reordered. Accessors return copies so callers
// cannot mutate the log behind its back.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

// NewConversation returns a conversation holding msgs.
func NewConversation(msgs ...Message) *Conversation {
	c := &Conversation{}
	c.Replace(msgs)
	return c
}

// Append adds messages to the end of the log.
func (c *Conversation) Append(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the final message, if any.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastOfRole returns the most recent message with the given role.
func (c *Conversation) LastOfRole(role Role) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == role {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

func (c *Conversation) indexOf(id string) int {
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the message with the given ID.
func (c *Conversation) Get(id string) (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.messages[i], true
	}
	return Message{}, false
}

// TruncateBefore drops the message with the given ID and everything after
// it. It reports false, leaving the log untouched, when the ID is unknown.
func (c *Conversation) TruncateBefore(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	clear(c.messages[i:])
	c.messages = c.messages[:i]
	return true
}

// Reset empties the log.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Replace swaps the whole log for msgs.
func (c *Conversation) Replace(msgs []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = make([]Message, len(msgs))
	copy(c.messages, msgs)
}

// SeedWelcome appends the welcome message when the log is empty and
// returns it. ok is false when the log already had messages.
func (c *Conversation) SeedWelcome(modelID string) (msg Message, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) > 0 {
		return Message{}, false
	}
	msg = NewAssistantMessage(WelcomeText, modelID)
	c.messages = append(c.messages, msg)
	return msg, true
}

// OnlyWelcome reports whether the log holds at most the welcome message,
// i.e. there is nothing worth confirming before a clear.
func (c *Conversation) OnlyWelcome() bool {
	return c.Len() <= 1
}
