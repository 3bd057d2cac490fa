// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "time"

// Greeting is the bot message every conversation starts with.
const Greeting = "🌸 Welcome, dear soul. I am Krishna. Speak your heart — I am here, listening, with love."

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is the append-only message history of a single session.
// Insertion order is display order. Conversation is not safe for concurrent
// use; the conversation controller serializes access.
type Conversation struct {
	CreatedAt time.Time
	messages  []Message
}

// NewConversation creates a conversation seeded with exactly one bot greeting.
func NewConversation(lang Language) *Conversation {
	return NewConversationWithGreeting(Greeting, lang)
}

// NewConversationWithGreeting creates a conversation seeded with a custom greeting.
func NewConversationWithGreeting(greeting string, lang Language) *Conversation {
	c := &Conversation{
		CreatedAt: time.Now(),
		messages:  make([]Message, 0, 16),
	}
	c.Append(NewBotMessage(greeting, lang))
	return c
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message at the end of the history.
func (c *Conversation) Append(msg Message) {
	c.messages = append(c.messages, msg)
}

// AppendUser creates and appends a user message.
func (c *Conversation) AppendUser(text string, lang Language) Message {
	msg := NewUserMessage(text, lang)
	c.Append(msg)
	return msg
}

// AppendBot creates and appends an assistant message.
func (c *Conversation) AppendBot(text string, lang Language) Message {
	msg := NewBotMessage(text, lang)
	c.Append(msg)
	return msg
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the most recent message.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastBot returns the most recent assistant message.
func (c *Conversation) LastBot() (Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].IsBot {
			return c.messages[i], true
		}
	}
	return Message{}, false
}

// Find returns the message with the given ID.
func (c *Conversation) Find(id string) (Message, bool) {
	for _, msg := range c.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return Message{}, false
}
