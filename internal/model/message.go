// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LANGUAGE TYPE
// =============================================================================

// Language is the conversation language mode.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageHindi   Language = "hindi"
)

// String returns the string representation of the language.
func (l Language) String() string {
	return string(l)
}

// Code returns the two-letter code sent to the gateway.
func (l Language) Code() string {
	if l == LanguageHindi {
		return "hi"
	}
	return "en"
}

// Toggle returns the other language.
func (l Language) Toggle() Language {
	if l == LanguageHindi {
		return LanguageEnglish
	}
	return LanguageHindi
}

// Valid reports whether l is one of the supported modes.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// DisplayName returns the language name in its own script.
func (l Language) DisplayName() string {
	switch l {
	case LanguageHindi:
		return "हिंदी"
	default:
		return "English"
	}
}

// Placeholder returns the input placeholder for the language.
func (l Language) Placeholder() string {
	if l == LanguageHindi {
		return "दिव्य मार्गदर्शन के लिए पूछें..."
	}
	return "Ask for divine guidance..."
}

// ToggleLabel returns the label of the control that switches away from l.
func (l Language) ToggleLabel() string {
	if l == LanguageHindi {
		return "Switch to English"
	}
	return "हिंदी में बदलें"
}

// ParseLanguage parses a language name or code. Unknown values map to English.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hindi", "hi", "hi-in":
		return LanguageHindi
	default:
		return LanguageEnglish
	}
}

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	if r == RoleAssistant {
		return "Krishna"
	}
	return "You"
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one turn in the conversation. Messages are values: once appended
// to a Conversation they are never modified.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	IsBot     bool      `json:"is_bot"`
	Timestamp time.Time `json:"timestamp"`
	Language  Language  `json:"language"`
}

// NewMessage creates a message stamped with a fresh ID and the current time.
func NewMessage(text string, isBot bool, lang Language) Message {
	return Message{
		ID:        generateID(),
		Text:      text,
		IsBot:     isBot,
		Timestamp: time.Now(),
		Language:  lang,
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string, lang Language) Message {
	return NewMessage(text, false, lang)
}

// NewBotMessage creates an assistant message.
func NewBotMessage(text string, lang Language) Message {
	return NewMessage(text, true, lang)
}

// Role returns the author role of the message.
func (m Message) Role() Role {
	if m.IsBot {
		return RoleAssistant
	}
	return RoleUser
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Devanagari correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Clock returns the HH:MM time shown under a message.
func (m Message) Clock() string {
	return m.Timestamp.Format("15:04")
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique, creation-ordered message ID. UUIDv7 embeds a
// millisecond timestamp plus a monotonic counter, so IDs sort by creation.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		bytes := make([]byte, 8)
		rand.Read(bytes)
		return "msg_" + hex.EncodeToString(bytes)
	}
	return id.String()
}
