// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: one turn with ID, text, author flag, timestamp and language
//   - Conversation: append-only history seeded with the bot greeting
//   - Language: english or hindi conversation mode
//
// # Usage
//
//	conv := model.NewConversation(model.LanguageEnglish)
//	conv.AppendUser("What is dharma?", model.LanguageEnglish)
//	for _, msg := range conv.Messages() {
//	    fmt.Println(msg.Role().DisplayName(), msg.Text)
//	}
//
// Message IDs are UUIDv7 strings, so sorting IDs lexically yields creation order.
package model
