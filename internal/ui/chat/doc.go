// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view for sarathi.
//
// The view is a thin front end over conversation.Controller. It forwards
// key presses as controller calls and renders whatever the controller
// reports; it keeps no conversation state of its own besides what is on
// screen (selection, scroll position, notices).
//
// # Screens
//
//   - Landing: a welcome screen with "Begin your journey"
//   - Conversation: message history, typing indicator, input line
//
// # Messages
//
// Replies arrive as ReplyMsg once the controller has appended them. Speech
// start and stop arrive as SpeechChangedMsg, sent by the program owner from
// the controller's speech callback.
//
// # Links
//
// Links inside replies are numbered. alt+1 to alt+9 activate a link in the
// selected (or latest) reply and ctrl+w triggers its start-server action.
package chat
