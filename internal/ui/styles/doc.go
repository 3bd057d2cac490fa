// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the sarathi TUI.
//
// Colors are lipgloss.AdaptiveColor values in a saffron and purple palette
// and pick their light or dark variant from the terminal background. Theme
// bundles the styles the chat view and the markdown renderer share.
package styles
