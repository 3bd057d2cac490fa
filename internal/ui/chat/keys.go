// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Begin          key.Binding
	Submit         key.Binding
	ToggleLanguage key.Binding
	SelectUp       key.Binding
	SelectDown     key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
	Speak          key.Binding
	Wake           key.Binding
	OpenLink       key.Binding
	Copy           key.Binding
	Back           key.Binding
	Help           key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default key bindings for the chat interface.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Begin: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("Enter", "begin your journey"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		ToggleLanguage: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "language"),
		),
		SelectUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "select previous"),
		),
		SelectDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "select next"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Speak: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "speak / stop"),
		),
		Wake: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("C-w", "start server"),
		),
		OpenLink: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
			key.WithHelp("M-1…9", "activate link"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "copy message"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleLanguage, k.Speak, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped by purpose.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.ToggleLanguage, k.Back},
		{k.SelectUp, k.SelectDown, k.PageUp, k.PageDown},
		{k.Speak, k.Wake, k.OpenLink, k.Copy},
		{k.Help, k.Quit},
	}
}

// linkNumber returns the link index of an alt+digit key, or 0.
func linkNumber(keyStr string) int {
	if len(keyStr) == len("alt+1") && keyStr[:4] == "alt+" {
		if d := keyStr[4]; d >= '1' && d <= '9' {
			return int(d - '0')
		}
	}
	return 0
}
