// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
	"github.com/sarathi-ai/sarathi-tui/internal/model"
	"github.com/sarathi-ai/sarathi-tui/internal/ui/styles"
	"github.com/sarathi-ai/sarathi-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

const (
	heroTitle    = "Sarathi"
	heroSubtitle = "Wisdom of the Bhagavad Gita, one question at a time"
	heroAction   = "Begin your journey"
	speakHint    = "🔊 C-s"
	speakingHint = "■ speaking… C-s to stop"
)

// View renders the current screen.
func (m Model) View() string {
	if m.ctrl.Stage() == conversation.StageLanding {
		return m.renderLanding()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderTyping())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderLanding draws the hero screen.
func (m Model) renderLanding() string {
	title := m.theme.HeroTitle.Width(m.width).Render(heroTitle)
	subtitle := m.theme.HeroSubtitle.Width(m.width).Render(heroSubtitle)
	action := m.theme.HeroAction.Render(heroAction)
	hint := m.theme.HelpDesc.Render("Enter to begin · C-l " + m.ctrl.Language().ToggleLabel() + " · q to quit")

	body := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		subtitle,
		"",
		action,
		"",
		hint,
	)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

// renderHeader draws the title with the language toggle.
func (m Model) renderHeader() string {
	lang := m.ctrl.Language()
	title := m.theme.HeaderTitle.Render(heroTitle)
	tag := m.theme.LanguageTag.Render(lang.DisplayName())
	toggle := m.theme.HelpDesc.Render("C-l " + lang.ToggleLabel())

	inner := m.width - 6
	if inner < 20 {
		inner = 20
	}
	gap := inner - lipgloss.Width(title) - lipgloss.Width(tag) - lipgloss.Width(toggle) - 2
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + tag + "  " + toggle
	return m.theme.Header.Width(inner + 4).Render(line)
}

// renderMessages draws every message bubble in order.
func (m Model) renderMessages() string {
	msgs := m.ctrl.Messages()
	if len(msgs) == 0 {
		return ""
	}
	speaking := m.ctrl.SpeakingMessageID()
	canSpeak := m.ctrl.SpeechAvailable()

	parts := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		parts = append(parts, m.renderMessage(msg, i == m.selected, speaking, canSpeak))
	}
	return strings.Join(parts, "\n\n")
}

// renderMessage draws one bubble with its footer.
func (m Model) renderMessage(msg model.Message, selected bool, speaking string, canSpeak bool) string {
	style := m.theme.UserBubble
	if msg.IsBot {
		style = m.theme.AssistantBubble
	}
	if selected {
		style = style.BorderForeground(styles.SelectedBorder)
	}

	var body string
	if msg.IsBot {
		body = m.term.Render(m.ctrl.Renderer().Render(msg.Text))
	} else {
		body = strings.Join(util.Wrap(msg.Text, m.bubbleContentWidth()), "\n")
	}

	label := m.theme.RoleLabel.Render(msg.Role().DisplayName())
	bubble := style.Width(m.bubbleContentWidth() + 2).Render(label + "\n" + body)

	var footer []string
	if m.showTimestamps {
		footer = append(footer, m.theme.Timestamp.Render(msg.Clock()))
	}
	if msg.IsBot && canSpeak {
		if msg.ID == speaking {
			footer = append(footer, m.theme.SpeakingBadge.Render(speakingHint))
		} else {
			footer = append(footer, m.theme.Timestamp.Render(speakHint))
		}
	}

	out := bubble
	if len(footer) > 0 {
		pad := 1
		if !msg.IsBot {
			pad = 7
		}
		out += "\n" + strings.Repeat(" ", pad) + strings.Join(footer, "  ")
	}
	return out
}

// renderTyping draws the typing indicator while a reply is pending.
func (m Model) renderTyping() string {
	if !m.ctrl.IsAwaitingReply() {
		return ""
	}
	return " " + m.spinner.View() + m.theme.Typing.Render(" Krishna is typing...")
}

// renderInput draws the input line.
func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// renderStatusBar draws the notice, or the help line when there is none.
func (m Model) renderStatusBar() string {
	if m.help.ShowAll {
		return m.help.FullHelpView(m.keyMap.FullHelp())
	}
	if m.notice != "" {
		style := m.theme.Notice
		if m.noticeIsError {
			style = m.theme.ErrorNotice
		}
		return m.theme.StatusBar.Render(style.Render(util.Truncate(m.notice, m.width-2)))
	}
	return m.theme.StatusBar.Render(m.help.ShortHelpView(m.keyMap.ShortHelp()))
}

// bubbleContentWidth is the text width inside a bubble.
func (m Model) bubbleContentWidth() int {
	w := m.theme.ContentWidth() - 10
	if w < 16 {
		w = 16
	}
	return w
}
