// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// waitForReply waits for the controller to resolve a submitted question.
func waitForReply(ch <-chan conversation.Outcome) tea.Cmd {
	return func() tea.Msg {
		out, ok := <-ch
		if !ok {
			return nil
		}
		return ReplyMsg{Outcome: out}
	}
}

// copyToClipboard copies text and reports the result.
func copyToClipboard(what, text string) tea.Cmd {
	return func() tea.Msg {
		return ClipboardMsg{What: what, Err: clipboard.WriteAll(text)}
	}
}

// expireNotice clears notice seq after noticeDuration.
func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return NoticeExpiredMsg{Seq: seq}
	})
}
