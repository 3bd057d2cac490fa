// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
)

// ReplyMsg carries the resolution of a submitted question. The reply is
// already in the controller's history when it arrives.
type ReplyMsg struct {
	Outcome conversation.Outcome
}

// SpeechChangedMsg reports that the speaking message changed. The view
// re-reads the controller rather than trusting SpeakingID.
type SpeechChangedMsg struct {
	SpeakingID string
}

// NoticeMsg shows a transient line in the status bar.
type NoticeMsg struct {
	Text    string
	IsError bool
}

// NoticeExpiredMsg clears a notice if it is still the one shown.
type NoticeExpiredMsg struct {
	Seq int
}

// ClipboardMsg reports the result of a clipboard copy.
type ClipboardMsg struct {
	What string
	Err  error
}

// noticeDuration is how long a notice stays visible.
const noticeDuration = 6 * time.Second
