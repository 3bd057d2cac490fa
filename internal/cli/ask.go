// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - The "ask" command: one question, one printed reply.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content with glamour at the given width. It
// returns content unchanged if the renderer cannot be built or fails.
func renderMarkdown(content string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}

// displayResponse prints a reply, rendering markdown only when stdout is a
// terminal so piped output stays plain.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response, GetTerminalWidth()-4))
		return
	}
	fmt.Println(response)
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// AskData is the JSON form of an answered question.
type AskData struct {
	Question string `json:"question"`
	Language string `json:"lang"`
	Response string `json:"response"`
}

// HandleAskCommand asks one question through the conversation controller
// and prints the reply.
func HandleAskCommand(args Args) error {
	question := strings.TrimSpace(args.Query)
	if question == "" {
		return ErrMissingArgument("question", `sarathi ask "What is my dharma?"`)
	}

	svc, err := loadServices(args)
	if err != nil {
		return err
	}
	defer svc.Close()

	return runAsk(svc.Controller, question, args)
}

func runAsk(ctrl *conversation.Controller, question string, args Args) error {
	ctrl.OnBeginConversation()
	ch, ok := ctrl.Submit(question)
	if !ok {
		return &ValidationError{Field: "question", Value: question, Reason: "could not be submitted"}
	}

	showTyping := !args.Quiet && !args.JSON && IsStdoutTTY()
	if showTyping {
		fmt.Fprint(os.Stderr, DimStyle.Render("Krishna is typing..."))
	}
	out := <-ch
	if showTyping {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}

	return OutputJSON(args.JSON, "ask", func() (interface{}, error) {
		if !out.OK() {
			if !args.JSON {
				fmt.Fprintln(os.Stderr, WarningStyle.Render("Could not reach the wisdom source. Run `sarathi wake`, then ask again."))
			}
			return nil, NewCommandError("ask", "question", "no reply from gateway", out.Err)
		}
		if !args.JSON {
			displayResponse(out.Reply.Text)
		}
		return AskData{
			Question: out.Question.Text,
			Language: out.Question.Language.Code(),
			Response: out.Reply.Text,
		}, nil
	})
}
