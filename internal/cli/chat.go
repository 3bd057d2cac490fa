// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The "chat" command: a line-based conversation with input
// history and slash commands.

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/sarathi-ai/sarathi-tui/internal/config"
	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
	"github.com/sarathi-ai/sarathi-tui/internal/markdown"
	"github.com/sarathi-ai/sarathi-tui/internal/model"
	"github.com/sarathi-ai/sarathi-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides line editing and persistent input history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from disk.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line. Non-blank lines are added to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	var buf bytes.Buffer
	if _, err := c.line.WriteHistory(&buf); err != nil {
		return
	}
	_ = util.WriteFileAtomic(c.historyFile, buf.Bytes(), 0600, 0700)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession is one line-based conversation.
type ChatSession struct {
	ctrl *conversation.Controller
	term *markdown.Terminal
	out  io.Writer
}

// NewChatSession creates a session that prints to out.
func NewChatSession(ctrl *conversation.Controller, out io.Writer, width int) *ChatSession {
	ctrl.OnBeginConversation()
	return &ChatSession{
		ctrl: ctrl,
		term: markdown.NewTerminal(width),
		out:  out,
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand runs the interactive chat until /quit, Ctrl-C or EOF.
func HandleChatCommand(args Args) error {
	svc, err := loadServices(args)
	if err != nil {
		return err
	}
	defer svc.Close()

	input := NewChatCLI()
	defer input.Close()

	session := NewChatSession(svc.Controller, os.Stdout, GetTerminalWidth()-4)
	session.printWelcome(args.Quiet)

	for {
		line, err := input.ReadInput(session.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(session.out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cont, err := session.handleSlashCommand(line)
			if err != nil {
				fmt.Fprintln(session.out, ErrorStyle.Render(err.Error()))
			}
			if !cont {
				return nil
			}
			continue
		}

		session.processMessage(context.Background(), line)
	}
}

// processMessage asks one question and prints the reply.
func (s *ChatSession) processMessage(ctx context.Context, text string) {
	if !s.ctrl.SubmitQuestion(ctx, text) {
		fmt.Fprintln(s.out, WarningStyle.Render("Still waiting for the previous reply"))
		return
	}
	msgs := s.ctrl.Messages()
	s.printMessage(len(msgs), msgs[len(msgs)-1])
}

// prompt is the input prompt for the current language.
func (s *ChatSession) prompt() string {
	if s.ctrl.Language() == model.LanguageHindi {
		return "[हिं] ❯ "
	}
	return "[en] ❯ "
}

// =============================================================================
// OUTPUT
// =============================================================================

func (s *ChatSession) printWelcome(quiet bool) {
	fmt.Fprintln(s.out, TitleStyle.Render("Sarathi"))
	if !quiet {
		fmt.Fprintln(s.out, DimStyle.Render("Type a question, or /help for commands. Language: "+s.ctrl.Language().DisplayName()))
	}
	fmt.Fprintln(s.out)
	msgs := s.ctrl.Messages()
	if len(msgs) > 0 {
		s.printMessage(1, msgs[0])
	}
}

// printMessage prints message number n of the history.
func (s *ChatSession) printMessage(n int, msg model.Message) {
	header := fmt.Sprintf("%s %s", RoleStyle.Render(msg.Role().DisplayName()), DimStyle.Render(fmt.Sprintf("#%d %s", n, msg.Clock())))
	if s.ctrl.SpeakingMessageID() == msg.ID {
		header += " " + SuccessStyle.Render("speaking")
	}
	fmt.Fprintln(s.out, header)

	if msg.IsBot {
		fmt.Fprintln(s.out, s.term.Render(s.ctrl.Renderer().Render(msg.Text)))
	} else {
		fmt.Fprintln(s.out, msg.Text)
	}
	fmt.Fprintln(s.out)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand runs a slash command. It returns false when the
// session should end.
func (s *ChatSession) handleSlashCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		s.printHelp()
	case "/lang", "/l":
		lang := s.ctrl.ToggleLanguage()
		fmt.Fprintf(s.out, "%s %s\n", DimStyle.Render("[Language]"), lang.DisplayName())
	case "/speak", "/s":
		return true, s.speak(args)
	case "/open", "/o":
		return true, s.open(args)
	case "/wake", "/w":
		return true, s.wake()
	case "/history":
		for i, msg := range s.ctrl.Messages() {
			s.printMessage(i+1, msg)
		}
	case "/quit", "/q", "/exit":
		return false, nil
	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
	return true, nil
}

// messageArg resolves an optional 1-based message number, defaulting to the
// latest bot reply.
func (s *ChatSession) messageArg(args []string) (model.Message, error) {
	msgs := s.ctrl.Messages()
	if len(args) == 0 {
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].IsBot {
				return msgs[i], nil
			}
		}
		return model.Message{}, &NotFoundError{Resource: "reply", ID: "latest"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(msgs) {
		return model.Message{}, &NotFoundError{Resource: "message", ID: args[0]}
	}
	return msgs[n-1], nil
}

func (s *ChatSession) speak(args []string) error {
	if !s.ctrl.SpeechAvailable() {
		return errors.New("speech is not available on this system")
	}
	msg, err := s.messageArg(args)
	if err != nil {
		return err
	}
	if !msg.IsBot {
		return errors.New("only replies can be spoken")
	}
	if s.ctrl.Speak(msg.ID) {
		fmt.Fprintln(s.out, DimStyle.Render("[Speaking] /speak again to stop"))
	} else {
		fmt.Fprintln(s.out, DimStyle.Render("[Stopped]"))
	}
	return nil
}

func (s *ChatSession) open(args []string) error {
	if len(args) == 0 {
		return ErrMissingArgument("link number", "/open 1")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return &ValidationError{Field: "link number", Value: args[0], Reason: "must be a number"}
	}
	msg, err := s.messageArg(nil)
	if err != nil {
		return err
	}
	link, ok := s.ctrl.Renderer().Render(msg.Text).Link(n)
	if !ok {
		return &NotFoundError{Resource: "link", ID: args[0]}
	}
	s.activate(link.Target)
	return nil
}

func (s *ChatSession) wake() error {
	msg, err := s.messageArg(nil)
	if err == nil {
		for _, l := range s.ctrl.Renderer().Render(msg.Text).Links {
			if l.Action {
				s.activate(l.Target)
				return nil
			}
		}
	}
	// The command works even when the latest reply has no action link.
	s.activate(markdown.ActionStartServer)
	return nil
}

func (s *ChatSession) activate(target string) {
	act := s.ctrl.ActivateLink(target)
	switch act.Kind {
	case markdown.ActivationWake:
		fmt.Fprintln(s.out, SuccessStyle.Render(act.Notice))
	case markdown.ActivationOpen:
		fmt.Fprintf(s.out, "%s %s\n", DimStyle.Render("[Link]"), act.Target)
	}
}

func (s *ChatSession) printHelp() {
	help := [][2]string{
		{"/lang", "Switch between English and Hindi"},
		{"/speak [n]", "Read reply n aloud, again to stop"},
		{"/open <n>", "Activate link n of the latest reply"},
		{"/wake", "Start the server"},
		{"/history", "Show the conversation"},
		{"/quit", "Leave"},
	}
	for _, h := range help {
		fmt.Fprintln(s.out, RenderLabel(h[0], h[1]))
	}
}
