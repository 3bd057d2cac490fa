// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
	"github.com/sarathi-ai/sarathi-tui/internal/markdown"
	"github.com/sarathi-ai/sarathi-tui/internal/model"
	"github.com/sarathi-ai/sarathi-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat view.
type Options struct {
	ShowTimestamps bool
	SkipLanding    bool
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl *conversation.Controller

	// Styling
	theme *styles.Theme
	term  *markdown.Terminal

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keyMap   KeyMap

	// selected is the index of the selected message, -1 to follow the latest
	selected int

	// Status line
	notice        string
	noticeIsError bool
	noticeSeq     int

	showTimestamps bool
}

// New creates the chat view over ctrl.
func New(ctrl *conversation.Controller, theme *styles.Theme, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}

	in := textinput.New()
	in.Prompt = "❯ "
	in.PromptStyle = theme.InputPrompt
	in.PlaceholderStyle = theme.InputPlaceholder
	in.CharLimit = 2000
	in.Placeholder = ctrl.Language().Placeholder()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Typing

	m := Model{
		ctrl:           ctrl,
		theme:          theme,
		term:           markdown.NewTerminal(0),
		viewport:       viewport.New(80, 16),
		input:          in,
		spinner:        sp,
		help:           help.New(),
		keyMap:         DefaultKeyMap(),
		selected:       -1,
		showTimestamps: opts.ShowTimestamps,
	}

	if opts.SkipLanding {
		ctrl.OnBeginConversation()
	}
	if ctrl.Stage() == conversation.StageConversation {
		m.input.Focus()
	}

	m = m.resize(80, 24)
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg.Width, msg.Height), nil

	case tea.KeyMsg:
		if m.ctrl.Stage() == conversation.StageLanding {
			return m.handleLandingKey(msg)
		}
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case SpeechChangedMsg:
		m.refresh()
		return m, nil

	case NoticeMsg:
		return m.setNotice(msg.Text, msg.IsError)

	case NoticeExpiredMsg:
		if msg.Seq == m.noticeSeq {
			m.notice = ""
			m.noticeIsError = false
		}
		return m, nil

	case ClipboardMsg:
		if msg.Err != nil {
			return m.setNotice(fmt.Sprintf("Could not copy %s: %v", msg.What, msg.Err), true)
		}
		return m.setNotice(fmt.Sprintf("Copied %s to clipboard", msg.What), false)

	case spinner.TickMsg:
		if !m.ctrl.IsAwaitingReply() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleLandingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit), msg.String() == "q":
		return m, tea.Quit
	case key.Matches(msg, m.keyMap.Begin):
		m.ctrl.OnBeginConversation()
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink
	case key.Matches(msg, m.keyMap.ToggleLanguage):
		m.toggleLanguage()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Back):
		m.ctrl.ReturnToLanding()
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m.resize(m.width, m.height), nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.ToggleLanguage):
		m.toggleLanguage()
		return m, nil

	case key.Matches(msg, m.keyMap.SelectUp):
		m.moveSelection(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.SelectDown):
		m.moveSelection(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Speak):
		return m.speak()

	case key.Matches(msg, m.keyMap.Wake):
		return m.wake()

	case key.Matches(msg, m.keyMap.OpenLink):
		return m.activateLink(linkNumber(msg.String()))

	case key.Matches(msg, m.keyMap.Copy):
		target, ok := m.targetMessage(false)
		if !ok {
			return m, nil
		}
		text := m.ctrl.Renderer().Render(target.Text).PlainText()
		return m, copyToClipboard("message", text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.UpdatePendingInput(m.input.Value())
	return m, cmd
}

// =============================================================================
// ACTIONS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.ctrl.IsAwaitingReply() {
		return m, nil
	}
	ch, ok := m.ctrl.Submit(m.input.Value())
	if !ok {
		return m, nil
	}

	m.input.Reset()
	m.selected = -1
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, waitForReply(ch))
}

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	m.refresh()
	if !msg.Outcome.OK() {
		return m.setNotice("The wisdom source did not answer. Press C-w to start the server, then ask again.", true)
	}
	return m, nil
}

func (m *Model) toggleLanguage() {
	lang := m.ctrl.ToggleLanguage()
	m.input.Placeholder = lang.Placeholder()
}

func (m *Model) moveSelection(delta int) {
	n := len(m.ctrl.Messages())
	if n == 0 {
		return
	}
	switch {
	case m.selected < 0 && delta < 0:
		m.selected = n - 1
	case m.selected < 0:
		return
	default:
		m.selected += delta
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= n {
		m.selected = -1
	}
	m.refresh()
}

// targetMessage returns the selected message, or the latest bot message
// when nothing is selected. botOnly skips a selected user message.
func (m Model) targetMessage(botOnly bool) (model.Message, bool) {
	msgs := m.ctrl.Messages()
	if m.selected >= 0 && m.selected < len(msgs) {
		if !botOnly || msgs[m.selected].IsBot {
			return msgs[m.selected], true
		}
		return model.Message{}, false
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsBot {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

func (m Model) speak() (tea.Model, tea.Cmd) {
	if !m.ctrl.SpeechAvailable() {
		return m.setNotice("Speech is not available on this system", true)
	}
	target, ok := m.targetMessage(true)
	if !ok {
		return m, nil
	}
	m.ctrl.Speak(target.ID)
	m.refresh()
	return m, nil
}

func (m Model) wake() (tea.Model, tea.Cmd) {
	target, ok := m.targetMessage(true)
	if !ok {
		return m, nil
	}
	doc := m.ctrl.Renderer().Render(target.Text)
	for _, l := range doc.Links {
		if l.Action {
			return m.activateLink(l.Index)
		}
	}
	return m.setNotice("This message has no start-server action", false)
}

func (m Model) activateLink(n int) (tea.Model, tea.Cmd) {
	target, ok := m.targetMessage(true)
	if !ok {
		return m, nil
	}
	link, ok := m.ctrl.Renderer().Render(target.Text).Link(n)
	if !ok {
		return m.setNotice(fmt.Sprintf("No link [%d] in this message", n), true)
	}

	act := m.ctrl.ActivateLink(link.Target)
	switch act.Kind {
	case markdown.ActivationWake:
		return m.setNotice(act.Notice, false)
	case markdown.ActivationOpen:
		m2, cmd := m.setNotice("Link: "+act.Target, false)
		return m2, tea.Batch(cmd, copyToClipboard("link", act.Target))
	}
	return m, nil
}

func (m Model) setNotice(text string, isError bool) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeIsError = isError
	return m, expireNotice(m.noticeSeq)
}

// =============================================================================
// LAYOUT
// =============================================================================

// Fixed rows around the viewport: header, typing line, input, status.
const (
	headerHeight    = 3
	typingHeight    = 1
	inputAreaHeight = 2
	statusBarHeight = 1
)

func (m Model) resize(width, height int) Model {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	reserved := headerHeight + typingHeight + inputAreaHeight + statusBarHeight
	if m.help.ShowAll {
		reserved += len(m.keyMap.FullHelp()[0])
	}
	vpHeight := height - reserved
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight

	inputWidth := width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth
	m.help.Width = width

	m.term.Width = m.bubbleContentWidth()
	m.refresh()
	return m
}

// refresh re-renders the history into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	if m.selected < 0 {
		m.viewport.GotoBottom()
	}
}

// Width returns the current width.
func (m Model) Width() int { return m.width }

// Height returns the current height.
func (m Model) Height() int { return m.height }

// Notice returns the status line notice.
func (m Model) Notice() string { return m.notice }

// Selected returns the selected message index, -1 when following the latest.
func (m Model) Selected() int { return m.selected }

// InputValue returns the text in the input line.
func (m Model) InputValue() string { return m.input.Value() }
