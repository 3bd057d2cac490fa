// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/sarathi-ai/sarathi-tui/internal/gateway"
	"github.com/sarathi-ai/sarathi-tui/internal/markdown"
	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// FailureText replaces the reply whenever a question could not be answered.
// Its link is the start-server action.
const FailureText = "❌ Sorry, I could not connect to the wisdom source.\n\n**[Click here to start the server](" + markdown.ActionStartServer + ")**"

// ErrAskPanicked wraps a panic raised while asking the gateway.
var ErrAskPanicked = errors.New("ask panicked")

// =============================================================================
// COLLABORATORS
// =============================================================================

// Asker sends one question and returns the reply text. *gateway.Client
// satisfies it.
type Asker interface {
	Ask(ctx context.Context, question, lang string) (string, error)
}

// Speaker is the speech channel. *speech.Arbiter satisfies it.
type Speaker interface {
	Available() bool
	Speak(msg model.Message) bool
	SpeakingID() string
	OnChange(fn func(speakingID string))
	Close() error
}

// =============================================================================
// STATE
// =============================================================================

// Stage is the presentation stage of the session.
type Stage int

const (
	// StageLanding is the welcome screen before the conversation starts.
	StageLanding Stage = iota
	// StageConversation is the chat itself.
	StageConversation
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageLanding:
		return "landing"
	case StageConversation:
		return "conversation"
	default:
		return "unknown"
	}
}

// Outcome describes how a submitted question was resolved.
type Outcome struct {
	Question model.Message
	Reply    model.Message
	// Err is the reason the reply is FailureText, nil on success.
	Err error
}

// OK reports whether the gateway answered.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Options configures a Controller.
type Options struct {
	Language model.Language
	Greeting string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the conversation state of one session: the message
// history, the selected language, the pending input and whether a reply is
// awaited. It is safe for concurrent use.
type Controller struct {
	asker    Asker
	renderer *markdown.Renderer
	speaker  Speaker

	mu       sync.Mutex
	conv     *model.Conversation
	language model.Language
	pending  string
	awaiting bool
	stage    Stage
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a controller. renderer and speaker may be nil.
func New(asker Asker, renderer *markdown.Renderer, speaker Speaker, opts Options) *Controller {
	if renderer == nil {
		renderer = markdown.New(nil, markdown.DefaultOptions())
	}
	lang := opts.Language
	if !lang.Valid() {
		lang = model.LanguageEnglish
	}
	greeting := opts.Greeting
	if greeting == "" {
		greeting = model.Greeting
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		asker:    asker,
		renderer: renderer,
		speaker:  speaker,
		conv:     model.NewConversationWithGreeting(greeting, lang),
		language: lang,
		stage:    StageLanding,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Messages returns a copy of the history.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

// Message returns the message with the given id.
func (c *Controller) Message(id string) (model.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Find(id)
}

// Language returns the selected language.
func (c *Controller) Language() model.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// IsAwaitingReply reports whether a question is in flight.
func (c *Controller) IsAwaitingReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.awaiting
}

// PendingInput returns the input buffer.
func (c *Controller) PendingInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Stage returns the presentation stage.
func (c *Controller) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// SpeakingMessageID returns the id of the message being read aloud, or "".
func (c *Controller) SpeakingMessageID() string {
	if c.speaker == nil {
		return ""
	}
	return c.speaker.SpeakingID()
}

// SpeechAvailable reports whether messages can be read aloud.
func (c *Controller) SpeechAvailable() bool {
	return c.speaker != nil && c.speaker.Available()
}

// Renderer returns the reply renderer.
func (c *Controller) Renderer() *markdown.Renderer {
	return c.renderer
}

// =============================================================================
// MUTATORS
// =============================================================================

// UpdatePendingInput replaces the input buffer.
func (c *Controller) UpdatePendingInput(text string) {
	c.mu.Lock()
	c.pending = text
	c.mu.Unlock()
}

// ToggleLanguage switches between english and hindi. Messages already in
// the history keep the language they were recorded with.
func (c *Controller) ToggleLanguage() model.Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = c.language.Toggle()
	return c.language
}

// OnBeginConversation moves from the landing screen to the conversation.
func (c *Controller) OnBeginConversation() {
	c.mu.Lock()
	c.stage = StageConversation
	c.mu.Unlock()
}

// ReturnToLanding shows the landing screen again. History is kept.
func (c *Controller) ReturnToLanding() {
	c.mu.Lock()
	c.stage = StageLanding
	c.mu.Unlock()
}

// OnSpeechChange registers fn to be told when the speaking message changes.
func (c *Controller) OnSpeechChange(fn func(speakingID string)) {
	if c.speaker != nil {
		c.speaker.OnChange(fn)
	}
}

// =============================================================================
// QUESTIONS
// =============================================================================

// SubmitQuestion sends text and blocks until the reply or failure message
// has been appended. It returns false, changing nothing, when the trimmed
// text is empty or another question is still awaiting its reply.
func (c *Controller) SubmitQuestion(ctx context.Context, text string) bool {
	q, ok := c.begin(text)
	if !ok {
		return false
	}
	c.resolve(ctx, q)
	return true
}

// Submit is the asynchronous form of SubmitQuestion. The user message is
// appended before Submit returns; the channel yields one Outcome once the
// reply is in the history and is then closed.
func (c *Controller) Submit(text string) (<-chan Outcome, bool) {
	q, ok := c.begin(text)
	if !ok {
		return nil, false
	}

	ch := make(chan Outcome, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(ch)
		ch <- c.resolve(c.ctx, q)
	}()
	return ch, true
}

// begin records the user message and marks the reply as awaited.
func (c *Controller) begin(text string) (model.Message, bool) {
	question := norm.NFC.String(strings.TrimSpace(text))
	if question == "" {
		return model.Message{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.awaiting || c.closed {
		return model.Message{}, false
	}

	msg := c.conv.AppendUser(question, c.language)
	c.pending = ""
	c.awaiting = true
	c.wg.Add(1)
	return msg, true
}

// resolve asks the gateway and appends the reply. The awaiting flag is
// cleared together with the append, including when Ask panics.
func (c *Controller) resolve(ctx context.Context, q model.Message) (out Outcome) {
	out.Question = q
	var answer string

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		text := answer
		if out.Err != nil {
			text = FailureText
		}
		out.Reply = c.conv.AppendBot(text, q.Language)
		c.awaiting = false
		c.wg.Done()
	}()

	answer, out.Err = c.ask(ctx, q)
	if out.Err != nil {
		logFailure(out.Err)
	}
	return out
}

func (c *Controller) ask(ctx context.Context, q model.Message) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAskPanicked, r)
		}
	}()

	if c.asker == nil {
		return "", &gateway.ClientError{Type: gateway.ErrTypeConnection, Message: "no gateway configured"}
	}
	answer, err = c.asker.Ask(ctx, q.Text, q.Language.Code())
	if err == nil && strings.TrimSpace(answer) == "" {
		err = &gateway.ClientError{Type: gateway.ErrTypeInvalidResponse, Message: "empty reply"}
	}
	return answer, err
}

func logFailure(err error) {
	var ce *gateway.ClientError
	if errors.As(err, &ce) {
		log.Printf("[conversation] question failed (%s): %v", ce.Type, err)
		return
	}
	log.Printf("[conversation] question failed: %v", err)
}

// =============================================================================
// SPEECH AND LINKS
// =============================================================================

// Speak toggles reading the bot message with the given id aloud. It
// returns true when speech started. User messages are never spoken.
func (c *Controller) Speak(messageID string) bool {
	if c.speaker == nil {
		return false
	}
	msg, ok := c.Message(messageID)
	if !ok || !msg.IsBot {
		return false
	}

	if plain := c.renderer.Render(msg.Text).PlainText(); plain != "" {
		msg.Text = plain
	}
	return c.speaker.Speak(msg)
}

// ActivateLink handles activation of a link target inside a reply. The
// start-server action pings the gateway; nothing is appended to the
// history either way.
func (c *Controller) ActivateLink(target string) markdown.Activation {
	act := c.renderer.ActivateTarget(target)
	if act.Kind == markdown.ActivationWake {
		log.Printf("[conversation] start-server activated (pinged=%t)", act.Pinged)
	}
	return act
}

// Close cancels in-flight questions, waits for them to resolve and stops
// any speech.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	if c.speaker != nil {
		return c.speaker.Close()
	}
	return nil
}
