// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// Config holds playback parameters.
type Config struct {
	Rate  float64
	Pitch float64
}

// DefaultConfig returns the default playback parameters.
func DefaultConfig() Config {
	return Config{Rate: 0.8, Pitch: 1.0}
}

// Arbiter owns the single speech channel. At most one message speaks at a
// time; starting another stops the current one first.
type Arbiter struct {
	synth Synthesizer
	cfg   Config

	mu         sync.Mutex
	speakingID string
	cancel     context.CancelFunc
	generation uint64
	voices     []Voice
	onChange   func(speakingID string)
	closed     bool

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewArbiter creates an arbiter over synth. A nil synth behaves like Nop.
// If synth implements VoiceNotifier the arbiter subscribes once and
// refreshes its voice list on every change.
func NewArbiter(synth Synthesizer, cfg Config) *Arbiter {
	if synth == nil {
		synth = Nop{}
	}
	defaults := DefaultConfig()
	if cfg.Rate <= 0 {
		cfg.Rate = defaults.Rate
	}
	if cfg.Pitch <= 0 {
		cfg.Pitch = defaults.Pitch
	}

	ctx, stop := context.WithCancel(context.Background())
	a := &Arbiter{
		synth: synth,
		cfg:   cfg,
		ctx:   ctx,
		stop:  stop,
	}

	if n, ok := synth.(VoiceNotifier); ok && synth.Available() {
		if ch := n.VoicesChanged(); ch != nil {
			a.wg.Add(1)
			go a.watchVoices(ch)
		}
	}
	return a
}

// Available reports whether speech can be produced.
func (a *Arbiter) Available() bool {
	return a.synth.Available()
}

// OnChange registers fn to be called, outside any lock, whenever the
// speaking message changes. An empty id means idle. Calls from different
// goroutines may arrive out of order; read SpeakingID for the current state.
func (a *Arbiter) OnChange(fn func(speakingID string)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// SpeakingID returns the id of the message being spoken, or "".
func (a *Arbiter) SpeakingID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speakingID
}

// Speak toggles speech for msg. If msg is already speaking it is stopped
// and Speak returns false. Otherwise any current utterance is cancelled
// and msg starts; Speak returns true. Without a synthesizer it does nothing.
func (a *Arbiter) Speak(msg model.Message) bool {
	if !a.synth.Available() || msg.ID == "" {
		return false
	}

	a.mu.Lock()
	if a.speakingID == msg.ID {
		a.stopLocked()
		fn := a.onChange
		a.mu.Unlock()
		notify(fn, "")
		return false
	}
	if a.closed {
		a.mu.Unlock()
		return false
	}

	a.stopLocked()

	u := Utterance{
		Text:   msg.Text,
		Locale: LocalesFor(msg.Language)[0],
		Rate:   a.cfg.Rate,
		Pitch:  a.cfg.Pitch,
	}
	if v, ok := SelectVoice(a.voices, msg.Language); ok {
		u.Voice = v
		u.Locale = NormalizeLocale(v.Locale)
	}

	ctx, cancel := context.WithCancel(a.ctx)
	a.generation++
	gen := a.generation
	a.speakingID = msg.ID
	a.cancel = cancel
	fn := a.onChange

	a.wg.Add(1)
	go a.play(ctx, gen, msg.ID, u)
	a.mu.Unlock()

	notify(fn, msg.ID)
	return true
}

// Stop cancels the current utterance, if any.
func (a *Arbiter) Stop() {
	a.mu.Lock()
	wasSpeaking := a.speakingID != ""
	a.stopLocked()
	fn := a.onChange
	a.mu.Unlock()

	if wasSpeaking {
		notify(fn, "")
	}
}

func (a *Arbiter) stopLocked() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.speakingID = ""
	a.generation++
}

func (a *Arbiter) play(ctx context.Context, gen uint64, id string, u Utterance) {
	defer a.wg.Done()

	err := a.synth.Speak(ctx, u)
	if err != nil && ctx.Err() == nil {
		log.Printf("[speech] utterance for %s failed: %v", id, err)
	}

	a.mu.Lock()
	if a.generation != gen || a.speakingID != id {
		// Superseded or stopped; the newer state stands.
		a.mu.Unlock()
		return
	}
	a.cancel()
	a.cancel = nil
	a.speakingID = ""
	fn := a.onChange
	a.mu.Unlock()

	notify(fn, "")
}

// =============================================================================
// VOICES
// =============================================================================

// Voices returns the last enumerated voice list.
func (a *Arbiter) Voices() []Voice {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Voice, len(a.voices))
	copy(out, a.voices)
	return out
}

// RefreshVoices re-enumerates voices from the backend.
func (a *Arbiter) RefreshVoices(ctx context.Context) error {
	if !a.synth.Available() {
		return nil
	}
	voices, err := a.synth.Voices(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.voices = voices
	a.mu.Unlock()

	log.Printf("[speech] %d voices available", len(voices))
	return nil
}

func (a *Arbiter) watchVoices(ch <-chan struct{}) {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if err := a.RefreshVoices(a.ctx); err != nil && a.ctx.Err() == nil {
				log.Printf("[speech] voice refresh failed: %v", err)
			}
		}
	}
}

// Close stops speech, ends the voice subscription and waits for
// background work. It closes the synthesizer if it is an io.Closer.
func (a *Arbiter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.Stop()
	a.stop()
	a.wg.Wait()

	if c, ok := a.synth.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func notify(fn func(string), id string) {
	if fn != nil {
		fn(id)
	}
}
