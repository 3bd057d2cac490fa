// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeSynth blocks each utterance until finish is called or ctx ends.
type fakeSynth struct {
	mu        sync.Mutex
	available bool
	voices    []Voice
	spoken    []Utterance
	done      map[string]chan struct{}
	cancelled []string
	changes   chan struct{}
	listCalls int
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{available: true, done: make(map[string]chan struct{})}
}

func (f *fakeSynth) Available() bool { return f.available }

func (f *fakeSynth) Voices(ctx context.Context) ([]Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]Voice(nil), f.voices...), nil
}

func (f *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, u)
	ch, ok := f.done[u.Text]
	if !ok {
		ch = make(chan struct{})
		f.done[u.Text] = ch
	}
	f.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		f.mu.Lock()
		f.cancelled = append(f.cancelled, u.Text)
		f.mu.Unlock()
		return ctx.Err()
	}
}

func (f *fakeSynth) finish(text string) {
	f.mu.Lock()
	ch, ok := f.done[text]
	if !ok {
		ch = make(chan struct{})
		f.done[text] = ch
	}
	f.mu.Unlock()
	close(ch)
}

func (f *fakeSynth) utterances() []Utterance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Utterance(nil), f.spoken...)
}

func (f *fakeSynth) cancelledTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancelled...)
}

func (f *fakeSynth) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// notifyingSynth adds a voices-changed channel.
type notifyingSynth struct {
	*fakeSynth
}

func (n notifyingSynth) VoicesChanged() <-chan struct{} { return n.changes }

func bot(id, text string, lang model.Language) model.Message {
	m := model.NewBotMessage(text, lang)
	m.ID = id
	return m
}

// =============================================================================
// ARBITER TESTS
// =============================================================================

func TestArbiter_SpeakSameMessageTwiceStops(t *testing.T) {
	synth := newFakeSynth()
	a := NewArbiter(synth, DefaultConfig())
	defer a.Close()

	msg := bot("a", "peace", model.LanguageEnglish)
	assert.True(t, a.Speak(msg))
	assert.Equal(t, "a", a.SpeakingID())

	assert.False(t, a.Speak(msg))
	assert.Equal(t, "", a.SpeakingID())

	require.Eventually(t, func() bool {
		return len(synth.cancelledTexts()) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestArbiter_SpeakOtherStopsCurrent(t *testing.T) {
	synth := newFakeSynth()
	a := NewArbiter(synth, DefaultConfig())
	defer a.Close()

	assert.True(t, a.Speak(bot("a", "first", model.LanguageEnglish)))
	assert.True(t, a.Speak(bot("b", "second", model.LanguageEnglish)))
	assert.Equal(t, "b", a.SpeakingID())

	require.Eventually(t, func() bool {
		c := synth.cancelledTexts()
		return len(c) == 1 && c[0] == "first"
	}, time.Second, 5*time.Millisecond)

	// The cancelled utterance finishing must not clear b.
	assert.Equal(t, "b", a.SpeakingID())
}

func TestArbiter_NaturalCompletionClears(t *testing.T) {
	synth := newFakeSynth()
	a := NewArbiter(synth, DefaultConfig())
	defer a.Close()

	var mu sync.Mutex
	var changes []string
	a.OnChange(func(id string) {
		mu.Lock()
		changes = append(changes, id)
		mu.Unlock()
	})

	require.True(t, a.Speak(bot("a", "done soon", model.LanguageEnglish)))
	synth.finish("done soon")

	require.Eventually(t, func() bool { return a.SpeakingID() == "" }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changes) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{"a", ""}, changes)
	mu.Unlock()
}

func TestArbiter_RestartSameMessageAfterStop(t *testing.T) {
	synth := newFakeSynth()
	a := NewArbiter(synth, DefaultConfig())
	defer a.Close()

	msg := bot("a", "again", model.LanguageEnglish)
	require.True(t, a.Speak(msg))
	require.False(t, a.Speak(msg))
	require.True(t, a.Speak(msg))
	assert.Equal(t, "a", a.SpeakingID())
}

func TestArbiter_StopWhenIdle(t *testing.T) {
	a := NewArbiter(newFakeSynth(), DefaultConfig())
	defer a.Close()

	called := false
	a.OnChange(func(string) { called = true })
	a.Stop()
	assert.False(t, called)
	assert.Equal(t, "", a.SpeakingID())
}

func TestArbiter_UnavailableIsInert(t *testing.T) {
	a := NewArbiter(Nop{}, DefaultConfig())
	defer a.Close()

	assert.False(t, a.Available())
	assert.False(t, a.Speak(bot("a", "x", model.LanguageEnglish)))
	assert.Equal(t, "", a.SpeakingID())
	assert.NoError(t, a.RefreshVoices(context.Background()))
}

func TestArbiter_NilSynthIsInert(t *testing.T) {
	a := NewArbiter(nil, Config{})
	defer a.Close()
	assert.False(t, a.Speak(bot("a", "x", model.LanguageEnglish)))
}

func TestArbiter_UtteranceParameters(t *testing.T) {
	synth := newFakeSynth()
	synth.voices = []Voice{
		{ID: "hi", Name: "Hindi", Locale: "hi", Quality: QualityCompact},
		{ID: "Lekha", Name: "Lekha", Locale: "hi-IN", Quality: QualityStandard},
		{ID: "Lekha (Enhanced)", Name: "Lekha (Enhanced)", Locale: "hi_IN", Quality: QualityEnhanced},
	}
	a := NewArbiter(synth, DefaultConfig())
	defer a.Close()
	require.NoError(t, a.RefreshVoices(context.Background()))

	require.True(t, a.Speak(bot("h", "नमस्ते", model.LanguageHindi)))
	require.Eventually(t, func() bool { return len(synth.utterances()) == 1 }, time.Second, 5*time.Millisecond)

	u := synth.utterances()[0]
	assert.Equal(t, "नमस्ते", u.Text)
	assert.Equal(t, "hi-IN", u.Locale)
	assert.Equal(t, "Lekha (Enhanced)", u.Voice.ID)
	assert.InDelta(t, 0.8, u.Rate, 1e-9)
	assert.InDelta(t, 1.0, u.Pitch, 1e-9)
}

func TestArbiter_DefaultVoiceWhenNoMatch(t *testing.T) {
	synth := newFakeSynth()
	a := NewArbiter(synth, DefaultConfig())
	defer a.Close()

	require.True(t, a.Speak(bot("e", "hello", model.LanguageEnglish)))
	require.Eventually(t, func() bool { return len(synth.utterances()) == 1 }, time.Second, 5*time.Millisecond)

	u := synth.utterances()[0]
	assert.Equal(t, "en-IN", u.Locale)
	assert.Equal(t, "", u.Voice.ID)
}

func TestArbiter_VoicesChangedSubscription(t *testing.T) {
	synth := newFakeSynth()
	synth.changes = make(chan struct{}, 1)
	synth.voices = []Voice{{ID: "en-us", Locale: "en-US"}}

	a := NewArbiter(notifyingSynth{synth}, DefaultConfig())
	defer a.Close()
	assert.Empty(t, a.Voices())

	synth.changes <- struct{}{}
	require.Eventually(t, func() bool { return len(a.Voices()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, synth.listCount())
}

func TestArbiter_CloseStopsSpeech(t *testing.T) {
	synth := newFakeSynth()
	a := NewArbiter(synth, DefaultConfig())

	require.True(t, a.Speak(bot("a", "long", model.LanguageEnglish)))
	require.NoError(t, a.Close())

	assert.Equal(t, "", a.SpeakingID())
	assert.Equal(t, []string{"long"}, synth.cancelledTexts())
	assert.False(t, a.Speak(bot("b", "after", model.LanguageEnglish)))
	assert.NoError(t, a.Close())
}

// =============================================================================
// LOCALE TESTS
// =============================================================================

func TestLocalesFor(t *testing.T) {
	assert.Equal(t, []string{"hi-IN"}, LocalesFor(model.LanguageHindi))
	assert.Equal(t, []string{"en-IN", "en-US"}, LocalesFor(model.LanguageEnglish))
}

func TestNormalizeLocale(t *testing.T) {
	assert.Equal(t, "en-US", NormalizeLocale("en_us"))
	assert.Equal(t, "hi-IN", NormalizeLocale("HI-in"))
	assert.Equal(t, "hi", NormalizeLocale("hi"))
	assert.Equal(t, "", NormalizeLocale(" "))
}

func TestSelectVoice(t *testing.T) {
	voices := []Voice{
		{ID: "us", Locale: "en-US", Quality: QualityPremium},
		{ID: "in", Locale: "en-IN", Quality: QualityCompact},
		{ID: "gb", Locale: "en-GB", Quality: QualityPremium},
	}

	v, ok := SelectVoice(voices, model.LanguageEnglish)
	require.True(t, ok)
	assert.Equal(t, "in", v.ID, "en-IN is preferred over a better en-US voice")

	v, ok = SelectVoice(voices[:1], model.LanguageEnglish)
	require.True(t, ok)
	assert.Equal(t, "us", v.ID)

	v, ok = SelectVoice(voices[2:], model.LanguageEnglish)
	require.True(t, ok)
	assert.Equal(t, "gb", v.ID, "same language falls back")

	_, ok = SelectVoice(voices, model.LanguageHindi)
	assert.False(t, ok)
}

// =============================================================================
// EXEC BACKEND TESTS
// =============================================================================

func TestParseEspeakVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-us           --/M      English_(America)  gmw/en-US            (en 3)
 5  hi              --/M      Hindi              inc/hi
`)
	voices := parseEspeakVoices(out)
	require.Len(t, voices, 3)
	assert.Equal(t, Voice{ID: "en-us", Name: "English (America)", Locale: "en-US", Quality: QualityCompact}, voices[1])
	assert.Equal(t, "hi", voices[2].Locale)
}

func TestParseSayVoices(t *testing.T) {
	out := []byte("Alex                en_US    # Most people recognize me by my voice.\n" +
		"Lekha (Enhanced)    hi_IN    # नमस्ते, मेरा नाम लेखा है।\n" +
		"Rishi               en_IN    # Hello, my name is Rishi.\n" +
		"garbage line\n")
	voices := parseSayVoices(out)
	require.Len(t, voices, 3)
	assert.Equal(t, "Lekha (Enhanced)", voices[1].ID)
	assert.Equal(t, "hi-IN", voices[1].Locale)
	assert.Equal(t, QualityEnhanced, voices[1].Quality)
	assert.Equal(t, QualityStandard, voices[2].Quality)
}

func TestSpeakArgs(t *testing.T) {
	u := Utterance{Text: "x", Locale: "hi-IN", Rate: 0.8, Pitch: 1.0}
	assert.Equal(t, []string{"-s", "140", "-p", "50", "-v", "hi-in", "--stdin"}, speakArgs(FamilyEspeak, u))

	u.Voice = Voice{ID: "hi"}
	assert.Equal(t, []string{"-s", "140", "-p", "50", "-v", "hi", "--stdin"}, speakArgs(FamilyEspeak, u))

	u.Voice = Voice{ID: "Lekha"}
	assert.Equal(t, []string{"-r", "140", "-v", "Lekha", "-f", "-"}, speakArgs(FamilySay, u))
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, FamilySay, familyOf("/usr/bin/say"))
	assert.Equal(t, FamilyEspeak, familyOf("espeak-ng"))
}

func TestExecSynthesizer_MissingCommand(t *testing.T) {
	s := NewExecSynthesizer(ExecConfig{Command: "sarathi-no-such-tts-binary"})
	defer s.Close()

	assert.False(t, s.Available())
	assert.Nil(t, s.VoicesChanged())
	_, err := s.Voices(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Speak(context.Background(), Utterance{Text: "x"}), ErrUnavailable)
}

// =============================================================================
// VOICE WATCHER TESTS
// =============================================================================

func TestVoiceWatcher_ReportsChange(t *testing.T) {
	dir := t.TempDir()
	vw, err := NewVoiceWatcher([]string{dir}, 20*time.Millisecond)
	require.NoError(t, err)
	defer vw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hi-IN.voice"), []byte("v"), 0644))

	select {
	case <-vw.Changes():
	case <-time.After(3 * time.Second):
		t.Fatal("no voice change reported")
	}
}

func TestVoiceWatcher_NoDirs(t *testing.T) {
	_, err := NewVoiceWatcher([]string{filepath.Join(t.TempDir(), "missing")}, 0)
	assert.ErrorIs(t, err, ErrNoVoiceDirs)
}
