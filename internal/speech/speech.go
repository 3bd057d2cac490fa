// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no synthesizer is installed.
var ErrUnavailable = errors.New("speech synthesis unavailable")

// =============================================================================
// VOICES
// =============================================================================

// Quality ranks voices of the same locale. Higher is better.
type Quality int

const (
	QualityCompact Quality = iota
	QualityStandard
	QualityEnhanced
	QualityPremium
)

// String returns the string representation of the quality.
func (q Quality) String() string {
	switch q {
	case QualityCompact:
		return "compact"
	case QualityStandard:
		return "standard"
	case QualityEnhanced:
		return "enhanced"
	case QualityPremium:
		return "premium"
	default:
		return "unknown"
	}
}

// MarshalText encodes the quality by name.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Voice is one voice offered by a synthesizer.
type Voice struct {
	// ID is what the backend expects to select the voice.
	ID string `json:"id"`
	// Name is the human readable name.
	Name string `json:"name"`
	// Locale is a BCP 47 tag such as "hi-IN", or a bare language like "hi".
	Locale  string  `json:"locale"`
	Quality Quality `json:"quality"`
}

// Utterance is a single request to speak text.
type Utterance struct {
	Text   string
	Locale string
	// Voice is empty when the backend default should be used.
	Voice Voice
	// Rate and Pitch are multipliers of the backend's normal values.
	Rate  float64
	Pitch float64
}

// =============================================================================
// BACKENDS
// =============================================================================

// Synthesizer is a text-to-speech backend.
type Synthesizer interface {
	// Available reports whether the backend can speak at all.
	Available() bool

	// Voices enumerates installed voices.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak blocks until the utterance finishes or ctx is cancelled.
	// Cancelling ctx must stop audio immediately.
	Speak(ctx context.Context, u Utterance) error
}

// VoiceNotifier is implemented by backends whose voice list can change
// while running. The channel receives a value after each change.
type VoiceNotifier interface {
	VoicesChanged() <-chan struct{}
}

// Nop is a Synthesizer for platforms without speech. It is never available.
type Nop struct{}

func (Nop) Available() bool                         { return false }
func (Nop) Voices(context.Context) ([]Voice, error) { return nil, nil }
func (Nop) Speak(context.Context, Utterance) error  { return ErrUnavailable }
