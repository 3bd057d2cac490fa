// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech reads replies aloud.
//
// Arbiter owns the one speech channel of a session. Speak toggles: asking
// to speak the message that is already speaking stops it, and asking to
// speak a different message cancels the current utterance before starting
// the new one. A finished utterance that has since been superseded never
// clears the newer state.
//
// Voices are chosen per message language (hindi uses hi-IN, english uses
// en-IN and then en-US) picking the highest quality installed voice.
// Backends that implement VoiceNotifier push voice list changes; the exec
// backend raises them from an fsnotify watch on its voice directories.
//
// When no synthesizer is installed Speak is a no-op and Available reports
// false so the UI can hide the affordance.
package speech
