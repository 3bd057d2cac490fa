// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Known command families.
const (
	FamilyEspeak = "espeak"
	FamilySay    = "say"
)

// candidates are tried in order when no command is configured.
var candidates = []string{"espeak-ng", "espeak", "say"}

// defaultVoiceDirs are watched for installed voice packs per family.
var defaultVoiceDirs = map[string][]string{
	FamilyEspeak: {
		"/usr/share/espeak-ng-data/voices",
		"/usr/lib/x86_64-linux-gnu/espeak-ng-data/voices",
		"/usr/share/espeak-data/voices",
	},
	FamilySay: {
		"/System/Library/Speech/Voices",
		"~/Library/Speech/Voices",
	},
}

// ExecConfig configures the command-line synthesizer.
type ExecConfig struct {
	// Command is the synthesizer binary. Empty means auto-detect.
	Command string

	// VoiceDirs are watched for voice changes. Empty means the family
	// defaults; directories that do not exist are skipped.
	VoiceDirs []string

	// Debounce collapses bursts of file events into one notification.
	Debounce time.Duration
}

// ExecSynthesizer speaks by running a local TTS command such as espeak-ng
// or macOS say. Text is passed on stdin.
type ExecSynthesizer struct {
	path    string
	family  string
	watcher *VoiceWatcher
}

// NewExecSynthesizer resolves the synthesizer command. If none is found
// the returned synthesizer reports Available() == false.
func NewExecSynthesizer(cfg ExecConfig) *ExecSynthesizer {
	s := &ExecSynthesizer{}

	names := candidates
	if cfg.Command != "" {
		names = []string{cfg.Command}
	}
	for _, name := range names {
		if p, err := exec.LookPath(name); err == nil {
			s.path = p
			s.family = familyOf(name)
			break
		}
	}
	if s.path == "" {
		log.Printf("[speech] no synthesizer found (tried %s)", strings.Join(names, ", "))
		return s
	}
	log.Printf("[speech] using %s", s.path)

	dirs := cfg.VoiceDirs
	if len(dirs) == 0 {
		dirs = defaultVoiceDirs[s.family]
	}
	w, err := NewVoiceWatcher(dirs, cfg.Debounce)
	if err != nil {
		log.Printf("[speech] voice watch disabled: %v", err)
		return s
	}
	s.watcher = w
	return s
}

func familyOf(command string) string {
	base := strings.TrimSuffix(filepath.Base(command), filepath.Ext(command))
	if base == "say" {
		return FamilySay
	}
	return FamilyEspeak
}

// Path returns the resolved command path, or "" when unavailable.
func (s *ExecSynthesizer) Path() string {
	return s.path
}

// Available reports whether a synthesizer command was found.
func (s *ExecSynthesizer) Available() bool {
	return s.path != ""
}

// Voices lists the voices the command reports.
func (s *ExecSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}

	var args []string
	if s.family == FamilySay {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}

	out, err := exec.CommandContext(ctx, s.path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}

	if s.family == FamilySay {
		return parseSayVoices(out), nil
	}
	return parseEspeakVoices(out), nil
}

// Speak runs the command and waits for it to exit. Cancelling ctx kills it.
func (s *ExecSynthesizer) Speak(ctx context.Context, u Utterance) error {
	if !s.Available() {
		return ErrUnavailable
	}
	if strings.TrimSpace(u.Text) == "" {
		return nil
	}

	cmd := exec.CommandContext(ctx, s.path, speakArgs(s.family, u)...)
	cmd.Stdin = strings.NewReader(u.Text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", filepath.Base(s.path), err, msg)
		}
		return fmt.Errorf("%s: %w", filepath.Base(s.path), err)
	}
	return nil
}

// VoicesChanged implements VoiceNotifier. It returns nil when no voice
// directory is being watched.
func (s *ExecSynthesizer) VoicesChanged() <-chan struct{} {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Changes()
}

// Close stops the voice watcher.
func (s *ExecSynthesizer) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// =============================================================================
// COMMAND LINES
// =============================================================================

// Normal speaking rates in words per minute.
const (
	espeakWPM    = 175
	espeakPitch  = 50
	sayWPM       = 175
	maxEspeakPch = 99
)

func speakArgs(family string, u Utterance) []string {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	pitch := u.Pitch
	if pitch <= 0 {
		pitch = 1
	}

	if family == FamilySay {
		args := []string{"-r", strconv.Itoa(int(sayWPM * rate))}
		if u.Voice.ID != "" {
			args = append(args, "-v", u.Voice.ID)
		}
		return append(args, "-f", "-")
	}

	p := int(espeakPitch * pitch)
	if p > maxEspeakPch {
		p = maxEspeakPch
	}
	voice := u.Voice.ID
	if voice == "" {
		voice = strings.ToLower(u.Locale)
	}
	args := []string{"-s", strconv.Itoa(int(espeakWPM * rate)), "-p", strconv.Itoa(p)}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	return append(args, "--stdin")
}

// parseEspeakVoices reads `espeak-ng --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  hi              --/M      Hindi              inc/hi
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			ID:      fields[1],
			Name:    strings.ReplaceAll(fields[3], "_", " "),
			Locale:  NormalizeLocale(fields[1]),
			Quality: QualityCompact,
		})
	}
	return voices
}

var sayLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

// parseSayVoices reads `say -v '?'` output:
//
//	Lekha (Enhanced)    hi_IN    # नमस्ते, मेरा नाम लेखा है।
func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := sayLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		q := QualityStandard
		switch {
		case strings.Contains(name, "(Premium)"):
			q = QualityPremium
		case strings.Contains(name, "(Enhanced)"):
			q = QualityEnhanced
		}
		voices = append(voices, Voice{
			ID:      name,
			Name:    name,
			Locale:  NormalizeLocale(m[2]),
			Quality: q,
		})
	}
	return voices
}

func existingDirs(dirs []string) []string {
	var out []string
	for _, d := range dirs {
		if strings.HasPrefix(d, "~/") {
			home, err := os.UserHomeDir()
			if err != nil {
				continue
			}
			d = filepath.Join(home, d[2:])
		}
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			out = append(out, d)
		}
	}
	return out
}
