// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// services.go - Wiring of the gateway client, renderer, speech and
// conversation controller from a Config. The TUI and the line-based
// commands share it.

package cli

import (
	"context"
	"time"

	"github.com/sarathi-ai/sarathi-tui/internal/config"
	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
	"github.com/sarathi-ai/sarathi-tui/internal/gateway"
	"github.com/sarathi-ai/sarathi-tui/internal/markdown"
	"github.com/sarathi-ai/sarathi-tui/internal/speech"
)

// voiceProbeTimeout bounds the initial voice listing.
const voiceProbeTimeout = 5 * time.Second

// Services holds the collaborators of one session.
type Services struct {
	Config     *config.Config
	Gateway    *gateway.Client
	Renderer   *markdown.Renderer
	Speech     *speech.Arbiter
	Controller *conversation.Controller
}

// ApplyArgs copies command-line overrides onto cfg.
func ApplyArgs(cfg *config.Config, args Args) {
	if args.GatewayURL != "" {
		cfg.Gateway.URL = args.GatewayURL
	}
	if args.Language != "" {
		cfg.Language = args.Language
	}
	if args.Timeout > 0 {
		cfg.Gateway.Timeout = args.Timeout
	}
	if args.NoSpeech {
		cfg.Speech.Enabled = false
	}
}

// NewServices builds every collaborator from cfg. Speech is a no-op when
// disabled or when no synthesizer is installed.
func NewServices(cfg *config.Config) *Services {
	gw := newGatewayClient(cfg)

	renderer := markdown.New(gw, markdown.Options{
		ItalicAsHighlight: cfg.UI.ItalicAsHighlight,
		WakeInterval:      cfg.WakeInterval(),
		WakeTimeout:       cfg.KeepAliveTimeout(),
	})

	var synth speech.Synthesizer = speech.Nop{}
	if cfg.Speech.Enabled {
		synth = speech.NewExecSynthesizer(speech.ExecConfig{
			Command:   cfg.Speech.Command,
			VoiceDirs: cfg.Speech.VoiceDirs,
		})
	}
	arbiter := speech.NewArbiter(synth, speech.Config{
		Rate:  cfg.Speech.Rate,
		Pitch: cfg.Speech.Pitch,
	})
	if arbiter.Available() {
		ctx, cancel := context.WithTimeout(context.Background(), voiceProbeTimeout)
		_ = arbiter.RefreshVoices(ctx)
		cancel()
	}

	ctrl := conversation.New(gw, renderer, arbiter, conversation.Options{
		Language: cfg.InitialLanguage(),
	})

	return &Services{
		Config:     cfg,
		Gateway:    gw,
		Renderer:   renderer,
		Speech:     arbiter,
		Controller: ctrl,
	}
}

// Close stops speech, waits for pending replies and wake pings.
func (s *Services) Close() error {
	err := s.Controller.Close()
	s.Renderer.Wait()
	return err
}

// newGatewayClient builds the gateway client configured by cfg.
func newGatewayClient(cfg *config.Config) *gateway.Client {
	return gateway.NewClientWithConfig(&gateway.ClientConfig{
		BaseURL:          cfg.Gateway.URL,
		Timeout:          cfg.GatewayTimeout(),
		KeepAliveTimeout: cfg.KeepAliveTimeout(),
		UserAgent:        "sarathi-tui/" + Version,
	})
}

// loadConfig returns a copy of the global configuration with args applied.
func loadConfig(args Args) (*config.Config, error) {
	cfg := config.Global().Clone()
	ApplyArgs(cfg, args)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadServices loads the configuration, applies args and builds services.
func loadServices(args Args) (*Services, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	return NewServices(cfg), nil
}
