// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarathi-ai/sarathi-tui/internal/config"
	"github.com/sarathi-ai/sarathi-tui/internal/conversation"
	"github.com/sarathi-ai/sarathi-tui/internal/gateway"
	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgsDefaultsToTUI(t *testing.T) {
	cmd, args := ParseArgs(nil)
	assert.Equal(t, CmdTUI, cmd)
	assert.Empty(t, args.Language)
}

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"tui"}, CmdTUI},
		{[]string{"ask", "what", "is", "dharma"}, CmdAsk},
		{[]string{"chat"}, CmdChat},
		{[]string{"wake"}, CmdWake},
		{[]string{"keep-alive"}, CmdWake},
		{[]string{"voices"}, CmdVoices},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"-h"}, CmdHelp},
		{[]string{"Why", "do", "I", "suffer?"}, CmdAsk},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.argv), func(t *testing.T) {
			cmd, _ := ParseArgs(tt.argv)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseArgsAskQuery(t *testing.T) {
	cmd, args := ParseArgs([]string{"--hindi", "ask", "what", "is", "karma", "--timeout", "30"})
	require.Equal(t, CmdAsk, cmd)
	assert.Equal(t, "what is karma", args.Query)
	assert.Equal(t, string(model.LanguageHindi), args.Language)
	assert.Equal(t, 30, args.Timeout)

	_, args = ParseArgs([]string{"Why", "do", "I", "suffer?"})
	assert.Equal(t, "Why do I suffer?", args.Query)
}

func TestParseArgsGlobalFlags(t *testing.T) {
	_, args := ParseArgs([]string{"chat", "--url=http://localhost:5000", "--lang", "hi", "--no-speech", "-q"})
	assert.Equal(t, "http://localhost:5000", args.GatewayURL)
	assert.Equal(t, string(model.LanguageHindi), args.Language)
	assert.True(t, args.NoSpeech)
	assert.True(t, args.Quiet)
}

func TestParseConfigArgs(t *testing.T) {
	cmd, args := ParseArgs([]string{"config", "set", "speech.voice_dirs", "/a,", "/b"})
	require.Equal(t, CmdConfig, cmd)
	assert.Equal(t, "set", args.Subcommand)
	assert.Equal(t, "speech.voice_dirs", args.ConfigKey)
	assert.Equal(t, "/a, /b", args.ConfigVal)

	_, args = ParseArgs([]string{"config"})
	assert.Equal(t, "show", args.Subcommand)
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"show", "--lines", "50", "--since=2024-01-01", "--json", "--", "--raw"}, "json")
	assert.Equal(t, "show", p.Subcommand())
	assert.Equal(t, "50", p.Flag("lines"))
	assert.Equal(t, 50, p.FlagIntOrDefault("lines", 10))
	assert.Equal(t, 10, p.FlagIntOrDefault("missing", 10))
	assert.Equal(t, "2024-01-01", p.Flag("--since"))
	assert.True(t, p.BoolFlag("json"))
	assert.True(t, p.HasFlag("lines"))
	assert.False(t, p.HasFlag("nope"))
	assert.Equal(t, []string{"show", "--raw"}, p.PositionalArgs())
	assert.Equal(t, "--raw", p.Positional(1))
	assert.Equal(t, "", p.Positional(5))
}

func TestArgParserBoolDoesNotConsume(t *testing.T) {
	p := NewArgParser([]string{"--hindi", "what", "is", "karma"}, "hindi")
	assert.True(t, p.BoolFlag("hindi"))
	assert.Equal(t, "what is karma", p.Rest(0))

	p = NewArgParser([]string{"--hindi=false", "x"}, "hindi")
	assert.False(t, p.BoolFlag("hindi"))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitUsageError, GetExitCode(ErrMissingArgument("question", "")))
	assert.Equal(t, ExitNotFoundError, GetExitCode(&NotFoundError{Resource: "link", ID: "3"}))
	assert.Equal(t, ExitConfigError, GetExitCode(config.ValidateErrors{{Field: "language", Message: "bad"}}))
	assert.Equal(t, ExitTimeoutError, GetExitCode(NewCommandError("ask", "question", "x",
		&gateway.ClientError{Type: gateway.ErrTypeTimeout, Message: "timed out"})))
	assert.Equal(t, ExitNetworkError, GetExitCode(NewCommandError("ask", "question", "x",
		&gateway.ClientError{Type: gateway.ErrTypeConnection, Message: "refused"})))
	assert.Equal(t, ExitGeneralError, GetExitCode(errors.New("other")))
}

// =============================================================================
// SESSIONS
// =============================================================================

// testGateway serves /ask with reply, or 503 when reply is empty.
func testGateway(t *testing.T, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var keepAlives atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ask", func(w http.ResponseWriter, r *http.Request) {
		var req gateway.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if reply == "" {
			http.Error(w, "cold start", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "[" + req.Lang + "] " + reply})
	})
	mux.HandleFunc("/keep-alive", func(w http.ResponseWriter, r *http.Request) {
		keepAlives.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"response": "awake"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &keepAlives
}

func testServices(t *testing.T, url string) *Services {
	t.Helper()
	cfg := config.Default()
	cfg.Gateway.URL = url
	cfg.Gateway.Timeout = 5
	cfg.Speech.Enabled = false
	svc := NewServices(cfg)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestApplyArgs(t *testing.T) {
	cfg := config.Default()
	ApplyArgs(cfg, Args{GatewayURL: "http://x", Language: "hindi", Timeout: 12, NoSpeech: true})
	assert.Equal(t, "http://x", cfg.Gateway.URL)
	assert.Equal(t, model.LanguageHindi, cfg.InitialLanguage())
	assert.Equal(t, 12, cfg.Gateway.Timeout)
	assert.False(t, cfg.Speech.Enabled)
}

func TestNewServicesWithoutSpeech(t *testing.T) {
	srv, _ := testGateway(t, "ok")
	svc := testServices(t, srv.URL)

	assert.False(t, svc.Speech.Available())
	assert.False(t, svc.Controller.SpeechAvailable())
	assert.Equal(t, srv.URL, svc.Gateway.BaseURL())
}

func TestRunAsk(t *testing.T) {
	srv, _ := testGateway(t, "Do your duty.")
	svc := testServices(t, srv.URL)

	require.NoError(t, runAsk(svc.Controller, "What should I do?", Args{Quiet: true}))
	msgs := svc.Controller.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "[en] Do your duty.", msgs[2].Text)
}

func TestRunAskFailure(t *testing.T) {
	srv, _ := testGateway(t, "")
	svc := testServices(t, srv.URL)

	err := runAsk(svc.Controller, "Hello?", Args{Quiet: true})
	require.Error(t, err)
	assert.Equal(t, ExitNetworkError, GetExitCode(err))
	assert.Equal(t, conversation.FailureText, svc.Controller.Messages()[2].Text)
}

func newTestSession(t *testing.T, reply string) (*ChatSession, *bytes.Buffer, *atomic.Int32) {
	t.Helper()
	srv, keepAlives := testGateway(t, reply)
	svc := testServices(t, srv.URL)
	var out bytes.Buffer
	return NewChatSession(svc.Controller, &out, 80), &out, keepAlives
}

func TestChatSessionQuestion(t *testing.T) {
	s, out, _ := newTestSession(t, "Be steady.")

	s.processMessage(context.Background(), "How do I stay calm?")
	assert.Contains(t, out.String(), "Be steady.")
	assert.Contains(t, out.String(), "Krishna")
	assert.Len(t, s.ctrl.Messages(), 3)
}

func TestChatSessionLanguage(t *testing.T) {
	s, out, _ := newTestSession(t, "उत्तर")

	cont, err := s.handleSlashCommand("/lang")
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, model.LanguageHindi, s.ctrl.Language())
	assert.Contains(t, s.prompt(), "हिं")

	s.processMessage(context.Background(), "कर्म क्या है?")
	assert.Contains(t, out.String(), "[hi] उत्तर")
}

func TestChatSessionWake(t *testing.T) {
	s, out, keepAlives := newTestSession(t, "")

	s.processMessage(context.Background(), "anyone?")
	assert.Contains(t, out.String(), "start the server")

	_, err := s.handleSlashCommand("/open 1")
	require.NoError(t, err)
	s.ctrl.Renderer().Wait()
	assert.Equal(t, int32(1), keepAlives.Load())

	// Throttled within the wake interval.
	_, err = s.handleSlashCommand("/wake")
	require.NoError(t, err)
	s.ctrl.Renderer().Wait()
	assert.Equal(t, int32(1), keepAlives.Load())
	assert.Contains(t, out.String(), "just pinged")
}

func TestChatSessionSlashErrors(t *testing.T) {
	s, _, _ := newTestSession(t, "ok")

	_, err := s.handleSlashCommand("/open")
	assert.Error(t, err)
	_, err = s.handleSlashCommand("/open x")
	assert.Error(t, err)
	_, err = s.handleSlashCommand("/open 9")
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
	_, err = s.handleSlashCommand("/speak")
	assert.Error(t, err)
	_, err = s.handleSlashCommand("/bogus")
	assert.Error(t, err)

	cont, err := s.handleSlashCommand("/quit")
	assert.NoError(t, err)
	assert.False(t, cont)
}

func TestChatSessionHistory(t *testing.T) {
	s, out, _ := newTestSession(t, "reply")
	s.processMessage(context.Background(), "question")
	out.Reset()

	_, err := s.handleSlashCommand("/history")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "#1")
	assert.Contains(t, out.String(), "#2")
	assert.Contains(t, out.String(), "#3")
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func withConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SARATHI_HOME", dir)
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return dir
}

func TestConfigInitAndSet(t *testing.T) {
	dir := withConfigHome(t)

	require.NoError(t, HandleConfigCommand(Args{Subcommand: "init", Quiet: true}))
	path := filepath.Join(dir, "config.toml")
	_, err := os.Stat(path)
	require.NoError(t, err)

	assert.ErrorIs(t, HandleConfigCommand(Args{Subcommand: "init", Quiet: true}), ErrConfigExists)

	require.NoError(t, HandleConfigCommand(Args{Subcommand: "set", ConfigKey: "gateway.timeout", ConfigVal: "120", Quiet: true}))
	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Gateway.Timeout)
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	withConfigHome(t)

	err := HandleConfigCommand(Args{Subcommand: "set", ConfigKey: "speech.rate", ConfigVal: "50", Quiet: true})
	assert.Error(t, err)
	err = HandleConfigCommand(Args{Subcommand: "set", ConfigKey: "no.such", ConfigVal: "1", Quiet: true})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Error(t, HandleConfigCommand(Args{Subcommand: "set", Quiet: true}))
}

func TestConfigUnknownSubcommand(t *testing.T) {
	err := HandleConfigCommand(Args{Subcommand: "explode"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}
