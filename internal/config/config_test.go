// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SARATHI_HOME", dir)
	for _, key := range []string{"SARATHI_GATEWAY_URL", "SARATHI_LANGUAGE", "SARATHI_TIMEOUT", "SARATHI_SPEECH_COMMAND", "SARATHI_NO_SPEECH"} {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "english", cfg.Language)
	assert.Equal(t, "https://sarathi-ai.onrender.com", cfg.Gateway.URL)
	assert.Equal(t, 90*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, 60*time.Second, cfg.KeepAliveTimeout())
	assert.Equal(t, 10*time.Second, cfg.WakeInterval())
	assert.True(t, cfg.Speech.Enabled)
	assert.InDelta(t, 0.8, cfg.Speech.Rate, 1e-9)
	assert.InDelta(t, 1.0, cfg.Speech.Pitch, 1e-9)
	assert.True(t, cfg.UI.ItalicAsHighlight)
	assert.Equal(t, model.LanguageEnglish, cfg.InitialLanguage())
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_NoFiles(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Gateway, cfg.Gateway)
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), `
language = "hindi"

[gateway]
url = "http://localhost:5000"
timeout = 0

[speech]
enabled = false
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, model.LanguageHindi, cfg.InitialLanguage())
	assert.Equal(t, "http://localhost:5000", cfg.Gateway.URL)
	assert.Equal(t, time.Duration(0), cfg.GatewayTimeout(), "zero disables the timeout")
	assert.False(t, cfg.Speech.Enabled)
	assert.InDelta(t, 0.8, cfg.Speech.Rate, 1e-9, "unset keys keep defaults")
	assert.True(t, cfg.UI.ItalicAsHighlight)
}

func TestLoad_JSONThenYAML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.yaml"), "language: hindi\n")
	writeFile(t, filepath.Join(dir, "config.json"), `{"gateway": {"url": "http://json.local"}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://json.local", cfg.Gateway.URL, "json wins over yaml")
	assert.Equal(t, "english", cfg.Language)

	require.NoError(t, os.Remove(filepath.Join(dir, "config.json")))
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "hindi", cfg.Language)
}

func TestLoad_BrokenFileFallsBack(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "this is = = not toml")

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().Gateway.URL, cfg.Gateway.URL)
}

func TestLoad_InvalidValues(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config.toml"), "language = \"french\"\n")

	_, err := Load()
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "language", verrs[0].Field)
}

func TestLoadFromPath_Extensions(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	yml := filepath.Join(dir, "c.yml")
	writeFile(t, yml, "gateway:\n  timeout: 30\nspeech:\n  voice_dirs: [/opt/voices]\n")
	cfg, err := LoadFromPath(yml)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, []string{"/opt/voices"}, cfg.Speech.VoiceDirs)

	js := filepath.Join(dir, "c.json")
	writeFile(t, js, `{"ui": {"italic_as_highlight": false}}`)
	cfg, err = LoadFromPath(js)
	require.NoError(t, err)
	assert.False(t, cfg.UI.ItalicAsHighlight)

	_, err = LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SARATHI_GATEWAY_URL", "http://env.local:8080")
	t.Setenv("SARATHI_LANGUAGE", "hi")
	t.Setenv("SARATHI_TIMEOUT", "2m")
	t.Setenv("SARATHI_SPEECH_COMMAND", "espeak")
	t.Setenv("SARATHI_NO_SPEECH", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env.local:8080", cfg.Gateway.URL)
	assert.Equal(t, model.LanguageHindi, cfg.InitialLanguage())
	assert.Equal(t, 2*time.Minute, cfg.GatewayTimeout())
	assert.Equal(t, "espeak", cfg.Speech.Command)
	assert.False(t, cfg.Speech.Enabled)
}

func TestApplyEnvOverrides_TimeoutSeconds(t *testing.T) {
	isolate(t)
	t.Setenv("SARATHI_TIMEOUT", "15")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 15, cfg.Gateway.Timeout)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad url scheme", func(c *Config) { c.Gateway.URL = "ftp://x" }, "gateway.url"},
		{"relative url", func(c *Config) { c.Gateway.URL = "/ask" }, "gateway.url"},
		{"negative timeout", func(c *Config) { c.Gateway.Timeout = -1 }, "gateway.timeout"},
		{"huge keep-alive timeout", func(c *Config) { c.Gateway.KeepAliveTimeout = 99999 }, "gateway.keep_alive_timeout"},
		{"negative wake interval", func(c *Config) { c.Gateway.WakeInterval = -5 }, "gateway.wake_interval"},
		{"rate too low", func(c *Config) { c.Speech.Rate = 0.01 }, "speech.rate"},
		{"pitch too high", func(c *Config) { c.Speech.Pitch = 3 }, "speech.pitch"},
		{"unknown language", func(c *Config) { c.Language = "tamil" }, "language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			verrs, ok := err.(ValidateErrors)
			require.True(t, ok)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

// =============================================================================
// SAVE
// =============================================================================

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "out", "config.toml")

	cfg := Default()
	cfg.Language = "hindi"
	cfg.Speech.VoiceDirs = []string{"/a", "/b"}
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# sarathi configuration file")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_DefaultLocation(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, Save(Default()))
	_, err := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)
}

// =============================================================================
// GET/SET
// =============================================================================

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("gateway.timeout")
	require.NoError(t, err)
	assert.Equal(t, 90, v)

	require.NoError(t, cfg.Set("gateway.timeout", "120"))
	assert.Equal(t, 120, cfg.Gateway.Timeout)

	require.NoError(t, cfg.Set("speech.rate", "1.25"))
	assert.InDelta(t, 1.25, cfg.Speech.Rate, 1e-9)

	require.NoError(t, cfg.Set("ui.italic_as_highlight", "false"))
	assert.False(t, cfg.UI.ItalicAsHighlight)

	require.NoError(t, cfg.Set("speech.voice_dirs", "/x, /y"))
	assert.Equal(t, []string{"/x", "/y"}, cfg.Speech.VoiceDirs)

	require.NoError(t, cfg.Set("language", "hindi"))
	assert.Equal(t, "hindi", cfg.Language)

	_, err = cfg.Get("gateway.nope")
	assert.Error(t, err)
	_, err = cfg.Get("language.deeper")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("gateway.timeout", "soon"))
	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "language")
	assert.Contains(t, keys, "gateway.url")
	assert.Contains(t, keys, "speech.voice_dirs")
	assert.Contains(t, keys, "ui.log_file")

	cfg := Default()
	for _, k := range keys {
		_, err := cfg.Get(k)
		assert.NoError(t, err, k)
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := Default()
	cfg.Speech.VoiceDirs = []string{"/a"}
	clone := cfg.Clone()
	clone.Speech.VoiceDirs[0] = "/changed"
	clone.Gateway.URL = "http://other"

	assert.Equal(t, "/a", cfg.Speech.VoiceDirs[0])
	assert.Equal(t, "https://sarathi-ai.onrender.com", cfg.Gateway.URL)
}

func TestConfig_LogFilePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sarathi", "sarathi.log"), Default().LogFilePath())
}

// =============================================================================
// GLOBAL
// =============================================================================

func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Same(t, cfg, Global())
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	wg.Wait()
}
