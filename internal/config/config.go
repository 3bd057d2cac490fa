// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
	"github.com/sarathi-ai/sarathi-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sarathi configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version"`

	// Language is the initial conversation language: "english" or "hindi"
	Language string `toml:"language" json:"language" yaml:"language"`

	// Gateway connection
	Gateway GatewayConfig `toml:"gateway" json:"gateway" yaml:"gateway"`

	// Speech playback
	Speech SpeechConfig `toml:"speech" json:"speech" yaml:"speech"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`
}

// GatewayConfig contains the Q&A gateway settings.
type GatewayConfig struct {
	// URL is the gateway base URL
	URL string `toml:"url" json:"url" yaml:"url"`
	// Timeout is the request timeout in seconds for /ask (0 = no timeout)
	Timeout int `toml:"timeout" json:"timeout" yaml:"timeout"`
	// KeepAliveTimeout is the timeout in seconds for /keep-alive
	KeepAliveTimeout int `toml:"keep_alive_timeout" json:"keep_alive_timeout" yaml:"keep_alive_timeout"`
	// WakeInterval is the minimum number of seconds between two wake pings
	WakeInterval int `toml:"wake_interval" json:"wake_interval" yaml:"wake_interval"`
}

// SpeechConfig contains text-to-speech settings.
type SpeechConfig struct {
	// Enabled turns speech playback on or off
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	// Command is the synthesizer binary (empty = auto-detect espeak-ng, espeak, say)
	Command string `toml:"command" json:"command" yaml:"command"`
	// Rate is the speaking rate multiplier
	Rate float64 `toml:"rate" json:"rate" yaml:"rate"`
	// Pitch is the pitch multiplier
	Pitch float64 `toml:"pitch" json:"pitch" yaml:"pitch"`
	// VoiceDirs are watched for newly installed voices (empty = platform defaults)
	VoiceDirs []string `toml:"voice_dirs" json:"voice_dirs" yaml:"voice_dirs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// ItalicAsHighlight renders *emphasis* like **strong** text
	ItalicAsHighlight bool `toml:"italic_as_highlight" json:"italic_as_highlight" yaml:"italic_as_highlight"`
	// ShowTimestamps shows the HH:MM time under each message
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps" yaml:"show_timestamps"`
	// SkipLanding starts directly in the conversation
	SkipLanding bool `toml:"skip_landing" json:"skip_landing" yaml:"skip_landing"`
	// LogFile receives log output while the TUI owns the terminal
	LogFile string `toml:"log_file" json:"log_file" yaml:"log_file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:  "1.0.0",
		Language: string(model.LanguageEnglish),

		Gateway: GatewayConfig{
			URL:              "https://sarathi-ai.onrender.com",
			Timeout:          90, // covers a cold start of the hosted backend
			KeepAliveTimeout: 60,
			WakeInterval:     10,
		},

		Speech: SpeechConfig{
			Enabled: true,
			Command: "",
			Rate:    0.8,
			Pitch:   1.0,
		},

		UI: UIConfig{
			ItalicAsHighlight: true,
			ShowTimestamps:    true,
			SkipLanding:       false,
			LogFile:           "~/.sarathi/sarathi.log",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the sarathi configuration directory path.
// SARATHI_HOME overrides the default ~/.sarathi.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SARATHI_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sarathi"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the first config file that exists:
// config.toml, config.json, config.yaml. Without any file the defaults are
// used. Environment overrides are applied last.
//
// A file that fails to parse is reported in the returned error together
// with a usable default config.
func Load() (*Config, error) {
	var loadErr error

	loaders := []struct {
		path func() (string, error)
		load func(*Config, string) error
	}{
		{ConfigPathTOML, LoadTOML},
		{ConfigPathJSON, LoadJSON},
		{ConfigPathYAML, LoadYAML},
	}

	for _, l := range loaders {
		path, err := l.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := l.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
			continue
		}
		return finish(cfg)
	}

	cfg, err := finish(Default())
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finish applies environment overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML loads configuration from a YAML file into cfg.
func LoadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file. The format is
// chosen by extension; anything other than .json, .yaml or .yml is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	return finish(cfg)
}

// fillDefaults fills in blank values that have no meaningful zero.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = defaults.Gateway.URL
	}
	if cfg.Gateway.KeepAliveTimeout == 0 {
		cfg.Gateway.KeepAliveTimeout = defaults.Gateway.KeepAliveTimeout
	}
	if cfg.Gateway.WakeInterval == 0 {
		cfg.Gateway.WakeInterval = defaults.Gateway.WakeInterval
	}
	if cfg.Speech.Rate == 0 {
		cfg.Speech.Rate = defaults.Speech.Rate
	}
	if cfg.Speech.Pitch == 0 {
		cfg.Speech.Pitch = defaults.Speech.Pitch
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# sarathi configuration file\n")
	buf.WriteString("# Generated by sarathi - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0644, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, data, 0644, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch strings.ToLower(c.Language) {
	case "english", "hindi", "en", "hi":
	default:
		errs = append(errs, ValidationError{
			Field:   "language",
			Message: fmt.Sprintf("invalid language '%s', must be one of: english, hindi", c.Language),
		})
	}

	if u, err := url.Parse(c.Gateway.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "gateway.url",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", c.Gateway.URL),
		})
	}

	if c.Gateway.Timeout < 0 || c.Gateway.Timeout > 3600 {
		errs = append(errs, ValidationError{
			Field:   "gateway.timeout",
			Message: fmt.Sprintf("timeout %d out of range, must be 0-3600 seconds", c.Gateway.Timeout),
		})
	}
	if c.Gateway.KeepAliveTimeout < 0 || c.Gateway.KeepAliveTimeout > 3600 {
		errs = append(errs, ValidationError{
			Field:   "gateway.keep_alive_timeout",
			Message: fmt.Sprintf("timeout %d out of range, must be 0-3600 seconds", c.Gateway.KeepAliveTimeout),
		})
	}
	if c.Gateway.WakeInterval < 0 {
		errs = append(errs, ValidationError{
			Field:   "gateway.wake_interval",
			Message: "must not be negative",
		})
	}

	if c.Speech.Rate < 0.1 || c.Speech.Rate > 10 {
		errs = append(errs, ValidationError{
			Field:   "speech.rate",
			Message: fmt.Sprintf("rate %.2f out of range, must be 0.1-10", c.Speech.Rate),
		})
	}
	if c.Speech.Pitch < 0 || c.Speech.Pitch > 2 {
		errs = append(errs, ValidationError{
			Field:   "speech.pitch",
			Message: fmt.Sprintf("pitch %.2f out of range, must be 0-2", c.Speech.Pitch),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - SARATHI_GATEWAY_URL: overrides gateway.url
//   - SARATHI_LANGUAGE: overrides language
//   - SARATHI_TIMEOUT: overrides gateway.timeout (seconds or a duration like "2m")
//   - SARATHI_SPEECH_COMMAND: overrides speech.command
//   - SARATHI_NO_SPEECH: disables speech when "1" or "true"
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("SARATHI_GATEWAY_URL"); u != "" {
		c.Gateway.URL = u
	}

	if lang := os.Getenv("SARATHI_LANGUAGE"); lang != "" {
		c.Language = lang
	}

	if timeout := os.Getenv("SARATHI_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Gateway.Timeout = secs
		} else if d, err := time.ParseDuration(timeout); err == nil {
			c.Gateway.Timeout = int(d / time.Second)
		}
	}

	if cmd := os.Getenv("SARATHI_SPEECH_COMMAND"); cmd != "" {
		c.Speech.Command = cmd
	}

	if noSpeech := os.Getenv("SARATHI_NO_SPEECH"); noSpeech != "" {
		if noSpeech == "1" || strings.ToLower(noSpeech) == "true" {
			c.Speech.Enabled = false
		}
	}
}

// =============================================================================
// TYPED ACCESSORS
// =============================================================================

// InitialLanguage returns the configured language.
func (c *Config) InitialLanguage() model.Language {
	return model.ParseLanguage(c.Language)
}

// GatewayTimeout returns the /ask timeout. Zero means none.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeout) * time.Second
}

// KeepAliveTimeout returns the /keep-alive timeout.
func (c *Config) KeepAliveTimeout() time.Duration {
	return time.Duration(c.Gateway.KeepAliveTimeout) * time.Second
}

// WakeInterval returns the minimum gap between wake pings.
func (c *Config) WakeInterval() time.Duration {
	return time.Duration(c.Gateway.WakeInterval) * time.Second
}

// LogFilePath returns the log file path with "~" expanded.
func (c *Config) LogFilePath() string {
	return util.ExpandHome(c.UI.LogFile)
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "gateway.timeout").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "speech.rate").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, prefix+name+".", keys)
			continue
		}
		*keys = append(*keys, prefix+name)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Speech.VoiceDirs != nil {
		clone.Speech.VoiceDirs = append([]string(nil), c.Speech.VoiceDirs...)
	}
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
