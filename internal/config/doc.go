// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sarathi.
//
// Supports TOML, JSON and YAML configuration files, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - GatewayConfig: Gateway URL and timeouts
//   - SpeechConfig: Synthesizer command, rate and pitch
//   - UIConfig: Rendering and log file settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SARATHI_*)
//   - ~/.sarathi/config.toml
//   - ~/.sarathi/config.json
//   - ~/.sarathi/config.yaml
//   - Built-in defaults
//
// SARATHI_HOME replaces ~/.sarathi.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("config: %v", err)
//	}
//	timeout := cfg.GatewayTimeout()
package config
