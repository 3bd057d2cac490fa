// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// sarathi.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed command-line arguments with global and command flags
//   - ArgParser: Flag and positional parsing shared by every command
//   - Services: The gateway client, renderer, speech arbiter and
//     conversation controller wired from a Config
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    cli.HandleAsk(args)
//	case cli.CmdChat:
//	    cli.HandleChat(args)
//	}
//
// # Commands Overview
//
//   - ask: Ask a single question and print the reply
//   - chat: Line-based conversation with history and slash commands
//   - wake: Send a keep-alive ping to the gateway
//   - voices: List installed voices and the one chosen per language
//   - config: Show, get, set and initialize the configuration file
//
// ask, voices and config show accept --json.
package cli
