// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing and command dispatch for sarathi.

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/sarathi-ai/sarathi-tui/internal/model"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdWake
	CmdVoices
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdWake:
		return "wake"
	case CmdVoices:
		return "voices"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	GatewayURL string
	Language   string // "english" or "hindi", empty = configured
	Timeout    int    // seconds, 0 = configured
	NoSpeech   bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args remaining after the command name
	Raw []string
}

const usageText = `sarathi - ask Krishna for guidance from the terminal

Usage:
  sarathi                       Start the TUI (default)
  sarathi ask "question"        Ask a single question and print the reply
  sarathi chat                  Line-based conversation
  sarathi wake                  Ping the gateway so it starts up
  sarathi voices                List installed voices
  sarathi config [subcommand]   Configuration
  sarathi version               Show version
  sarathi help                  Show this help

Config Commands:
  sarathi config show           Show the effective configuration
  sarathi config path           Show the configuration file path
  sarathi config get <key>      Show one value (e.g. gateway.timeout)
  sarathi config set <key> <v>  Set one value and save
  sarathi config init           Write the default configuration file
  sarathi config keys           List every key

Chat Commands:
  /lang                         Switch between English and Hindi
  /speak [n]                    Read reply n (default: latest) aloud, again to stop
  /open <n>                     Activate link n of the latest reply
  /wake                         Start the server
  /history                      Show the conversation
  /help                         Show chat commands
  /quit                         Leave

Global Flags:
  --hindi                       Ask and answer in Hindi
  --lang <english|hindi>        Conversation language
  --url <url>                   Gateway URL
  --timeout <seconds>           /ask timeout, 0 for none
  --no-speech                   Disable speech playback
  --json                        JSON output (ask, voices, config show)
  -q, --quiet                   Less output
  -v, --verbose                 More output

Keys (TUI):
  Enter send · C-l language · ↑/↓ select · C-s speak · C-w start server
  M-1…9 activate link · C-y copy · Esc back · F1 help · C-c quit

Environment:
  SARATHI_HOME, SARATHI_GATEWAY_URL, SARATHI_LANGUAGE, SARATHI_TIMEOUT,
  SARATHI_SPEECH_COMMAND, SARATHI_NO_SPEECH, NO_COLOR

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("sarathi version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses argv (without the program name) into a command and args.
func ParseArgs(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	word := remaining[0]
	cmd := strings.ToLower(word)
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed
	case "ask", "a":
		parsed.Query = strings.Join(remaining, " ")
		return CmdAsk, parsed
	case "chat", "c":
		return CmdChat, parsed
	case "wake", "keep-alive":
		return CmdWake, parsed
	case "voices":
		return CmdVoices, parsed
	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed
	case "version", "--version", "-V":
		return CmdVersion, parsed
	case "help", "--help", "-h":
		return CmdHelp, parsed
	default:
		// A bare question is treated as "ask".
		parsed.Query = strings.Join(append([]string{word}, remaining...), " ")
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts global flags and returns what is left.
func parseGlobalFlags(argv []string) ([]string, Args) {
	p := NewArgParser(argv, "hindi", "english", "no-speech", "json", "q", "quiet", "v", "verbose", "help", "h", "version", "V")

	parsed := Args{
		Quiet:      p.BoolFlag("q", "quiet"),
		Verbose:    p.BoolFlag("v", "verbose"),
		JSON:       p.BoolFlag("json"),
		NoSpeech:   p.BoolFlag("no-speech"),
		GatewayURL: p.Flag("url"),
	}

	switch {
	case p.BoolFlag("hindi"):
		parsed.Language = string(model.LanguageHindi)
	case p.BoolFlag("english"):
		parsed.Language = string(model.LanguageEnglish)
	case p.Flag("lang") != "":
		parsed.Language = string(model.ParseLanguage(p.Flag("lang")))
	}

	if v := p.Flag("timeout"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			parsed.Timeout = n
		}
	}

	remaining := p.PositionalArgs()
	switch {
	case p.BoolFlag("help", "h"):
		remaining = append([]string{"help"}, remaining...)
	case p.BoolFlag("version", "V"):
		remaining = append([]string{"version"}, remaining...)
	}
	return remaining, parsed
}

// parseConfigArgs parses "config <sub> [key] [value...]".
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		args.Subcommand = "show"
		return
	}
	args.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) {
	HandleErrorAndExit(HandleAskCommand(args), args.JSON)
}

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	HandleErrorAndExit(HandleChatCommand(args), false)
}

// HandleWake handles the "wake" command.
func HandleWake(args Args) {
	HandleErrorAndExit(HandleWakeCommand(args), args.JSON)
}

// HandleVoices handles the "voices" command.
func HandleVoices(args Args) {
	HandleErrorAndExit(HandleVoicesCommand(args), args.JSON)
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	HandleErrorAndExit(HandleConfigCommand(args), args.JSON)
}

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) {
	if args.JSON {
		_ = NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
		return
	}
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
