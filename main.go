// sarathi - a bilingual terminal companion for the Bhagavad Gita gateway.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sarathi-ai/sarathi-tui/internal/cli"
	"github.com/sarathi-ai/sarathi-tui/internal/config"
	"github.com/sarathi-ai/sarathi-tui/internal/ui/chat"
	"github.com/sarathi-ai/sarathi-tui/internal/ui/styles"
	"github.com/sarathi-ai/sarathi-tui/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for speech notifications
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	if cmd != cli.CmdTUI && !args.Verbose {
		log.SetOutput(io.Discard)
	}

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdWake:
		cli.HandleWake(args)
	case cli.CmdVoices:
		cli.HandleVoices(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

// runTUI starts the TUI interface.
func runTUI(args cli.Args) {
	cfg := config.Global().Clone()
	cli.ApplyArgs(cfg, args)
	if err := cfg.Validate(); err != nil {
		cli.HandleErrorAndExit(err, false)
	}

	// The TUI owns the terminal, so logs go to a file.
	if path := cfg.LogFilePath(); path != "" {
		if err := util.EnsureParentDir(path); err == nil {
			if f, err := tea.LogToFile(path, "sarathi"); err == nil {
				defer f.Close()
			} else {
				log.SetOutput(io.Discard)
			}
		}
	} else {
		log.SetOutput(io.Discard)
	}

	svc := cli.NewServices(cfg)
	defer svc.Close()

	svc.Controller.OnSpeechChange(func(speakingID string) {
		programMu.Lock()
		p := programRef
		programMu.Unlock()
		if p != nil {
			p.Send(chat.SpeechChangedMsg{SpeakingID: speakingID})
		}
	})

	m := chat.New(svc.Controller, styles.NewTheme(), chat.Options{
		ShowTimestamps: cfg.UI.ShowTimestamps,
		SkipLanding:    cfg.UI.SkipLanding,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running sarathi: %v\n", err)
		os.Exit(1)
	}
}
