// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// wake.go - The "wake" command: one keep-alive ping.

package cli

import (
	"context"
	"fmt"
	"os"
	"time"
)

// WakeData is the JSON form of a keep-alive ping.
type WakeData struct {
	URL      string `json:"url"`
	Duration string `json:"duration"`
}

// HandleWakeCommand sends one keep-alive ping and waits for it to finish.
func HandleWakeCommand(args Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	gw := newGatewayClient(cfg)

	return OutputJSON(args.JSON, "wake", func() (interface{}, error) {
		if !args.JSON && !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s %s\n", DimStyle.Render("[Wake]"), gw.BaseURL())
		}

		start := time.Now()
		if err := gw.KeepAlive(context.Background()); err != nil {
			return nil, NewCommandError("wake", "ping", "keep-alive failed", err)
		}
		elapsed := time.Since(start).Round(time.Millisecond)

		if !args.JSON {
			fmt.Println(SuccessStyle.Render(fmt.Sprintf("Server is awake (%v)", elapsed)))
		}
		return WakeData{URL: gw.BaseURL(), Duration: elapsed.String()}, nil
	})
}
