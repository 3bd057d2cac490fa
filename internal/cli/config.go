// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - The "config" command.

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sarathi-ai/sarathi-tui/internal/config"
)

// HandleConfigCommand dispatches the config subcommands.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "path":
		return handleConfigPath(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	case "init":
		return handleConfigInit(args)
	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Println(k)
		}
		return nil
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "must be show, path, get, set, init or keys",
			Example: "sarathi config set gateway.timeout 120",
		}
	}
}

// handleConfigShow prints the effective configuration, environment
// overrides included.
func handleConfigShow(args Args) error {
	cfg := config.Global()
	return OutputJSON(args.JSON, "config show", func() (interface{}, error) {
		if args.JSON {
			return cfg, nil
		}
		fmt.Println(TitleStyle.Render("Configuration"))
		for _, key := range config.GetAllKeys() {
			v, err := cfg.Get(key)
			if err != nil {
				continue
			}
			fmt.Println(RenderLabel(key, fmt.Sprint(v)))
		}
		return cfg, nil
	})
}

func handleConfigPath(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", "path", "cannot resolve config directory", err)
	}
	_, statErr := os.Stat(path)
	return OutputJSON(args.JSON, "config path", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(path)
			if statErr != nil {
				fmt.Fprintln(os.Stderr, DimStyle.Render("(not created yet, run `sarathi config init`)"))
			}
		}
		return map[string]interface{}{"path": path, "exists": statErr == nil}, nil
	})
}

func handleConfigGet(args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "sarathi config get gateway.url")
	}
	v, err := config.Global().Get(args.ConfigKey)
	if err != nil {
		return &NotFoundError{Resource: "config key", ID: args.ConfigKey}
	}
	return OutputJSON(args.JSON, "config get", func() (interface{}, error) {
		if !args.JSON {
			fmt.Println(v)
		}
		return map[string]interface{}{"key": args.ConfigKey, "value": v}, nil
	})
}

// loadFileConfig reads the TOML file without environment overrides, so
// saving it does not persist the environment.
func loadFileConfig() (*config.Config, string, error) {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return nil, "", err
	}
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return nil, path, err
		}
	}
	return cfg, path, nil
}

func handleConfigSet(args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "sarathi config set speech.rate 0.9")
	}

	cfg, path, err := loadFileConfig()
	if err != nil {
		return NewCommandError("config", "set", "cannot read config file", err)
	}
	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return &ValidationError{Field: args.ConfigKey, Value: args.ConfigVal, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "set", "cannot save config file", err)
	}

	if !args.Quiet {
		fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[Saved]"), args.ConfigKey, args.ConfigVal)
	}
	return nil
}

// ErrConfigExists is returned by "config init" when a file is present.
var ErrConfigExists = errors.New("config file already exists (use --force to overwrite)")

func handleConfigInit(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", "init", "cannot resolve config directory", err)
	}
	force := NewArgParser(args.Raw, "force").BoolFlag("force")
	if _, err := os.Stat(path); err == nil && !force {
		return ErrConfigExists
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "cannot write config file", err)
	}
	if !args.Quiet {
		fmt.Printf("%s %s\n", SuccessStyle.Render("[Created]"), path)
	}
	return nil
}
