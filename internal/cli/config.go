// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - the config command.
//
//	tassist config                       Show the effective configuration
//	tassist config path                  Print the config file location
//	tassist config init [--force]        Write a default config file
//	tassist config set ui.theme light    Change one value in the file
//
// The effective configuration includes TASSIST_* environment overrides;
// set edits only the file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mfaxmodem/teacher-assistant/internal/config"
)

// HandleConfig dispatches config subcommands.
func (a *App) HandleConfig(_ context.Context, args Args) error {
	p := NewArgParser(args.Raw, "force")

	switch sub := p.Subcommand(); sub {
	case "", "show":
		if args.JSON {
			return a.emit("config", a.Config)
		}
		return toml.NewEncoder(a.Out).Encode(a.Config)

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if args.JSON {
			return a.emit("config path", map[string]string{"path": path})
		}
		fmt.Fprintln(a.Out, path)
		return nil

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !p.BoolFlag("force") {
			return usageErrorf("tassist config init --force", "%s already exists", path)
		}
		if err := config.SaveTOML(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
		return nil

	case "set":
		return a.configSet(p.Positional(1), JoinPositionalArgs(p, 2))

	default:
		return usageErrorf("tassist config [show|path|init|set KEY VALUE]", "unknown config subcommand %q", sub)
	}
}

// configSet changes one key in the config file, validating the result
// before it is written.
func (a *App) configSet(key, value string) error {
	const usage = "tassist config set KEY VALUE"
	if key == "" || value == "" {
		return usageErrorf(usage, "key and value are required")
	}

	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return usageErrorf(usage, "%v", err)
	}

	check := cfg.Clone()
	check.SetDefaults()
	if err := check.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

var errUnknownKey = errors.New("unknown config key")

// setConfigValue assigns value to a dotted key such as "chat.page_size".
func setConfigValue(cfg *config.Config, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s needs a whole number, got %q", key, value)
		}
		return n, nil
	}

	var err error
	switch key {
	case "backend.base_url":
		cfg.Backend.BaseURL = value
	case "backend.timeout":
		cfg.Backend.Timeout = value
	case "backend.requests_per_second":
		cfg.Backend.RequestsPerSecond, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s needs a number, got %q", key, value)
		}
	case "backend.burst":
		cfg.Backend.Burst, err = atoi()
	case "chat.page_size":
		cfg.Chat.PageSize, err = atoi()
	case "chat.error_message":
		cfg.Chat.ErrorMessage = value
	case "chat.greeting":
		cfg.Chat.Greeting = value
	case "log.level":
		cfg.Log.Level = strings.ToLower(value)
	case "log.path":
		cfg.Log.Path = value
	case "ui.theme":
		cfg.UI.Theme = strings.ToLower(value)
	case "ui.word_wrap":
		cfg.UI.WordWrap, err = atoi()
	case "ui.markdown":
		cfg.UI.Markdown, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s needs true or false, got %q", key, value)
		}
	case "storage.profile_db":
		cfg.Storage.ProfileDB = value
	default:
		return fmt.Errorf("%w: %s", errUnknownKey, key)
	}
	return err
}
