// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-interactive
// commands of tassist.
//
// # Key Types
//
//   - Command: enumeration of the available commands
//   - Args: global flags plus the raw arguments of the command
//   - App: the wired client stack commands run against
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	app, err := cli.NewApp(cfg, log)
//	err = app.Run(ctx, cmd, args)
//	os.Exit(cli.ExitCode(err))
//
// # Commands Overview
//
// Account: login, register, logout.
// Chat: chat (the full-screen UI, default), ask.
// History: conversations, show, delete, export, rate.
// Diagnostics: status, doctor, config, version.
//
// Most commands accept --json for scripting.
package cli
