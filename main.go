// tassist - a terminal client for the teacher-assistant chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/cli"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run())
}

func run() int {
	cmd, args := cli.Parse(os.Args[1:])

	switch cmd {
	case cli.CmdVersion:
		fmt.Println(cli.VersionString())
		return cli.ExitSuccess
	case cli.CmdHelp:
		fmt.Print(cli.Usage())
		return cli.ExitSuccess
	}

	// Global prints a warning and falls back to defaults on a bad file.
	cfg := config.Global().Clone()
	args.Apply(cfg)

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (logging disabled)\n", err)
		log = logging.Nop()
	}
	defer log.Sync() //nolint:errcheck

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		cli.PrintError(os.Stderr, err)
		return cli.ExitCode(err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug("command start", zap.Stringer("command", cmd))
	if err := app.Run(ctx, cmd, args); err != nil {
		log.Debug("command failed", zap.Stringer("command", cmd), zap.Error(err))
		cli.PrintError(os.Stderr, err)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}
