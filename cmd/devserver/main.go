// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command devserver runs the in-memory teacher-assistant backend so the
// client can be tried without the real service.
//
//	devserver [--addr 127.0.0.1:8000] [--delay 40ms] [--seed USER:PASS]
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/cli"
	"github.com/mfaxmodem/teacher-assistant/internal/logging"
	"github.com/mfaxmodem/teacher-assistant/internal/server"
)

func main() {
	p := cli.NewArgParser(os.Args[1:])
	if p.BoolFlag("help") || p.BoolFlag("h") {
		fmt.Println("usage: devserver [--addr HOST:PORT] [--delay DURATION] [--seed USER:PASS]")
		return
	}

	log, err := logging.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	opts := []server.Option{server.WithLogger(log)}
	if d := p.Flag("delay"); d != "" {
		delay, err := time.ParseDuration(d)
		if err != nil {
			log.Fatal("bad --delay", zap.String("value", d), zap.Error(err))
		}
		opts = append(opts, server.WithChunkDelay(delay))
	}
	srv := server.New(opts...)

	if seed := p.Flag("seed"); seed != "" {
		user, pass, ok := strings.Cut(seed, ":")
		if !ok {
			log.Fatal("--seed wants USER:PASS")
		}
		u, err := srv.SeedUser(user, pass)
		if err != nil {
			log.Fatal("seed user", zap.Error(err))
		}
		log.Info("seeded user", zap.String("username", u.Username), zap.Int64("id", u.ID))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(p.FlagOrDefault("addr", server.DefaultAddr)) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}
