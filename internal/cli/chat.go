// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/logging"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
	"github.com/mfaxmodem/teacher-assistant/internal/ui/chat"
)

// RunChat opens the full-screen chat. A user who is not signed in is
// asked to log in first.
func (a *App) RunChat(ctx context.Context, args Args) error {
	if err := RequiresTTY("open the chat screen"); err != nil {
		return err
	}

	sc, err := a.requireSession(ctx)
	if errors.Is(err, session.ErrNotLoggedIn) {
		fmt.Fprintln(a.Err, DimStyle.Render("sign in to start chatting"))
		if err := a.HandleLogin(ctx, args); err != nil {
			return err
		}
		sc, err = a.Manager.Current()
	}
	if err != nil {
		return err
	}
	// The screen reads from the terminal itself from here on.
	if a.Prompter != nil {
		a.Prompter.Close()
		a.Prompter = nil
	}

	m := chat.New(chat.Options{
		Manager:  a.Manager,
		Context:  sc,
		Health:   a.Client,
		UI:       a.Config.UI,
		Greeting: a.Config.Chat.Greeting,
		Logger:   a.Log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.watchConfig(ctx, p)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat screen: %w", err)
	}
	return nil
}

// watchConfig forwards config file edits to the running screen and
// adjusts the log level. A missing config directory only disables it.
func (a *App) watchConfig(ctx context.Context, p *tea.Program) {
	path, err := config.ConfigPathTOML()
	if err == nil {
		err = config.EnsureConfigDir()
	}
	var w *config.Watcher
	if err == nil {
		w, err = config.NewWatcher(path,
			func(cfg *config.Config) {
				a.Log.Info("config reloaded", zap.String("path", path))
				config.SetGlobal(cfg)
				logging.SetLevel(cfg.Log.Level)
				p.Send(chat.ConfigMsg{UI: cfg.UI, Greeting: cfg.Chat.Greeting})
			},
			func(err error) {
				a.Log.Warn("config reload failed", zap.Error(err))
			},
		)
	}
	if err != nil {
		a.Log.Warn("config watching disabled", zap.Error(err))
		return
	}
	go w.Run(ctx)
}
