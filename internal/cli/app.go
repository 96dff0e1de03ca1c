// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/logging"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
	"github.com/mfaxmodem/teacher-assistant/internal/storage"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

// App is the client stack a command runs against.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Metrics  *telemetry.Metrics
	Client   *api.Client
	Profiles *storage.ProfileStore
	Manager  *session.Manager

	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Prompter is created on first use unless set.
	Prompter Prompter
}

// NewApp wires the API client, profile store and session manager from cfg.
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logging.OrNop(log)
	metrics := telemetry.New()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.TimeoutDuration(),
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		Burst:             cfg.Backend.Burst,
		Logger:            log,
		Metrics:           metrics,
	})

	profiles, err := storage.OpenProfileStore(cfg.Storage.ProfileDB)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	mgr := session.NewManager(session.Config{
		Backend:      client,
		Profiles:     profiles,
		PageSize:     cfg.Chat.PageSize,
		ErrorMessage: cfg.Chat.ErrorMessage,
		Logger:       log,
		Metrics:      metrics,
	})

	return &App{
		Config:   cfg,
		Log:      log,
		Metrics:  metrics,
		Client:   client,
		Profiles: profiles,
		Manager:  mgr,
		In:       os.Stdin,
		Out:      os.Stdout,
		Err:      os.Stderr,
	}, nil
}

// Close logs the run's request metrics and releases the prompter and
// the profile store.
func (a *App) Close() error {
	if sum, err := a.Metrics.Summary(); err == nil && sum.Requests > 0 {
		a.Log.Info("run summary", zap.Stringer("metrics", sum))
	}

	var errs []error
	if a.Prompter != nil {
		errs = append(errs, a.Prompter.Close())
	}
	if a.Profiles != nil {
		errs = append(errs, a.Profiles.Close())
	}
	return errors.Join(errs...)
}

func (a *App) prompter() Prompter {
	if a.Prompter == nil {
		a.Prompter = NewPrompter(a.In, a.Err)
	}
	return a.Prompter
}

// requireSession resumes the saved login.
func (a *App) requireSession(ctx context.Context) (*session.Context, error) {
	if sc, err := a.Manager.Current(); err == nil {
		return sc, nil
	}
	sc, err := a.Manager.Resume(ctx)
	if errors.Is(err, storage.ErrNoProfile) {
		return nil, session.ErrNotLoggedIn
	}
	return sc, err
}
