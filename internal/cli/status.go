// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - the status command.
//
//	tassist status           Backend, login and config summary
//	tassist status --json    Same, for scripts

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
)

// StatusInfo is everything status reports.
type StatusInfo struct {
	Version          string `json:"version"`
	ConfigPath       string `json:"config_path"`
	BackendURL       string `json:"backend_url"`
	BackendOK        bool   `json:"backend_ok"`
	BackendError     string `json:"backend_error,omitempty"`
	LatencyMs        int64  `json:"latency_ms"`
	User             string `json:"user,omitempty"`
	UserID           int64  `json:"user_id,omitempty"`
	LastConversation string `json:"last_conversation,omitempty"`
	ProfileDB        string `json:"profile_db"`
	LogPath          string `json:"log_path"`
}

// CollectStatus gathers StatusInfo. It never fails; problems are
// reported in the fields.
func (a *App) CollectStatus(ctx context.Context) StatusInfo {
	info := StatusInfo{
		Version:    Version,
		BackendURL: a.Client.BaseURL(),
		ProfileDB:  a.Profiles.Path(),
		LogPath:    a.Config.Log.Path,
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		info.ConfigPath = path
	}

	start := time.Now()
	err := a.Client.Health(ctx)
	info.LatencyMs = time.Since(start).Milliseconds()
	info.BackendOK = err == nil
	if err != nil {
		info.BackendError = api.Message(err)
	}

	if user, err := a.Profiles.Load(ctx); err == nil {
		info.User = user.Username
		info.UserID = user.ID
		if id, err := a.Profiles.LastConversation(ctx, user.ID); err == nil {
			info.LastConversation = id
		}
	}
	return info
}

// HandleStatus prints a summary of the client's state.
func (a *App) HandleStatus(ctx context.Context, args Args) error {
	info := a.CollectStatus(ctx)
	if args.JSON {
		return a.emit("status", info)
	}

	fmt.Fprintln(a.Out, TitleStyle.Render("tassist status"))
	fmt.Fprintln(a.Out, Separator(40))

	backend := SuccessStyle.Render(fmt.Sprintf("online (%dms)", info.LatencyMs))
	if !info.BackendOK {
		backend = ErrorStyle.Render("unreachable: " + info.BackendError)
	}
	user := WarningStyle.Render("not signed in")
	if info.User != "" {
		user = fmt.Sprintf("%s (#%d)", info.User, info.UserID)
	}
	last := info.LastConversation
	if last == "" {
		last = "-"
	}

	for _, line := range []string{
		Field("Version", info.Version),
		Field("Backend", info.BackendURL),
		LabelStyle.Render("Health:") + " " + backend,
		LabelStyle.Render("Signed in:") + " " + user,
		Field("Last conversation", last),
		Field("Config", info.ConfigPath),
		Field("Profile DB", info.ProfileDB),
		Field("Log", info.LogPath),
	} {
		fmt.Fprintln(a.Out, line)
	}

	if sc, err := a.Manager.Current(); err == nil {
		st := sc.Status()
		fmt.Fprintln(a.Out, Field("Session", st.SessionID+" ("+session.FormatDuration(st.Duration)+")"))
	} else if !errors.Is(err, session.ErrNotLoggedIn) {
		return err
	}
	return nil
}
