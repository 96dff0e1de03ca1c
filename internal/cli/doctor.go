// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - health checks.
//
//	tassist doctor           Run all checks
//	tassist doctor --json    Results for scripts
//
// Checks: config file, backend health, profile database, sign-in, log
// file. Exit status is non-zero when any check fails.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/storage"
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus is the outcome of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// String returns the status name.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "pass"
	case CheckWarn:
		return "warn"
	case CheckFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns the styled marker for the status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	default:
		return ErrorStyle.Render("[FAIL]")
	}
}

// HealthCheck is a single check result.
type HealthCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"-"`
	Message string      `json:"message"`
	Fix     string      `json:"fix,omitempty"`
}

// Render formats the check for the terminal.
func (c *HealthCheck) Render() string {
	out := fmt.Sprintf("%s %s", c.Status.Symbol(), c.Message)
	if c.Status != CheckPass && c.Fix != "" {
		out += "\n" + DimStyle.Render("     -> "+c.Fix)
	}
	return out
}

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// HandleDoctor runs all checks and prints the results.
func (a *App) HandleDoctor(ctx context.Context, args Args) error {
	checks := a.RunChecks(ctx)

	var passed, warned, failed int
	for _, c := range checks {
		switch c.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	if args.JSON {
		type jsonCheck struct {
			*HealthCheck
			Status string `json:"status"`
		}
		out := make([]jsonCheck, 0, len(checks))
		for _, c := range checks {
			out = append(out, jsonCheck{HealthCheck: c, Status: c.Status.String()})
		}
		if err := a.emit("doctor", map[string]any{
			"checks": out, "passed": passed, "warned": warned, "failed": failed,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(a.Out, TitleStyle.Render("tassist doctor"))
		fmt.Fprintln(a.Out, Separator(40))
		for _, c := range checks {
			fmt.Fprintln(a.Out, c.Render())
		}
		fmt.Fprintln(a.Out)

		summary := []string{fmt.Sprintf("%d passed", passed)}
		if warned > 0 {
			summary = append(summary, WarningStyle.Render(fmt.Sprintf("%d warning", warned)))
		}
		if failed > 0 {
			summary = append(summary, ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
		}
		fmt.Fprintln(a.Out, strings.Join(summary, ", "))
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}

// RunChecks runs every health check in order.
func (a *App) RunChecks(ctx context.Context) []*HealthCheck {
	return []*HealthCheck{
		a.checkConfig(),
		a.checkBackend(ctx),
		a.checkProfileStore(ctx),
		a.checkSignedIn(ctx),
		a.checkLogWritable(),
	}
}

func (a *App) checkConfig() *HealthCheck {
	c := &HealthCheck{Name: "config"}
	path, err := config.ConfigPathTOML()
	if err != nil {
		c.Status, c.Message = CheckFail, "cannot locate config directory: "+err.Error()
		return c
	}
	if _, err := os.Stat(path); err != nil {
		c.Status = CheckWarn
		c.Message = "no config file, using defaults"
		c.Fix = "tassist config init"
		return c
	}
	if _, err := config.LoadFromPath(path); err != nil {
		c.Status, c.Message = CheckFail, err.Error()
		c.Fix = "fix the file or run: tassist config init --force"
		return c
	}
	c.Status, c.Message = CheckPass, "config valid ("+path+")"
	return c
}

func (a *App) checkBackend(ctx context.Context) *HealthCheck {
	c := &HealthCheck{Name: "backend"}
	if err := a.Client.Health(ctx); err != nil {
		c.Status = CheckFail
		c.Message = fmt.Sprintf("backend %s unreachable: %s", a.Client.BaseURL(), api.Message(err))
		c.Fix = "tassist config set backend.base_url URL"
		return c
	}
	c.Status, c.Message = CheckPass, "backend "+a.Client.BaseURL()+" is healthy"
	return c
}

func (a *App) checkProfileStore(ctx context.Context) *HealthCheck {
	c := &HealthCheck{Name: "profile_store"}
	if _, err := a.Profiles.Load(ctx); err != nil && !errors.Is(err, storage.ErrNoProfile) {
		c.Status, c.Message = CheckFail, "profile database unreadable: "+err.Error()
		c.Fix = "remove " + a.Profiles.Path() + " and sign in again"
		return c
	}
	c.Status, c.Message = CheckPass, "profile database ok ("+a.Profiles.Path()+")"
	return c
}

func (a *App) checkSignedIn(ctx context.Context) *HealthCheck {
	c := &HealthCheck{Name: "signed_in"}
	user, err := a.Profiles.Load(ctx)
	if err != nil {
		c.Status, c.Message, c.Fix = CheckWarn, "not signed in", "tassist login"
		return c
	}
	c.Status, c.Message = CheckPass, "signed in as "+user.Username
	return c
}

func (a *App) checkLogWritable() *HealthCheck {
	c := &HealthCheck{Name: "log"}
	path := a.Config.Log.Path
	if path == "" || path == "stderr" {
		c.Status, c.Message = CheckPass, "logging to stderr"
		return c
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		c.Status, c.Message = CheckWarn, "log directory not writable: "+err.Error()
		return c
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		c.Status, c.Message = CheckWarn, "log file not writable: "+err.Error()
		c.Fix = "tassist config set log.path PATH"
		return c
	}
	f.Close()
	c.Status, c.Message = CheckPass, "log file "+path
	return c
}
