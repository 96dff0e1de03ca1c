// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, register and logout.
//
//	tassist login                      Prompt for username and password
//	tassist login --username NAME      Prompt for the password only
//	tassist register                   Prompt for every profile field
//	tassist logout                     Forget the saved profile

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
)

// HandleLogin signs in and saves the profile.
func (a *App) HandleLogin(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)
	pr := a.prompter()

	username, err := askIfEmpty(pr, p.Flag("username"), "Username: ")
	if err != nil {
		return err
	}
	password, err := pr.Password("Password: ")
	if err != nil {
		return err
	}

	sc, err := a.Manager.Login(ctx, model.Credentials{Username: username, Password: password})
	if err != nil {
		return &CommandError{Command: "login", Action: "sign in", Err: err}
	}

	if args.JSON {
		return a.emit("login", sc.User)
	}
	if !args.Quiet {
		fmt.Fprintf(a.Out, "%s signed in as %s\n", SuccessStyle.Render("[OK]"), sc.User.Username)
	}
	return nil
}

// HandleRegister creates an account and signs in with it.
func (a *App) HandleRegister(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)
	pr := a.prompter()

	var reg model.Registration
	var err error

	if reg.Username, err = askIfEmpty(pr, p.Flag("username"), "Username: "); err != nil {
		return err
	}
	if reg.Password, err = pr.Password("Password: "); err != nil {
		return err
	}
	confirm, err := pr.Password("Repeat password: ")
	if err != nil {
		return err
	}
	if confirm != reg.Password {
		return errors.New("passwords do not match")
	}
	if reg.Subject, err = askIfEmpty(pr, p.Flag("subject"), "Subject taught: "); err != nil {
		return err
	}
	if reg.Field, err = askIfEmpty(pr, p.Flag("field"), "Field of study: "); err != nil {
		return err
	}
	exp, err := askIfEmpty(pr, p.Flag("experience"), "Years of experience: ")
	if err != nil {
		return err
	}
	if exp = strings.TrimSpace(exp); exp != "" {
		n, convErr := strconv.Atoi(exp)
		if convErr != nil || n < 0 {
			return usageErrorf("tassist register --experience N", "experience must be a whole number of years, got %q", exp)
		}
		reg.Experience = n
	}

	sc, err := a.Manager.Register(ctx, reg)
	if err != nil {
		return &CommandError{Command: "register", Action: "create account", Err: err}
	}

	if args.JSON {
		return a.emit("register", sc.User)
	}
	if !args.Quiet {
		fmt.Fprintf(a.Out, "%s account created, signed in as %s\n", SuccessStyle.Render("[OK]"), sc.User.Username)
	}
	return nil
}

// HandleLogout forgets the saved profile.
func (a *App) HandleLogout(ctx context.Context, args Args) error {
	// Resume first so the last context is torn down cleanly.
	_, _ = a.requireSession(ctx)

	if err := a.Manager.Logout(ctx); err != nil {
		return err
	}
	if args.JSON {
		return a.emit("logout", map[string]bool{"logged_out": true})
	}
	if !args.Quiet {
		fmt.Fprintln(a.Out, "signed out")
	}
	return nil
}

// askIfEmpty returns value, or prompts for it when blank.
func askIfEmpty(p Prompter, value, prompt string) (string, error) {
	if v := strings.TrimSpace(value); v != "" {
		return v, nil
	}
	s, err := p.Prompt(prompt)
	return strings.TrimSpace(s), err
}
