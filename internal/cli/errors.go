// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeoutError = 8
	ExitInterrupted  = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrNoSuchConversation is returned when a list number or id matches nothing.
var ErrNoSuchConversation = errors.New("no such conversation")

// UsageError reports a malformed command line.
type UsageError struct {
	Msg   string
	Usage string // optional usage line shown below the message
}

func (e *UsageError) Error() string {
	return e.Msg
}

// usageErrorf builds a UsageError with a usage hint.
func usageErrorf(usage, format string, a ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, a...), Usage: usage}
}

// CommandError wraps a failure with the command that produced it.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Command, e.Action, api.Message(e.Err))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ExitCode maps an error onto a process exit code.
func ExitCode(err error) int {
	var (
		usage     *UsageError
		transport *api.TransportError
		valErr    config.ValidationError
		valErrs   config.ValidateErrors
	)

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &valErr), errors.As(err, &valErrs):
		return ExitConfigError
	case errors.Is(err, session.ErrNotLoggedIn), errors.Is(err, api.ErrUnauthorized):
		return ExitAuthError
	case errors.Is(err, api.ErrNotFound), errors.Is(err, ErrNoSuchConversation):
		return ExitNotFound
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &transport):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}

// PrintError writes err for a human, with a hint where one helps.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), strings.TrimSpace(err.Error()))

	var usage *UsageError
	switch {
	case errors.As(err, &usage) && usage.Usage != "":
		fmt.Fprintln(w, DimStyle.Render("Usage: "+usage.Usage))
	case errors.Is(err, session.ErrNotLoggedIn):
		fmt.Fprintln(w, DimStyle.Render("Run 'tassist login' first."))
	case ExitCode(err) == ExitNetworkError:
		fmt.Fprintln(w, DimStyle.Render("Check backend.base_url with 'tassist config show'."))
	}
}
