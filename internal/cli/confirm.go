// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationRequired is returned when a destructive action needs
// --yes and cannot prompt.
var ErrConfirmationRequired = errors.New("confirmation required: rerun with --yes")

// ConfirmationOptions controls how Confirm behaves.
type ConfirmationOptions struct {
	// Yes skips the prompt (--yes).
	Yes bool
	// JSONMode forbids prompting; Yes must be set.
	JSONMode bool
}

// Confirm asks the user to confirm action.
//
//  1. opts.Yes proceeds without asking
//  2. JSON mode without --yes fails with ErrConfirmationRequired
//  3. otherwise the prompter asks, and only y, yes or بله confirm
func Confirm(p Prompter, action string, opts ConfirmationOptions) (bool, error) {
	if opts.Yes {
		return true, nil
	}
	if opts.JSONMode || p == nil {
		return false, ErrConfirmationRequired
	}

	answer, err := p.Prompt(fmt.Sprintf("%s %s [y/N]: ", WarningStyle.Render("?"), action))
	if err != nil {
		return false, err
	}
	return isYes(answer), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "بله":
		return true
	}
	return false
}
