// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// conversations_cmd.go - conversation history commands.
//
//	tassist conversations                List conversations, newest first
//	tassist show 1                       Print the newest page of conversation 1
//	tassist show <id> --all              Print every page
//	tassist delete 2 --yes               Delete without asking
//	tassist export 1 --format json       Write a transcript file
//	tassist rate 42 down                 Rate reply #42
//
// Conversations are addressed by their 1-based list number or by id.

package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/export"
	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
	"github.com/mfaxmodem/teacher-assistant/internal/util"
)

// HandleConversations lists the user's conversations.
func (a *App) HandleConversations(ctx context.Context, args Args) error {
	sc, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	convs, err := sc.Refresh(ctx)
	if err != nil {
		return &CommandError{Command: "conversations", Action: "list", Err: err}
	}

	if args.JSON {
		return a.emit("conversations", convs)
	}
	if len(convs) == 0 {
		fmt.Fprintln(a.Out, DimStyle.Render("no conversations yet; start one with tassist ask"))
		return nil
	}

	titleWidth := GetTerminalWidth() - 44
	if titleWidth < 20 {
		titleWidth = 20
	}
	for i, c := range convs {
		fmt.Fprintf(a.Out, "%3d  %s  %s\n",
			i+1,
			util.PadWidth(util.TruncateWidth(util.SingleLine(c.DisplayTitle()), titleWidth), titleWidth),
			DimStyle.Render(c.ID))
	}
	return nil
}

// HandleShow prints a conversation, oldest message first.
func (a *App) HandleShow(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "all")
	sc, conv, err := a.openArg(ctx, "show", p.Positional(0), "tassist show <n|id> [--all]")
	if err != nil {
		return err
	}
	if p.BoolFlag("all") {
		if err := loadAll(ctx, sc); err != nil {
			return &CommandError{Command: "show", Action: "load older messages", Err: err}
		}
	}

	msgs := sc.Thread.Messages()
	if args.JSON {
		return a.emit("show", export.NewTranscript(conv, sc.User.Username, msgs))
	}

	fmt.Fprintln(a.Out, TitleStyle.Render(conv.DisplayTitle()))
	if sc.Thread.HasMore() && !args.Quiet {
		fmt.Fprintln(a.Out, DimStyle.Render("older messages not shown; use --all"))
	}
	fmt.Fprintln(a.Out)
	for _, m := range msgs {
		label := m.Role.DisplayName()
		if m.IsAssistant() && m.HasID() {
			label += fmt.Sprintf(" #%d", m.ID)
		}
		if m.Role == model.RoleUser {
			fmt.Fprintln(a.Out, PromptStyle.Render(label))
		} else {
			fmt.Fprintln(a.Out, SectionStyle.UnsetMarginTop().Render(label))
		}
		fmt.Fprintln(a.Out, strings.TrimSpace(m.Content))
		fmt.Fprintln(a.Out)
	}
	return nil
}

// HandleDelete deletes a conversation after confirmation.
func (a *App) HandleDelete(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "yes", "y")
	sc, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	convs, err := sc.Refresh(ctx)
	if err != nil {
		return &CommandError{Command: "delete", Action: "list conversations", Err: err}
	}
	if p.Positional(0) == "" {
		return usageErrorf("tassist delete <n|id> [--yes]", "which conversation?")
	}
	conv, err := resolveConversation(convs, p.Positional(0))
	if err != nil {
		return err
	}

	ok, err := Confirm(a.prompter(), fmt.Sprintf("delete %q?", conv.DisplayTitle()), ConfirmationOptions{
		Yes:      p.BoolFlag("yes") || p.BoolFlag("y"),
		JSONMode: args.JSON,
	})
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.Out, "cancelled")
		return nil
	}

	if err := sc.Delete(ctx, conv.ID); err != nil {
		return &CommandError{Command: "delete", Action: "delete conversation", Err: err}
	}
	if args.JSON {
		return a.emit("delete", map[string]string{"deleted": conv.ID})
	}
	if !args.Quiet {
		fmt.Fprintf(a.Out, "%s deleted %q\n", SuccessStyle.Render("[OK]"), conv.DisplayTitle())
	}
	return nil
}

// HandleExport writes every page of a conversation to a transcript file.
func (a *App) HandleExport(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "no-ids")
	const usage = "tassist export <n|id> [--format md|json|txt] [--output DIR]"

	opts := export.DefaultOptions()
	opts.OutputDir = p.FlagOrDefault("output", ".")
	opts.IncludeIDs = !p.BoolFlag("no-ids")
	exp, err := export.New(p.Flag("format"), opts)
	if err != nil {
		return usageErrorf(usage, "%v", err)
	}

	sc, conv, err := a.openArg(ctx, "export", p.Positional(0), usage)
	if err != nil {
		return err
	}
	if err := loadAll(ctx, sc); err != nil {
		return &CommandError{Command: "export", Action: "load messages", Err: err}
	}

	path, err := export.ExportToFile(export.NewTranscript(conv, sc.User.Username, sc.Thread.Messages()), exp, opts)
	if err != nil {
		return err
	}
	if args.JSON {
		return a.emit("export", map[string]string{"path": path})
	}
	fmt.Fprintln(a.Out, path)
	return nil
}

// HandleRate submits feedback for a reply by its message id.
func (a *App) HandleRate(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw)
	const usage = "tassist rate <message-id> up|down"

	id, err := ParseIntWithValidation(p.Positional(0), "message id")
	if err != nil {
		err.(*UsageError).Usage = usage
		return err
	}
	rating, err := parseRating(p.Positional(1))
	if err != nil {
		return usageErrorf(usage, "%v", err)
	}

	sc, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	if err := sc.Feedback.Submit(ctx, int64(id), rating); err != nil {
		return err
	}

	// Transport failures are only logged; a missing record means the
	// backend never saw it.
	delivered := sc.Feedback.Rating(int64(id)) == rating
	if args.JSON {
		return a.emit("rate", map[string]any{"message_id": id, "rating": rating.String(), "delivered": delivered})
	}
	if !delivered {
		fmt.Fprintln(a.Err, WarningStyle.Render("feedback could not be delivered; see the log for details"))
		return nil
	}
	if !args.Quiet {
		fmt.Fprintf(a.Out, "%s rated #%d %s\n", SuccessStyle.Render("[OK]"), id, rating)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// resolveConversation accepts a 1-based list number or an id.
func resolveConversation(convs []model.Conversation, arg string) (model.Conversation, error) {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(convs) {
			return convs[n-1], nil
		}
		return model.Conversation{}, fmt.Errorf("%w: %d (have %d)", ErrNoSuchConversation, n, len(convs))
	}
	if i := model.FindConversation(convs, arg); i >= 0 {
		return convs[i], nil
	}
	return model.Conversation{}, fmt.Errorf("%w: %s", ErrNoSuchConversation, arg)
}

// openArg resumes the session, resolves arg and loads its newest page.
func (a *App) openArg(ctx context.Context, command, arg, usage string) (*session.Context, model.Conversation, error) {
	if arg == "" {
		return nil, model.Conversation{}, usageErrorf(usage, "which conversation?")
	}
	sc, err := a.requireSession(ctx)
	if err != nil {
		return nil, model.Conversation{}, err
	}
	convs, err := sc.Refresh(ctx)
	if err != nil {
		return nil, model.Conversation{}, &CommandError{Command: command, Action: "list conversations", Err: err}
	}
	conv, err := resolveConversation(convs, arg)
	if err != nil {
		return nil, model.Conversation{}, err
	}
	if _, err := sc.Open(ctx, conv.ID); err != nil {
		return nil, model.Conversation{}, &CommandError{Command: command, Action: "load messages", Err: err}
	}
	return sc, conv, nil
}

// loadAll pages back to the start of the open conversation.
func loadAll(ctx context.Context, sc *session.Context) error {
	for sc.Thread.HasMore() {
		if _, err := sc.LoadOlder(ctx); err != nil {
			return err
		}
	}
	return nil
}

func parseRating(s string) (model.Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "+", "+1", "1", "good":
		return model.RatingUp, nil
	case "down", "-", "-1", "bad":
		return model.RatingDown, nil
	}
	return model.RatingNone, feedback.ErrInvalidRating
}
