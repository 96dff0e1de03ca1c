// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot questions and line mode.
//
//	tassist ask "how do I grade essays?"     New conversation
//	tassist ask --continue "and rubrics?"    Last opened conversation
//	tassist ask --conv 2 "follow up"         Second conversation in the list
//	echo "question" | tassist ask            Question from stdin
//	tassist ask                              Line mode on a terminal

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
	"github.com/mfaxmodem/teacher-assistant/internal/stream"
	"github.com/mfaxmodem/teacher-assistant/internal/ui/styles"
)

// AskResult is the --json payload of ask.
type AskResult struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
	MessageID      int64  `json:"message_id,omitempty"`
	Reply          string `json:"reply"`
	Failed         bool   `json:"failed,omitempty"`
}

// HandleAsk sends one question, or enters line mode when none is given
// on a terminal.
func (a *App) HandleAsk(ctx context.Context, args Args) error {
	p := NewArgParser(args.Raw, "continue", "render")

	sc, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	if err := a.selectConversation(ctx, sc, p); err != nil {
		return err
	}

	question := JoinPositionalArgs(p, 0)
	if question == "" {
		if a.In == os.Stdin && IsTTY() && !args.JSON {
			return a.lineMode(ctx, sc, p.BoolFlag("render"), args)
		}
		b, err := io.ReadAll(a.In)
		if err != nil {
			return fmt.Errorf("read question: %w", err)
		}
		question = strings.TrimSpace(string(b))
	}
	if question == "" {
		return usageErrorf(`tassist ask "question"`, "no question given")
	}

	_, err = a.ask(ctx, sc, question, p.BoolFlag("render"), args)
	return err
}

// selectConversation applies --conv and --continue. Without either the
// question starts a new conversation.
func (a *App) selectConversation(ctx context.Context, sc *session.Context, p *ArgParser) error {
	switch {
	case p.Flag("conv") != "":
		convs, err := sc.Refresh(ctx)
		if err != nil {
			return &CommandError{Command: "ask", Action: "list conversations", Err: err}
		}
		conv, err := resolveConversation(convs, p.Flag("conv"))
		if err != nil {
			return err
		}
		if _, err := sc.Open(ctx, conv.ID); err != nil {
			return &CommandError{Command: "ask", Action: "open conversation", Err: err}
		}
	case p.BoolFlag("continue"):
		if _, err := sc.Refresh(ctx); err != nil {
			return &CommandError{Command: "ask", Action: "list conversations", Err: err}
		}
		ok, err := sc.ResumeLast(ctx)
		if err != nil {
			return &CommandError{Command: "ask", Action: "open conversation", Err: err}
		}
		if !ok {
			return fmt.Errorf("%w: nothing to continue", ErrNoSuchConversation)
		}
	default:
		sc.NewChat()
	}
	return nil
}

// ask streams one reply to a.Out.
func (a *App) ask(ctx context.Context, sc *session.Context, question string, render bool, args Args) (stream.Result, error) {
	printer := newReplyPrinter(a.Out, !render && !args.JSON)
	a.Manager.SetObserver(printer.update)
	defer a.Manager.SetObserver(nil)

	res, err := sc.Send(ctx, question)
	if err != nil {
		return res, err
	}
	printer.finish()

	if args.JSON {
		out := AskResult{
			ConversationID: res.ConversationID,
			Created:        res.Created,
			MessageID:      res.Reply.ID,
			Reply:          res.Reply.Content,
			Failed:         res.Err != nil,
		}
		if res.Err != nil {
			out.Reply = a.Config.Chat.ErrorMessage
		}
		if err := a.emit("ask", out); err != nil {
			return res, err
		}
		return res, res.Err
	}

	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) {
			fmt.Fprintln(a.Err, WarningStyle.Render("[stopped]"))
			return res, res.Err
		}
		fmt.Fprintln(a.Out, ErrorStyle.Render(a.Config.Chat.ErrorMessage))
		return res, &CommandError{Command: "ask", Action: "get reply", Err: res.Err}
	}

	if render {
		fmt.Fprint(a.Out, a.renderMarkdown(res.Reply.Content))
	}
	if !args.Quiet {
		a.printReplyFooter(res)
	}
	return res, nil
}

func (a *App) printReplyFooter(res stream.Result) {
	var parts []string
	if res.Reply.HasID() {
		parts = append(parts, fmt.Sprintf("#%d  rate with: tassist rate %d up|down", res.Reply.ID, res.Reply.ID))
	}
	if res.Created {
		parts = append(parts, "new conversation "+res.ConversationID)
	}
	if len(parts) > 0 {
		fmt.Fprintln(a.Err, DimStyle.Render(strings.Join(parts, "  ·  ")))
	}
}

// renderMarkdown renders text with glamour, falling back to the raw text.
func (a *App) renderMarkdown(text string) string {
	wrap := a.Config.UI.WordWrap
	if w := GetTerminalWidth() - 4; wrap <= 0 || w < wrap {
		wrap = w
	}
	style := "notty"
	if ColorsEnabled() {
		style = styles.NewTheme(a.Config.UI.Theme).GlamourStyle()
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(wrap))
	if err != nil {
		return text + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// lineMode sends each entered line in the same conversation until EOF,
// Ctrl+C or /quit.
func (a *App) lineMode(ctx context.Context, sc *session.Context, render bool, args Args) error {
	pr := a.prompter()
	fmt.Fprintln(a.Err, DimStyle.Render("line mode: /new starts a new conversation, /quit exits"))

	for {
		line, err := pr.Prompt(PromptStyle.Render("tassist> "))
		if errors.Is(err, ErrAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch line = strings.TrimSpace(line); line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			sc.NewChat()
			fmt.Fprintln(a.Err, DimStyle.Render("new conversation"))
			continue
		}

		if _, err := a.ask(ctx, sc, line, render, args); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			PrintError(a.Err, err)
		}
	}
}

// =============================================================================
// REPLY PRINTER
// =============================================================================

// replyPrinter writes streaming text as it grows.
type replyPrinter struct {
	mu      sync.Mutex
	out     io.Writer
	live    bool
	printed string
	key     string
}

func newReplyPrinter(out io.Writer, live bool) *replyPrinter {
	return &replyPrinter{out: out, live: live}
}

func (p *replyPrinter) update(u stream.Update) {
	if !p.live || !u.Message.IsAssistant() || u.Message.Failed {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if u.Message.Key != p.key {
		p.key = u.Message.Key
		p.printed = ""
	}
	p.write(u.Message)
}

// write prints the part of msg not yet printed. Text that no longer
// extends what was printed is reprinted on a new line.
func (p *replyPrinter) write(msg model.Message) {
	text := msg.Content
	switch {
	case strings.HasPrefix(text, p.printed):
		fmt.Fprint(p.out, text[len(p.printed):])
	default:
		fmt.Fprint(p.out, "\n"+text)
	}
	p.printed = text
}

func (p *replyPrinter) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.live && p.printed != "" {
		fmt.Fprintln(p.out)
	}
}
