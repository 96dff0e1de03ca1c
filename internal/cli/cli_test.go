// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "flag with value",
			args: []string{"2", "--format", "json"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "json" {
					t.Errorf("Flag(format) = %q, want json", p.Flag("format"))
				}
				if p.Positional(0) != "2" {
					t.Errorf("Positional(0) = %q, want 2", p.Positional(0))
				}
			},
		},
		{
			name: "flag with equals",
			args: []string{"--output=/tmp/out"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("output") != "/tmp/out" {
					t.Errorf("Flag(output) = %q", p.Flag("output"))
				}
			},
		},
		{
			name: "undeclared bool swallows the next word",
			args: []string{"--render", "what is a rubric"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 0 {
					t.Errorf("PositionalCount() = %d, want 0", p.PositionalCount())
				}
				if !p.BoolFlag("render") {
					t.Error("BoolFlag(render) should still be true")
				}
			},
		},
		{
			name:  "declared bool keeps the positional",
			args:  []string{"--render", "what is a rubric"},
			bools: []string{"render"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(0) != "what is a rubric" {
					t.Errorf("Positional(0) = %q", p.Positional(0))
				}
				if !p.BoolFlag("render") {
					t.Error("BoolFlag(render) should be true")
				}
			},
		},
		{
			name: "explicit false",
			args: []string{"--all=false"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("all") {
					t.Error("BoolFlag(all) should be false")
				}
				if !p.HasFlag("all") {
					t.Error("HasFlag(all) should be true")
				}
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"--", "--not-a-flag", "-x"},
			validate: func(t *testing.T, p *ArgParser) {
				if got := JoinPositionalArgs(p, 0); got != "--not-a-flag -x" {
					t.Errorf("JoinPositionalArgs = %q", got)
				}
				if p.HasFlag("not-a-flag") {
					t.Error("flag after -- should not be parsed")
				}
			},
		},
		{
			name: "single dash is positional",
			args: []string{"-"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Subcommand() != "-" {
					t.Errorf("Subcommand() = %q", p.Subcommand())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			tt.validate(t, p)
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	p := NewArgParser([]string{"--limit", "5", "--bad", "x"})

	if n, err := p.FlagInt("limit"); err != nil || n != 5 {
		t.Errorf("FlagInt(limit) = %d, %v", n, err)
	}
	if _, err := p.FlagInt("bad"); err == nil {
		t.Error("FlagInt(bad) should fail")
	}
	if _, err := p.FlagInt("missing"); err == nil {
		t.Error("FlagInt(missing) should fail")
	}
	if got := p.FlagOrDefault("output", "."); got != "." {
		t.Errorf("FlagOrDefault = %q, want .", got)
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	p := NewArgParser(nil)
	if p.Subcommand() != "" || p.PositionalCount() != 0 || p.PositionalFrom(0) != nil {
		t.Error("empty parser should have no positionals")
	}
	if p.Positional(-1) != "" {
		t.Error("negative index should return empty")
	}
}

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"42", 42, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntWithValidation(tt.in, "message id")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Errorf("error %T is not a UsageError", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

// =============================================================================
// COMMAND PARSING (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv    []string
		want    Command
		wantRaw []string
		check   func(*testing.T, Args)
	}{
		{argv: nil, want: CmdChat},
		{argv: []string{"tui"}, want: CmdChat},
		{argv: []string{"ask", "hello", "there"}, want: CmdAsk, wantRaw: []string{"hello", "there"}},
		{argv: []string{"a", "--continue", "more"}, want: CmdAsk, wantRaw: []string{"--continue", "more"}},
		{argv: []string{"ls"}, want: CmdConversations},
		{argv: []string{"cat", "1"}, want: CmdShow, wantRaw: []string{"1"}},
		{argv: []string{"rm", "2", "--yes"}, want: CmdDelete, wantRaw: []string{"2", "--yes"}},
		{argv: []string{"feedback", "7", "up"}, want: CmdRate, wantRaw: []string{"7", "up"}},
		{argv: []string{"signup"}, want: CmdRegister},
		{argv: []string{"diag"}, want: CmdDoctor},
		{argv: []string{"--version"}, want: CmdVersion},
		{argv: []string{"-h"}, want: CmdHelp},
		{argv: []string{"frobnicate"}, want: CmdUnknown},
		{
			argv: []string{"--json", "status", "-q"},
			want: CmdStatus,
			check: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet {
					t.Errorf("global flags not parsed: %+v", a)
				}
			},
		},
		{
			argv:    []string{"ask", "--base-url", "http://b:9/", "-v", "hi"},
			want:    CmdAsk,
			wantRaw: []string{"hi"},
			check: func(t *testing.T, a Args) {
				cfg := config.Default()
				a.Apply(cfg)
				if cfg.Backend.BaseURL != "http://b:9" {
					t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
				}
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			cmd, args := Parse(tt.argv)
			if cmd != tt.want {
				t.Fatalf("Parse(%v) = %s, want %s", tt.argv, cmd, tt.want)
			}
			if tt.wantRaw != nil && strings.Join(args.Raw, "|") != strings.Join(tt.wantRaw, "|") {
				t.Errorf("Raw = %v, want %v", args.Raw, tt.wantRaw)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	if CmdConversations.String() != "conversations" {
		t.Errorf("String() = %q", CmdConversations.String())
	}
	if !strings.Contains(VersionString(), Version) {
		t.Errorf("VersionString() = %q lacks version", VersionString())
	}
}

// =============================================================================
// ERRORS (errors.go)
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageErrorf("tassist rate", "bad"), ExitUsageError},
		{"config", fmt.Errorf("load: %w", config.ValidateErrors{{Field: "chat.page_size", Message: "too small"}}), ExitConfigError},
		{"not logged in", session.ErrNotLoggedIn, ExitAuthError},
		{"unauthorized", &CommandError{Command: "login", Action: "sign in", Err: api.ErrUnauthorized}, ExitAuthError},
		{"not found", fmt.Errorf("%w: 9", ErrNoSuchConversation), ExitNotFound},
		{"canceled", context.Canceled, ExitInterrupted},
		{"timeout", context.DeadlineExceeded, ExitTimeoutError},
		{"network", &api.TransportError{Op: "GET /health", Err: errors.New("refused")}, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	var b strings.Builder
	PrintError(&b, usageErrorf("tassist rate <id> up|down", "bad rating"))
	if !strings.Contains(b.String(), "bad rating") || !strings.Contains(b.String(), "tassist rate <id> up|down") {
		t.Errorf("PrintError output = %q", b.String())
	}

	b.Reset()
	PrintError(&b, session.ErrNotLoggedIn)
	if !strings.Contains(b.String(), "tassist login") {
		t.Errorf("missing login hint: %q", b.String())
	}

	b.Reset()
	PrintError(&b, nil)
	if b.Len() != 0 {
		t.Errorf("nil error printed %q", b.String())
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestResolveConversation(t *testing.T) {
	convs := []model.Conversation{{ID: "c2", Title: "newest"}, {ID: "c1", Title: "older"}}

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"1", "c2", false},
		{" 2 ", "c1", false},
		{"c1", "c1", false},
		{"0", "", true},
		{"3", "", true},
		{"nope", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := resolveConversation(convs, tt.arg)
			if tt.wantErr {
				if !errors.Is(err, ErrNoSuchConversation) {
					t.Errorf("err = %v, want ErrNoSuchConversation", err)
				}
				return
			}
			if err != nil || got.ID != tt.want {
				t.Errorf("got %q, %v; want %q", got.ID, err, tt.want)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want model.Rating
	}{
		{"up", model.RatingUp},
		{"+1", model.RatingUp},
		{"GOOD", model.RatingUp},
		{"down", model.RatingDown},
		{"-", model.RatingDown},
	}
	for _, tt := range tests {
		got, err := parseRating(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseRating(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := parseRating("meh"); !errors.Is(err, feedback.ErrInvalidRating) {
		t.Errorf("parseRating(meh) err = %v", err)
	}
}

func TestSetConfigValue(t *testing.T) {
	cfg := config.Default()

	for key, value := range map[string]string{
		"backend.base_url":            "http://school:8000",
		"backend.requests_per_second": "2.5",
		"chat.page_size":              "50",
		"ui.theme":                    "LIGHT",
		"ui.markdown":                 "false",
	} {
		if err := setConfigValue(cfg, key, value); err != nil {
			t.Fatalf("setConfigValue(%s) = %v", key, err)
		}
	}
	if cfg.Backend.BaseURL != "http://school:8000" || cfg.Backend.RequestsPerSecond != 2.5 {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Chat.PageSize != 50 || cfg.UI.Theme != "light" || cfg.UI.Markdown {
		t.Errorf("chat/ui = %+v %+v", cfg.Chat, cfg.UI)
	}

	if err := setConfigValue(cfg, "chat.page_size", "many"); err == nil {
		t.Error("non-numeric page size should fail")
	}
	if err := setConfigValue(cfg, "nope.key", "x"); !errors.Is(err, errUnknownKey) {
		t.Errorf("unknown key err = %v", err)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    ConfirmationOptions
		want    bool
		wantErr error
	}{
		{name: "yes flag", opts: ConfirmationOptions{Yes: true}, want: true},
		{name: "json without yes", opts: ConfirmationOptions{JSONMode: true}, wantErr: ErrConfirmationRequired},
		{name: "answer y", input: "y\n", want: true},
		{name: "answer persian yes", input: "بله\n", want: true},
		{name: "answer no", input: "n\n", want: false},
		{name: "empty answer", input: "\n", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewReaderPrompter(strings.NewReader(tt.input), &out)
			got, err := Confirm(p, "delete it?", tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Confirm = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReaderPrompter_LastLineWithoutNewline(t *testing.T) {
	p := NewReaderPrompter(strings.NewReader("first\nlast"), &strings.Builder{})
	for _, want := range []string{"first", "last"} {
		got, err := p.Prompt("> ")
		if err != nil || got != want {
			t.Fatalf("Prompt = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := p.Prompt("> "); err == nil {
		t.Error("expected EOF after input is drained")
	}
}
