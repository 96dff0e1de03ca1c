// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/config"
)

// Version information (overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdAsk
	CmdLogin
	CmdRegister
	CmdLogout
	CmdConversations
	CmdShow
	CmdDelete
	CmdExport
	CmdRate
	CmdStatus
	CmdDoctor
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdChat:          "chat",
	CmdAsk:           "ask",
	CmdLogin:         "login",
	CmdRegister:      "register",
	CmdLogout:        "logout",
	CmdConversations: "conversations",
	CmdShow:          "show",
	CmdDelete:        "delete",
	CmdExport:        "export",
	CmdRate:          "rate",
	CmdStatus:        "status",
	CmdDoctor:        "doctor",
	CmdConfig:        "config",
	CmdVersion:       "version",
	CmdHelp:          "help",
}

// String returns the command's canonical name.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	JSON    bool
	Quiet   bool
	Verbose bool
	BaseURL string

	// Name is the command word as typed.
	Name string

	// Raw holds the arguments after the command word.
	Raw []string
}

// Apply folds global flag overrides into cfg.
func (a Args) Apply(cfg *config.Config) {
	if a.BaseURL != "" {
		cfg.Backend.BaseURL = strings.TrimRight(a.BaseURL, "/")
	}
	if a.Verbose {
		cfg.Log.Level = "debug"
	}
}

const usageText = `tassist - terminal client for the teacher assistant

Usage:
  tassist                          Open the chat screen (default)
  tassist chat                     Open the chat screen
  tassist ask "question"           Ask one question and stream the reply
    --conv <n|id>                  Continue a conversation
    --continue                     Continue the last opened conversation
    --render                       Render the reply as markdown when done
  tassist ask                      Line mode: each line is sent in turn

Account:
  tassist login [--username NAME]
  tassist register [--username NAME] [--subject S] [--field F] [--experience N]
  tassist logout

History:
  tassist conversations, ls        List conversations
  tassist show <n|id> [--all]      Print a conversation (--all loads every page)
  tassist delete <n|id> [--yes]    Delete a conversation
  tassist export <n|id> [--format md|json|txt] [--output DIR]
  tassist rate <message-id> up|down

Diagnostics:
  tassist status                   Backend, login and config summary
  tassist doctor                   Run health checks
  tassist config [show|path|init]  Configuration
  tassist version

Global flags:
  --json                           Machine-readable output
  --base-url URL                   Override backend.base_url
  -q, --quiet                      Less output
  -v, --verbose                    Debug logging

Environment:
  TASSIST_HOME, TASSIST_BASE_URL, TASSIST_LOG_LEVEL, TASSIST_LOG_PATH,
  TASSIST_PAGE_SIZE, TASSIST_PROFILE_DB, NO_COLOR
`

// Usage returns the help text.
func Usage() string {
	return usageText
}

// VersionString returns the version line.
func VersionString() string {
	return fmt.Sprintf("tassist %s (%s, built %s, %s/%s)",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse splits argv into a command and its arguments. Global flags may
// appear anywhere.
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdChat, args
	}

	args.Name = remaining[0]
	args.Raw = remaining[1:]

	switch strings.ToLower(args.Name) {
	case "chat", "tui":
		return CmdChat, args
	case "ask", "a":
		return CmdAsk, args
	case "login":
		return CmdLogin, args
	case "register", "signup":
		return CmdRegister, args
	case "logout":
		return CmdLogout, args
	case "conversations", "convs", "ls", "list":
		return CmdConversations, args
	case "show", "cat":
		return CmdShow, args
	case "delete", "rm":
		return CmdDelete, args
	case "export":
		return CmdExport, args
	case "rate", "feedback":
		return CmdRate, args
	case "status", "s":
		return CmdStatus, args
	case "doctor", "diag":
		return CmdDoctor, args
	case "config":
		return CmdConfig, args
	case "version", "--version", "-V":
		return CmdVersion, args
	case "help", "--help", "-h":
		return CmdHelp, args
	default:
		return CmdUnknown, args
	}
}

func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		switch a := argv[i]; {
		case a == "--json":
			args.JSON = true
		case a == "-q" || a == "--quiet":
			args.Quiet = true
		case a == "-v" || a == "--verbose":
			args.Verbose = true
		case a == "--base-url" && i+1 < len(argv):
			args.BaseURL = argv[i+1]
			i++
		case strings.HasPrefix(a, "--base-url="):
			args.BaseURL = strings.TrimPrefix(a, "--base-url=")
		default:
			rest = append(rest, a)
		}
	}
	return rest, args
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes cmd with the parsed arguments.
func (a *App) Run(ctx context.Context, cmd Command, args Args) error {
	switch cmd {
	case CmdChat:
		return a.RunChat(ctx, args)
	case CmdAsk:
		return a.HandleAsk(ctx, args)
	case CmdLogin:
		return a.HandleLogin(ctx, args)
	case CmdRegister:
		return a.HandleRegister(ctx, args)
	case CmdLogout:
		return a.HandleLogout(ctx, args)
	case CmdConversations:
		return a.HandleConversations(ctx, args)
	case CmdShow:
		return a.HandleShow(ctx, args)
	case CmdDelete:
		return a.HandleDelete(ctx, args)
	case CmdExport:
		return a.HandleExport(ctx, args)
	case CmdRate:
		return a.HandleRate(ctx, args)
	case CmdStatus:
		return a.HandleStatus(ctx, args)
	case CmdDoctor:
		return a.HandleDoctor(ctx, args)
	case CmdConfig:
		return a.HandleConfig(ctx, args)
	case CmdVersion:
		fmt.Fprintln(a.Out, VersionString())
		return nil
	case CmdHelp:
		fmt.Fprint(a.Out, Usage())
		return nil
	default:
		return usageErrorf("tassist help", "unknown command %q", args.Name)
	}
}

// emit writes a JSON envelope for command. It is used by every --json path.
func (a *App) emit(command string, data any) error {
	return NewJSONResponse(command, data).Write(a.Out)
}
