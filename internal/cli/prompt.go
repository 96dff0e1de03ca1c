// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/mfaxmodem/teacher-assistant/internal/config"
)

// ErrAborted is returned when the user aborts a prompt with Ctrl+C.
var ErrAborted = errors.New("aborted")

// Prompter reads answers from the user.
type Prompter interface {
	Prompt(prompt string) (string, error)
	Password(prompt string) (string, error)
	Close() error
}

// NewPrompter returns a line-editing prompter when stdin is a terminal
// and a plain line reader otherwise.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	if in == os.Stdin && IsTTY() {
		return newLinePrompter(out)
	}
	return NewReaderPrompter(in, out)
}

// =============================================================================
// LINE PROMPTER
// =============================================================================

// linePrompter provides history and line editing through liner.
type linePrompter struct {
	line        *liner.State
	out         io.Writer
	historyFile string
}

func newLinePrompter(out io.Writer) *linePrompter {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	p := &linePrompter{line: line, out: out}
	if dir, err := config.ConfigDir(); err == nil {
		p.historyFile = filepath.Join(dir, "input_history")
		if f, err := os.Open(p.historyFile); err == nil {
			p.line.ReadHistory(f)
			f.Close()
		}
	}
	return p
}

func (p *linePrompter) Prompt(prompt string) (string, error) {
	input, err := p.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		p.line.AppendHistory(input)
	}
	return input, nil
}

// Password reads without echo. Passwords never enter the history.
func (p *linePrompter) Password(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (p *linePrompter) Close() error {
	if p.historyFile != "" && config.EnsureConfigDir() == nil {
		if f, err := os.OpenFile(p.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			p.line.WriteHistory(f)
			f.Close()
		}
	}
	return p.line.Close()
}

// =============================================================================
// READER PROMPTER
// =============================================================================

// ReaderPrompter reads answers line by line from a plain reader. It is
// used for piped input and in tests.
type ReaderPrompter struct {
	r   *bufio.Reader
	out io.Writer
}

// NewReaderPrompter creates a prompter over in.
func NewReaderPrompter(in io.Reader, out io.Writer) *ReaderPrompter {
	return &ReaderPrompter{r: bufio.NewReader(in), out: out}
}

// Prompt writes prompt and returns the next line. io.EOF is returned
// only when no text remains.
func (p *ReaderPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Password reads a line like Prompt.
func (p *ReaderPrompter) Password(prompt string) (string, error) {
	s, err := p.Prompt(prompt)
	return strings.TrimSpace(s), err
}

// Close is a no-op.
func (p *ReaderPrompter) Close() error {
	return nil
}
