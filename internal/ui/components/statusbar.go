// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfaxmodem/teacher-assistant/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the connection state shown when there is no notice.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusOffline
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusStreaming:
		return "receiving"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// StatusBar is the bottom line: a notice or status on the left and key
// hints on the right.
type StatusBar struct {
	Status        Status
	Notice        string
	NoticeIsError bool
	Shortcuts     []key.Binding // Shown in order, dropped from the end when short of room
	Width         int
	theme         *styles.Theme
}

// NewStatusBar creates a StatusBar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar.
func (s *StatusBar) View() string {
	left := s.renderLeft()
	room := s.Width - lipgloss.Width(left) - 3

	var hints []string
	used := 0
	for _, b := range s.Shortcuts {
		h := b.Help()
		hint := s.theme.ShortcutKey.Render(h.Key) + " " + s.theme.ShortcutDesc.Render(h.Desc)
		w := lipgloss.Width(hint)
		if len(hints) > 0 {
			w += 2
		}
		if used+w > room {
			break
		}
		hints = append(hints, hint)
		used += w
	}
	right := strings.Join(hints, "  ")

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderLeft() string {
	switch {
	case s.Notice != "" && s.NoticeIsError:
		return s.theme.ErrorText.Render(s.Notice)
	case s.Notice != "":
		return s.theme.SuccessText.Render(s.Notice)
	case s.Status == StatusOffline:
		return s.theme.ErrorText.Render(s.Status.String())
	case s.Status == StatusStreaming:
		return s.theme.Streaming.Render(s.Status.String())
	}
	return ""
}
