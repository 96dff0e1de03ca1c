// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mfaxmodem/teacher-assistant/internal/ui/styles"
	"github.com/mfaxmodem/teacher-assistant/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// DefaultTitle is the product name shown at the left of the header.
const DefaultTitle = "Teacher Assistant"

// Header is the one-line title bar.
type Header struct {
	Title        string // Product name
	Conversation string // Title of the open conversation; empty for a new chat
	Username     string
	Width        int
	theme        *styles.Theme
}

// NewHeader creates a Header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: DefaultTitle, Width: 80, theme: theme}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header. The conversation title gets whatever room
// the product name and username leave.
func (h *Header) View() string {
	conv := h.Conversation
	if conv == "" {
		conv = "new chat"
	}
	title := h.theme.HeaderTitle.Render(h.Title)
	right := h.theme.HeaderUser.Render(h.Username)

	// 2 columns of padding, 2 after the title and at least 1 before the user.
	room := h.Width - 5 - lipgloss.Width(title) - lipgloss.Width(right)
	conv = util.TruncateWidth(util.SingleLine(conv), room)

	left := title
	if conv != "" {
		left += "  " + h.theme.MutedText.Render(conv)
	}

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + right)
}
