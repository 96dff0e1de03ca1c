// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/ui/styles"
	"github.com/mfaxmodem/teacher-assistant/internal/util"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// SidebarWidth is the outer width of the conversation list.
const SidebarWidth = 32

// Sidebar lists conversations with their 1-based numbers, the same
// numbers /open and /delete accept.
type Sidebar struct {
	Conversations []model.Conversation
	Selected      string // ID of the open conversation
	Height        int
	theme         *styles.Theme
}

// NewSidebar creates an empty Sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{theme: theme}
}

// View renders as many entries as fit in Height. The selected entry is
// kept visible by scrolling the window down when needed.
func (s *Sidebar) View() string {
	inner := SidebarWidth - 2
	rows := s.Height
	if rows < 1 {
		rows = 1
	}

	start := 0
	if i := model.FindConversation(s.Conversations, s.Selected); i >= rows {
		start = i - rows + 1
	}

	var lines []string
	for i := start; i < len(s.Conversations) && len(lines) < rows; i++ {
		c := s.Conversations[i]
		label := fmt.Sprintf("%2d %s", i+1, util.SingleLine(c.DisplayTitle()))
		label = util.PadWidth(util.TruncateWidth(label, inner), inner)
		if c.ID == s.Selected {
			lines = append(lines, s.theme.SidebarSelected.Render(label))
		} else {
			lines = append(lines, s.theme.SidebarItem.Render(label))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, s.theme.MutedText.Render(util.PadWidth("no conversations", inner)))
	}
	return s.theme.Sidebar.Width(SidebarWidth).Height(rows).Render(strings.Join(lines, "\n"))
}
