// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/ui/components"
	"github.com/mfaxmodem/teacher-assistant/internal/util"
)

const (
	headerHeight = 1
	inputHeight  = 2
	statusHeight = 1
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.theme.ShowSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderStatus(),
	)
}

func (m Model) threadWidth() int {
	w := m.width
	if m.theme.ShowSidebar() {
		w -= components.SidebarWidth + 2
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) renderHeader() string {
	h := components.NewHeader(m.theme)
	h.SetWidth(m.width)
	h.Username = m.sc.User.Username
	if id, ok := m.sc.Conversations.Selected(); ok {
		if c, found := m.sc.Conversations.Lookup(id); found {
			h.Conversation = c.DisplayTitle()
		}
	}
	return h.View()
}

func (m Model) renderSidebar() string {
	sb := components.NewSidebar(m.theme)
	sb.Conversations = m.conversations
	sb.Selected, _ = m.sc.Conversations.Selected()
	sb.Height = m.viewport.Height - 2
	return sb.View()
}

func (m Model) renderInput() string {
	view := m.input.View()
	if m.streaming {
		view = m.spinner.View() + " " + m.theme.Streaming.Render("receiving reply... (Esc to stop)")
	}
	return m.theme.InputContainer.Width(m.width).Render(view)
}

func (m Model) renderStatus() string {
	bar := components.NewStatusBar(m.theme)
	bar.SetWidth(m.width)
	bar.Notice, bar.NoticeIsError = m.notice, m.noticeIsError
	bar.Shortcuts = m.keys.ShortHelp()
	switch {
	case m.backendErr != nil:
		bar.Status = components.StatusOffline
	case m.streaming:
		bar.Status = components.StatusStreaming
	}
	return bar.View()
}

// =============================================================================
// THREAD
// =============================================================================

// refreshViewport re-renders the thread. follow keeps the view pinned to
// the newest message when it was already at the bottom.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderThread())
	if follow && (atBottom || m.streaming) {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderThread() string {
	if m.showHelp {
		return m.renderHelp()
	}

	msgs := m.sc.Thread.Messages()
	if len(msgs) == 0 {
		if m.greeting == "" {
			return ""
		}
		return m.theme.Greeting.Render(m.greeting)
	}

	var b strings.Builder
	if m.loadingOlder {
		b.WriteString(m.theme.MutedText.Render("loading older messages..."))
		b.WriteString("\n\n")
	} else if m.sc.Thread.HasMore() && m.sc.Thread.ConversationID() != "" {
		b.WriteString(m.theme.MutedText.Render("↑ older messages"))
		b.WriteString("\n\n")
	}
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg model.Message) string {
	width := m.viewport.Width - 8
	if width < 10 {
		width = 10
	}

	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
	if msg.Streaming {
		label += " " + m.spinner.View()
	}

	var content string
	switch {
	case msg.IsUser():
		content = m.theme.UserBubble.Width(width).Render(msg.Content)
	case msg.Failed:
		content = m.theme.ErrorBubble.Width(width).Render(msg.Content)
	case msg.Streaming:
		content = m.theme.AssistantBubble.Width(width).Render(msg.Content)
	default:
		content = m.theme.AssistantBubble.Render(m.renderMarkdown(msg, width))
	}

	out := label + "\n" + content
	if meta := m.renderRating(msg); meta != "" {
		out += "\n" + meta
	}
	return out
}

// renderMarkdown renders a finalized reply once and caches it by render
// key; finalized messages never change.
func (m *Model) renderMarkdown(msg model.Message, width int) string {
	if m.renderer == nil {
		return lipgloss.NewStyle().Width(width).Render(msg.Content)
	}
	if out, ok := m.rendered[msg.RenderKey()]; ok {
		return out
	}
	out, err := m.renderer.Render(msg.Content)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(msg.Content)
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.RenderKey()] = out
	return out
}

func (m Model) renderRating(msg model.Message) string {
	if !feedback.CanRate(msg) {
		return ""
	}
	up, down := "[+]", "[-]"
	switch m.sc.Feedback.Rating(msg.ID) {
	case model.RatingUp:
		up = m.theme.RatingUp.Render("[+]")
	case model.RatingDown:
		down = m.theme.RatingDown.Render("[-]")
	}
	return m.theme.MessageMeta.Render(fmt.Sprintf("#%d ", msg.ID)) + up + " " + down
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Commands"))
	b.WriteString("\n\n")
	for _, h := range commandHelp {
		b.WriteString(m.theme.ShortcutKey.Render(util.PadWidth(h[0], 18)))
		b.WriteString(m.theme.ShortcutDesc.Render(h[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.HeaderTitle.Render("Keys"))
	b.WriteString("\n\n")
	all := []key.Binding{m.keys.Submit, m.keys.Cancel, m.keys.NewChat, m.keys.PrevConv, m.keys.NextConv,
		m.keys.Up, m.keys.Down, m.keys.PageUp, m.keys.PageDown, m.keys.Home, m.keys.End, m.keys.Quit}
	for _, k := range all {
		h := k.Help()
		b.WriteString(m.theme.ShortcutKey.Render(util.PadWidth(h.Key, 18)))
		b.WriteString(m.theme.ShortcutDesc.Render(h.Desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.MutedText.Render("Esc to close"))
	return b.String()
}
