// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/config"
	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/session"
	"github.com/mfaxmodem/teacher-assistant/internal/stream"
	"github.com/mfaxmodem/teacher-assistant/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures the chat screen.
type Options struct {
	Manager  *session.Manager
	Context  *session.Context
	Health   HealthChecker
	Theme    *styles.Theme
	UI       config.UIConfig
	Greeting string
	Logger   *zap.Logger
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	mgr    *session.Manager
	sc     *session.Context
	health HealthChecker
	log    *zap.Logger

	theme    *styles.Theme
	keys     KeyMap
	greeting string
	markdown bool
	wrap     int
	renderer *glamour.TermRenderer
	rendered map[string]string // finalized replies by render key

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	relay    *Relay

	conversations []model.Conversation
	streaming     bool
	loadingOlder  bool
	pendingDelete string
	showHelp      bool
	backendErr    error
	notice        string
	noticeIsError bool
	quitting      bool

	width  int
	height int
	ready  bool
}

// New creates the chat screen for a signed-in context. It registers itself
// as the manager's streaming observer.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(opts.UI.Theme)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	input := textinput.New()
	input.Placeholder = "پیام خود را بنویسید..."
	input.Prompt = theme.InputPrompt.Render("> ")
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	wrap := opts.UI.WordWrap
	if wrap <= 0 {
		wrap = 80
	}

	m := Model{
		mgr:      opts.Manager,
		sc:       opts.Context,
		health:   opts.Health,
		log:      log.Named("ui"),
		theme:    theme,
		keys:     DefaultKeyMap(),
		greeting: opts.Greeting,
		markdown: opts.UI.Markdown,
		wrap:     wrap,
		rendered: make(map[string]string),
		viewport: viewport.New(0, 0),
		input:    input,
		spinner:  sp,
		relay:    NewRelay(),
	}
	m.renderer = m.newRenderer(wrap)

	if m.mgr != nil {
		m.mgr.SetObserver(m.relay.Push)
	}
	return m
}

func (m Model) newRenderer(width int) *glamour.TermRenderer {
	if !m.markdown {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	return r
}

// Init loads the conversation list, reopens the last conversation and
// checks the backend.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.relay.Wait(),
		resumeCmd(m.sc),
		healthCmd(m.health),
	)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StreamUpdateMsg:
		m.streaming = msg.Update.State.Busy()
		m.refreshViewport(true)
		return m, m.relay.Wait()

	case SendDoneMsg:
		return m.handleSendDone(msg)

	case ConversationsMsg:
		if msg.Err != nil {
			m.setError("could not load conversations", msg.Err)
		} else {
			m.conversations = msg.Conversations
		}
		m.refreshViewport(true)
		return m, nil

	case OpenedMsg:
		if msg.Err != nil {
			m.setError("could not load messages", msg.Err)
		}
		m.refreshViewport(true)
		return m, nil

	case OlderMsg:
		m.loadingOlder = false
		if msg.Err != nil {
			m.setError("could not load older messages", msg.Err)
		} else if msg.Count > 0 {
			m.setNotice(fmt.Sprintf("loaded %d older messages", msg.Count))
		}
		m.refreshViewport(false)
		if msg.Count > 0 {
			m.viewport.GotoTop()
		}
		return m, nil

	case RatedMsg:
		if msg.Err != nil {
			m.setError("cannot rate this message", msg.Err)
		} else {
			m.setNotice("feedback sent")
		}
		m.refreshViewport(false)
		return m, nil

	case DeletedMsg:
		if msg.Err != nil {
			m.setError("could not delete conversation", msg.Err)
		} else {
			m.conversations = m.sc.Conversations.Conversations()
			m.setNotice("conversation deleted")
		}
		m.refreshViewport(true)
		return m, nil

	case LoggedOutMsg:
		if msg.Err != nil {
			m.log.Warn("logout incomplete", zap.Error(msg.Err))
		}
		m.quitting = true
		return m, tea.Quit

	case ConfigMsg:
		m.applyConfig(msg)
		return m, nil

	case HealthMsg:
		m.backendErr = msg.Err
		if msg.Err != nil {
			m.setError("backend unreachable", msg.Err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width, m.height = msg.Width, msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	w := m.threadWidth()
	h := msg.Height - headerHeight - inputHeight - statusHeight
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = msg.Width - 4

	wrap := m.wrap
	if w-6 < wrap {
		wrap = w - 6
	}
	if wrap < 20 {
		wrap = 20
	}
	m.renderer = m.newRenderer(wrap)
	m.rendered = make(map[string]string)
	m.ready = true
	m.refreshViewport(true)
}

// applyConfig swaps theme and markdown settings. Rendered replies are
// discarded so they are redrawn with the new settings.
func (m *Model) applyConfig(msg ConfigMsg) {
	if msg.UI.Theme != "" && msg.UI.Theme != m.theme.Name {
		m.theme = styles.NewTheme(msg.UI.Theme)
		m.input.Prompt = m.theme.InputPrompt.Render("> ")
		m.spinner.Style = m.theme.Spinner
	}
	if msg.UI.WordWrap > 0 {
		m.wrap = msg.UI.WordWrap
	}
	m.markdown = msg.UI.Markdown
	if msg.Greeting != "" {
		m.greeting = msg.Greeting
	}
	if m.ready {
		m.handleResize(tea.WindowSizeMsg{Width: m.width, Height: m.height})
	} else {
		m.renderer = m.newRenderer(m.wrap)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.streaming {
			m.sc.Stream.Cancel()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.streaming {
			m.sc.Stream.Cancel()
			m.setNotice("reply stopped")
		}
		m.pendingDelete = ""
		if m.showHelp {
			m.showHelp = false
			m.refreshViewport(false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NewChat):
		return m.runCommand(Command{Name: "new"})

	case key.Matches(msg, m.keys.NextConv):
		return m.stepConversation(1)

	case key.Matches(msg, m.keys.PrevConv):
		return m.stepConversation(-1)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.Home):
		atTop := m.viewport.AtTop()
		switch {
		case key.Matches(msg, m.keys.Up):
			m.viewport.LineUp(1)
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.ViewUp()
		default:
			m.viewport.GotoTop()
		}
		if atTop {
			return m.loadOlder()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	if m.pendingDelete != "" {
		id := m.pendingDelete
		m.pendingDelete = ""
		m.input.Reset()
		if strings.EqualFold(input, "y") || strings.EqualFold(input, "yes") || input == "بله" {
			return m, deleteCmd(m.sc, id)
		}
		m.setNotice("delete cancelled")
		return m, nil
	}

	if cmd, ok := ParseCommand(input); ok {
		m.input.Reset()
		return m.runCommand(cmd)
	}

	if m.streaming || m.sc.Stream.Busy() {
		m.setNotice("wait for the current reply to finish")
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.notice = ""
	m.refreshViewport(true)
	return m, sendCmd(m.sc, MessageText(input))
}

func (m Model) handleSendDone(msg SendDoneMsg) (tea.Model, tea.Cmd) {
	m.streaming = false
	switch {
	case errors.Is(msg.Err, stream.ErrBusy):
		m.setNotice("wait for the current reply to finish")
	case msg.Err != nil:
		m.setError("not sent", msg.Err)
	case msg.Result.Err != nil:
		m.log.Warn("reply failed", zap.Error(msg.Result.Err))
	}
	m.refreshViewport(true)

	if msg.Result.Created {
		m.conversations = m.sc.Conversations.Conversations()
	}
	return m, nil
}

func (m Model) runCommand(cmd Command) (tea.Model, tea.Cmd) {
	m.showHelp = false
	switch cmd.Name {
	case "new":
		if m.streaming {
			m.setNotice("wait for the current reply to finish")
			return m, nil
		}
		m.sc.NewChat()
		m.setNotice("new chat")
		m.refreshViewport(true)
		return m, nil

	case "list":
		return m, refreshCmd(m.sc)

	case "open":
		id, ok := m.resolveConversation(cmd.Arg)
		if !ok {
			m.setNotice("no such conversation: " + cmd.Arg)
			return m, nil
		}
		return m.open(id)

	case "delete":
		id, ok := m.resolveConversation(cmd.Arg)
		if !ok {
			m.setNotice("no such conversation: " + cmd.Arg)
			return m, nil
		}
		m.pendingDelete = id
		conv, _ := m.sc.Conversations.Lookup(id)
		m.setNotice(fmt.Sprintf("delete %q? type y to confirm", conv.DisplayTitle()))
		return m, nil

	case "up", "down":
		rating := model.RatingUp
		if cmd.Name == "down" {
			rating = model.RatingDown
		}
		target, ok := m.latestRatable()
		if !ok {
			m.setError("cannot rate this message", feedback.ErrNoMessageID)
			return m, nil
		}
		return m, rateCmd(m.sc, target, rating)

	case "more":
		return m.loadOlder()

	case "logout":
		if m.mgr == nil {
			return m, nil
		}
		return m, logoutCmd(m.mgr)

	case "help":
		m.showHelp = true
		m.refreshViewport(false)
		return m, nil

	case "quit", "exit":
		m.quitting = true
		return m, tea.Quit

	default:
		m.setNotice("unknown command /" + cmd.Name + " (try /help)")
		return m, nil
	}
}

func (m Model) open(id string) (tea.Model, tea.Cmd) {
	if m.streaming {
		m.setNotice("wait for the current reply to finish")
		return m, nil
	}
	m.pendingDelete = ""
	return m, openCmd(m.sc, id)
}

func (m Model) loadOlder() (tea.Model, tea.Cmd) {
	if m.loadingOlder || !m.sc.Thread.HasMore() || m.sc.Thread.ConversationID() == "" {
		return m, nil
	}
	m.loadingOlder = true
	return m, olderCmd(m.sc)
}

func (m Model) stepConversation(delta int) (tea.Model, tea.Cmd) {
	if len(m.conversations) == 0 {
		return m, nil
	}
	current, _ := m.sc.Conversations.Selected()
	idx := -1
	for i, c := range m.conversations {
		if c.ID == current {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = len(m.conversations) - 1
	}
	if idx >= len(m.conversations) {
		idx = 0
	}
	return m.open(m.conversations[idx].ID)
}

// resolveConversation accepts a 1-based list number or a conversation id.
func (m Model) resolveConversation(arg string) (string, bool) {
	if arg == "" {
		return "", false
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(m.conversations) {
			return m.conversations[n-1].ID, true
		}
		return "", false
	}
	for _, c := range m.conversations {
		if c.ID == arg {
			return c.ID, true
		}
	}
	return "", false
}

// latestRatable returns the newest reply that can receive feedback.
func (m Model) latestRatable() (model.Message, bool) {
	msgs := m.sc.Thread.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() {
			return msgs[i], feedback.CanRate(msgs[i])
		}
	}
	return model.Message{}, false
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeIsError = false
}

func (m *Model) setError(what string, err error) {
	m.notice = what + ": " + api.Message(err)
	m.noticeIsError = true
	m.log.Warn(what, zap.Error(err))
}

// Quitting reports whether the screen asked to exit.
func (m Model) Quitting() bool {
	return m.quitting
}
