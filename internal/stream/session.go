// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/conversation"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/pager"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

// =============================================================================
// STATES
// =============================================================================

// State is the phase of the send in progress.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateSending
	StateStreaming
	StateFinalizing
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Busy reports whether a send is in progress in this state.
func (s State) Busy() bool {
	return s != StateIdle
}

var (
	// ErrBusy is returned when Send is called while another send runs.
	ErrBusy = errors.New("a reply is already streaming")

	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Chatter opens the streamed reply for a message.
type Chatter interface {
	Chat(ctx context.Context, conversationID, message string) (io.ReadCloser, error)
}

// Update is delivered to the observer on every state change and on every
// decoded increment while streaming.
type Update struct {
	State          State
	ConversationID string

	// Message is the assistant reply as it currently stands: the open
	// draft while streaming, the finalized record afterwards.
	Message model.Message
}

// Result describes a completed send.
type Result struct {
	ConversationID string
	Created        bool
	Reply          model.Message

	// Err is the failure that was turned into the error reply, if any.
	Err error
}

// Config wires a Session.
type Config struct {
	Chat          Chatter
	Conversations *conversation.Store
	Thread        *pager.Pager
	UserID        int64

	// ErrorMessage replaces a reply that failed.
	ErrorMessage string

	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
	Observer func(Update)
}

// =============================================================================
// SESSION
// =============================================================================

// Session sends one message at a time for a single user.
type Session struct {
	chat     Chatter
	convs    *conversation.Store
	thread   *pager.Pager
	userID   int64
	errText  string
	log      *zap.Logger
	metrics  *telemetry.Metrics
	observer func(Update)

	mu     sync.Mutex
	state  State
	open   *openMessage
	cancel context.CancelFunc
}

// NewSession creates an idle session.
func NewSession(cfg Config) *Session {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		chat:     cfg.Chat,
		convs:    cfg.Conversations,
		thread:   cfg.Thread,
		userID:   cfg.UserID,
		errText:  cfg.ErrorMessage,
		log:      log.Named("stream"),
		metrics:  cfg.Metrics,
		observer: cfg.Observer,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a send is in progress. Input should be disabled
// while it is true.
func (s *Session) Busy() bool {
	return s.State().Busy()
}

// Draft returns the reply being streamed, if any.
func (s *Session) Draft() (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == nil {
		return model.Message{}, false
	}
	return s.open.snapshot(), true
}

// Cancel stops the send in progress. A reply that had started streaming
// keeps its partial text, or is dropped if nothing arrived. A send that
// had not reached the stream yet ends with the error reply.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Send shows text as the user's message, creates a conversation if none is
// selected, and streams the reply into the thread. Transport failures do
// not return an error: they become the error reply and are reported in
// Result.Err. Only ErrBusy and ErrEmptyMessage are returned.
func (s *Session) Send(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyMessage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.state.Busy() {
		s.mu.Unlock()
		return Result{}, ErrBusy
	}
	s.state = StateResolving
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.open = nil
		s.cancel = nil
		s.mu.Unlock()
	}()

	convID, _ := s.convs.Selected()
	gen, _ := s.thread.AppendTracked(convID, model.NewUserMessage(text))
	s.emit(StateResolving, convID, model.Message{})

	res := Result{ConversationID: convID}

	if convID == "" {
		id, err := s.convs.Create(ctx, s.userID, text)
		if err != nil {
			res.Err = err
			s.fail(convID, gen, err)
			return res, nil
		}
		res.ConversationID, res.Created = id, true

		if _, err := s.convs.List(ctx, s.userID); err != nil {
			s.log.Warn("refresh after create failed", zap.Error(err))
		}
		// The user may have opened another conversation, or started a
		// new chat, meanwhile.
		if s.thread.Adopt(id, gen) {
			s.convs.Select(id)
		}
		convID = id
	}

	return s.stream(ctx, res, text, gen), nil
}

func (s *Session) stream(ctx context.Context, res Result, text string, gen uint64) Result {
	convID := res.ConversationID
	s.setState(StateSending)
	s.emit(StateSending, convID, model.Message{})

	done := s.metrics.StreamStarted()
	body, err := s.chat.Chat(ctx, convID, text)
	if err != nil {
		done(outcomeFor(ctx), 0)
		res.Err = err
		s.fail(convID, gen, err)
		return res
	}
	defer body.Close()

	open := newOpenMessage(convID)
	s.mu.Lock()
	s.open = open
	s.state = StateStreaming
	s.mu.Unlock()

	s.thread.Append(convID, open.snapshot())
	s.emit(StateStreaming, convID, open.snapshot())

	reader := NewReader(body)
	full, err := reader.Process(ctx, func(full string) {
		draft := open.update(full)
		s.thread.ReplaceTail(convID, draft)
		s.emit(StateStreaming, convID, draft)
	})

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			done(telemetry.OutcomeCancelled, reader.BytesRead())
			res.Reply = s.abandon(open, full)
			res.Err = err
			return res
		}
		done(telemetry.OutcomeFailed, reader.BytesRead())
		res.Err = err
		s.fail(convID, gen, err)
		return res
	}

	s.setState(StateFinalizing)
	final := open.finalize(full)
	s.thread.ReplaceTail(convID, final)
	done(telemetry.OutcomeCompleted, reader.BytesRead())

	if !final.HasID() {
		s.log.Warn("reply carried no id marker", zap.String("conversation_id", convID))
	}
	s.log.Debug("reply finalized",
		zap.String("conversation_id", convID),
		zap.Int64("message_id", final.ID),
		zap.Int("bytes", reader.BytesRead()))

	s.emit(StateIdle, convID, final)
	res.Reply = final
	return res
}

// fail replaces the open reply, or appends one, with the error message.
// The thread is left alone if it was reset since the send began.
func (s *Session) fail(convID string, gen uint64, cause error) {
	s.setState(StateErrored)
	s.log.Error("send failed", zap.String("conversation_id", convID), zap.Error(cause))

	msg := model.NewMessage(model.RoleAssistant, s.errText)
	msg.Failed = true

	s.mu.Lock()
	open := s.open
	s.mu.Unlock()

	switch {
	case s.thread.Generation() != gen:
	case open != nil:
		msg.Key = open.key()
		if !s.thread.ReplaceTail(convID, msg) {
			s.thread.Append(convID, msg)
		}
	default:
		s.thread.Append(convID, msg)
	}
	s.emit(StateErrored, convID, msg)
	s.emit(StateIdle, convID, msg)
}

// abandon closes a cancelled reply, keeping what arrived.
func (s *Session) abandon(open *openMessage, full string) model.Message {
	final := open.finalize(full)
	if strings.TrimSpace(final.Content) == "" {
		s.thread.RemoveTail(open.conversationID, open.key())
	} else {
		s.thread.ReplaceTail(open.conversationID, final)
	}
	s.log.Info("reply cancelled", zap.String("conversation_id", open.conversationID))
	s.emit(StateIdle, open.conversationID, final)
	return final
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) emit(state State, convID string, msg model.Message) {
	if s.observer != nil {
		s.observer(Update{State: state, ConversationID: convID, Message: msg})
	}
}

func outcomeFor(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return telemetry.OutcomeCancelled
	}
	return telemetry.OutcomeFailed
}

// =============================================================================
// OPEN MESSAGE
// =============================================================================

// openMessage is the only mutable message. Callers only ever see copies;
// finalize produces the immutable record that replaces it in the thread.
type openMessage struct {
	mu             sync.Mutex
	conversationID string
	msg            model.Message
}

func newOpenMessage(convID string) *openMessage {
	return &openMessage{conversationID: convID, msg: model.NewAssistantMessage()}
}

func (o *openMessage) key() string {
	return o.msg.Key
}

func (o *openMessage) update(full string) model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msg.Content = VisibleText(full)
	return o.msg
}

func (o *openMessage) snapshot() model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.msg
}

func (o *openMessage) finalize(full string) model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	clean, id, _ := ExtractMessageID(full)
	final := o.msg
	final.Content = clean
	final.ID = id
	final.Streaming = false
	return final
}
