// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pager

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

// DefaultPageSize matches the backend's default limit.
const DefaultPageSize = 20

// ErrSuperseded is returned by LoadNextPage when the pager was reset while
// the page was in flight. The page was discarded.
var ErrSuperseded = errors.New("page load superseded")

// Fetcher loads one page of a conversation's history, oldest-first.
type Fetcher interface {
	ListMessages(ctx context.Context, conversationID string, page, limit int) ([]model.Message, error)
}

// State is a point-in-time copy of the pager.
type State struct {
	ConversationID string
	Page           int
	HasMore        bool
	Loading        bool
	Messages       []model.Message
}

// Pager holds the thread for one conversation at a time.
type Pager struct {
	mu sync.Mutex

	fetcher  Fetcher
	pageSize int
	log      *zap.Logger
	metrics  *telemetry.Metrics

	conversationID string
	page           int
	hasMore        bool
	loading        bool
	messages       []model.Message

	// generation changes on every Reset so in-flight loads can tell they
	// are stale.
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Pager.
type Option func(*Pager)

// WithLogger sets the pager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pager) {
		if l != nil {
			p.log = l.Named("pager")
		}
	}
}

// WithMetrics records page loads.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Pager) { p.metrics = m }
}

// New creates a pager with no conversation bound. A pageSize below 1 uses
// DefaultPageSize.
func New(fetcher Fetcher, pageSize int, opts ...Option) *Pager {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	p := &Pager{
		fetcher:  fetcher,
		pageSize: pageSize,
		log:      zap.NewNop(),
		page:     1,
		hasMore:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// Reset clears the thread and binds the pager to conversationID, which may
// be empty for a new chat. Any in-flight load is cancelled and its result
// will be discarded.
func (p *Pager) Reset(conversationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	p.conversationID = conversationID
	p.page = 1
	p.hasMore = true
	p.loading = false
	p.messages = nil
}

// Adopt binds an unbound pager to a newly created conversation without
// clearing the thread. The thread already holds everything the new
// conversation contains, so there is no older history to load.
// gen is the generation returned by AppendTracked for the first message.
// It reports false if the pager was reset since then or is already bound
// to another conversation.
func (p *Pager) Adopt(conversationID string, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return false
	}
	switch p.conversationID {
	case conversationID:
		return true
	case "":
		p.conversationID = conversationID
		p.hasMore = false
		return true
	default:
		return false
	}
}

// LoadNextPage fetches the next older page. It returns (nil, nil) without
// fetching when a load is already running, the history is exhausted, or no
// conversation is bound. On failure hasMore is unchanged so the load can
// be retried.
func (p *Pager) LoadNextPage(ctx context.Context) ([]model.Message, error) {
	p.mu.Lock()
	if p.loading || !p.hasMore || p.conversationID == "" {
		p.mu.Unlock()
		return nil, nil
	}
	p.loading = true
	convID := p.conversationID
	page := p.page
	gen := p.generation
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	defer cancel()

	p.log.Debug("loading page", zap.String("conversation_id", convID), zap.Int("page", page))
	msgs, err := p.fetcher.ListMessages(ctx, convID, page, p.pageSize)

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		p.log.Debug("discarding stale page", zap.String("conversation_id", convID), zap.Int("page", page))
		return nil, ErrSuperseded
	}
	p.loading = false
	p.cancel = nil

	if err != nil {
		p.metrics.RecordPage(false)
		p.log.Warn("page load failed",
			zap.String("conversation_id", convID),
			zap.Int("page", page),
			zap.Error(err))
		return nil, err
	}
	p.metrics.RecordPage(true)

	if len(msgs) < p.pageSize {
		p.hasMore = false
	}
	if page == 1 {
		p.messages = append([]model.Message(nil), msgs...)
	} else {
		merged := make([]model.Message, 0, len(msgs)+len(p.messages))
		merged = append(merged, msgs...)
		p.messages = append(merged, p.messages...)
	}
	p.page++

	return append([]model.Message(nil), msgs...), nil
}

// =============================================================================
// THREAD MUTATION
// =============================================================================

// Append adds msg to the end of the thread if conversationID is still the
// bound conversation. It reports whether the message was applied.
func (p *Pager) Append(conversationID string, msg model.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conversationID != p.conversationID {
		return false
	}
	if n := len(p.messages); n > 0 && p.messages[n-1].Streaming && msg.Streaming {
		return false
	}
	p.messages = append(p.messages, msg)
	return true
}

// AppendTracked is Append that also returns the generation the message
// was applied under.
func (p *Pager) AppendTracked(conversationID string, msg model.Message) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conversationID != p.conversationID {
		return p.generation, false
	}
	p.messages = append(p.messages, msg)
	return p.generation, true
}

// ReplaceTail swaps the last message for msg when the last message has the
// same render key. Only the open streaming message is ever replaced.
func (p *Pager) ReplaceTail(conversationID string, msg model.Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conversationID != p.conversationID {
		return false
	}
	n := len(p.messages)
	if n == 0 || p.messages[n-1].Key != msg.Key || !p.messages[n-1].Streaming {
		return false
	}
	p.messages[n-1] = msg
	return true
}

// RemoveTail drops the last message when it has the given render key and
// is still open. Used to discard an empty placeholder.
func (p *Pager) RemoveTail(conversationID, key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conversationID != p.conversationID {
		return false
	}
	n := len(p.messages)
	if n == 0 || p.messages[n-1].Key != key || !p.messages[n-1].Streaming {
		return false
	}
	p.messages = p.messages[:n-1]
	return true
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ConversationID returns the bound conversation, or "" for a new chat.
func (p *Pager) ConversationID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conversationID
}

// Messages returns a copy of the thread.
func (p *Pager) Messages() []model.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Message(nil), p.messages...)
}

// Message returns the message with the given render key.
func (p *Pager) Message(key string) (model.Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.messages {
		if m.Key == key {
			return m, true
		}
	}
	return model.Message{}, false
}

// Generation returns a counter that changes on every Reset.
func (p *Pager) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// HasMore reports whether older history may remain.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Loading reports whether a page load is running.
func (p *Pager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Snapshot returns a copy of the full pager state.
func (p *Pager) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		ConversationID: p.conversationID,
		Page:           p.page,
		HasMore:        p.hasMore,
		Loading:        p.loading,
		Messages:       append([]model.Message(nil), p.messages...),
	}
}
