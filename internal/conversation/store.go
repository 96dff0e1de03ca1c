// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/api"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
)

// Backend is the subset of the API client the store needs.
type Backend interface {
	ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error)
	StartConversation(ctx context.Context, userID int64, firstMessage string) (string, error)
	DeleteConversation(ctx context.Context, conversationID string, userID int64) error
}

// Store owns the conversation list and the selected conversation id.
// It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	backend Backend
	log     *zap.Logger

	conversations []model.Conversation
	selected      string
}

// NewStore creates an empty store. A nil logger discards output.
func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		log:     log.Named("conversation"),
	}
}

// List fetches the user's conversations and replaces the held list. On
// failure the held list is left as it was.
func (s *Store) List(ctx context.Context, userID int64) ([]model.Conversation, error) {
	convs, err := s.backend.ListConversations(ctx, userID)
	if err != nil {
		s.log.Warn("list conversations failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.conversations = append([]model.Conversation(nil), convs...)
	s.mu.Unlock()

	s.log.Debug("conversations listed", zap.Int64("user_id", userID), zap.Int("count", len(convs)))
	return s.Conversations(), nil
}

// Create starts a conversation titled from firstMessage and returns its id.
// The held list is not updated; call List to observe the new entry.
func (s *Store) Create(ctx context.Context, userID int64, firstMessage string) (string, error) {
	id, err := s.backend.StartConversation(ctx, userID, firstMessage)
	if err != nil {
		s.log.Warn("create conversation failed", zap.Int64("user_id", userID), zap.Error(err))
		return "", &api.ConversationCreateError{Err: err}
	}
	s.log.Info("conversation created", zap.Int64("user_id", userID), zap.String("conversation_id", id))
	return id, nil
}

// Delete removes a conversation on the backend. It reports whether the
// deleted conversation was selected, in which case the selection has been
// cleared and the caller must reset its message state.
func (s *Store) Delete(ctx context.Context, conversationID string, userID int64) (bool, error) {
	if err := s.backend.DeleteConversation(ctx, conversationID, userID); err != nil {
		s.log.Warn("delete conversation failed",
			zap.String("conversation_id", conversationID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return false, err
	}

	s.mu.Lock()
	wasSelected := s.selected == conversationID
	if wasSelected {
		s.selected = ""
	}
	s.mu.Unlock()

	s.log.Info("conversation deleted", zap.String("conversation_id", conversationID), zap.Bool("was_selected", wasSelected))
	return wasSelected, nil
}

// Select makes conversationID current. It does not fetch messages.
func (s *Store) Select(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = conversationID
}

// ClearSelection deselects the current conversation ("new chat").
func (s *Store) ClearSelection() {
	s.Select("")
}

// Selected returns the selected conversation id, if any.
func (s *Store) Selected() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected != ""
}

// IsSelected reports whether conversationID is the current selection.
func (s *Store) IsSelected(conversationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return conversationID != "" && s.selected == conversationID
}

// Conversations returns a copy of the held list, newest first.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Lookup returns the held conversation with the given id.
func (s *Store) Lookup(conversationID string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := model.FindConversation(s.conversations, conversationID)
	if i < 0 {
		return model.Conversation{}, false
	}
	return s.conversations[i], true
}

// Reset drops the list and the selection, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = nil
	s.selected = ""
}
