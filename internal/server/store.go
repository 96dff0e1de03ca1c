// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mfaxmodem/teacher-assistant/internal/model"
)

var (
	errDuplicateUser = errors.New("duplicate username")
	errBadLogin      = errors.New("bad credentials")
	errNoConv        = errors.New("conversation not found")
)

type userRow struct {
	model.User
	hash []byte
}

type convRow struct {
	id      string
	userID  int64
	title   string
	created time.Time
	seq     int64
}

type messageRow struct {
	id     int64
	convID string
	role   string // "user" or "model", as the real backend stores it
	body   string
}

type feedbackKey struct {
	messageID int64
	userID    int64
}

// store is the in-memory stand-in for the backend database.
type store struct {
	mu       sync.Mutex
	users    map[string]*userRow
	convs    map[string]*convRow
	messages []messageRow
	feedback map[feedbackKey]int
	nextUser int64
	nextMsg  int64
	nextConv int64
	starts   int
}

func newStore() *store {
	return &store{
		users:    make(map[string]*userRow),
		convs:    make(map[string]*convRow),
		feedback: make(map[feedbackKey]int),
	}
}

func (s *store) createUser(reg model.Registration) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[reg.Username]; ok {
		return model.User{}, errDuplicateUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.MinCost)
	if err != nil {
		return model.User{}, err
	}
	s.nextUser++
	row := &userRow{
		User: model.User{
			ID:         s.nextUser,
			Username:   reg.Username,
			Experience: reg.Experience,
			Subject:    reg.Subject,
			Field:      reg.Field,
		},
		hash: hash,
	}
	s.users[reg.Username] = row
	return row.User, nil
}

func (s *store) login(creds model.Credentials) (model.User, error) {
	s.mu.Lock()
	row, ok := s.users[creds.Username]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(row.hash, []byte(creds.Password)) != nil {
		return model.User{}, errBadLogin
	}
	return row.User, nil
}

func (s *store) startConversation(userID int64, title string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextConv++
	s.starts++
	id := uuid.NewString()
	s.convs[id] = &convRow{id: id, userID: userID, title: title, created: time.Now(), seq: s.nextConv}
	return id
}

// conversations returns userID's conversations, newest first.
func (s *store) conversations(userID int64) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []*convRow
	for _, c := range s.convs {
		if c.userID == userID {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	out := make([]model.Conversation, 0, len(rows))
	for _, c := range rows {
		out = append(out, model.Conversation{ID: c.id, Title: c.title})
	}
	return out
}

func (s *store) deleteConversation(id string, userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok || c.userID != userID {
		return false
	}
	delete(s.convs, id)
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.convID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return true
}

func (s *store) hasConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.convs[id]
	return ok
}

func (s *store) addMessage(convID, role, body string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMsg++
	s.messages = append(s.messages, messageRow{id: s.nextMsg, convID: convID, role: role, body: body})
	return s.nextMsg
}

// page mirrors the backend query: newest first with LIMIT/OFFSET, then
// reversed so each page reads oldest to newest.
func (s *store) page(convID string, page, limit int) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newestFirst []messageRow
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].convID == convID {
			newestFirst = append(newestFirst, s.messages[i])
		}
	}

	offset := (page - 1) * limit
	if offset >= len(newestFirst) {
		return []map[string]any{}
	}
	end := offset + limit
	if end > len(newestFirst) {
		end = len(newestFirst)
	}
	window := newestFirst[offset:end]

	out := make([]map[string]any, 0, len(window))
	for i := len(window) - 1; i >= 0; i-- {
		m := window[i]
		out = append(out, map[string]any{"id": m.id, "role": m.role, "content": m.body})
	}
	return out
}

func (s *store) setFeedback(messageID, userID int64, rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[feedbackKey{messageID, userID}] = rating
}

func (s *store) rating(messageID, userID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.feedback[feedbackKey{messageID, userID}]
	return r, ok
}

func (s *store) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}
