// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/mfaxmodem/teacher-assistant/internal/model"
)

// ErrNoProfile is returned by Load when no user is signed in.
var ErrNoProfile = errors.New("no saved profile")

const schema = `
CREATE TABLE IF NOT EXISTS profile (
	slot       INTEGER PRIMARY KEY CHECK (slot = 1),
	user_id    INTEGER NOT NULL,
	username   TEXT NOT NULL,
	experience INTEGER NOT NULL DEFAULT 0,
	subject    TEXT NOT NULL DEFAULT '',
	field      TEXT NOT NULL DEFAULT '',
	saved_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS last_conversation (
	user_id         INTEGER PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	updated_at      INTEGER NOT NULL
);
`

// =============================================================================
// PROFILE STORE
// =============================================================================

// ProfileStore persists the signed-in user.
type ProfileStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenProfileStore opens or creates the database at path. Use ":memory:"
// for a throwaway store.
func OpenProfileStore(path string) (*ProfileStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create profile directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &ProfileStore{db: db, path: path}, nil
}

// Path returns the database location.
func (s *ProfileStore) Path() string {
	return s.path
}

// Save replaces the stored profile with user.
func (s *ProfileStore) Save(ctx context.Context, user model.User) error {
	if !user.Valid() {
		return fmt.Errorf("cannot save profile: invalid user %q", user.Username)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (slot, user_id, username, experience, subject, field, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			user_id = excluded.user_id,
			username = excluded.username,
			experience = excluded.experience,
			subject = excluded.subject,
			field = excluded.field,
			saved_at = excluded.saved_at`,
		user.ID, user.Username, user.Experience, user.Subject, user.Field, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Load returns the stored profile or ErrNoProfile.
func (s *ProfileStore) Load(ctx context.Context) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var u model.User
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, experience, subject, field FROM profile WHERE slot = 1`).
		Scan(&u.ID, &u.Username, &u.Experience, &u.Subject, &u.Field)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNoProfile
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return u, nil
}

// Clear removes the stored profile. Remembered conversations are kept.
func (s *ProfileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile`); err != nil {
		return fmt.Errorf("failed to clear profile: %w", err)
	}
	return nil
}

// =============================================================================
// LAST CONVERSATION
// =============================================================================

// SetLastConversation remembers the conversation userID last opened. An
// empty id forgets it.
func (s *ProfileStore) SetLastConversation(ctx context.Context, userID int64, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if conversationID == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM last_conversation WHERE user_id = ?`, userID)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO last_conversation (user_id, conversation_id, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				conversation_id = excluded.conversation_id,
				updated_at = excluded.updated_at`,
			userID, conversationID, time.Now().Unix())
	}
	if err != nil {
		return fmt.Errorf("failed to save last conversation: %w", err)
	}
	return nil
}

// LastConversation returns the conversation userID last opened, or "".
func (s *ProfileStore) LastConversation(ctx context.Context, userID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id FROM last_conversation WHERE user_id = ?`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load last conversation: %w", err)
	}
	return id, nil
}

// Close closes the database.
func (s *ProfileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
