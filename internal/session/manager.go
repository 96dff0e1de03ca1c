// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/conversation"
	"github.com/mfaxmodem/teacher-assistant/internal/feedback"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
	"github.com/mfaxmodem/teacher-assistant/internal/pager"
	"github.com/mfaxmodem/teacher-assistant/internal/storage"
	"github.com/mfaxmodem/teacher-assistant/internal/stream"
	"github.com/mfaxmodem/teacher-assistant/internal/telemetry"
)

// ErrNotLoggedIn is returned when an operation needs a signed-in user.
var ErrNotLoggedIn = errors.New("not logged in")

// Backend is everything a session needs from the API client.
type Backend interface {
	Register(ctx context.Context, reg model.Registration) (model.User, error)
	Login(ctx context.Context, creds model.Credentials) (model.User, error)

	conversation.Backend
	pager.Fetcher
	stream.Chatter
	feedback.Sender
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Config holds what the manager builds user contexts from.
type Config struct {
	Backend Backend

	// Profiles persists the signed-in user. Optional.
	Profiles *storage.ProfileStore

	PageSize     int
	ErrorMessage string

	Logger  *zap.Logger
	Metrics *telemetry.Metrics
}

// Manager owns the current user context.
type Manager struct {
	backend  Backend
	profiles *storage.ProfileStore
	pageSize int
	errText  string
	log      *zap.Logger
	metrics  *telemetry.Metrics

	mu       sync.Mutex
	current  *Context
	observer func(stream.Update)
}

// NewManager creates a manager with nobody signed in.
func NewManager(cfg Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		backend:  cfg.Backend,
		profiles: cfg.Profiles,
		pageSize: cfg.PageSize,
		errText:  cfg.ErrorMessage,
		log:      log.Named("session"),
		metrics:  cfg.Metrics,
	}
}

// SetObserver receives streaming updates from every context.
func (m *Manager) SetObserver(fn func(stream.Update)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = fn
}

func (m *Manager) notify(u stream.Update) {
	m.mu.Lock()
	fn := m.observer
	m.mu.Unlock()
	if fn != nil {
		fn(u)
	}
}

// Current returns the signed-in context or ErrNotLoggedIn.
func (m *Manager) Current() (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNotLoggedIn
	}
	return m.current, nil
}

// Login signs in and saves the profile.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (*Context, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("username and password are required")
	}

	user, err := m.backend.Login(ctx, creds)
	if err != nil {
		m.log.Warn("login failed", zap.String("username", creds.Username), zap.Error(err))
		return nil, err
	}

	if m.profiles != nil {
		if err := m.profiles.Save(ctx, user); err != nil {
			m.log.Warn("profile not saved", zap.Error(err))
		}
	}
	return m.start(user), nil
}

// Register creates an account and then signs in with it.
func (m *Manager) Register(ctx context.Context, reg model.Registration) (*Context, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Username == "" || reg.Password == "" {
		return nil, errors.New("username and password are required")
	}

	if _, err := m.backend.Register(ctx, reg); err != nil {
		m.log.Warn("registration failed", zap.String("username", reg.Username), zap.Error(err))
		return nil, err
	}
	m.log.Info("registered", zap.String("username", reg.Username))
	return m.Login(ctx, model.Credentials{Username: reg.Username, Password: reg.Password})
}

// Resume signs in as the saved profile without contacting the backend.
// It returns storage.ErrNoProfile when nobody is saved.
func (m *Manager) Resume(ctx context.Context) (*Context, error) {
	if m.profiles == nil {
		return nil, storage.ErrNoProfile
	}
	user, err := m.profiles.Load(ctx)
	if err != nil {
		return nil, err
	}
	return m.start(user), nil
}

// Logout tears down the current context and forgets the saved profile.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	sc := m.current
	m.current = nil
	m.mu.Unlock()

	if sc != nil {
		sc.close()
		m.log.Info("logged out", zap.Stringer("user", sc.User), zap.String("session_id", sc.ID))
	}
	if m.profiles != nil {
		if err := m.profiles.Clear(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	return nil
}

func (m *Manager) start(user model.User) *Context {
	sc := newContext(m, user)

	m.mu.Lock()
	prev := m.current
	m.current = sc
	m.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	m.log.Info("session started", zap.Stringer("user", user), zap.String("session_id", sc.ID))
	return sc
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}
