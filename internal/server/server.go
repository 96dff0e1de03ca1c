// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mfaxmodem/teacher-assistant/internal/logging"
	"github.com/mfaxmodem/teacher-assistant/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where the devserver listens, matching the real backend.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize caps JSON request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// DefaultPageLimit is used when /api/messages gets no limit.
	DefaultPageLimit = 20
)

// ============================================================================
// SERVER
// ============================================================================

// Replier produces the chunks of an assistant reply to message.
type Replier func(message string) []string

// EchoReplier answers by quoting the message back, one word per chunk.
func EchoReplier(message string) []string {
	words := strings.Fields(message)
	chunks := []string{"شما پرسیدید:"}
	for _, w := range words {
		chunks = append(chunks, " "+w)
	}
	return chunks
}

// Server is the in-memory backend.
type Server struct {
	router chi.Router
	store  *store
	log    *zap.Logger

	replier    Replier
	chunkDelay time.Duration

	mu        sync.Mutex
	faults    map[string]fault
	interrupt int // abort the next stream after this many chunks; 0 = off
	hold      chan struct{}

	server *http.Server
}

type fault struct {
	status int
	detail string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithReplier replaces the reply generator.
func WithReplier(r Replier) Option {
	return func(s *Server) { s.replier = r }
}

// WithChunkDelay pauses between streamed chunks.
func WithChunkDelay(d time.Duration) Option {
	return func(s *Server) { s.chunkDelay = d }
}

// New creates a Server.
func New(opts ...Option) *Server {
	s := &Server{
		store:   newStore(),
		replier: EchoReplier,
		faults:  make(map[string]fault),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrNop(s.log).Named("devserver")
	s.setupRoutes()
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(RecoveryMiddleware(s.log))
	r.Use(LoggingMiddleware(s.log))
	r.Use(CORSMiddleware())
	r.Use(s.faultMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Get("/conversations/{userID}", s.handleListConversations)
		r.Delete("/conversations/{conversationID}", s.handleDeleteConversation)
		r.Post("/start_conversation", s.handleStartConversation)
		r.Get("/messages/{conversationID}", s.handleListMessages)
		r.Post("/chat", s.handleChat)
		r.Post("/feedback", s.handleFeedback)
	})

	s.router = r
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if !s.decode(w, r, &req) {
		return
	}
	user, err := s.store.createUser(req)
	if errors.Is(err, errDuplicateUser) {
		s.writeError(w, http.StatusBadRequest, "نام کاربری تکراری است")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "کاربر با موفقیت ایجاد شد",
		"user":    map[string]any{"id": user.ID, "username": user.Username},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if !s.decode(w, r, &req) {
		return
	}
	user, err := s.store.login(req)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "نام کاربری یا رمز عبور اشتباه است")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "ورود موفقیت‌آمیز بود", "user": user})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		s.writeValidation(w, "user_id must be an integer")
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.conversations(userID))
}

func (s *Server) handleStartConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int64  `json:"user_id"`
		FirstMessage string `json:"first_message"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	id := s.store.startConversation(req.UserID, model.TitleFromMessage(req.FirstMessage))
	s.writeJSON(w, http.StatusOK, map[string]string{"conversation_id": id})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if !s.store.deleteConversation(chi.URLParam(r, "conversationID"), req.UserID) {
		s.writeError(w, http.StatusNotFound, "گفتگو یافت نشد")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "گفتگو با موفقیت حذف شد"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	page, limit := 1, DefaultPageLimit
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeValidation(w, "page must be a positive integer")
			return
		}
		page = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeValidation(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	s.writeJSON(w, http.StatusOK, s.store.page(chi.URLParam(r, "conversationID"), page, limit))
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req model.Feedback
	if !s.decode(w, r, &req) {
		return
	}
	s.store.setFeedback(req.MessageID, req.UserID, int(req.Rating))
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "بازخورد شما با موفقیت ثبت شد."})
}

// handleChat stores the user message, streams the reply chunk by chunk,
// stores the reply, and ends the body with the reply's id marker.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if !s.store.hasConversation(req.ConversationID) {
		s.writeError(w, http.StatusNotFound, "کاربر برای این گفتگو یافت نشد.")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	s.store.addMessage(req.ConversationID, "user", req.Message)

	s.mu.Lock()
	interruptAfter := s.interrupt
	s.interrupt = 0
	hold := s.hold
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var full strings.Builder
	for i, chunk := range s.replier(req.Message) {
		if interruptAfter > 0 && i == interruptAfter {
			s.log.Info("aborting stream", zap.String("conversation_id", req.ConversationID), zap.Int("after_chunks", i))
			panic(http.ErrAbortHandler)
		}
		full.WriteString(chunk)
		fmt.Fprint(w, chunk)
		flusher.Flush()

		if i == 0 && hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if s.chunkDelay > 0 {
			select {
			case <-time.After(s.chunkDelay):
			case <-r.Context().Done():
				return
			}
		}
	}

	id := s.store.addMessage(req.ConversationID, "model", full.String())
	fmt.Fprintf(w, "<!--ID:%d-->", id)
	flusher.Flush()
}

// ============================================================================
// TEST HOOKS
// ============================================================================

// Fail makes the next request to method+path fail with status and detail.
// path is matched on its first two segments, e.g. "/api/chat".
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+routeKey(path)] = fault{status: status, detail: detail}
}

// InterruptNextStream aborts the next chat stream after n chunks.
func (s *Server) InterruptNextStream(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interrupt = n
}

// HoldStreams pauses every chat stream after its first chunk until the
// returned release function is called.
func (s *Server) HoldStreams() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.hold = nil
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Rating returns the stored rating for a message and user.
func (s *Server) Rating(messageID, userID int64) (int, bool) {
	return s.store.rating(messageID, userID)
}

// StartCount returns how many conversations have been created.
func (s *Server) StartCount() int {
	return s.store.startCount()
}

// SeedUser registers a user directly and returns it.
func (s *Server) SeedUser(username, password string) (model.User, error) {
	return s.store.createUser(model.Registration{Username: username, Password: password})
}

// SeedConversation creates a conversation holding the given alternating
// user/assistant messages and returns its id.
func (s *Server) SeedConversation(userID int64, title string, messages ...string) string {
	id := s.store.startConversation(userID, title)
	for i, m := range messages {
		role := "user"
		if i%2 == 1 {
			role = "model"
		}
		s.store.addMessage(id, role, m)
	}
	return id
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + routeKey(r.URL.Path)
		s.mu.Lock()
		f, ok := s.faults[key]
		if ok {
			delete(s.faults, key)
		}
		s.mu.Unlock()

		if ok {
			if f.detail == "" {
				w.WriteHeader(f.status)
				return
			}
			s.writeError(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info("server start", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("server shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeValidation(w, "invalid request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the {"detail": "..."} body the client reads.
func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation writes a 422 whose detail is a list, like the real
// backend's request validation.
func (s *Server) writeValidation(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]string{{"msg": msg, "type": "value_error"}},
	})
}

func routeKey(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}
