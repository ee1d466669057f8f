// Package session keeps the per-user state of the application: the
// code-generation client with its history and usage record, the chatbot
// transcript and the last resume analysis.
package session

import (
	"context"
	"sync"
	"time"

	"careercoach/internal/ai"
	"careercoach/internal/chat"
	"careercoach/internal/codegen"
	"careercoach/internal/stats"
)

// Session is the state of one user.
type Session struct {
	ID        string
	CreatedAt time.Time

	Codegen *codegen.Client
	Chat    *chat.Conversation

	mu       sync.Mutex
	analysis *ai.Result
	lastSeen time.Time
	inUse    int
}

func newSession(id string, client *codegen.Client, conv *chat.Conversation) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		Codegen:   client,
		Chat:      conv,
		lastSeen:  now,
	}
}

// Tracker returns the usage record shared by every feature of the session.
func (s *Session) Tracker() *stats.Tracker {
	return s.Codegen.Tracker()
}

// Context attaches the session's usage tracker to ctx.
func (s *Session) Context(ctx context.Context) context.Context {
	return stats.WithTracker(ctx, s.Tracker())
}

// SetAnalysis remembers r for export.
func (s *Session) SetAnalysis(r *ai.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = r
}

// LastAnalysis returns the most recent analysis, if any.
func (s *Session) LastAnalysis() (*ai.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis, s.analysis != nil
}

// Reset clears the code-generation state. With all set it also zeroes every
// counter and forgets the chat transcript and the last analysis.
func (s *Session) Reset(ctx context.Context, all bool) {
	if !all {
		s.Codegen.Reset(ctx)
		return
	}
	s.Codegen.ResetAll(ctx)
	s.Chat.Clear()
	s.SetAnalysis(nil)
}

// acquire marks the session busy until the matching Release.
func (s *Session) acquire() {
	s.mu.Lock()
	s.inUse++
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Release ends a use started by Manager.Get.
func (s *Session) Release() {
	s.mu.Lock()
	if s.inUse > 0 {
		s.inUse--
	}
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// idleSince returns when the session was last used and whether a use is
// still in progress.
func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.inUse > 0
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s and its usage tracker.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(s.Context(ctx), sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
