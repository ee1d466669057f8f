package session

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"careercoach/internal/chat"
	"careercoach/internal/codegen"
	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/observability"
	"careercoach/internal/resilience"
	"careercoach/internal/stats"

	"github.com/google/uuid"
)

// validID keeps session ids safe to embed in file names.
var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Manager creates and looks up sessions. Sessions sharing the process
// share the code-generation circuit breaker but nothing else.
type Manager struct {
	cfg     *config.Config
	metrics *observability.Metrics
	logger  *errors.Logger
	breaker *resilience.Breaker[string]
	store   *stats.SQLiteStore

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager prepares the configured stats backend.
func NewManager(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *errors.Logger) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger.With("component", "session"),
		breaker:  resilience.NewBreaker[string]("codegen", cfg.Codegen.CircuitBreaker, logger),
		sessions: make(map[string]*Session),
	}

	if cfg.Stats.Backend == "sqlite" {
		path := cfg.Stats.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Stats.Dir, path)
		}
		store, err := stats.OpenSQLiteStore(ctx, path)
		if err != nil {
			return nil, err
		}
		m.store = store
	}
	return m, nil
}

func (m *Manager) repository(id string) stats.Repository {
	if m.store != nil {
		return m.store.Repository(id)
	}
	return stats.NewFileRepository(m.cfg.StatsPath(id))
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id may name a session.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// Get returns the session id, loading its persisted usage record on first
// use. An empty id creates a new session. created reports whether the
// session was not yet in memory. Every successful Get must be paired with a
// call to Release on the returned session.
func (m *Manager) Get(ctx context.Context, id string) (s *Session, created bool, err error) {
	if id == "" {
		id = NewID()
	}
	if !ValidID(id) {
		return nil, false, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid session id %q", id), nil)
	}

	if s, ok := m.lookupAndAcquire(id); ok {
		return s, false, nil
	}

	// The record is read without holding m.mu.
	logger := m.logger.With("session_id", id)
	tracker := stats.NewTracker(ctx, m.repository(id), logger)
	client := codegen.NewFromConfig(m.cfg.Codegen, tracker, m.breaker, m.metrics, logger)
	fresh := newSession(id, client, chat.NewConversation(m.cfg.Chat.MaxMessages))

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		existing.acquire()
		return existing, false, nil
	}
	fresh.acquire()
	m.sessions[id] = fresh

	m.metrics.RecordBusinessMetric(ctx, observability.MetricSessionCreated, true)
	logger.Debug("Session opened", "sessions", len(m.sessions))
	return fresh, true, nil
}

func (m *Manager) lookupAndAcquire(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.acquire()
	}
	return s, ok
}

// Lookup returns an in-memory session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of sessions in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many
// were dropped. Sessions still in use are kept. The usage records of dropped
// sessions stay persisted.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for id, s := range m.sessions {
		if last, busy := s.idleSince(); !busy && last.Before(cutoff) {
			delete(m.sessions, id)
			pruned++
		}
	}
	if pruned > 0 {
		m.logger.Debug("Pruned idle sessions", "pruned", pruned, "remaining", len(m.sessions))
	}
	return pruned
}

// BreakerStats reports the shared code-generation circuit breaker.
func (m *Manager) BreakerStats() map[string]any {
	return m.breaker.Stats()
}

// Close persists every session and releases the stats backend.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var firstErr error
	for _, s := range sessions {
		if err := s.Tracker().Save(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
