package session

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"careercoach/internal/ai"
	"careercoach/internal/config"
	"careercoach/internal/errors"
	"careercoach/internal/stats"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, backend string) (*Manager, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Stats.Dir = t.TempDir()
	cfg.Stats.Backend = backend

	logger, _ := errors.NewLoggerWithOptions(errors.LoggerOptions{Output: io.Discard})
	m, err := NewManager(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return m, cfg
}

func TestGetCreatesAndReuses(t *testing.T) {
	m, _ := newTestManager(t, "file")
	ctx := context.Background()

	s, created, err := m.Get(ctx, "")
	require.NoError(t, err)
	assert.True(t, created)
	_, err = uuid.Parse(s.ID)
	assert.NoError(t, err)

	again, created, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)
	assert.Equal(t, 1, m.Len())
}

func TestGetRejectsUnsafeIDs(t *testing.T) {
	m, _ := newTestManager(t, "file")

	for _, id := range []string{"../etc/passwd", "a b", "x/y"} {
		_, _, err := m.Get(context.Background(), id)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), id)
	}
	assert.Zero(t, m.Len())
}

func TestSessionsPersistToSeparateFiles(t *testing.T) {
	m, cfg := newTestManager(t, "file")
	ctx := context.Background()

	def, _, err := m.Get(ctx, config.DefaultSessionID)
	require.NoError(t, err)
	other, _, err := m.Get(ctx, "team-a")
	require.NoError(t, err)

	require.NoError(t, def.Tracker().RecordChatQuery(ctx, time.Second))

	rec, err := stats.NewFileRepository(filepath.Join(cfg.Stats.Dir, "session_data.json")).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ChatbotQueries)

	assert.Zero(t, other.Tracker().Snapshot().ChatbotQueries)
	assert.NotSame(t, def.Codegen, other.Codegen)
}

func TestSQLiteBackendRestoresUsage(t *testing.T) {
	m, cfg := newTestManager(t, "sqlite")
	ctx := context.Background()

	s, _, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, s.Tracker().RecordChatQuery(ctx, 2*time.Second))
	require.NoError(t, m.Close(ctx))

	logger, _ := errors.NewLoggerWithOptions(errors.LoggerOptions{Output: io.Discard})
	reopened, err := NewManager(ctx, cfg, nil, logger)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	s, created, err := reopened.Get(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, s.Tracker().Snapshot().ChatbotQueries)
	assert.FileExists(t, filepath.Join(cfg.Stats.Dir, cfg.Stats.SQLitePath))
}

func TestSessionReset(t *testing.T) {
	m, _ := newTestManager(t, "file")
	ctx := context.Background()
	s, _, err := m.Get(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, s.Tracker().RecordChatQuery(ctx, time.Second))
	s.Chat.Ensure("Angular")
	s.SetAnalysis(&ai.Result{Text: "fine"})

	s.Reset(ctx, false)
	assert.Equal(t, 1, s.Tracker().Snapshot().ChatbotQueries)
	assert.Len(t, s.Chat.Messages(), 1)
	_, ok := s.LastAnalysis()
	assert.True(t, ok)

	s.Reset(ctx, true)
	assert.True(t, s.Tracker().Snapshot().IsEmpty())
	assert.Empty(t, s.Chat.Messages())
	_, ok = s.LastAnalysis()
	assert.False(t, ok)
}

func TestContextCarriesSessionAndTracker(t *testing.T) {
	m, _ := newTestManager(t, "file")
	s, _, err := m.Get(context.Background(), "carol")
	require.NoError(t, err)

	ctx := WithSession(context.Background(), s)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)

	tracker, ok := stats.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s.Tracker(), tracker)
}

func TestPrune(t *testing.T) {
	m, _ := newTestManager(t, "file")
	s, _, err := m.Get(context.Background(), "idle")
	require.NoError(t, err)
	s.Release()
	s.mu.Lock()
	s.lastSeen = time.Now().Add(-time.Hour)
	s.mu.Unlock()
	busy, _, err := m.Get(context.Background(), "busy")
	require.NoError(t, err)
	busy.Release()

	assert.Equal(t, 1, m.Prune(30*time.Minute))
	_, ok := m.Lookup("idle")
	assert.False(t, ok)
	_, ok = m.Lookup("busy")
	assert.True(t, ok)
}

func TestPruneKeepsSessionsInUse(t *testing.T) {
	m, _ := newTestManager(t, "file")
	s, _, err := m.Get(context.Background(), "long-request")
	require.NoError(t, err)
	s.mu.Lock()
	s.lastSeen = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	assert.Zero(t, m.Prune(time.Minute))
	got, ok := m.Lookup("long-request")
	require.True(t, ok)
	assert.Same(t, s, got)

	s.Release()
	s.mu.Lock()
	s.lastSeen = time.Now().Add(-time.Hour)
	s.mu.Unlock()
	assert.Equal(t, 1, m.Prune(time.Minute))
}

func TestGetConcurrentSameID(t *testing.T) {
	m, _ := newTestManager(t, "file")

	const workers = 8
	got := make([]*Session, workers)
	var created sync.Map
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, isNew, err := m.Get(context.Background(), "shared")
			assert.NoError(t, err)
			got[i] = s
			if isNew {
				created.Store(i, true)
			}
		}()
	}
	wg.Wait()

	for _, s := range got[1:] {
		assert.Same(t, got[0], s)
	}
	n := 0
	created.Range(func(any, any) bool { n++; return true })
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, m.Len())
}

func TestGetWithCanceledContextKeepsStoredUsage(t *testing.T) {
	m, cfg := newTestManager(t, "file")
	repo := stats.NewFileRepository(cfg.StatsPath("team-b"))
	stored := stats.Record{ChatbotQueries: 4, CodePrompts: 7, TotalChatbotTime: 4, TotalCodeTime: 7,
		ResponseTimes: []float64{1, 1, 1, 1, 1, 1, 1}}
	require.NoError(t, repo.Save(context.Background(), stored))

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	s, created, err := m.Get(canceled, "team-b")
	require.NoError(t, err)
	assert.True(t, created)
	defer s.Release()

	require.NoError(t, s.Tracker().RecordChatQuery(context.Background(), time.Second))
	rec, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, rec.ChatbotQueries)
	assert.Equal(t, 7, rec.CodePrompts)
}
