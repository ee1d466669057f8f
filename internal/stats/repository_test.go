package stats

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach/internal/errors"
)

func sampleRecord() Record {
	return Record{
		ChatbotQueries:   4,
		CodePrompts:      3,
		TotalChatbotTime: 12.375,
		TotalCodeTime:    0.1 + 0.2 + 1.0/3.0,
		ResponseTimes:    []float64{0.1, 0.2, 1.0 / 3.0},
	}
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "session_data.json"))

	for name, rec := range map[string]Record{
		"zero":   NewRecord(),
		"sample": sampleRecord(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, repo.Save(ctx, rec))
			loaded, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, rec, loaded)
		})
	}
}

func TestFileRepositoryMissingFile(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "absent", "stats.json"))

	rec, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NewRecord(), rec)
}

func TestFileRepositoryMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	rec, err := NewFileRepository(path).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePersistence))
	assert.Equal(t, NewRecord(), rec)
}

func TestFileRepositoryPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"code_prompts": 2, "response_times": null}`), 0o644))

	rec, err := NewFileRepository(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.CodePrompts)
	assert.Equal(t, []float64{}, rec.ResponseTimes)
}

func TestFileRepositoryWritesJSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, NewFileRepository(path).Save(context.Background(), NewRecord()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"chatbot_queries": 0,
		"code_prompts": 0,
		"total_chatbot_time": 0,
		"total_code_time": 0,
		"response_times": []
	}`, string(data))
}

func TestFileRepositoryLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "stats.json"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rec := NewRecord()
			rec.CodePrompts = n
			assert.NoError(t, repo.Save(context.Background(), rec))
		}(i)
	}
	wg.Wait()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "stats.json", entries[0].Name())

	_, err = repo.Load(context.Background())
	assert.NoError(t, err)
}

func TestFileRepositorySharesLockPerPath(t *testing.T) {
	dir := t.TempDir()
	a := NewFileRepository(filepath.Join(dir, "stats.json"))
	b := NewFileRepository(filepath.Join(dir, ".", "stats.json"))
	assert.Same(t, a.mu, b.mu)
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(ctx, filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	first := store.Repository("first")
	second := store.Repository("second")

	rec, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, NewRecord(), rec)

	require.NoError(t, first.Save(ctx, sampleRecord()))
	loaded, err := first.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleRecord(), loaded)

	other, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, NewRecord(), other)

	updated := sampleRecord()
	updated.CodePrompts = 9
	require.NoError(t, first.Save(ctx, updated))
	loaded, err = first.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, loaded.CodePrompts)
}

func TestMemoryRepositoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rec := sampleRecord()
	require.NoError(t, repo.Save(ctx, rec))

	rec.ResponseTimes[0] = 99
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.1, loaded.ResponseTimes[0])
}
