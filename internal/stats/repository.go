package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"careercoach/internal/errors"
)

// Repository loads and saves a single usage-statistics record.
type Repository interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
}

// pathLocks serializes writers that share a file path within the process.
var pathLocks sync.Map

func lockFor(path string) *sync.Mutex {
	mu, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// FileRepository stores the record as a JSON document, replacing the whole
// file on every save.
type FileRepository struct {
	path string
	mu   *sync.Mutex
}

// NewFileRepository returns a repository for the JSON file at path.
func NewFileRepository(path string) *FileRepository {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return &FileRepository{path: abs, mu: lockFor(abs)}
}

func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the record. A missing file yields the zero record and no error.
// A malformed file yields the zero record together with a persistence error.
func (r *FileRepository) Load(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return NewRecord(), err
	}

	r.mu.Lock()
	data, err := os.ReadFile(r.path)
	r.mu.Unlock()

	if os.IsNotExist(err) {
		return NewRecord(), nil
	}
	if err != nil {
		return NewRecord(), errors.NewPersistenceError("failed to read stats file", err).
			WithContext("path", r.path)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return NewRecord(), errors.NewPersistenceError("invalid stats file", err).
			WithContext("path", r.path)
	}
	return normalize(rec), nil
}

// Save writes rec to a temporary file in the same directory and renames it
// over the target.
func (r *FileRepository) Save(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(normalize(rec))
	if err != nil {
		return errors.NewPersistenceError("failed to encode stats", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeFileAtomic(r.path, data); err != nil {
		return errors.NewPersistenceError("failed to save stats file", err).
			WithContext("path", r.path)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace stats file: %w", err)
	}
	return nil
}

// MemoryRepository keeps the record in memory. It backs ephemeral sessions.
type MemoryRepository struct {
	mu  sync.Mutex
	rec Record
	set bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Load(_ context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return NewRecord(), nil
	}
	return m.rec.Clone(), nil
}

func (m *MemoryRepository) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec.Clone()
	m.set = true
	return nil
}
