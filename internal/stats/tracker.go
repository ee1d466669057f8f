package stats

import (
	"context"
	"sync"
	"time"

	"careercoach/internal/errors"
)

// Tracker is the working copy of one session's usage record. Every mutation
// is mirrored to the repository; persistence failures are returned to the
// caller and never roll back the in-memory update.
type Tracker struct {
	mu     sync.Mutex
	rec    Record
	repo   Repository
	logger *errors.Logger

	// analysis counters live only in memory
	resumeCount       int
	totalAnalysisTime float64
}

// NewTracker loads the persisted record. Load failures are logged and the
// tracker starts from the zero record. The load ignores cancellation of ctx:
// a zero record taken from an aborted read would overwrite the stored one on
// the next save.
func NewTracker(ctx context.Context, repo Repository, logger *errors.Logger) *Tracker {
	rec, err := repo.Load(context.WithoutCancel(ctx))
	if err != nil {
		logger.LogError(err, "Failed to load usage statistics, starting from zero")
		rec = NewRecord()
	}
	return &Tracker{rec: rec, repo: repo, logger: logger}
}

// RecordCodePrompt accounts one completed code-generation call.
func (t *Tracker) RecordCodePrompt(ctx context.Context, elapsed time.Duration) error {
	return t.update(ctx, func(r *Record) { r.addCodePrompt(elapsed.Seconds()) })
}

// RecordChatQuery accounts one answered chatbot question.
func (t *Tracker) RecordChatQuery(ctx context.Context, elapsed time.Duration) error {
	return t.update(ctx, func(r *Record) { r.addChatQuery(elapsed.Seconds()) })
}

// RecordAnalysis accounts one resume analysis. It is not persisted.
func (t *Tracker) RecordAnalysis(elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumeCount++
	t.totalAnalysisTime += elapsed.Seconds()
}

// ResetCode clears the code-generation counters and persists the result.
func (t *Tracker) ResetCode(ctx context.Context) error {
	return t.update(ctx, (*Record).resetCode)
}

// ResetAll zeroes every counter and rewrites the persisted record.
func (t *Tracker) ResetAll(ctx context.Context) error {
	t.mu.Lock()
	t.resumeCount = 0
	t.totalAnalysisTime = 0
	t.mu.Unlock()
	return t.update(ctx, func(r *Record) { *r = NewRecord() })
}

// Save persists the current record without changing it.
func (t *Tracker) Save(ctx context.Context) error {
	return t.update(ctx, func(*Record) {})
}

// Snapshot returns a copy of the current record.
func (t *Tracker) Snapshot() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.Clone()
}

// Analysis returns the in-memory resume analysis counters.
func (t *Tracker) Analysis() (count int, totalSeconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resumeCount, t.totalAnalysisTime
}

func (t *Tracker) update(ctx context.Context, mutate func(*Record)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	mutate(&t.rec)
	if err := t.repo.Save(ctx, t.rec.Clone()); err != nil {
		if !errors.IsType(err, errors.ErrorTypePersistence) {
			err = errors.NewPersistenceError("failed to save usage statistics", err)
		}
		return err
	}
	return nil
}
