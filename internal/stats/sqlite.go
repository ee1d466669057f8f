package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"careercoach/internal/errors"
)

const createUsageTable = `CREATE TABLE IF NOT EXISTS usage_stats (
	session_id TEXT PRIMARY KEY,
	chatbot_queries INTEGER NOT NULL DEFAULT 0,
	code_prompts INTEGER NOT NULL DEFAULT 0,
	total_chatbot_time REAL NOT NULL DEFAULT 0,
	total_code_time REAL NOT NULL DEFAULT 0,
	response_times TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL
);`

// SQLiteStore holds one usage record per session in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewPersistenceError("failed to create stats directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewPersistenceError("failed to open stats database", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createUsageTable); err != nil {
		_ = db.Close()
		return nil, errors.NewPersistenceError("failed to initialize stats database", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Repository returns the repository for one session's row.
func (s *SQLiteStore) Repository(sessionID string) Repository {
	return &sqliteRepository{db: s.db, sessionID: sessionID}
}

type sqliteRepository struct {
	db        *sql.DB
	sessionID string
}

func (r *sqliteRepository) Load(ctx context.Context) (Record, error) {
	var (
		rec   Record
		times string
	)
	err := r.db.QueryRowContext(ctx, `SELECT chatbot_queries, code_prompts, total_chatbot_time, total_code_time, response_times
		FROM usage_stats WHERE session_id = ?`, r.sessionID).
		Scan(&rec.ChatbotQueries, &rec.CodePrompts, &rec.TotalChatbotTime, &rec.TotalCodeTime, &times)
	if err == sql.ErrNoRows {
		return NewRecord(), nil
	}
	if err != nil {
		return NewRecord(), errors.NewPersistenceError("failed to load stats row", err).
			WithContext("session_id", r.sessionID)
	}
	if err := json.Unmarshal([]byte(times), &rec.ResponseTimes); err != nil {
		return NewRecord(), errors.NewPersistenceError("invalid response_times column", err).
			WithContext("session_id", r.sessionID)
	}
	return normalize(rec), nil
}

func (r *sqliteRepository) Save(ctx context.Context, rec Record) error {
	rec = normalize(rec)
	times, err := json.Marshal(rec.ResponseTimes)
	if err != nil {
		return errors.NewPersistenceError("failed to encode response times", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO usage_stats
		(session_id, chatbot_queries, code_prompts, total_chatbot_time, total_code_time, response_times, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			chatbot_queries = excluded.chatbot_queries,
			code_prompts = excluded.code_prompts,
			total_chatbot_time = excluded.total_chatbot_time,
			total_code_time = excluded.total_code_time,
			response_times = excluded.response_times,
			updated_at = excluded.updated_at`,
		r.sessionID,
		rec.ChatbotQueries,
		rec.CodePrompts,
		rec.TotalChatbotTime,
		rec.TotalCodeTime,
		string(times),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return errors.NewPersistenceError(fmt.Sprintf("failed to save stats for session %s", r.sessionID), err)
	}
	return nil
}
