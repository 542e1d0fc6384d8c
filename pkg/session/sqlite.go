package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using a single SQLite database. The state
// document is kept as one JSON column so the two backends stay
// byte-equivalent in what they persist.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("%w: create database directory: %v", ErrStorage, err)
	}

	// WAL for better concurrency across sessions. The driver applies each
	// _pragma to every pooled connection it opens.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStorage, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: ping database: %v", ErrStorage, err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStorage, err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads and decodes the state document for id.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: invalid session id (empty)", ErrStorage)
	}

	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM sessions WHERE session_id = ?`, id,
	).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query session %s: %v", ErrStorage, id, err)
	}

	var state State
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("%w: decode session %s: %v", ErrStorage, id, err)
	}
	return &state, nil
}

// Save upserts the full state document for id.
func (s *SQLiteStore) Save(ctx context.Context, id string, state *State) error {
	if id == "" {
		return fmt.Errorf("%w: invalid session id (empty)", ErrStorage)
	}

	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode session %s: %v", ErrStorage, id, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		id, string(b), state.Metadata.CreatedAt.Unix(), state.Metadata.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert session %s: %v", ErrStorage, id, err)
	}
	return nil
}
