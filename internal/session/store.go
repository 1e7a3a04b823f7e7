package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// storageKey is the fixed name the session record lives under. There is
// never more than one persisted session per client.
const storageKey = "ramusita-session"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Record is the minimal pointer that lets a participant rejoin their
// game after a restart. The credential itself lives in the server-set
// cookie, not here.
type Record struct {
	GameID   string `json:"gameId"`
	GameCode string `json:"gameCode"`
}

// Store persists the session record in a local SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the store, creating the file and schema as needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save writes the record under the fixed key, replacing any prior one.
func (s *Store) Save(ctx context.Context, record Record) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		storageKey, string(value))
	if err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

// Load reads the persisted record. ok is false when none is stored. A
// value that no longer parses is treated as absent and removed.
func (s *Store) Load(ctx context.Context) (Record, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, storageKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load session record: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		_ = s.Clear(ctx)
		return Record{}, false, nil
	}
	return record, true, nil
}

// Clear removes the persisted record if present.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE name = ?`, storageKey); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
