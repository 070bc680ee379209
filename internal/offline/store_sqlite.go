package offline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"timeclock/internal/domain/punch"
)

const queueSchemaVersion = "1"

// SQLiteStore persists queue items in a local SQLite file so queued punches
// survive process restarts. modernc.org/sqlite keeps the binary pure Go.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue store %s: %w", path, err)
	}
	// The queue is read-modify-written per item; a single connection keeps
	// every mutation serialized.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec(`
    CREATE TABLE IF NOT EXISTS queue_items (
      seq INTEGER PRIMARY KEY AUTOINCREMENT,
      local_id TEXT NOT NULL UNIQUE,
      enqueued_at_ms INTEGER NOT NULL,
      attempts INTEGER NOT NULL DEFAULT 0,
      event_json TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS queue_meta (
      key TEXT PRIMARY KEY,
      value TEXT NOT NULL
    );
  `); err != nil {
		return fmt.Errorf("init queue schema: %w", err)
	}

	var version string
	err := s.db.QueryRow(`SELECT value FROM queue_meta WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec(`INSERT INTO queue_meta (key, value) VALUES ('schema_version', ?)`, queueSchemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if version != queueSchemaVersion {
		return fmt.Errorf("queue store schema version %s, expected %s", version, queueSchemaVersion)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(item Item) error {
	payload, err := json.Marshal(item.Event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`
    INSERT INTO queue_items (local_id, enqueued_at_ms, attempts, event_json)
    VALUES (?, ?, ?, ?)
  `, item.LocalID, item.EnqueuedAt.UnixMilli(), item.Attempts, string(payload))
	return err
}

func (s *SQLiteStore) Remove(localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM queue_items WHERE local_id = ?`, localID)
	return err
}

func (s *SQLiteStore) List() ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
    SELECT local_id, enqueued_at_ms, attempts, event_json
    FROM queue_items
    ORDER BY seq
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item       Item
			enqueuedMs int64
			payload    string
		)
		if err := rows.Scan(&item.LocalID, &enqueuedMs, &item.Attempts, &payload); err != nil {
			return nil, err
		}
		item.EnqueuedAt = time.UnixMilli(enqueuedMs).UTC()
		var ev punch.Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return nil, fmt.Errorf("decode queued event %s: %w", item.LocalID, err)
		}
		item.Event = ev
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) IncrementAttempts(localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE queue_items SET attempts = attempts + 1 WHERE local_id = ?`, localID)
	return err
}
