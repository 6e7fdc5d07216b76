package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrStoreClosed is returned when operating on a closed store.
var ErrStoreClosed = errors.New("journal store is closed")

// SQLiteStore persists incident records to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite journal store.
// The path should be a file path (e.g., "./incidents.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			runtime_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			activity TEXT NOT NULL DEFAULT '',
			topic TEXT NOT NULL DEFAULT '',
			domain INTEGER NOT NULL DEFAULT -1,
			detail TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_incidents_kind
		ON incidents(kind)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if record.ID == "" {
		return errors.New("record ID is required")
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (id, runtime_id, kind, activity, topic, domain, detail, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.RuntimeID, string(record.Kind), record.Activity,
		record.Topic, record.Domain, record.Detail,
		record.OccurredAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	return s.query(ctx, `
		SELECT id, runtime_id, kind, activity, topic, domain, detail, occurred_at
		FROM incidents
		ORDER BY rowid DESC
	`, nil, limit)
}

// ListByKind implements Store.
func (s *SQLiteStore) ListByKind(ctx context.Context, kind Kind, limit int) ([]*Record, error) {
	return s.query(ctx, `
		SELECT id, runtime_id, kind, activity, topic, domain, detail, occurred_at
		FROM incidents
		WHERE kind = ?
		ORDER BY rowid DESC
	`, []any{string(kind)}, limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args []any, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var r Record
		var kind, occurredAt string
		if err := rows.Scan(&r.ID, &r.RuntimeID, &kind, &r.Activity,
			&r.Topic, &r.Domain, &r.Detail, &occurredAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Kind = Kind(kind)
		r.OccurredAt, _ = time.Parse(time.RFC3339Nano, occurredAt)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
