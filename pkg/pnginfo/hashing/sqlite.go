package hashing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists digests to SQLite so hashes survive restarts.
// It is suitable for a single host sharing one model directory.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a digest database.
// The path should be a file path (e.g., "./hashes.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS file_hashes (
			path TEXT NOT NULL PRIMARY KEY,
			size INTEGER NOT NULL,
			mod_time TEXT NOT NULL,
			digest TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, path string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Entry{}, ErrStoreClosed
	}

	var (
		e       Entry
		modTime string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT size, mod_time, digest FROM file_hashes
		WHERE path = ?
	`, path).Scan(&e.Size, &modTime, &e.Digest)

	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrCacheMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load hash: %w", err)
	}
	e.ModTime, err = time.Parse(time.RFC3339Nano, modTime)
	if err != nil {
		return Entry{}, fmt.Errorf("parse mod time: %w", err)
	}
	return e, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, path string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_hashes (path, size, mod_time, digest, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mod_time = excluded.mod_time,
			digest = excluded.digest,
			updated_at = excluded.updated_at
	`, path, e.Size, e.ModTime.UTC().Format(time.RFC3339Nano), e.Digest,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save hash: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_hashes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete hash: %w", err)
	}
	return nil
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
