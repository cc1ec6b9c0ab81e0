package hashing

import (
	"context"
	"errors"
	"time"
)

// Store caches file digests keyed by absolute path.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached entry for path.
	// Returns ErrCacheMiss if nothing is cached.
	Get(ctx context.Context, path string) (Entry, error)

	// Put stores or replaces the entry for path.
	Put(ctx context.Context, path string, e Entry) error

	// Delete removes the entry for path. Missing entries are not an error.
	Delete(ctx context.Context, path string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Entry is a cached digest with the file attributes it was computed from.
type Entry struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Digest  string    `json:"digest"`
}

// Fresh reports whether the entry still describes a file with the given
// size and modification time.
func (e Entry) Fresh(size int64, modTime time.Time) bool {
	return e.Digest != "" && e.Size == size && e.ModTime.Equal(modTime)
}

// Sentinel errors for store operations.
var (
	// ErrCacheMiss indicates no entry is cached for a path.
	ErrCacheMiss = errors.New("hash cache miss")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("hash store closed")
)
