package hashing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultLength is the number of hex characters kept from the digest.
const DefaultLength = 10

// Hasher computes short content hashes for named model files. All failures
// degrade to an empty hash; callers treat "" as "no hash".
type Hasher struct {
	resolver     *Resolver
	store        Store
	length       int
	logger       *slog.Logger
	storeTimeout time.Duration
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithStore caches digests in s. Default: a MemoryStore.
func WithStore(s Store) Option {
	return func(h *Hasher) {
		if s != nil {
			h.store = s
		}
	}
}

// WithLength sets how many hex characters of the digest are kept.
// Default: DefaultLength. Values outside 1..64 are ignored.
func WithLength(n int) Option {
	return func(h *Hasher) {
		if n > 0 && n <= sha256.Size*2 {
			h.length = n
		}
	}
}

// WithLogger sets the logger used for resolution and cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hasher) {
		h.logger = l
	}
}

// WithStoreTimeout bounds each cache round trip. Default: 2s.
func WithStoreTimeout(d time.Duration) Option {
	return func(h *Hasher) {
		if d > 0 {
			h.storeTimeout = d
		}
	}
}

// NewHasher creates a Hasher that resolves names with r.
func NewHasher(r *Resolver, opts ...Option) *Hasher {
	h := &Hasher{
		resolver:     r,
		store:        NewMemoryStore(),
		length:       DefaultLength,
		storeTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns the short hash of the file name resolves to, or "" when the
// file cannot be found or read.
func (h *Hasher) Hash(kind Kind, name string) string {
	if h == nil || h.resolver == nil {
		return ""
	}
	p, err := h.resolver.Resolve(kind, name)
	if err != nil {
		h.debug("model not resolved", kind, name, err)
		return ""
	}
	digest, err := h.Digest(p)
	if err != nil {
		h.debug("model not hashed", kind, name, err)
		return ""
	}
	return digest[:h.length]
}

// Digest returns the full hex SHA-256 of the file at path, using the cache
// when the file's size and modification time are unchanged.
func (h *Hasher) Digest(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat model: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.storeTimeout)
	defer cancel()

	if e, err := h.store.Get(ctx, abs); err == nil && e.Fresh(info.Size(), info.ModTime()) {
		return e.Digest, nil
	} else if err != nil && !errors.Is(err, ErrCacheMiss) && h.logger != nil {
		h.logger.Warn("hash cache read failed",
			slog.String("path", abs),
			slog.String("error", err.Error()),
		)
	}

	digest, err := sumFile(abs)
	if err != nil {
		return "", err
	}

	e := Entry{Size: info.Size(), ModTime: info.ModTime(), Digest: digest}
	if err := h.store.Put(ctx, abs, e); err != nil && h.logger != nil {
		h.logger.Warn("hash cache write failed",
			slog.String("path", abs),
			slog.String("error", err.Error()),
		)
	}
	return digest, nil
}

func sumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	sum := sha256.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", fmt.Errorf("read model: %w", err)
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

func (h *Hasher) debug(msg string, kind Kind, name string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Debug(msg,
		slog.String("kind", string(kind)),
		slog.String("name", name),
		slog.String("error", err.Error()),
	)
}
