package hashing

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces digest keys.
const DefaultRedisPrefix = "pnginfo:hash:"

// RedisStore shares digests between hosts that mount the same model files.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default: DefaultRedisPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisTTL expires entries after ttl. Default: no expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to the server described by url
// (redis://[:password@]host:port/db) and verifies the connection.
func DialRedis(ctx context.Context, url string, opts ...RedisOption) (*RedisStore, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(o)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, opts...), nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, path string) (Entry, error) {
	data, err := s.client.Get(ctx, s.prefix+path).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrCacheMiss
	}
	if errors.Is(err, redis.ErrClosed) {
		return Entry{}, ErrStoreClosed
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load hash: %w", err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decode hash entry: %w", err)
	}
	return e, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, path string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode hash entry: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+path, data, s.ttl).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrStoreClosed
		}
		return fmt.Errorf("save hash: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, s.prefix+path).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrStoreClosed
		}
		return fmt.Errorf("delete hash: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	err := s.client.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}
