package hashing

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256("hello")
const helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func newModelDir(t *testing.T) (string, *Resolver) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "model.safetensors"), "hello")
	return root, NewResolver(map[Kind][]string{Checkpoint: {root}})
}

func TestHasher_Hash(t *testing.T) {
	_, r := newModelDir(t)
	h := NewHasher(r)

	assert.Equal(t, helloDigest[:DefaultLength], h.Hash(Checkpoint, "model"))
	assert.Equal(t, "", h.Hash(Checkpoint, "missing"))
	assert.Equal(t, "", h.Hash(Lora, "model"))
}

func TestHasher_Length(t *testing.T) {
	_, r := newModelDir(t)

	assert.Equal(t, helloDigest[:12], NewHasher(r, WithLength(12)).Hash(Checkpoint, "model"))
	assert.Equal(t, helloDigest, NewHasher(r, WithLength(64)).Hash(Checkpoint, "model"))
	assert.Equal(t, helloDigest[:DefaultLength], NewHasher(r, WithLength(0)).Hash(Checkpoint, "model"))
	assert.Equal(t, helloDigest[:DefaultLength], NewHasher(r, WithLength(65)).Hash(Checkpoint, "model"))
}

func TestHasher_NilIsEmpty(t *testing.T) {
	var h *Hasher
	assert.Equal(t, "", h.Hash(Checkpoint, "model"))
	assert.Equal(t, "", NewHasher(nil).Hash(Checkpoint, "model"))
}

func TestHasher_UsesFreshCacheEntry(t *testing.T) {
	root, r := newModelDir(t)
	path := filepath.Join(root, "model.safetensors")
	info, err := os.Stat(path)
	require.NoError(t, err)

	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), path, Entry{
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Digest:  "abcdef0123456789",
	}))

	h := NewHasher(r, WithStore(store))
	assert.Equal(t, "abcdef0123", h.Hash(Checkpoint, "model"))
}

func TestHasher_RecomputesStaleEntry(t *testing.T) {
	root, r := newModelDir(t)
	path := filepath.Join(root, "model.safetensors")

	store := NewMemoryStore()
	h := NewHasher(r, WithStore(store))
	require.Equal(t, helloDigest[:DefaultLength], h.Hash(Checkpoint, "model"))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, os.WriteFile(path, []byte("hello, world"), 0o600))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	got := h.Hash(Checkpoint, "model")
	assert.NotEqual(t, helloDigest[:DefaultLength], got)
	assert.Len(t, got, DefaultLength)

	e, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello, world")), e.Size)
	assert.Equal(t, got, e.Digest[:DefaultLength])
}

func TestHasher_StoreFailuresDegrade(t *testing.T) {
	_, r := newModelDir(t)
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := NewHasher(r, WithStore(store), WithLogger(logger), WithStoreTimeout(time.Second))

	assert.Equal(t, helloDigest[:DefaultLength], h.Hash(Checkpoint, "model"))
	assert.Contains(t, buf.String(), "hash cache read failed")
	assert.Contains(t, buf.String(), "hash cache write failed")

	buf.Reset()
	assert.Equal(t, "", h.Hash(Checkpoint, "missing"))
	assert.Contains(t, buf.String(), "model not resolved")
}

func TestHasher_Digest(t *testing.T) {
	root, r := newModelDir(t)
	h := NewHasher(r)

	digest, err := h.Digest(filepath.Join(root, "model.safetensors"))
	require.NoError(t, err)
	assert.Equal(t, helloDigest, digest)

	_, err = h.Digest(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEntryFresh(t *testing.T) {
	now := time.Now()
	e := Entry{Size: 5, ModTime: now, Digest: "abc"}
	assert.True(t, e.Fresh(5, now))
	assert.True(t, e.Fresh(5, now.UTC()))
	assert.False(t, e.Fresh(6, now))
	assert.False(t, e.Fresh(5, now.Add(time.Second)))
	assert.False(t, Entry{Size: 5, ModTime: now}.Fresh(5, now))
}
