package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
)

// Errors returned by the loaders.
var (
	ErrUnsupportedFormat = errors.New("unsupported config file extension")
	ErrUnknownKind       = errors.New("unknown model kind")
	ErrInvalidSetting    = errors.New("invalid setting")
)

// Document keys.
const (
	keyModelRoots     = "model_roots"
	keyCivitaiSampler = "civitai_sampler"
	keyHashCache      = "hash_cache"
	keyHashLength     = "hash_length"
	keyStoreTimeout   = "hash_store_timeout"
	keyExtensions     = "extensions"
)

// Settings configures a metadata generator.
//
//	model_roots:
//	  checkpoints: [/models/checkpoints]
//	  loras: [/models/loras, /shared/loras]
//	civitai_sampler: true
//	hash_cache: sqlite:/var/cache/pnginfo.db
//	hash_length: 10
//	hash_store_timeout: 2s
//	extensions: [nodes/impact.yaml]
type Settings struct {
	// ModelRoots lists the directories searched for each model kind.
	ModelRoots map[hashing.Kind][]string
	// CivitaiSampler selects display sampler names over raw ones.
	CivitaiSampler bool
	// HashCache selects the digest store: "memory", "sqlite:<path>" or a
	// redis:// URL. Empty means memory.
	HashCache string
	// HashLength is the number of hex characters in a short hash.
	HashLength int
	// StoreTimeout bounds each digest store call.
	StoreTimeout time.Duration
	// Extensions are registry extension files. Relative paths are resolved
	// against the settings file.
	Extensions []string
}

// Defaults returns the settings used when no file is given.
func Defaults() Settings {
	return Settings{
		ModelRoots:     map[hashing.Kind][]string{},
		CivitaiSampler: true,
		HashCache:      "memory",
		HashLength:     hashing.DefaultLength,
		StoreTimeout:   2 * time.Second,
	}
}

// Load reads settings from a YAML or JSON file.
func Load(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s, err := Parse(cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, ext := range s.Extensions {
		if !filepath.IsAbs(ext) {
			s.Extensions[i] = filepath.Join(dir, ext)
		}
	}
	return s, nil
}

// Parse builds Settings from a decoded document on top of Defaults.
func Parse(cfg Config) (Settings, error) {
	s := Defaults()

	roots := cfg.Section(keyModelRoots)
	keys := roots.Keys()
	sort.Strings(keys)
	for _, k := range keys {
		kind := hashing.Kind(k)
		if !validKind(kind) {
			return Settings{}, fmt.Errorf("%w: %q", ErrUnknownKind, k)
		}
		dirs := roots.StringSlice(k, nil)
		if dirs == nil {
			return Settings{}, fmt.Errorf("%w: %s.%s must be a list of paths", ErrInvalidSetting, keyModelRoots, k)
		}
		s.ModelRoots[kind] = dirs
	}

	s.CivitaiSampler = cfg.Bool(keyCivitaiSampler, s.CivitaiSampler)
	s.HashCache = cfg.String(keyHashCache, s.HashCache)
	s.HashLength = cfg.Int(keyHashLength, s.HashLength)
	if s.HashLength < 1 || s.HashLength > 64 {
		return Settings{}, fmt.Errorf("%w: %s must be between 1 and 64, got %d", ErrInvalidSetting, keyHashLength, s.HashLength)
	}
	s.StoreTimeout = cfg.Duration(keyStoreTimeout, s.StoreTimeout)
	s.Extensions = cfg.StringSlice(keyExtensions, nil)
	return s, nil
}

func validKind(k hashing.Kind) bool {
	for _, known := range hashing.Kinds {
		if k == known {
			return true
		}
	}
	return false
}
