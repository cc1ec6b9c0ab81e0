// Package hashing resolves model names to files and computes the short
// content hashes that metadata consumers use to identify resources.
//
// A hash is the first ten hex characters of the file's SHA-256 digest.
// Digests are cached per absolute path and revalidated against the file's
// size and modification time.
package hashing

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Kind is a model category. Each kind has its own search roots.
type Kind string

// Model kinds.
const (
	Checkpoint Kind = "checkpoints"
	Lora       Kind = "loras"
	VAE        Kind = "vae"
	Upscaler   Kind = "upscale_models"
	UNet       Kind = "unet"
	Embedding  Kind = "embeddings"
)

// Kinds lists every model kind.
var Kinds = []Kind{Checkpoint, Lora, VAE, Upscaler, UNet, Embedding}

// Extensions are tried, in order, when a name is given without one.
var Extensions = []string{".safetensors", ".ckpt", ".pt", ".pth", ".bin", ".sft"}

// ErrNotFound indicates a model name did not resolve to a file.
var ErrNotFound = errors.New("model file not found")

// Resolver maps (kind, name) to a file under the configured roots.
type Resolver struct {
	roots map[Kind][]string
}

// NewResolver creates a resolver. roots maps a kind to its directories,
// searched in order.
func NewResolver(roots map[Kind][]string) *Resolver {
	r := &Resolver{roots: make(map[Kind][]string, len(roots))}
	for k, dirs := range roots {
		r.roots[k] = append([]string(nil), dirs...)
	}
	return r
}

// Roots returns the directories configured for kind.
func (r *Resolver) Roots(kind Kind) []string {
	return append([]string(nil), r.roots[kind]...)
}

// Resolve finds the file for name. It tries, for each root: the exact
// relative path, the path with each known extension, then any file below
// the root whose stem equals the name's stem.
func (r *Resolver) Resolve(kind Kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNotFound
	}
	name = filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))

	for _, root := range r.roots[kind] {
		if p, ok := regularFile(filepath.Join(root, name)); ok {
			return p, nil
		}
		for _, ext := range Extensions {
			if p, ok := regularFile(filepath.Join(root, name+ext)); ok {
				return p, nil
			}
		}
	}

	want := stem(name)
	for _, root := range r.roots[kind] {
		if p, ok := findByStem(root, want); ok {
			return p, nil
		}
	}
	return "", ErrNotFound
}

func regularFile(p string) (string, bool) {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

func stem(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	for _, known := range Extensions {
		if strings.EqualFold(ext, known) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// findByStem walks root in lexical order and returns the first regular file
// whose stem matches.
func findByStem(root, want string) (string, bool) {
	var found string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || found != "" {
			return nil
		}
		if stem(d.Name()) == want {
			found = p
			return filepath.SkipAll
		}
		return nil
	})
	return found, found != ""
}
