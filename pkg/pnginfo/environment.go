package pnginfo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/collect"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/config"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/defs"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/formatters"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
)

// Environment bundles what a host needs for repeated passes: the field
// registry, a hasher with its digest store, and the settings they came from.
type Environment struct {
	Settings config.Settings
	Registry *capture.Registry
	Hasher   *hashing.Hasher

	store  hashing.Store
	logger *slog.Logger
}

// Open builds an Environment from settings. The caller must Close it to
// release the digest store.
//
// Example:
//
//	s, err := config.Load("pnginfo.yaml")
//	if err != nil {
//	    return err
//	}
//	env, err := pnginfo.Open(ctx, s, logger)
//	if err != nil {
//	    return err
//	}
//	defer env.Close()
func Open(ctx context.Context, s config.Settings, logger *slog.Logger) (*Environment, error) {
	reg, err := BuildRegistry(s.Extensions)
	if err != nil {
		return nil, err
	}
	store, err := hashing.OpenStore(ctx, s.HashCache)
	if err != nil {
		return nil, fmt.Errorf("open hash cache: %w", err)
	}
	hasher := hashing.NewHasher(hashing.NewResolver(s.ModelRoots),
		hashing.WithStore(store),
		hashing.WithLength(s.HashLength),
		hashing.WithStoreTimeout(s.StoreTimeout),
		hashing.WithLogger(logger),
	)
	return &Environment{
		Settings: s,
		Registry: reg,
		Hasher:   hasher,
		store:    store,
		logger:   logger,
	}, nil
}

// BuildRegistry returns the built-in registry extended with the node types
// declared in the given extension files. Later files override earlier ones.
func BuildRegistry(extensions []string) (*capture.Registry, error) {
	if len(extensions) == 0 {
		return defs.Default(), nil
	}
	r := defs.Register(capture.NewRegistry())
	fns := formatters.Functions()
	for _, path := range extensions {
		if err := r.LoadExtensionFile(path, fns); err != nil {
			return nil, fmt.Errorf("load extension %s: %w", path, err)
		}
	}
	return r.Freeze(), nil
}

// Generator returns a generator wired to the environment's hasher, logger
// and sampler naming. opts are applied after those defaults.
func (e *Environment) Generator(opts ...Option) *Generator {
	base := []Option{
		WithHasher(e.Hasher),
		WithLogger(e.logger),
		WithCivitaiSampler(e.Settings.CivitaiSampler),
	}
	return New(append(base, opts...)...)
}

// Live returns a live collector over exec using the environment's registry
// and hasher.
func (e *Environment) Live(exec collect.Execution) *collect.Live {
	return collect.NewLive(exec, e.Registry, collect.WithHasher(e.Hasher), collect.WithLogger(e.logger))
}

// Trace returns a trace collector over p using the environment's hasher.
func (e *Environment) Trace(p *graph.Prompt) *collect.Trace {
	return collect.NewTrace(p, collect.WithHasher(e.Hasher), collect.WithLogger(e.logger))
}

// Close releases the digest store.
func (e *Environment) Close() error {
	if e == nil || e.store == nil {
		return nil
	}
	return e.store.Close()
}
