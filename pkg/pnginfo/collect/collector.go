// Package collect walks a node graph and gathers metadata candidates.
//
// Two collectors exist. Live reads an execution in progress: the nodes the
// engine ran and their resolved inputs, interpreted through the field
// registry. Trace reads only the static graph and recognises nodes by the
// input names they carry, for when no execution context is available.
//
// Both produce two candidate pools: Sampler (nodes upstream of the sampler)
// and All (nodes upstream of the output node). Within a pool candidates are
// ordered by trace distance, so the node nearest the scope node wins
// first-match selection.
package collect

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

// Collector modes.
const (
	ModeLive  = "live"
	ModeTrace = "trace"
)

// Collector produces the candidate pools for one metadata pass.
// Collect never fails; graph irregularities yield fewer candidates.
type Collector interface {
	Collect(ctx context.Context) *Result
	Mode() string
}

// Hashed is implemented by collectors that hash model files.
type Hashed interface {
	Hasher() capture.Hasher
}

// Result holds the candidates of one collection.
type Result struct {
	// Sampler holds candidates from nodes upstream of the sampler.
	Sampler meta.Inputs
	// All holds candidates from nodes upstream of the output node.
	All meta.Inputs
	// SamplerID is the node chosen as the sampler, "" when none was found.
	SamplerID string
	// Conflicts counts single-value candidates that disagreed with an
	// earlier candidate of the same field.
	Conflicts int
}

// Candidates returns the number of candidates in the wide pool.
func (r *Result) Candidates() int {
	if r == nil {
		return 0
	}
	return r.All.Len()
}

// Option configures a collector.
type Option func(*options)

type options struct {
	hasher capture.Hasher
	logger *slog.Logger
}

// WithHasher sets the hasher used for model files.
func WithHasher(h capture.Hasher) Option {
	return func(o *options) {
		o.hasher = h
	}
}

// WithLogger sets the logger for conflict warnings and debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Select returns a Live collector when an execution is given and a Trace
// collector over prompt otherwise.
func Select(exec *Execution, prompt *graph.Prompt, reg *capture.Registry, opts ...Option) Collector {
	if exec != nil && exec.Prompt != nil {
		return NewLive(*exec, reg, opts...)
	}
	return NewTrace(prompt, opts...)
}

// samplerClasses are node types treated as the sampler regardless of their
// inputs. SamplerCustomAdvanced carries no conditioning inputs of its own.
var samplerClasses = map[string]bool{
	"KSampler":              true,
	"KSamplerAdvanced":      true,
	"SamplerCustom":         true,
	"SamplerCustomAdvanced": true,
}

// IsSampler reports whether n looks like a sampler node.
func IsSampler(n graph.Node) bool {
	return samplerClasses[n.ClassType] || n.HasFields("positive", "negative")
}

// FindSampler returns the sampler nearest to outputID. With no output node,
// or one that is not in the graph, the first sampler in document order is
// returned.
func FindSampler(p *graph.Prompt, outputID string) (string, bool) {
	if outputID != "" && p.Has(outputID) {
		for _, r := range p.Upstream(outputID) {
			n, _ := p.Node(r.ID)
			if IsSampler(n) {
				return r.ID, true
			}
		}
		return "", false
	}
	var found string
	p.Range(func(id string, n graph.Node) bool {
		if IsSampler(n) {
			found = id
			return false
		}
		return true
	})
	return found, found != ""
}
