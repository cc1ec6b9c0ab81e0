package collect

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/observability"
)

// NodeState is one node as seen by the execution engine.
type NodeState struct {
	ID     string
	Active bool
}

// Execution is the engine state a live pass reads from.
type Execution struct {
	// Prompt is the graph being executed.
	Prompt *graph.Prompt
	// Nodes lists nodes in execution order. Nil means every prompt node,
	// in document order, counts as active.
	Nodes []NodeState
	// Resolver resolves a node's inputs against the engine's caches. Nil
	// resolves literal inputs only.
	Resolver graph.InputResolver
	// OutputID is the node whose image receives the metadata. Empty means
	// the whole graph is in scope.
	OutputID string
}

// Live collects candidates from executed nodes through the field registry.
type Live struct {
	exec     Execution
	registry *capture.Registry
	hasher   capture.Hasher
	logger   *slog.Logger
}

// NewLive creates a live collector.
func NewLive(exec Execution, reg *capture.Registry, opts ...Option) *Live {
	o := buildOptions(opts)
	if exec.Resolver == nil {
		exec.Resolver = graph.CacheResolver{}
	}
	return &Live{
		exec:     exec,
		registry: reg,
		hasher:   o.hasher,
		logger:   o.logger,
	}
}

// Mode implements Collector.
func (l *Live) Mode() string { return ModeLive }

// Hasher implements Hashed.
func (l *Live) Hasher() capture.Hasher { return l.hasher }

// Collect implements Collector.
func (l *Live) Collect(ctx context.Context) *Result {
	p := l.exec.Prompt
	res := &Result{Sampler: meta.Inputs{}, All: meta.Inputs{}}
	if p == nil {
		return res
	}

	var scope map[string]int
	if l.exec.OutputID != "" && p.Has(l.exec.OutputID) {
		scope = p.Trace(l.exec.OutputID)
	}
	var samplerScope map[string]int
	if id, ok := FindSampler(p, l.exec.OutputID); ok {
		res.SamplerID = id
		samplerScope = p.Trace(id)
	}

	kept := make(map[meta.Field]meta.Candidate)
	for _, ns := range l.nodes() {
		if !ns.Active {
			continue
		}
		node, ok := p.Node(ns.ID)
		if !ok {
			continue
		}
		rank := 0
		if scope != nil {
			if rank, ok = scope[ns.ID]; !ok {
				continue
			}
		}
		rules := l.registry.Lookup(node.ClassType)
		if len(rules) == 0 {
			continue
		}
		inputs := l.exec.Resolver.ResolveInputs(ns.ID, node)
		if len(inputs) == 0 {
			if l.logger != nil {
				l.logger.Debug("node has no resolved inputs",
					slog.String("node_id", ns.ID),
					slog.String("class_type", node.ClassType))
			}
			continue
		}

		c := &capture.Context{
			NodeID: ns.ID,
			Node:   node,
			Prompt: p,
			Inputs: inputs,
			Hasher: l.hasher,
		}
		samplerRank, inSampler := samplerScope[ns.ID]
		for _, rule := range rules {
			v, ok := rule.Apply(c)
			if !ok {
				continue
			}
			f := rule.Field()
			for _, value := range expand(v) {
				if l.conflicts(ctx, kept, f, ns.ID, value) {
					res.Conflicts++
				}
				res.All.Add(f, meta.Candidate{NodeID: ns.ID, Value: value, Rank: rank})
				if inSampler {
					res.Sampler.Add(f, meta.Candidate{NodeID: ns.ID, Value: value, Rank: samplerRank})
				}
			}
		}
	}

	res.All.SortByRank()
	if samplerScope == nil {
		res.Sampler = res.All.Clone()
	} else {
		res.Sampler.SortByRank()
	}
	return res
}

func (l *Live) nodes() []NodeState {
	if l.exec.Nodes != nil {
		return l.exec.Nodes
	}
	ids := l.exec.Prompt.IDs()
	out := make([]NodeState, len(ids))
	for i, id := range ids {
		out[i] = NodeState{ID: id, Active: true}
	}
	return out
}

// conflicts records the first present value per single-value field and
// reports whether value disagrees with it.
func (l *Live) conflicts(ctx context.Context, kept map[meta.Field]meta.Candidate, f meta.Field, nodeID string, value any) bool {
	if f.Multi() || meta.IsBlank(value) || !meta.IsScalar(value) {
		return false
	}
	first, ok := kept[f]
	if !ok {
		kept[f] = meta.Candidate{NodeID: nodeID, Value: value}
		return false
	}
	if sameValue(first.Value, value) {
		return false
	}
	observability.LogConflict(l.logger, f, first.NodeID, nodeID, first.Value, value)
	observability.AddSpanEvent(ctx, "conflict",
		attribute.String("field", f.String()),
		attribute.String("kept_node", first.NodeID),
		attribute.String("node_id", nodeID),
	)
	return true
}

// expand turns a rule result into candidate values. Lists contribute one
// value per element, nil entries included so that index-aligned lists stay
// aligned; a nil scalar contributes nothing.
func expand(v any) []any {
	switch list := v.(type) {
	case nil:
		return nil
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

// sameValue compares scalars numerically when both are numbers, so that 7
// and 7.0 agree.
func sameValue(a, b any) bool {
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		af, aok := meta.ToFloat(a)
		bf, bok := meta.ToFloat(b)
		if aok && bok {
			return af == bf
		}
	}
	return meta.Format(a) == meta.Format(b)
}
