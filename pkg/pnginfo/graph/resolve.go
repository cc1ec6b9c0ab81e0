package graph

// InputResolver resolves a node's inputs against the execution engine's
// state. Literal inputs resolve to a one-element list; linked inputs resolve
// to the upstream output list. Inputs that cannot be resolved are omitted.
// Implementations must not block or mutate the engine's caches.
type InputResolver interface {
	ResolveInputs(nodeID string, node Node) map[string][]any
}

// ResolverFunc adapts a function to InputResolver.
type ResolverFunc func(nodeID string, node Node) map[string][]any

// ResolveInputs implements InputResolver.
func (f ResolverFunc) ResolveInputs(nodeID string, node Node) map[string][]any {
	return f(nodeID, node)
}

// Outputs is an execution output cache: node id -> output slots, each slot
// holding the list of values produced for it.
type Outputs map[string][][]any

// CacheResolver resolves links against an Outputs cache.
type CacheResolver struct {
	Outputs Outputs
}

// ResolveInputs implements InputResolver.
func (r CacheResolver) ResolveInputs(_ string, node Node) map[string][]any {
	out := make(map[string][]any, len(node.Inputs))
	for name, v := range node.Inputs {
		src, slot, ok := Link(v)
		if !ok {
			out[name] = []any{v}
			continue
		}
		slots, ok := r.Outputs[src]
		if !ok || slot < 0 || slot >= len(slots) {
			continue
		}
		out[name] = slots[slot]
	}
	return out
}

// Latent is an executed latent batch as seen by the collector. Shape is
// NCHW in latent space; pixel size is eight times the spatial dimensions.
type Latent struct {
	Shape []int
}

// Executed reports whether the latent carries a usable NCHW shape.
func (l Latent) Executed() bool {
	return len(l.Shape) == 4 && l.Shape[2] > 0 && l.Shape[3] > 0
}
