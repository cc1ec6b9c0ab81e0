package capture

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Sentinel errors for registry construction.
var (
	// ErrFrozen indicates a registration after Freeze.
	ErrFrozen = errors.New("registry is frozen")

	// ErrDuplicateRule indicates two rules for the same field on one node type.
	ErrDuplicateRule = errors.New("duplicate rule for field")

	// ErrInvalidField indicates a rule for a field outside the closed set.
	ErrInvalidField = errors.New("invalid field")
)

// Registry maps node-type names to their rules. It is built once, frozen,
// and then shared read-only by every metadata pass.
type Registry struct {
	mu     sync.RWMutex
	rules  map[string][]Rule
	frozen bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string][]Rule)}
}

// Register sets the rules for a node type, replacing any earlier entry.
// A node type may declare at most one rule per field.
func (r *Registry) Register(nodeType string, rules ...Rule) error {
	return r.registerAll([]string{nodeType}, map[string][]Rule{nodeType: rules})
}

// registerAll validates every node type before setting any of them.
func (r *Registry) registerAll(nodeTypes []string, rules map[string][]Rule) error {
	for _, t := range nodeTypes {
		if err := validateRules(t, rules[t]); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}
	for _, t := range nodeTypes {
		r.rules[t] = append([]Rule(nil), rules[t]...)
	}
	return nil
}

func validateRules(nodeType string, rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		f := rule.Field()
		if !f.Valid() {
			return fmt.Errorf("%s: %w %d", nodeType, ErrInvalidField, int(f))
		}
		if seen[f.String()] {
			return fmt.Errorf("%s: %w %s", nodeType, ErrDuplicateRule, f)
		}
		seen[f.String()] = true
	}
	return nil
}

// MustRegister is Register that panics on error. Use it for static tables.
func (r *Registry) MustRegister(nodeType string, rules ...Rule) *Registry {
	if err := r.Register(nodeType, rules...); err != nil {
		panic(err)
	}
	return r
}

// Freeze makes the registry read-only. Returns the registry for chaining.
func (r *Registry) Freeze() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	return r
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the rules for a node type in declaration order.
// Unknown node types yield nil; they are skipped, never an error.
func (r *Registry) Lookup(nodeType string) []Rule {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[nodeType]
}

// Has reports whether the node type has rules.
func (r *Registry) Has(nodeType string) bool {
	return len(r.Lookup(nodeType)) > 0
}

// NodeTypes returns the registered node types, sorted.
func (r *Registry) NodeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rules))
	for t := range r.rules {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Clone returns an unfrozen copy, used to layer extensions over a frozen
// base registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for t, rules := range r.rules {
		out.rules[t] = append([]Rule(nil), rules...)
	}
	return out
}
