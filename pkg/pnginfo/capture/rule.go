// Package capture holds the field registry: for each node type, the rules
// that bind semantic metadata fields to node inputs.
//
// A rule is either a field binding (read an input, optionally validate and
// format it) or a literal binding (a constant value). Rules are pure: they
// read the node snapshot and resolved inputs in Context and never mutate
// them.
//
//	r := capture.NewRegistry()
//	r.MustRegister("CheckpointLoaderSimple",
//	    capture.Bind(meta.ModelName, "ckpt_name"),
//	    capture.Bind(meta.ModelHash, "ckpt_name", capture.WithFormat(formatters.ModelHash)),
//	)
//	r.Freeze()
package capture

import (
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

// Hasher computes short content hashes for model files; "" means no hash.
type Hasher interface {
	Hash(kind hashing.Kind, name string) string
}

// Context is what a rule sees while being applied to one node.
type Context struct {
	NodeID string
	Node   graph.Node
	Prompt *graph.Prompt

	// Inputs are the resolved input lists from the execution engine.
	// Nil when collecting from the static graph only.
	Inputs map[string][]any

	Hasher Hasher
}

// Input returns the value of the named input: the first resolved value when
// Inputs is set, otherwise the literal from the node snapshot. Links that
// were not resolved are reported as missing.
func (c *Context) Input(name string) (any, bool) {
	if c.Inputs != nil {
		vals, ok := c.Inputs[name]
		if !ok || len(vals) == 0 {
			return nil, false
		}
		return vals[0], true
	}
	v, ok := c.Node.Inputs[name]
	if !ok {
		return nil, false
	}
	if _, _, isLink := graph.Link(v); isLink {
		return nil, false
	}
	return v, true
}

// Hash hashes name with the configured Hasher, "" without one.
func (c *Context) Hash(kind hashing.Kind, name string) string {
	if c.Hasher == nil || name == "" {
		return ""
	}
	return c.Hasher.Hash(kind, name)
}

// FormatFunc transforms a raw input value. It must be total: any raw value
// yields a result, nil when nothing can be derived.
type FormatFunc func(raw any, c *Context) any

// ValidateFunc gates a rule. Returning false means the rule yields no
// candidate for this node.
type ValidateFunc func(c *Context) bool

// Rule binds one semantic field on one node type.
type Rule interface {
	// Field is the semantic field this rule produces.
	Field() meta.Field

	// Apply resolves the rule against a node. ok is false when the rule
	// yields no candidate.
	Apply(c *Context) (value any, ok bool)
}

// RuleOption configures a field binding.
type RuleOption func(*binding)

// WithFormat transforms the raw input with f.
func WithFormat(f FormatFunc) RuleOption {
	return func(b *binding) {
		b.format = f
	}
}

// WithValidate gates the binding with v.
func WithValidate(v ValidateFunc) RuleOption {
	return func(b *binding) {
		b.validate = v
	}
}

// Bind creates a rule that reads input for field.
func Bind(field meta.Field, input string, opts ...RuleOption) Rule {
	b := &binding{field: field, input: input}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Literal creates a rule that always yields value for field.
func Literal(field meta.Field, value any) Rule {
	return literal{field: field, value: value}
}

type binding struct {
	field    meta.Field
	input    string
	format   FormatFunc
	validate ValidateFunc
}

func (b *binding) Field() meta.Field { return b.field }

// Input is the node input the binding reads.
func (b *binding) Input() string { return b.input }

func (b *binding) Apply(c *Context) (any, bool) {
	raw, ok := c.Input(b.input)
	if !ok {
		return nil, false
	}
	if b.validate != nil && !b.validate(c) {
		return nil, false
	}
	if b.format != nil {
		return b.format(raw, c), true
	}
	return raw, true
}

type literal struct {
	field meta.Field
	value any
}

func (l literal) Field() meta.Field { return l.field }

func (l literal) Apply(*Context) (any, bool) { return l.value, true }
