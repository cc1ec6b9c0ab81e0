// Package graph models the executed prompt graph as a read-only snapshot and
// provides the lookups the metadata collectors need: structural signature
// matching, one-hop text resolution, upstream tracing and downstream
// consumer discovery.
//
// A Prompt keeps the node order of its source document. Every "first match"
// lookup follows that order, so results are deterministic.
package graph

import (
	"sort"
	"strconv"
)

// Node is one entry of the prompt graph.
//
// Inputs values are either literals (string, bool, int64, float64, nested
// lists/maps) or links of the form [source_node_id, output_slot].
type Node struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// Input returns the raw input value for name.
func (n Node) Input(name string) (any, bool) {
	v, ok := n.Inputs[name]
	return v, ok
}

// HasFields reports whether the node declares every named input.
func (n Node) HasFields(fields ...string) bool {
	for _, f := range fields {
		if _, ok := n.Inputs[f]; !ok {
			return false
		}
	}
	return true
}

// Prompt is an ordered node_id -> Node snapshot. The zero value and a nil
// *Prompt are both empty graphs.
type Prompt struct {
	nodes map[string]Node
	order []string
}

// New creates an empty prompt graph.
func New() *Prompt {
	return &Prompt{nodes: make(map[string]Node)}
}

// Add inserts or replaces a node. Replacing keeps the original position.
// Returns the prompt for chaining.
func (p *Prompt) Add(id string, n Node) *Prompt {
	if p.nodes == nil {
		p.nodes = make(map[string]Node)
	}
	if _, exists := p.nodes[id]; !exists {
		p.order = append(p.order, id)
	}
	p.nodes[id] = n
	return p
}

// Node returns the node with the given id.
func (p *Prompt) Node(id string) (Node, bool) {
	if p == nil {
		return Node{}, false
	}
	n, ok := p.nodes[id]
	return n, ok
}

// Has reports whether id is part of the graph.
func (p *Prompt) Has(id string) bool {
	_, ok := p.Node(id)
	return ok
}

// Len returns the number of nodes.
func (p *Prompt) Len() int {
	if p == nil {
		return 0
	}
	return len(p.order)
}

// IDs returns node ids in document order.
func (p *Prompt) IDs() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.order...)
}

// Range calls fn for each node in document order until fn returns false.
func (p *Prompt) Range(fn func(id string, n Node) bool) {
	if p == nil {
		return
	}
	for _, id := range p.order {
		if !fn(id, p.nodes[id]) {
			return
		}
	}
}

// FindNodeWithFields returns the first node whose inputs are a superset of
// fields.
func (p *Prompt) FindNodeWithFields(fields ...string) (string, Node, bool) {
	var (
		foundID string
		found   Node
		ok      bool
	)
	p.Range(func(id string, n Node) bool {
		if n.HasFields(fields...) {
			foundID, found, ok = id, n, true
			return false
		}
		return true
	})
	return foundID, found, ok
}

// Match pairs a node with its id.
type Match struct {
	ID   string
	Node Node
}

// FindAllNodesWithFields returns every node whose inputs are a superset of
// fields, in document order.
func (p *Prompt) FindAllNodesWithFields(fields ...string) []Match {
	var out []Match
	p.Range(func(id string, n Node) bool {
		if n.HasFields(fields...) {
			out = append(out, Match{ID: id, Node: n})
		}
		return true
	})
	return out
}

// Link decodes a link input [source_id, slot]. Numeric source ids are
// accepted and converted to their decimal string form.
func Link(v any) (source string, slot int, ok bool) {
	list, isList := v.([]any)
	if !isList || len(list) != 2 {
		return "", 0, false
	}
	switch id := list[0].(type) {
	case string:
		source = id
	case int64:
		source = strconv.FormatInt(id, 10)
	case int:
		source = strconv.Itoa(id)
	case float64:
		if id != float64(int64(id)) {
			return "", 0, false
		}
		source = strconv.FormatInt(int64(id), 10)
	default:
		return "", 0, false
	}
	switch s := list[1].(type) {
	case int64:
		slot = int(s)
	case int:
		slot = s
	case float64:
		if s != float64(int(s)) {
			return "", 0, false
		}
		slot = int(s)
	default:
		return "", 0, false
	}
	return source, slot, true
}

// RefID extracts the referenced node id from a link or a bare id string.
func RefID(v any) (string, bool) {
	if id, ok := v.(string); ok {
		return id, id != ""
	}
	id, _, ok := Link(v)
	return id, ok
}

// Text follows a reference one hop and returns the target node's "text"
// input. Unresolvable references and non-string text yield false.
func (p *Prompt) Text(ref any) (id, text string, ok bool) {
	id, ok = RefID(ref)
	if !ok {
		return "", "", false
	}
	n, ok := p.Node(id)
	if !ok {
		return id, "", false
	}
	text, ok = n.Inputs["text"].(string)
	return id, text, ok
}

// Edge is a link from a consumer node's named input to a source node.
type Edge struct {
	NodeID string
	Input  string
}

// Consumers returns the inputs that link to id, in document order with input
// names sorted within a node.
func (p *Prompt) Consumers(id string) []Edge {
	var out []Edge
	p.Range(func(nodeID string, n Node) bool {
		names := make([]string, 0, len(n.Inputs))
		for name, v := range n.Inputs {
			if src, _, ok := Link(v); ok && src == id {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, Edge{NodeID: nodeID, Input: name})
		}
		return true
	})
	return out
}
