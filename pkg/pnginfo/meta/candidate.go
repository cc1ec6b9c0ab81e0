package meta

import (
	"sort"
	"strings"
)

// Candidate is one observed value for a semantic field.
type Candidate struct {
	// NodeID is the graph node that produced the value.
	NodeID string
	// Value is nil, a scalar, or a list for multi-value fields.
	Value any
	// Rank orders candidates for first-match selection; lower wins.
	// Collectors use the trace distance from the scope node.
	Rank int
}

// Inputs maps each semantic field to its candidates in selection order.
// Insertion order is graph discovery order.
type Inputs map[Field][]Candidate

// Add appends a candidate for f.
func (in Inputs) Add(f Field, c Candidate) {
	in[f] = append(in[f], c)
}

// Get returns the candidates for f in selection order.
func (in Inputs) Get(f Field) []Candidate {
	return in[f]
}

// Has reports whether any candidate was recorded for f, valid or not.
func (in Inputs) Has(f Field) bool {
	return len(in[f]) > 0
}

// Values returns the raw candidate values for f.
func (in Inputs) Values(f Field) []any {
	cands := in[f]
	if len(cands) == 0 {
		return nil
	}
	out := make([]any, len(cands))
	for i, c := range cands {
		out[i] = c.Value
	}
	return out
}

// First returns the first candidate for f whose value is present: not nil,
// a scalar, and if a string, non-blank after trimming. Lists and maps are
// never selected for single-value display fields.
func (in Inputs) First(f Field) (Candidate, bool) {
	for _, c := range in[f] {
		if c.Value == nil || !IsScalar(c.Value) {
			continue
		}
		if s, ok := c.Value.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return c, true
	}
	return Candidate{}, false
}

// FirstString returns the formatted value of First(f).
func (in Inputs) FirstString(f Field) (string, bool) {
	c, ok := in.First(f)
	if !ok {
		return "", false
	}
	return Format(c.Value), true
}

// Strings returns every string-typed candidate value for f in order.
func (in Inputs) Strings(f Field) []string {
	var out []string
	for _, c := range in[f] {
		if s, ok := c.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// SortByRank stably orders every field's candidates by Rank so that the
// node closest to the scope node is selected first. Ties keep discovery order.
func (in Inputs) SortByRank() {
	for f, cands := range in {
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].Rank < cands[j].Rank
		})
		in[f] = cands
	}
}

// Clone returns a copy whose candidate slices can be modified independently.
func (in Inputs) Clone() Inputs {
	out := make(Inputs, len(in))
	for f, cands := range in {
		out[f] = append([]Candidate(nil), cands...)
	}
	return out
}

// Len returns the total number of candidates across all fields.
func (in Inputs) Len() int {
	n := 0
	for _, cands := range in {
		n += len(cands)
	}
	return n
}
