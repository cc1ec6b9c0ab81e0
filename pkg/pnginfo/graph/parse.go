package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// ErrNotObject indicates the prompt document is not a JSON object.
var ErrNotObject = errors.New("prompt is not a JSON object")

// Parse decodes a prompt document ({"id": {"class_type": ..., "inputs": {...}}})
// keeping node order. Integers decode to int64 and other numbers to float64,
// so 7 and 7.0 stay distinguishable.
func Parse(data []byte) (*Prompt, error) {
	return Decode(bytes.NewReader(data))
}

// Decode is Parse over a reader.
func Decode(r io.Reader) (*Prompt, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read prompt: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	p := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read node id: %w", err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("read node id: unexpected token %v", tok)
		}
		var n Node
		if err := dec.Decode(&n); err != nil {
			return nil, fmt.Errorf("decode node %s: %w", id, err)
		}
		for name, v := range n.Inputs {
			n.Inputs[name] = normalize(v)
		}
		p.Add(id, n)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read prompt end: %w", err)
	}
	return p, nil
}

// normalize replaces json.Number with int64 or float64, recursively.
func normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		for i := range val {
			val[i] = normalize(val[i])
		}
		return val
	case map[string]any:
		for k := range val {
			val[k] = normalize(val[k])
		}
		return val
	}
	return v
}
