// Package record builds the ordered key/value metadata record of one pass
// and renders it as an A1111-style parameters string.
package record

import (
	"bytes"
)

// Display keys, in the order the assembler inserts them.
const (
	KeyPositive      = "Positive prompt"
	KeyNegative      = "Negative prompt"
	KeySteps         = "Steps"
	KeySampler       = "Sampler"
	KeyCFG           = "CFG scale"
	KeySeed          = "Seed"
	KeyClipSkip      = "Clip skip"
	KeySize          = "Size"
	KeyModel         = "Model"
	KeyModelHash     = "Model hash"
	KeyVAE           = "VAE"
	KeyVAEHash       = "VAE hash"
	KeyDenoise       = "Denoising strength"
	KeyHiresUpscale  = "Hires upscale"
	KeyHiresUpscaler = "Hires upscaler"
	KeyLoraHashes    = "Lora hashes"
	KeyHashes        = "Hashes"
)

// Record is an insertion-ordered mapping of display key to value. The zero
// value is an empty record; a nil *Record reads as empty.
type Record struct {
	keys   []string
	values map[string]string
}

// New creates an empty record.
func New() *Record {
	return &Record{values: make(map[string]string)}
}

// Set stores v under k. Overwriting keeps the key's original position.
func (r *Record) Set(k, v string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.values[k] = v
}

// Get returns the value stored under k.
func (r *Record) Get(k string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[k]
	return v, ok
}

// Keys returns the keys in insertion order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (r *Record) Range(fn func(k, v string) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// MarshalJSON encodes the record as a JSON object in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	r.Range(func(k, v string) bool {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		writeString(&buf, k)
		buf.WriteByte(':')
		writeString(&buf, v)
		return true
	})
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
