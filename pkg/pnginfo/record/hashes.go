package record

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

// Hashes is the insertion-ordered resource hash map: model, vae, upscaler,
// lora:<name>, embed:<name>.
type Hashes struct {
	keys   []string
	values map[string]string
}

// Add stores hash under key. Empty hashes are ignored; the first hash for a
// key wins.
func (h *Hashes) Add(key, hash string) {
	if hash == "" {
		return
	}
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[key]; ok {
		return
	}
	h.keys = append(h.keys, key)
	h.values[key] = hash
}

// Len returns the number of entries.
func (h *Hashes) Len() int { return len(h.keys) }

// String encodes the map as a JSON object with ", " and ": " separators and
// every non-ASCII character escaped, e.g. {"model": "0123456789"}.
func (h *Hashes) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range h.keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(&buf, k)
		buf.WriteString(": ")
		writeString(&buf, h.values[k])
	}
	buf.WriteByte('}')
	return buf.String()
}

// writeString writes s as a JSON string literal restricted to ASCII.
func writeString(buf *bytes.Buffer, s string) {
	quoted, err := json.MarshalNoEscape(s)
	if err != nil {
		quoted = []byte(strconv.QuoteToASCII(s))
	}
	for len(quoted) > 0 {
		r, size := utf8.DecodeRune(quoted)
		quoted = quoted[size:]
		if r < utf8.RuneSelf {
			buf.WriteRune(r)
			continue
		}
		if r > 0xFFFF {
			r -= 0x10000
			writeEscape(buf, 0xD800+(r>>10))
			writeEscape(buf, 0xDC00+(r&0x3FF))
			continue
		}
		writeEscape(buf, r)
	}
}

func writeEscape(buf *bytes.Buffer, r rune) {
	const hex = "0123456789abcdef"
	buf.WriteString(`\u`)
	buf.WriteByte(hex[r>>12&0xF])
	buf.WriteByte(hex[r>>8&0xF])
	buf.WriteByte(hex[r>>4&0xF])
	buf.WriteByte(hex[r&0xF])
}
