package record

import (
	"strings"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/formatters"
)

// Render formats the record as a parameters string:
//
//	<positive prompt>
//	Negative prompt: <negative prompt>
//	Steps: 20, Sampler: Euler, CFG scale: 7.0, ...
//
// Values are trimmed and newlines collapse to spaces. The negative line is
// omitted when empty, as are empty values on the last line. Embedding
// prefixes are stripped from prompts. An empty record renders to "".
func Render(r *Record) string {
	if r.Len() == 0 {
		return ""
	}
	positive, _ := r.Get(KeyPositive)
	negative, _ := r.Get(KeyNegative)
	positive = stripEmbeddingPrefix(clean(positive))
	negative = stripEmbeddingPrefix(clean(negative))

	lines := []string{positive}
	if negative != "" {
		lines = append(lines, "Negative prompt: "+negative)
	}

	var params []string
	r.Range(func(k, v string) bool {
		if k == KeyPositive || k == KeyNegative {
			return true
		}
		if v = clean(v); v != "" {
			params = append(params, k+": "+v)
		}
		return true
	})
	lines = append(lines, strings.Join(params, ", "))
	return strings.Join(lines, "\n")
}

func clean(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), "\n", " ")
}

func stripEmbeddingPrefix(text string) string {
	return strings.ReplaceAll(text, formatters.EmbeddingPrefix, "")
}
