package formatters

import (
	"path"
	"regexp"
	"strings"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
)

// EmbeddingPrefix marks an embedding reference inside prompt text.
const EmbeddingPrefix = "embedding:"

var embeddingRe = regexp.MustCompile(`embedding:([^\s,()\[\]<>:]+)`)

// EmbeddingRefs returns the raw embedding references in text, in order of
// appearance, e.g. "sub/easynegative.pt" for "(embedding:sub/easynegative.pt:1.2)".
func EmbeddingRefs(text string) []string {
	var out []string
	for _, m := range embeddingRe.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.ReplaceAll(m[1], `\`, "/"))
	}
	return out
}

// EmbeddingNames returns the base names of the embeddings referenced in text.
func EmbeddingNames(text string) []string {
	refs := EmbeddingRefs(text)
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = path.Base(ref)
	}
	return out
}

// EmbeddingHashes returns hashes index-aligned with EmbeddingNames; an entry
// is "" when the embedding file cannot be hashed.
func EmbeddingHashes(text string, h capture.Hasher) []string {
	refs := EmbeddingRefs(text)
	out := make([]string, len(refs))
	if h == nil {
		return out
	}
	for i, ref := range refs {
		out[i] = h.Hash(hashing.Embedding, ref)
	}
	return out
}

// EmbeddingNamesFormat is the rule form of EmbeddingNames.
func EmbeddingNamesFormat(raw any, _ *capture.Context) any {
	text, ok := raw.(string)
	if !ok {
		return nil
	}
	names := EmbeddingNames(text)
	if len(names) == 0 {
		return nil
	}
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

// EmbeddingHashesFormat is the rule form of EmbeddingHashes. Missing hashes
// stay as nil entries to keep index alignment with the names.
func EmbeddingHashesFormat(raw any, c *capture.Context) any {
	text, ok := raw.(string)
	if !ok {
		return nil
	}
	hashes := EmbeddingHashes(text, c.Hasher)
	if len(hashes) == 0 {
		return nil
	}
	out := make([]any, len(hashes))
	for i, h := range hashes {
		if h != "" {
			out[i] = h
		}
	}
	return out
}
