// Package lora merges LoRA references declared by loader nodes with inline
// <lora:NAME:WEIGHT> tags found in prompt text.
//
// References are grouped by (hash, weight) so that the same file at the same
// strength is reported once, whichever way it was declared. Each group gets
// a canonical name: the shortest sanitized name among its members.
package lora

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

// Source tells where a reference was declared.
type Source string

// Reference sources.
const (
	SourceLoader Source = "loader"
	SourcePrompt Source = "prompt_parse"
)

// tagRe matches inline tags. Extraction is case-sensitive; the presence
// check in HasTags is not.
var tagRe = regexp.MustCompile(`<(lora|lyco):([a-zA-Z0-9_\./\\-]+):([0-9.]+)>`)

// Reference is one LoRA declaration.
type Reference struct {
	Source Source
	// NodeID is the loader node, empty for prompt tags.
	NodeID string
	Name   string
	Weight float64
	// WeightText is the weight as it will be displayed.
	WeightText string
	Hash       string
}

// Complete reports whether the reference carries a name, a non-zero weight
// and a hash. Incomplete references never take part in grouping.
func (r Reference) Complete() bool {
	return strings.TrimSpace(r.Name) != "" && r.Weight != 0 && r.Hash != ""
}

// Group is a set of references to the same file at the same weight.
type Group struct {
	// Name is the canonical name.
	Name       string
	Hash       string
	Weight     float64
	WeightText string
	// Names are the sanitized names of every member, in discovery order.
	Names []string
	// InPrompt is true when the prompt already carries a tag for the hash.
	InPrompt bool
}

// Tag returns the inline tag for the group, e.g. "<lora:styleA:0.8>".
func (g Group) Tag() string {
	return "<lora:" + g.Name + ":" + g.WeightText + ">"
}

// Result is the outcome of reconciling one pass.
type Result struct {
	// References holds loader references followed by prompt references.
	References []Reference
	Groups     []Group
	// Tags are the inline tags to append to the positive prompt.
	Tags []string
	// HashList is the comma-joined "name: hash" list over all groups.
	HashList string
	// Positive is the positive prompt with inline tags rewritten to
	// sanitized names.
	Positive string
}

// Reconcile merges loader candidates from in with inline tags parsed from
// every prompt text: the displayed positive and negative prompts plus each
// prompt candidate in in. Only the displayed positive is rewritten. h hashes
// prompt-declared names; nil leaves them unhashed, which drops them from
// grouping.
func Reconcile(in meta.Inputs, positive, negative string, h capture.Hasher) Result {
	refs := LoaderReferences(in)
	texts := PromptTexts(in, positive, negative)
	var fromPrompt []Reference
	if HasTags(strings.Join(texts, " ")) {
		for _, text := range texts {
			fromPrompt = append(fromPrompt, PromptReferences(text, h)...)
		}
	}
	refs = append(refs, fromPrompt...)

	inPrompt := make(map[string]bool, len(fromPrompt))
	for _, r := range fromPrompt {
		if r.Hash != "" {
			inPrompt[strings.ToLower(r.Hash)] = true
		}
	}

	res := Result{References: refs, Groups: groupReferences(refs), Positive: positive}
	hashList := make([]string, 0, len(res.Groups))
	for i := range res.Groups {
		g := &res.Groups[i]
		g.InPrompt = inPrompt[strings.ToLower(g.Hash)]
		if !g.InPrompt {
			res.Tags = append(res.Tags, g.Tag())
		}
		hashList = append(hashList, g.Name+": "+g.Hash)
	}
	res.HashList = strings.Join(hashList, ", ")
	if len(fromPrompt) > 0 {
		res.Positive = Rewrite(positive)
	}
	return res
}

// PromptTexts returns positive, negative and every other positive or
// negative prompt candidate of in, each distinct text once.
func PromptTexts(in meta.Inputs, positive, negative string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(text string) {
		if strings.TrimSpace(text) == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, text)
	}
	add(positive)
	add(negative)
	for _, text := range in.Strings(meta.PositivePrompt) {
		add(text)
	}
	for _, text := range in.Strings(meta.NegativePrompt) {
		add(text)
	}
	return out
}

type groupKey struct {
	hash   string
	weight float64
}

func groupReferences(refs []Reference) []Group {
	var groups []Group
	index := make(map[groupKey]int)
	for _, r := range refs {
		if !r.Complete() {
			continue
		}
		key := groupKey{hash: r.Hash, weight: r.Weight}
		name := CleanName(r.Name)
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, Group{
				Name:       name,
				Hash:       r.Hash,
				Weight:     r.Weight,
				WeightText: r.WeightText,
				Names:      []string{name},
			})
			continue
		}
		g := &groups[i]
		g.Names = append(g.Names, name)
		if len(name) < len(g.Name) {
			g.Name = name
		}
	}
	return groups
}

// LoaderReferences pairs the loader name, strength and hash candidates of in
// by node id, in name discovery order.
func LoaderReferences(in meta.Inputs) []Reference {
	weights := byNode(in.Get(meta.LoraStrengthModel))
	hashes := byNode(in.Get(meta.LoraModelHash))

	var refs []Reference
	for _, c := range in.Get(meta.LoraModelName) {
		r := Reference{Source: SourceLoader, NodeID: c.NodeID}
		r.Name, _ = c.Value.(string)
		if w, ok := weights.next(c.NodeID); ok {
			if f, ok := meta.ToFloat(w); ok {
				r.Weight = f
				r.WeightText = meta.Format(w)
			}
		}
		if v, ok := hashes.next(c.NodeID); ok {
			r.Hash, _ = v.(string)
		}
		refs = append(refs, r)
	}
	return refs
}

// nodeQueue hands out a node's candidate values in order.
type nodeQueue map[string][]any

func byNode(cands []meta.Candidate) nodeQueue {
	q := make(nodeQueue)
	for _, c := range cands {
		q[c.NodeID] = append(q[c.NodeID], c.Value)
	}
	return q
}

func (q nodeQueue) next(nodeID string) (any, bool) {
	vals := q[nodeID]
	if len(vals) == 0 {
		return nil, false
	}
	q[nodeID] = vals[1:]
	return vals[0], true
}

// PromptReferences parses the inline tags of text. Weights that are not
// numbers leave the reference incomplete.
func PromptReferences(text string, h capture.Hasher) []Reference {
	text = flatten(text)
	var refs []Reference
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		r := Reference{Source: SourcePrompt, Name: m[2]}
		if w, err := strconv.ParseFloat(m[3], 64); err == nil {
			r.Weight = w
			r.WeightText = meta.FormatFloat(w)
		}
		if h != nil {
			r.Hash = h.Hash(hashing.Lora, m[2])
		}
		refs = append(refs, r)
	}
	return refs
}

// HasTags reports whether text contains an inline tag opener, ignoring case.
func HasTags(text string) bool {
	lower := strings.ToLower(flatten(text))
	return strings.Contains(lower, "<lora:") || strings.Contains(lower, "<lyco:")
}

// Rewrite replaces the name of every inline tag in text with its sanitized
// form. Tag kind and weight are kept as written.
func Rewrite(text string) string {
	return tagRe.ReplaceAllStringFunc(text, func(tag string) string {
		m := tagRe.FindStringSubmatch(tag)
		return "<" + m[1] + ":" + CleanName(m[2]) + ":" + m[3] + ">"
	})
}

// CleanName strips the directory and extension from a model name and
// replaces backslashes, slashes, spaces and colons with underscores.
//
//	CleanName("loras/style A.safetensors") == "style_A"
func CleanName(name string) string {
	base := name[strings.LastIndex(name, "/")+1:]
	base = stripExt(base)
	return nameReplacer.Replace(base)
}

var nameReplacer = strings.NewReplacer(`\`, "_", "/", "_", " ", "_", ":", "_")

// stripExt removes the last extension. Leading dots do not start one, so
// ".hidden" keeps its name.
func stripExt(base string) string {
	trimmed := strings.TrimLeft(base, ".")
	i := strings.LastIndex(trimmed, ".")
	if i < 0 {
		return base
	}
	return base[:len(base)-len(trimmed)+i]
}

func flatten(text string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
}
