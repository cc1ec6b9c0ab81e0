package record

import (
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/lora"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/observability"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/sampler"
)

// Option configures Assemble.
type Option func(*assembler)

// WithCivitaiSampler selects display sampler names (default) or the raw
// sampler_scheduler form.
func WithCivitaiSampler(enabled bool) Option {
	return func(a *assembler) {
		a.civitai = enabled
	}
}

// WithHasher sets the hasher used for LoRA tags found in prompt text.
func WithHasher(h capture.Hasher) Option {
	return func(a *assembler) {
		a.hasher = h
	}
}

// WithLogger sets the logger for assembly warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *assembler) {
		a.logger = l
	}
}

type assembler struct {
	civitai bool
	hasher  capture.Hasher
	logger  *slog.Logger

	sampler meta.Inputs
	all     meta.Inputs
	rec     *Record
}

// Assemble builds the record from the sampler-scoped pool and the wide
// pool. It returns an empty record when no step count was collected, which
// tells the caller not to attach metadata.
func Assemble(samplerPool, allPool meta.Inputs, opts ...Option) *Record {
	a := &assembler{civitai: true, sampler: samplerPool, all: allPool, rec: New()}
	for _, opt := range opts {
		opt(a)
	}
	if a.sampler == nil {
		a.sampler = meta.Inputs{}
	}
	if a.all == nil {
		a.all = meta.Inputs{}
	}
	return a.assemble()
}

// extract copies the first valid candidate of f from in to key.
func (a *assembler) extract(in meta.Inputs, f meta.Field, key string) (string, bool) {
	v, ok := in.FirstString(f)
	if ok {
		a.rec.Set(key, v)
	}
	return v, ok
}

func (a *assembler) assemble() *Record {
	positive, _ := a.sampler.FirstString(meta.PositivePrompt)
	negative, hasNegative := a.sampler.FirstString(meta.NegativePrompt)

	loras := lora.Reconcile(a.sampler, positive, negative, a.hasher)
	positive = loras.Positive
	if len(loras.Tags) > 0 {
		positive += " " + strings.Join(loras.Tags, " ")
	}
	positive = strings.TrimSpace(positive)
	if positive == "" {
		observability.LogBlankPositive(a.logger)
	}
	a.rec.Set(KeyPositive, positive)
	if hasNegative {
		a.rec.Set(KeyNegative, strings.TrimSpace(negative))
	}

	if _, ok := a.extract(a.sampler, meta.Steps, KeySteps); !ok {
		return New()
	}

	if name := a.samplerName(); name != "" {
		a.rec.Set(KeySampler, name)
	}
	a.extract(a.sampler, meta.CFG, KeyCFG)
	a.extract(a.sampler, meta.Seed, KeySeed)
	if _, ok := a.extract(a.sampler, meta.ClipSkip, KeyClipSkip); !ok {
		a.rec.Set(KeyClipSkip, "1")
	}

	if size, ok := a.size(); ok {
		a.rec.Set(KeySize, size)
	}

	a.extract(a.sampler, meta.ModelName, KeyModel)
	a.extract(a.sampler, meta.ModelHash, KeyModelHash)
	a.extract(a.all, meta.VAEName, KeyVAE)
	a.extract(a.all, meta.VAEHash, KeyVAEHash)

	a.denoise()

	a.extract(a.all, meta.UpscaleBy, KeyHiresUpscale)
	a.extract(a.all, meta.UpscaleModelName, KeyHiresUpscaler)

	if loras.HashList != "" {
		a.rec.Set(KeyLoraHashes, `"`+loras.HashList+`"`)
	}

	hashes := &Hashes{}
	if h, ok := a.sampler.FirstString(meta.ModelHash); ok {
		hashes.Add("model", h)
	}
	if h, ok := a.all.FirstString(meta.VAEHash); ok {
		hashes.Add("vae", h)
	}
	if h, ok := a.all.FirstString(meta.UpscaleModelHash); ok {
		hashes.Add("upscaler", h)
	}

	for i, g := range loras.Groups {
		prefix := "Lora_" + strconv.Itoa(i)
		a.rec.Set(prefix+" name", g.Name)
		a.rec.Set(prefix+" hash", g.Hash)
		hashes.Add("lora:"+g.Name, g.Hash)
	}
	for i, e := range embeddings(a.sampler) {
		prefix := "Embedding_" + strconv.Itoa(i)
		a.rec.Set(prefix+" name", e.name)
		if e.hash != "" {
			a.rec.Set(prefix+" hash", e.hash)
		}
		hashes.Add("embed:"+e.name, e.hash)
	}

	if hashes.Len() > 0 {
		a.rec.Set(KeyHashes, hashes.String())
	}
	return a.rec
}

func (a *assembler) samplerName() string {
	name, ok := a.sampler.FirstString(meta.SamplerName)
	if !ok {
		return ""
	}
	scheduler, _ := a.sampler.FirstString(meta.Scheduler)
	if a.civitai {
		return sampler.DisplayName(name, scheduler)
	}
	return sampler.RawName(name, scheduler)
}

// size formats the first width and height when both are non-zero integers.
func (a *assembler) size() (string, bool) {
	wc, ok := a.sampler.First(meta.ImageWidth)
	if !ok {
		return "", false
	}
	hc, ok := a.sampler.First(meta.ImageHeight)
	if !ok {
		return "", false
	}
	w, wok := meta.ToInt(wc.Value)
	h, hok := meta.ToInt(hc.Value)
	if !wok || !hok || w == 0 || h == 0 {
		return "", false
	}
	return strconv.FormatInt(w, 10) + "x" + strconv.FormatInt(h, 10), true
}

// denoise emits the strength when it is strictly between 0 and 1. Upscale
// passes denoise a second time, so any upscale field forces the key, with
// 1.0 standing in for a missing or zero strength.
func (a *assembler) denoise() {
	var d float64
	if c, ok := a.sampler.First(meta.Denoise); ok {
		d, _ = meta.ToFloat(c.Value)
	}
	if d > 0 && d < 1 {
		a.rec.Set(KeyDenoise, meta.FormatFloat(d))
	}
	if a.all.Has(meta.UpscaleBy) || a.all.Has(meta.UpscaleModelName) {
		if d == 0 {
			d = 1.0
		}
		a.rec.Set(KeyDenoise, meta.FormatFloat(d))
	}
}

type embedding struct {
	name string
	hash string
}

// embeddings pairs embedding names with their index-aligned hashes. Names
// are reported without extension, once each.
func embeddings(in meta.Inputs) []embedding {
	names := in.Values(meta.EmbeddingName)
	hashes := in.Values(meta.EmbeddingHash)
	seen := make(map[string]bool, len(names))
	var out []embedding
	for i, v := range names {
		raw, ok := v.(string)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		name := stem(raw)
		if seen[name] {
			continue
		}
		seen[name] = true
		e := embedding{name: name}
		if i < len(hashes) {
			e.hash, _ = hashes[i].(string)
		}
		out = append(out, e)
	}
	return out
}

// stem returns the base name without its extension. A leading dot does not
// start an extension.
func stem(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := path.Ext(base)
	if ext == base {
		return base
	}
	return strings.TrimSuffix(base, ext)
}
