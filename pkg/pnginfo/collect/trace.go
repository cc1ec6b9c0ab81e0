package collect

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/formatters"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

// Trace collects candidates from the static graph by input signature. It
// needs no registry and no engine state; values are read as literals, so
// linked inputs never produce a usable candidate.
type Trace struct {
	prompt *graph.Prompt
	hasher capture.Hasher
	logger *slog.Logger
}

// NewTrace creates a trace collector over p.
func NewTrace(p *graph.Prompt, opts ...Option) *Trace {
	o := buildOptions(opts)
	return &Trace{prompt: p, hasher: o.hasher, logger: o.logger}
}

// Mode implements Collector.
func (t *Trace) Mode() string { return ModeTrace }

// Hasher implements Hashed.
func (t *Trace) Hasher() capture.Hasher { return t.hasher }

// Collect implements Collector. Both pools hold the same candidates.
func (t *Trace) Collect(_ context.Context) *Result {
	in := meta.Inputs{}
	p := t.prompt
	if p == nil || p.Len() == 0 {
		return &Result{Sampler: in, All: meta.Inputs{}}
	}
	add := func(f meta.Field, nodeID string, v any) {
		if v != nil {
			in.Add(f, meta.Candidate{NodeID: nodeID, Value: v})
		}
	}
	ctxFor := func(id string, n graph.Node) *capture.Context {
		return &capture.Context{NodeID: id, Node: n, Prompt: p, Hasher: t.hasher}
	}

	for _, m := range p.FindAllNodesWithFields("lora_name", "strength_model") {
		name := m.Node.Inputs["lora_name"]
		add(meta.LoraModelName, m.ID, name)
		add(meta.LoraModelHash, m.ID, formatters.LoraHash(name, ctxFor(m.ID, m.Node)))
		add(meta.LoraStrengthModel, m.ID, m.Node.Inputs["strength_model"])
		if clip, ok := m.Node.Inputs["strength_clip"]; ok {
			add(meta.LoraStrengthClip, m.ID, clip)
		}
	}

	if id, n, ok := p.FindNodeWithFields("ckpt_name"); ok {
		name := n.Inputs["ckpt_name"]
		add(meta.ModelName, id, name)
		add(meta.ModelHash, id, formatters.ModelHash(name, ctxFor(id, n)))
	} else if id, n, ok := p.FindNodeWithFields("unet_name"); ok {
		name := n.Inputs["unet_name"]
		add(meta.ModelName, id, name)
		add(meta.ModelHash, id, formatters.UNetHash(name, ctxFor(id, n)))
	}

	if id, n, ok := p.FindNodeWithFields("vae_name"); ok {
		name := n.Inputs["vae_name"]
		add(meta.VAEName, id, name)
		add(meta.VAEHash, id, formatters.VAEHash(name, ctxFor(id, n)))
	}

	if id, n, ok := p.FindNodeWithFields("stop_at_clip_layer"); ok {
		add(meta.ClipSkip, id, formatters.ClipSkip(n.Inputs["stop_at_clip_layer"], nil))
	}

	if id, n, ok := p.FindNodeWithFields("denoise"); ok {
		add(meta.Denoise, id, n.Inputs["denoise"])
	}

	samplerID, sampler, ok := p.FindNodeWithFields("seed", "steps", "cfg", "sampler_name", "scheduler")
	seedInput := "seed"
	if !ok {
		samplerID, sampler, ok = p.FindNodeWithFields("noise_seed", "steps", "cfg", "sampler_name", "scheduler")
		seedInput = "noise_seed"
	}
	if ok {
		add(meta.Seed, samplerID, sampler.Inputs[seedInput])
		add(meta.Steps, samplerID, sampler.Inputs["steps"])
		add(meta.CFG, samplerID, sampler.Inputs["cfg"])
		add(meta.SamplerName, samplerID, sampler.Inputs["sampler_name"])
		add(meta.Scheduler, samplerID, sampler.Inputs["scheduler"])
	} else if t.logger != nil {
		t.logger.Debug("no sampler signature found in graph")
	}

	if id, n, ok := p.FindNodeWithFields("width", "height"); ok {
		add(meta.ImageWidth, id, n.Inputs["width"])
		add(meta.ImageHeight, id, n.Inputs["height"])
	}

	for _, m := range p.FindAllNodesWithFields("positive", "negative") {
		posID, pos, posOK := p.Text(m.Node.Inputs["positive"])
		negID, neg, negOK := p.Text(m.Node.Inputs["negative"])
		if posOK {
			add(meta.PositivePrompt, posID, pos)
		}
		if negOK {
			add(meta.NegativePrompt, negID, neg)
		}
		for _, text := range []string{pos, neg} {
			names := formatters.EmbeddingNames(text)
			hashes := formatters.EmbeddingHashes(text, t.hasher)
			for i, name := range names {
				in.Add(meta.EmbeddingName, meta.Candidate{NodeID: m.ID, Value: name})
				var h any
				if hashes[i] != "" {
					h = hashes[i]
				}
				in.Add(meta.EmbeddingHash, meta.Candidate{NodeID: m.ID, Value: h})
			}
		}
	}

	return &Result{Sampler: in, All: in.Clone(), SamplerID: samplerID}
}
