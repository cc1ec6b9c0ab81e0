package collect

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/defs"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

type fakeHasher map[string]string

func (f fakeHasher) Hash(kind hashing.Kind, name string) string {
	return f[string(kind)+"/"+name]
}

var testHasher = fakeHasher{
	"checkpoints/model.safetensors": "aaaaaaaaaa",
	"loras/detail.safetensors":      "bbbbbbbbbb",
	"embeddings/good.pt":            "cccccccccc",
}

func link(id string, slot int64) []any { return []any{id, slot} }

// txt2img builds a plain text-to-image graph:
// checkpoint -> lora -> text encoders -> sampler -> decode -> save.
func txt2img() *graph.Prompt {
	return graph.New().
		Add("4", graph.Node{ClassType: "CheckpointLoaderSimple", Inputs: map[string]any{
			"ckpt_name": "model.safetensors",
		}}).
		Add("10", graph.Node{ClassType: "LoraLoader", Inputs: map[string]any{
			"lora_name":      "detail.safetensors",
			"strength_model": 0.8,
			"strength_clip":  1.0,
			"model":          link("4", 0),
			"clip":           link("4", 1),
		}}).
		Add("6", graph.Node{ClassType: "CLIPTextEncode", Inputs: map[string]any{
			"text": "a cat, embedding:good.pt, embedding:missing",
			"clip": link("10", 1),
		}}).
		Add("7", graph.Node{ClassType: "CLIPTextEncode", Inputs: map[string]any{
			"text": "blurry",
			"clip": link("10", 1),
		}}).
		Add("5", graph.Node{ClassType: "EmptyLatentImage", Inputs: map[string]any{
			"width": int64(512), "height": int64(768), "batch_size": int64(1),
		}}).
		Add("3", graph.Node{ClassType: "KSampler", Inputs: map[string]any{
			"seed":         int64(42),
			"steps":        int64(20),
			"cfg":          7.0,
			"sampler_name": "euler",
			"scheduler":    "normal",
			"denoise":      1.0,
			"model":        link("10", 0),
			"positive":     link("6", 0),
			"negative":     link("7", 0),
			"latent_image": link("5", 0),
		}}).
		Add("8", graph.Node{ClassType: "VAEDecode", Inputs: map[string]any{
			"samples": link("3", 0),
			"vae":     link("4", 2),
		}}).
		Add("9", graph.Node{ClassType: "SaveImage", Inputs: map[string]any{
			"images":          link("8", 0),
			"filename_prefix": "out",
		}})
}

func firstValue(t *testing.T, in meta.Inputs, f meta.Field) any {
	t.Helper()
	c, ok := in.First(f)
	require.True(t, ok, "no candidate for %s", f)
	return c.Value
}

func TestLive_Collect(t *testing.T) {
	p := txt2img()
	l := NewLive(Execution{Prompt: p, OutputID: "9"}, defs.Default(), WithHasher(testHasher))
	assert.Equal(t, ModeLive, l.Mode())

	res := l.Collect(context.Background())
	require.NotNil(t, res)
	assert.Equal(t, "3", res.SamplerID)
	assert.Zero(t, res.Conflicts)

	for _, in := range []meta.Inputs{res.Sampler, res.All} {
		assert.Equal(t, "model.safetensors", firstValue(t, in, meta.ModelName))
		assert.Equal(t, "aaaaaaaaaa", firstValue(t, in, meta.ModelHash))
		assert.Equal(t, int64(42), firstValue(t, in, meta.Seed))
		assert.Equal(t, int64(20), firstValue(t, in, meta.Steps))
		assert.Equal(t, 7.0, firstValue(t, in, meta.CFG))
		assert.Equal(t, "euler", firstValue(t, in, meta.SamplerName))
		assert.Equal(t, int64(512), firstValue(t, in, meta.ImageWidth))
		assert.Equal(t, "bbbbbbbbbb", firstValue(t, in, meta.LoraModelHash))
	}
	assert.Greater(t, res.Candidates(), 10)
}

func TestLive_PromptRoleValidators(t *testing.T) {
	res := NewLive(Execution{Prompt: txt2img()}, defs.Default()).Collect(context.Background())

	assert.Equal(t, []any{"a cat, embedding:good.pt, embedding:missing"}, res.All.Values(meta.PositivePrompt))
	assert.Equal(t, []any{"blurry"}, res.All.Values(meta.NegativePrompt))
}

func TestLive_EmbeddingsStayAligned(t *testing.T) {
	res := NewLive(Execution{Prompt: txt2img()}, defs.Default(), WithHasher(testHasher)).
		Collect(context.Background())

	assert.Equal(t, []any{"good.pt", "missing"}, res.All.Values(meta.EmbeddingName))
	assert.Equal(t, []any{"cccccccccc", nil}, res.All.Values(meta.EmbeddingHash))
}

func TestLive_InactiveNodesSkipped(t *testing.T) {
	p := txt2img()
	var nodes []NodeState
	for _, id := range p.IDs() {
		nodes = append(nodes, NodeState{ID: id, Active: id != "10"})
	}

	res := NewLive(Execution{Prompt: p, Nodes: nodes}, defs.Default()).Collect(context.Background())

	assert.False(t, res.All.Has(meta.LoraModelName))
	assert.True(t, res.All.Has(meta.ModelName))
}

func TestLive_ExecutionOrderNodesMissingFromPromptIgnored(t *testing.T) {
	nodes := []NodeState{{ID: "404", Active: true}, {ID: "3", Active: true}}

	res := NewLive(Execution{Prompt: txt2img(), Nodes: nodes}, defs.Default()).Collect(context.Background())

	assert.Equal(t, int64(20), firstValue(t, res.All, meta.Steps))
	assert.False(t, res.All.Has(meta.ModelName))
}

func TestLive_OutputScope(t *testing.T) {
	p := txt2img().Add("20", graph.Node{ClassType: "KSampler", Inputs: map[string]any{
		"seed": int64(1), "steps": int64(99), "cfg": 3.0,
		"sampler_name": "ddim", "scheduler": "karras", "denoise": 1.0,
	}})

	scoped := NewLive(Execution{Prompt: p, OutputID: "9"}, defs.Default()).Collect(context.Background())
	assert.Equal(t, []any{int64(20)}, scoped.All.Values(meta.Steps))
	assert.Zero(t, scoped.Conflicts)

	unscoped := NewLive(Execution{Prompt: p}, defs.Default()).Collect(context.Background())
	assert.Equal(t, []any{int64(20), int64(99)}, unscoped.All.Values(meta.Steps))
	assert.Positive(t, unscoped.Conflicts)
}

func TestLive_NearestSamplerWins(t *testing.T) {
	// Hires fix: a second sampler refines the first one's latent.
	p := txt2img().
		Add("12", graph.Node{ClassType: "KSampler", Inputs: map[string]any{
			"seed": int64(42), "steps": int64(10), "cfg": 7.0,
			"sampler_name": "euler", "scheduler": "normal", "denoise": 0.5,
			"model":        link("10", 0),
			"positive":     link("6", 0),
			"negative":     link("7", 0),
			"latent_image": link("3", 0),
		}}).
		Add("8", graph.Node{ClassType: "VAEDecode", Inputs: map[string]any{
			"samples": link("12", 0),
			"vae":     link("4", 2),
		}})

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	res := NewLive(Execution{Prompt: p, OutputID: "9"}, defs.Default(), WithLogger(logger)).
		Collect(context.Background())

	assert.Equal(t, "12", res.SamplerID)
	assert.Equal(t, int64(10), firstValue(t, res.Sampler, meta.Steps))
	assert.Equal(t, 0.5, firstValue(t, res.Sampler, meta.Denoise))
	assert.Equal(t, 2, res.Conflicts)
	assert.Contains(t, buf.String(), "conflicting input values")
}

func TestLive_ResolvedLinks(t *testing.T) {
	p := txt2img().
		Add("30", graph.Node{ClassType: "PrimitiveNode", Inputs: map[string]any{"value": int64(33)}}).
		Add("3", graph.Node{ClassType: "KSampler", Inputs: map[string]any{
			"seed": link("30", 0), "steps": int64(20), "cfg": 7.0,
			"sampler_name": "euler", "scheduler": "normal", "denoise": 1.0,
			"positive": link("6", 0), "negative": link("7", 0),
		}})

	unresolved := NewLive(Execution{Prompt: p}, defs.Default()).Collect(context.Background())
	assert.False(t, unresolved.All.Has(meta.Seed))

	resolver := graph.CacheResolver{Outputs: graph.Outputs{"30": {{int64(33)}}}}
	resolved := NewLive(Execution{Prompt: p, Resolver: resolver}, defs.Default()).Collect(context.Background())
	assert.Equal(t, int64(33), firstValue(t, resolved.All, meta.Seed))
}

func TestLive_LatentUpscaleByNeedsExecutedLatent(t *testing.T) {
	p := txt2img().Add("13", graph.Node{ClassType: "LatentUpscaleBy", Inputs: map[string]any{
		"upscale_method": "nearest-exact",
		"scale_by":       1.5,
		"samples":        link("3", 0),
	}})

	static := NewLive(Execution{Prompt: p}, defs.Default()).Collect(context.Background())
	assert.Equal(t, []any{int64(512)}, static.All.Values(meta.ImageWidth))

	resolver := graph.ResolverFunc(func(id string, n graph.Node) map[string][]any {
		out := graph.CacheResolver{}.ResolveInputs(id, n)
		if id == "13" {
			out["samples"] = []any{graph.Latent{Shape: []int{1, 4, 96, 64}}}
		}
		return out
	})
	live := NewLive(Execution{Prompt: p, Resolver: resolver}, defs.Default()).Collect(context.Background())
	assert.Equal(t, []any{int64(512), int64(768)}, live.All.Values(meta.ImageWidth))
	assert.Equal(t, []any{int64(768), int64(1152)}, live.All.Values(meta.ImageHeight))
}

func TestLive_NilPrompt(t *testing.T) {
	res := NewLive(Execution{}, defs.Default()).Collect(context.Background())
	assert.Zero(t, res.Candidates())
}

func TestTrace_Collect(t *testing.T) {
	tr := NewTrace(txt2img(), WithHasher(testHasher))
	assert.Equal(t, ModeTrace, tr.Mode())

	res := tr.Collect(context.Background())

	assert.Equal(t, "3", res.SamplerID)
	assert.Equal(t, res.All, res.Sampler)
	assert.Equal(t, "model.safetensors", firstValue(t, res.All, meta.ModelName))
	assert.Equal(t, "aaaaaaaaaa", firstValue(t, res.All, meta.ModelHash))
	assert.Equal(t, int64(20), firstValue(t, res.All, meta.Steps))
	assert.Equal(t, "a cat, embedding:good.pt, embedding:missing", firstValue(t, res.All, meta.PositivePrompt))
	assert.Equal(t, "blurry", firstValue(t, res.All, meta.NegativePrompt))
	assert.Equal(t, []any{"detail.safetensors"}, res.All.Values(meta.LoraModelName))
	assert.Equal(t, []any{"cccccccccc", nil}, res.All.Values(meta.EmbeddingHash))
	assert.Equal(t, 1.0, firstValue(t, res.All, meta.Denoise))
}

func TestTrace_NoiseSeedVariant(t *testing.T) {
	p := graph.New().
		Add("1", graph.Node{ClassType: "KSamplerAdvanced", Inputs: map[string]any{
			"noise_seed": int64(7), "steps": int64(30), "cfg": 5.5,
			"sampler_name": "dpmpp_2m", "scheduler": "karras",
		}}).
		Add("2", graph.Node{ClassType: "CLIPSetLastLayer", Inputs: map[string]any{
			"stop_at_clip_layer": int64(-2),
		}})

	res := NewTrace(p).Collect(context.Background())

	assert.Equal(t, int64(7), firstValue(t, res.All, meta.Seed))
	assert.Equal(t, "karras", firstValue(t, res.All, meta.Scheduler))
	assert.Equal(t, int64(2), firstValue(t, res.All, meta.ClipSkip))
}

func TestTrace_LinkedValuesAreNotSelected(t *testing.T) {
	p := txt2img().Add("3", graph.Node{ClassType: "KSampler", Inputs: map[string]any{
		"seed": link("30", 0), "steps": int64(20), "cfg": 7.0,
		"sampler_name": "euler", "scheduler": "normal",
		"positive": link("6", 0), "negative": link("7", 0),
	}})

	res := NewTrace(p).Collect(context.Background())

	assert.True(t, res.All.Has(meta.Seed))
	_, ok := res.All.First(meta.Seed)
	assert.False(t, ok)
}

func TestTrace_EmptyGraph(t *testing.T) {
	res := NewTrace(graph.New()).Collect(context.Background())
	assert.Zero(t, res.Candidates())
	assert.Empty(t, res.SamplerID)
}

func TestSelect(t *testing.T) {
	p := txt2img()

	assert.IsType(t, &Live{}, Select(&Execution{Prompt: p}, p, defs.Default()))
	assert.IsType(t, &Trace{}, Select(nil, p, defs.Default()))
	assert.IsType(t, &Trace{}, Select(&Execution{}, p, defs.Default()))
}

func TestCollectorHasher(t *testing.T) {
	p := txt2img()

	for _, c := range []Collector{
		NewLive(Execution{Prompt: p}, defs.Default(), WithHasher(testHasher)),
		NewTrace(p, WithHasher(testHasher)),
	} {
		hc, ok := c.(Hashed)
		require.True(t, ok, c.Mode())
		assert.Equal(t, testHasher, hc.Hasher(), c.Mode())
	}
	assert.Nil(t, NewTrace(p).Hasher())
}

func TestFindSampler(t *testing.T) {
	p := txt2img()

	id, ok := FindSampler(p, "9")
	assert.True(t, ok)
	assert.Equal(t, "3", id)

	id, ok = FindSampler(p, "")
	assert.True(t, ok)
	assert.Equal(t, "3", id)

	_, ok = FindSampler(p, "4")
	assert.False(t, ok)
}
