// Package formatters provides the value transforms and validation gates that
// field-registry rules reference: model hashes, clip-skip sign conversion,
// latent-scaled image size, embedding extraction, and prompt-role checks.
//
// Every formatter is total over its raw input. Values it cannot interpret
// produce nil, which the collectors treat as "no candidate".
package formatters

import (
	"math"
	"strings"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/hashing"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

func hashOf(kind hashing.Kind) capture.FormatFunc {
	return func(raw any, c *capture.Context) any {
		name, ok := raw.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil
		}
		if h := c.Hash(kind, name); h != "" {
			return h
		}
		return nil
	}
}

// Hash formatters for each model kind. A missing file yields nil.
var (
	ModelHash    = hashOf(hashing.Checkpoint)
	LoraHash     = hashOf(hashing.Lora)
	VAEHash      = hashOf(hashing.VAE)
	UpscalerHash = hashOf(hashing.Upscaler)
	UNetHash     = hashOf(hashing.UNet)
)

// ClipSkip converts a "stop at layer" value (-2) to the clip-skip count (2).
func ClipSkip(raw any, _ *capture.Context) any {
	if i, ok := meta.ToInt(raw); ok {
		return -i
	}
	if f, ok := raw.(float64); ok {
		return -f
	}
	return nil
}

// latent returns the executed latent fed to the node, if any.
func latent(c *capture.Context) (graph.Latent, bool) {
	if c.Inputs == nil {
		return graph.Latent{}, false
	}
	vals := c.Inputs["samples"]
	if len(vals) == 0 {
		return graph.Latent{}, false
	}
	switch l := vals[0].(type) {
	case graph.Latent:
		return l, l.Executed()
	case *graph.Latent:
		if l == nil {
			return graph.Latent{}, false
		}
		return *l, l.Executed()
	}
	return graph.Latent{}, false
}

// LatentExecuted gates rules that need the executed latent batch.
func LatentExecuted(c *capture.Context) bool {
	_, ok := latent(c)
	return ok
}

func scaled(dim int) capture.FormatFunc {
	return func(raw any, c *capture.Context) any {
		scale, ok := meta.ToFloat(raw)
		if !ok {
			return nil
		}
		l, ok := latent(c)
		if !ok {
			return nil
		}
		return int64(math.RoundToEven(float64(l.Shape[dim]) * 8 * scale))
	}
}

// ScaledWidth and ScaledHeight turn a scale factor into the pixel size of
// the upscaled latent.
var (
	ScaledWidth  = scaled(3)
	ScaledHeight = scaled(2)
)
