// Package defs declares the built-in field registry for the stock node
// types: checkpoint/UNet/VAE/LoRA/upscale loaders, text encoders, latent
// sources, samplers and their split-out building blocks.
package defs

import (
	"sync"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/formatters"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

var (
	defaultOnce sync.Once
	defaultReg  *capture.Registry
)

// Default returns the frozen built-in registry. It is built once per
// process and shared.
func Default() *capture.Registry {
	defaultOnce.Do(func() {
		defaultReg = Register(capture.NewRegistry()).Freeze()
	})
	return defaultReg
}

// Register adds the built-in node types to r and returns it.
func Register(r *capture.Registry) *capture.Registry {
	bind := capture.Bind
	format := capture.WithFormat
	validate := capture.WithValidate

	r.MustRegister("CheckpointLoaderSimple",
		bind(meta.ModelName, "ckpt_name"),
		bind(meta.ModelHash, "ckpt_name", format(formatters.ModelHash)),
	)
	r.MustRegister("CLIPSetLastLayer",
		bind(meta.ClipSkip, "stop_at_clip_layer", format(formatters.ClipSkip)),
	)
	r.MustRegister("VAELoader",
		bind(meta.VAEName, "vae_name"),
		bind(meta.VAEHash, "vae_name", format(formatters.VAEHash)),
	)
	r.MustRegister("EmptyLatentImage",
		bind(meta.ImageWidth, "width"),
		bind(meta.ImageHeight, "height"),
	)
	r.MustRegister("CLIPTextEncode",
		bind(meta.PositivePrompt, "text", validate(formatters.IsPositivePrompt)),
		bind(meta.NegativePrompt, "text", validate(formatters.IsNegativePrompt)),
		bind(meta.EmbeddingName, "text", format(formatters.EmbeddingNamesFormat)),
		bind(meta.EmbeddingHash, "text", format(formatters.EmbeddingHashesFormat)),
	)
	r.MustRegister("KSampler",
		bind(meta.Seed, "seed"),
		bind(meta.Steps, "steps"),
		bind(meta.CFG, "cfg"),
		bind(meta.SamplerName, "sampler_name"),
		bind(meta.Scheduler, "scheduler"),
		bind(meta.Denoise, "denoise"),
	)
	r.MustRegister("KSamplerAdvanced",
		bind(meta.Seed, "noise_seed"),
		bind(meta.Steps, "steps"),
		bind(meta.CFG, "cfg"),
		bind(meta.SamplerName, "sampler_name"),
		bind(meta.Scheduler, "scheduler"),
	)
	r.MustRegister("LatentUpscale",
		bind(meta.ImageWidth, "width"),
		bind(meta.ImageHeight, "height"),
	)
	r.MustRegister("LatentUpscaleBy",
		bind(meta.ImageWidth, "scale_by",
			format(formatters.ScaledWidth), validate(formatters.LatentExecuted)),
		bind(meta.ImageHeight, "scale_by",
			format(formatters.ScaledHeight), validate(formatters.LatentExecuted)),
	)
	r.MustRegister("LoraLoader",
		bind(meta.LoraModelName, "lora_name"),
		bind(meta.LoraModelHash, "lora_name", format(formatters.LoraHash)),
		bind(meta.LoraStrengthModel, "strength_model"),
		bind(meta.LoraStrengthClip, "strength_clip"),
	)
	r.MustRegister("LoraLoaderModelOnly",
		bind(meta.LoraModelName, "lora_name"),
		bind(meta.LoraModelHash, "lora_name", format(formatters.LoraHash)),
		bind(meta.LoraStrengthModel, "strength_model"),
		capture.Literal(meta.LoraStrengthClip, int64(0)),
	)
	r.MustRegister("UpscaleModelLoader",
		bind(meta.UpscaleModelName, "model_name"),
		bind(meta.UpscaleModelHash, "model_name", format(formatters.UpscalerHash)),
	)
	r.MustRegister("ImageScaleBy",
		bind(meta.UpscaleBy, "scale_by"),
	)

	// Flux-style graphs split the sampler into separate nodes.
	r.MustRegister("UNETLoader",
		bind(meta.ModelName, "unet_name"),
		bind(meta.ModelHash, "unet_name", format(formatters.UNetHash)),
	)
	r.MustRegister("RandomNoise",
		bind(meta.Seed, "noise_seed"),
	)
	r.MustRegister("BasicScheduler",
		bind(meta.Steps, "steps"),
		bind(meta.Scheduler, "scheduler"),
		bind(meta.Denoise, "denoise"),
	)
	r.MustRegister("KSamplerSelect",
		bind(meta.SamplerName, "sampler_name"),
	)
	r.MustRegister("CFGGuider",
		bind(meta.CFG, "cfg"),
	)
	r.MustRegister("SamplerCustom",
		bind(meta.CFG, "cfg"),
		bind(meta.Seed, "noise_seed"),
	)
	return r
}
