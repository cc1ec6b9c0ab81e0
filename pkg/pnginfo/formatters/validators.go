package formatters

import (
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/capture"
	"github.com/randalmurphal/pnginfo/pkg/pnginfo/graph"
)

// PromptRole reports whether the node feeds a "positive" and/or "negative"
// input downstream. Conditioning that passes through intermediate nodes
// (combine, set-area, guiders) is followed; the walk stops at the first
// positive/negative edge on each path and never revisits a node.
func PromptRole(p *graph.Prompt, nodeID string) (positive, negative bool) {
	if !p.Has(nodeID) {
		return false, false
	}
	visited := map[string]bool{nodeID: true}
	queue := []string{nodeID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range p.Consumers(cur) {
			switch e.Input {
			case "positive":
				positive = true
				continue
			case "negative":
				negative = true
				continue
			}
			if !visited[e.NodeID] {
				visited[e.NodeID] = true
				queue = append(queue, e.NodeID)
			}
		}
	}
	return positive, negative
}

// IsPositivePrompt gates prompt rules on nodes that feed a positive input.
func IsPositivePrompt(c *capture.Context) bool {
	pos, _ := PromptRole(c.Prompt, c.NodeID)
	return pos
}

// IsNegativePrompt gates prompt rules on nodes that feed a negative input.
func IsNegativePrompt(c *capture.Context) bool {
	_, neg := PromptRole(c.Prompt, c.NodeID)
	return neg
}

// Functions returns the named formatters and validators available to
// registry extension documents.
func Functions() capture.Functions {
	return capture.Functions{
		Formats: map[string]capture.FormatFunc{
			"model_hash":       ModelHash,
			"lora_hash":        LoraHash,
			"vae_hash":         VAEHash,
			"upscale_hash":     UpscalerHash,
			"unet_hash":        UNetHash,
			"clip_skip":        ClipSkip,
			"scaled_width":     ScaledWidth,
			"scaled_height":    ScaledHeight,
			"embedding_names":  EmbeddingNamesFormat,
			"embedding_hashes": EmbeddingHashesFormat,
		},
		Validators: map[string]capture.ValidateFunc{
			"positive_prompt": IsPositivePrompt,
			"negative_prompt": IsNegativePrompt,
			"latent_executed": LatentExecuted,
		},
	}
}
