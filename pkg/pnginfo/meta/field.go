// Package meta defines the semantic metadata fields and the candidate values
// observed for them while walking an executed node graph.
package meta

// Field identifies a pipeline-independent metadata concept such as the seed
// or the checkpoint name. Fields form a closed set.
type Field int

// Semantic fields.
const (
	ModelName Field = iota + 1
	ModelHash
	VAEName
	VAEHash
	PositivePrompt
	NegativePrompt
	ClipSkip
	Seed
	Steps
	CFG
	SamplerName
	Scheduler
	Denoise
	ImageWidth
	ImageHeight
	LoraModelName
	LoraModelHash
	LoraStrengthModel
	LoraStrengthClip
	EmbeddingName
	EmbeddingHash
	UpscaleBy
	UpscaleModelName
	UpscaleModelHash
)

var fieldNames = map[Field]string{
	ModelName:         "MODEL_NAME",
	ModelHash:         "MODEL_HASH",
	VAEName:           "VAE_NAME",
	VAEHash:           "VAE_HASH",
	PositivePrompt:    "POSITIVE_PROMPT",
	NegativePrompt:    "NEGATIVE_PROMPT",
	ClipSkip:          "CLIP_SKIP",
	Seed:              "SEED",
	Steps:             "STEPS",
	CFG:               "CFG",
	SamplerName:       "SAMPLER_NAME",
	Scheduler:         "SCHEDULER",
	Denoise:           "DENOISE",
	ImageWidth:        "IMAGE_WIDTH",
	ImageHeight:       "IMAGE_HEIGHT",
	LoraModelName:     "LORA_MODEL_NAME",
	LoraModelHash:     "LORA_MODEL_HASH",
	LoraStrengthModel: "LORA_STRENGTH_MODEL",
	LoraStrengthClip:  "LORA_STRENGTH_CLIP",
	EmbeddingName:     "EMBEDDING_NAME",
	EmbeddingHash:     "EMBEDDING_HASH",
	UpscaleBy:         "UPSCALE_BY",
	UpscaleModelName:  "UPSCALE_MODEL_NAME",
	UpscaleModelHash:  "UPSCALE_MODEL_HASH",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, len(fieldNames))
	for f, name := range fieldNames {
		m[name] = f
	}
	return m
}()

// String returns the upper-snake name of the field, e.g. "MODEL_HASH".
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether f is one of the declared fields.
func (f Field) Valid() bool {
	_, ok := fieldNames[f]
	return ok
}

// Multi reports whether the field legitimately carries one value per
// resource (several LoRA loaders, several embeddings). Disagreeing values
// on these fields are not conflicts.
func (f Field) Multi() bool {
	switch f {
	case LoraModelName, LoraModelHash, LoraStrengthModel, LoraStrengthClip,
		EmbeddingName, EmbeddingHash:
		return true
	}
	return false
}

// ParseField looks up a field by its upper-snake name.
func ParseField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}
