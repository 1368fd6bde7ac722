package fal

import "github.com/petal-labs/lumen/core"

// Common FAL image endpoints.
const (
	ModelFluxDev        core.ModelID = "fal-ai/flux/dev"
	ModelFluxKontext    core.ModelID = "fal-ai/flux-pro/kontext"
	ModelNanoBananaEdit core.ModelID = "fal-ai/nano-banana/edit"
	ModelSeedreamV4Edit core.ModelID = "fal-ai/bytedance/seedream/v4/edit"
)

var models = []core.ModelInfo{
	{ID: ModelFluxDev, DisplayName: "FLUX.1 [dev]"},
	{ID: ModelFluxKontext, DisplayName: "FLUX.1 Kontext [pro]"},
	{ID: ModelNanoBananaEdit, DisplayName: "Nano Banana Edit"},
	{ID: ModelSeedreamV4Edit, DisplayName: "Seedream 4.0 Edit"},
}
