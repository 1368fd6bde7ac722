package openrouter

import "github.com/petal-labs/lumen/core"

// Image-output models routed through OpenRouter.
const (
	ModelGeminiFlashImage core.ModelID = "google/gemini-2.5-flash-image"
	ModelGPT5Image        core.ModelID = "openai/gpt-5-image"
)

var models = []core.ModelInfo{
	{ID: ModelGeminiFlashImage, DisplayName: "Gemini 2.5 Flash Image (via OpenRouter)"},
	{ID: ModelGPT5Image, DisplayName: "GPT-5 Image (via OpenRouter)"},
}
