package gemini

import "github.com/petal-labs/lumen/core"

// Image-capable Gemini models.
const (
	ModelGemini25FlashImage core.ModelID = "gemini-2.5-flash-image"     // Nano Banana
	ModelGemini3ProImage    core.ModelID = "gemini-3-pro-image-preview" // Nano Banana Pro
)

var models = []core.ModelInfo{
	{ID: ModelGemini25FlashImage, DisplayName: "Gemini 2.5 Flash Image"},
	{ID: ModelGemini3ProImage, DisplayName: "Gemini 3 Pro Image Preview"},
}
