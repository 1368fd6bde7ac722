// Package core provides the Lumen gateway and its canonical types.
package core

import (
	"fmt"
	"time"
)

// ProviderID tags a backend family. The gateway dispatches on it.
type ProviderID string

const (
	ProviderGemini     ProviderID = "gemini"
	ProviderOpenRouter ProviderID = "openrouter"
	ProviderFal        ProviderID = "fal"
)

// KnownProviders lists the provider tags the gateway understands.
var KnownProviders = []ProviderID{ProviderGemini, ProviderOpenRouter, ProviderFal}

// IsKnown reports whether p is one of the supported provider tags.
func (p ProviderID) IsKnown() bool {
	for _, k := range KnownProviders {
		if k == p {
			return true
		}
	}
	return false
}

// ModelID is a string identifier for a model.
// It is passed through to the provider untouched.
type ModelID string

// Size is an explicit output size in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width" validate:"gt=0"`
	Height int `json:"height" yaml:"height" validate:"gt=0"`
}

// String renders the size as WxH.
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize parses a WxH string such as "1024x768".
func ParseSize(v string) (Size, error) {
	var s Size
	if _, err := fmt.Sscanf(v, "%dx%d", &s.Width, &s.Height); err != nil {
		return Size{}, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", v)
	}
	if s.Width <= 0 || s.Height <= 0 {
		return Size{}, fmt.Errorf("invalid size %q: dimensions must be positive", v)
	}
	return s, nil
}

// ReferenceImage is an input image that conditions generation.
// Base64 holds the raw payload without any data URI prefix.
type ReferenceImage struct {
	MimeType    string `json:"mime_type" yaml:"mime_type"`
	Base64      string `json:"base64" yaml:"base64" validate:"required"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Width       int    `json:"width,omitempty" yaml:"width,omitempty" validate:"gte=0"`
	Height      int    `json:"height,omitempty" yaml:"height,omitempty" validate:"gte=0"`
}

// HasDimensions reports whether both width and height are known.
func (r ReferenceImage) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// GenerationRequest is the canonical request accepted by every provider.
type GenerationRequest struct {
	Prompt          string           `json:"prompt" yaml:"prompt" validate:"notblank"`
	ReferenceImages []ReferenceImage `json:"reference_images,omitempty" yaml:"reference_images,omitempty" validate:"dive"`
	Model           ModelID          `json:"model" yaml:"model" validate:"required"`
	Provider        ProviderID       `json:"provider" yaml:"provider" validate:"required,provider"`

	// Timeout bounds the whole call, uploads and polling included.
	// Zero selects the gateway default.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`

	// NumImages is only honored by queue-style providers. Zero means one.
	NumImages   int    `json:"num_images,omitempty" yaml:"num_images,omitempty" validate:"gte=0,lte=4"`
	AspectRatio string `json:"aspect_ratio,omitempty" yaml:"aspect_ratio,omitempty"`
	Size        *Size  `json:"size,omitempty" yaml:"size,omitempty"`

	// Endpoint replaces the provider's default URL when set.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`

	// ModelLabel and SlotIndex are copied onto every produced image.
	ModelLabel string `json:"model_label,omitempty" yaml:"model_label,omitempty"`
	SlotIndex  int    `json:"slot_index,omitempty" yaml:"slot_index,omitempty"`

	// Locale selects the language of error messages (BCP-47, e.g. "es").
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`

	// Progress receives per-image upload notifications. May be nil.
	Progress ProgressFunc `json:"-" yaml:"-"`
}

// ImageCount returns the number of images to request, at least one.
func (r *GenerationRequest) ImageCount() int {
	if r.NumImages <= 0 {
		return 1
	}
	return r.NumImages
}

// Label returns the model label for produced images, falling back to the model id.
func (r *GenerationRequest) Label() string {
	if r.ModelLabel != "" {
		return r.ModelLabel
	}
	return string(r.Model)
}

// GeneratedImage is one produced image. Data is either raw base64 or a URL.
type GeneratedImage struct {
	MimeType   string `json:"mime_type"`
	Data       string `json:"data"`
	ModelLabel string `json:"model_label,omitempty"`
	SlotIndex  int    `json:"slot_index"`
}

// IsURL reports whether Data is a remote reference rather than inline bytes.
func (g GeneratedImage) IsURL() bool {
	return isHTTPURL(g.Data)
}

// GenerationResult is the outcome of a successful call.
type GenerationResult struct {
	Text   string           `json:"text,omitempty"`
	Images []GeneratedImage `json:"images"`
}

// ModelInfo describes a model a provider is known to serve.
type ModelInfo struct {
	ID          ModelID `json:"id"`
	DisplayName string  `json:"display_name"`
}

// ModelLister is implemented by adapters that publish a model catalog.
type ModelLister interface {
	Models() []ModelInfo
}
