package fal

import (
	"net/url"
	"strings"

	"github.com/petal-labs/lumen/core"
)

// Output settings used whenever an aspect ratio is requested.
const (
	aspectResolution   = "1K"
	aspectOutputFormat = "png"
	defaultDimension   = 1024
)

type imageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// params holds the model input shared by both families.
type params struct {
	Prompt       string     `json:"prompt"`
	NumImages    int        `json:"num_images"`
	ImageURLs    []string   `json:"image_urls,omitempty"`
	AspectRatio  string     `json:"aspect_ratio,omitempty"`
	Resolution   string     `json:"resolution,omitempty"`
	OutputFormat string     `json:"output_format,omitempty"`
	ImageSize    *imageSize `json:"image_size,omitempty"`
}

type directRequest struct {
	Input params `json:"input"`
}

// mapParams builds model input. An aspect ratio excludes every size field;
// otherwise the size comes from the request, then the first reference
// image, then a square default.
func mapParams(req *core.GenerationRequest, refs []string) params {
	p := params{
		Prompt:    req.Prompt,
		NumImages: req.ImageCount(),
	}
	if len(refs) > 0 {
		p.ImageURLs = refs
	}
	if req.AspectRatio != "" {
		p.AspectRatio = req.AspectRatio
		p.Resolution = aspectResolution
		p.OutputFormat = aspectOutputFormat
		return p
	}
	p.ImageSize = sizeFor(req)
	return p
}

func sizeFor(req *core.GenerationRequest) *imageSize {
	if req.Size != nil && req.Size.Width > 0 && req.Size.Height > 0 {
		return &imageSize{Width: req.Size.Width, Height: req.Size.Height}
	}
	if len(req.ReferenceImages) > 0 && req.ReferenceImages[0].HasDimensions() {
		first := req.ReferenceImages[0]
		return &imageSize{Width: first.Width, Height: first.Height}
	}
	return &imageSize{Width: defaultDimension, Height: defaultDimension}
}

// body wraps params for the given family.
func body(f Family, p params) any {
	if f == FamilyDirect {
		return directRequest{Input: p}
	}
	return p
}

// familyFor infers the family from the endpoint host: queue hosts poll,
// everything else answers inline.
func familyFor(forced Family, endpoint string) Family {
	if forced != FamilyAuto {
		return forced
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return FamilyDirect
	}
	if strings.HasPrefix(u.Hostname(), "queue.") {
		return FamilyQueue
	}
	return FamilyDirect
}
