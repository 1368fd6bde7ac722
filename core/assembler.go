package core

import (
	"context"
	"strings"
)

// Assembler collects text fragments and images into a GenerationResult,
// tagging every image with the request's model label and slot index.
type Assembler struct {
	label  string
	slot   int
	texts  []string
	images []GeneratedImage
	sink   chan<- GeneratedImage
}

// NewAssembler creates an assembler. If sink is non-nil every image is
// also sent on it as soon as it is added.
func NewAssembler(label string, slot int, sink chan<- GeneratedImage) *Assembler {
	return &Assembler{label: label, slot: slot, sink: sink}
}

// AddText appends a text fragment. Blank fragments are ignored.
func (a *Assembler) AddText(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	a.texts = append(a.texts, s)
}

// AddImage appends an image in discovery order. It blocks on the sink
// until the image is delivered or ctx ends.
func (a *Assembler) AddImage(ctx context.Context, mimeType, data string) error {
	if mimeType == "" {
		mimeType = DefaultImageMIME
	}
	img := GeneratedImage{
		MimeType:   mimeType,
		Data:       data,
		ModelLabel: a.label,
		SlotIndex:  a.slot,
	}
	a.images = append(a.images, img)
	if a.sink == nil {
		return nil
	}
	select {
	case a.sink <- img:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of images collected so far.
func (a *Assembler) Len() int {
	return len(a.images)
}

// Text returns the text fragments joined by a blank line.
func (a *Assembler) Text() string {
	return strings.Join(a.texts, "\n\n")
}

// Result returns the assembled result.
func (a *Assembler) Result() *GenerationResult {
	images := make([]GeneratedImage, len(a.images))
	copy(images, a.images)
	return &GenerationResult{Text: a.Text(), Images: images}
}
