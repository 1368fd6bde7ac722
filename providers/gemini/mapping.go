package gemini

import (
	"context"
	"strings"

	"github.com/petal-labs/lumen/core"
)

// mapRequest builds the body: one inline part per reference image, in
// order, followed by the prompt.
func mapRequest(req *core.GenerationRequest) *generateRequest {
	parts := make([]part, 0, len(req.ReferenceImages)+1)
	for _, ref := range req.ReferenceImages {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: ref.ResolveMIME(),
			Data:     ref.Payload(),
		}})
	}
	parts = append(parts, part{Text: req.Prompt})

	r := &generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
	if req.AspectRatio != "" {
		r.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio}
	}
	return r
}

// collect walks every candidate's parts in order, sending text to the
// accumulator and images to the assembler.
func collect(ctx context.Context, resp *generateResponse, out *core.Assembler) error {
	for _, c := range resp.Candidates {
		for _, p := range c.Content.Parts {
			if p.Text != "" && !p.Thought {
				out.AddText(p.Text)
			}
			if d := p.inline(); d != nil && d.Data != "" {
				if err := out.AddImage(ctx, d.mime(), d.Data); err != nil {
					return err
				}
			}
		}
	}
	if out.Len() == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			out.AddText("prompt blocked: " + fb.BlockReason)
		}
		for _, c := range resp.Candidates {
			if c.FinishReason != "" && c.FinishReason != "STOP" {
				out.AddText("finish reason: " + c.FinishReason)
			}
		}
	}
	return nil
}

func modelPath(model core.ModelID) string {
	return strings.TrimPrefix(string(model), "models/")
}
