package openrouter

import (
	"github.com/tidwall/gjson"

	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/internal/extract"
)

// mapRequest builds one user message: image blocks in order, then the prompt.
func mapRequest(req *core.GenerationRequest, style ImageBlockStyle) *chatRequest {
	content := make([]any, 0, len(req.ReferenceImages)+1)
	for _, ref := range req.ReferenceImages {
		content = append(content, imageBlock(ref, style))
	}
	content = append(content, textBlock{Type: "text", Text: req.Prompt})

	r := &chatRequest{
		Model:      string(req.Model),
		Messages:   []message{{Role: "user", Content: content}},
		Modalities: []string{"image", "text"},
	}
	if req.AspectRatio != "" {
		r.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio}
	}
	return r
}

func imageBlock(ref core.ReferenceImage, style ImageBlockStyle) any {
	switch style {
	case ImageBlockURLString:
		return imageURLStringBlock{Type: "image_url", ImageURL: ref.DataURI()}
	case ImageBlockBase64Source:
		return base64SourceBlock{Type: "image", Source: base64Source{
			Type:      "base64",
			MediaType: ref.ResolveMIME(),
			Data:      ref.Payload(),
		}}
	default:
		return imageURLObjectBlock{Type: "image_url", ImageURL: imageURL{URL: ref.DataURI()}}
	}
}

// finding is what a response walk yields, in discovery order.
type finding struct {
	text  string
	image *extract.Image
}

// walkResponse reads choices[].message first and falls back to output[]
// only when the choices produced nothing.
func walkResponse(doc gjson.Result) []finding {
	var out []finding
	doc.Get("choices").ForEach(func(_, choice gjson.Result) bool {
		msg := choice.Get("message")
		out = append(out, walkContent(msg.Get("content"))...)
		msg.Get("images").ForEach(func(_, v gjson.Result) bool {
			if img, ok := extract.ImageRef(v); ok {
				out = append(out, finding{image: &img})
			}
			return true
		})
		return true
	})
	if len(out) > 0 {
		return out
	}

	doc.Get("output").ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.Get("content").Exists():
			out = append(out, walkContent(item.Get("content"))...)
		case item.Get("result").Type == gjson.String:
			if img, ok := extract.ImageRef(item.Get("result")); ok {
				out = append(out, finding{image: &img})
			}
		default:
			if img, ok := extract.ImageRef(item); ok {
				out = append(out, finding{image: &img})
			}
		}
		return true
	})
	return out
}

// walkContent handles content given either as a string or as a block list.
func walkContent(content gjson.Result) []finding {
	if content.Type == gjson.String {
		return []finding{{text: content.Str}}
	}
	var out []finding
	content.ForEach(func(_, block gjson.Result) bool {
		switch block.Get("type").String() {
		case "text", "output_text":
			out = append(out, finding{text: block.Get("text").String()})
		default:
			if img, ok := extract.ImageRef(block); ok {
				out = append(out, finding{image: &img})
			}
		}
		return true
	})
	return out
}
