package openrouter

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []message    `json:"messages"`
	Modalities  []string     `json:"modalities"`
	ImageConfig *imageConfig `json:"image_config,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

type imageConfig struct {
	AspectRatio string `json:"aspect_ratio,omitempty"`
}

type textBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imageURL struct {
	URL string `json:"url"`
}

type imageURLObjectBlock struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURLStringBlock struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type base64Source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type base64SourceBlock struct {
	Type   string       `json:"type"`
	Source base64Source `json:"source"`
}
