package gemini

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part holds either text or inline image data. The API has been seen to
// answer with both camelCase and snake_case keys for inline data.
type part struct {
	Text            string      `json:"text,omitempty"`
	InlineData      *inlineData `json:"inlineData,omitempty"`
	InlineDataSnake *inlineData `json:"inline_data,omitempty"`
	Thought         bool        `json:"thought,omitempty"`
}

func (p part) inline() *inlineData {
	if p.InlineData != nil {
		return p.InlineData
	}
	return p.InlineDataSnake
}

type inlineData struct {
	MimeType      string `json:"mimeType,omitempty"`
	MimeTypeSnake string `json:"mime_type,omitempty"`
	Data          string `json:"data"`
}

func (d inlineData) mime() string {
	if d.MimeType != "" {
		return d.MimeType
	}
	return d.MimeTypeSnake
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	CandidateCount     int          `json:"candidateCount,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}
