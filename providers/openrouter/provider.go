// Package openrouter adapts OpenRouter chat completions with image output
// to the Lumen gateway.
package openrouter

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/internal/extract"
	"github.com/petal-labs/lumen/providers/internal/normalize"
	"github.com/petal-labs/lumen/providers/internal/transport"
)

// OpenRouter is a synchronous chat adapter. Images come back as message
// content blocks or as URLs that are fetched under the same deadline.
// OpenRouter is safe for concurrent use.
type OpenRouter struct {
	config Config
	http   *transport.Client
}

// New creates a new OpenRouter adapter with the given API key and options.
func New(apiKey string, opts ...Option) *OpenRouter {
	cfg := Config{
		APIKey:     core.NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		BlockStyle: ImageBlockURLObject,
		Logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenRouter{
		config: cfg,
		http:   transport.New(string(core.ProviderOpenRouter), cfg.HTTPClient, transport.WithLogger(cfg.Logger)),
	}
}

// ID returns the provider tag.
func (p *OpenRouter) ID() core.ProviderID {
	return core.ProviderOpenRouter
}

// Models returns the list of known image models.
func (p *OpenRouter) Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Generate sends one chat completion and collects text and images from it.
func (p *OpenRouter) Generate(ctx context.Context, call *core.Call) error {
	req := call.Request
	call.Enter(core.PhaseBuildingRequest)
	body := mapRequest(req, p.config.BlockStyle)

	call.Enter(core.PhaseAwaitingSubmission)
	resp, err := p.http.PostJSON(ctx, call.Deadline, p.endpoint(req), p.buildHeaders(), body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return normalize.HTTPErrorVerbatim(p.http.Provider(), resp.Status, resp.Header, resp.Body, nil)
	}

	doc, ok := extract.Parse(resp.Body)
	if !ok {
		return core.DecodeError(p.http.Provider(), errors.New("response is not JSON"))
	}
	// Some upstream failures arrive as 200 with an error envelope.
	if doc.Get("error").Exists() && !doc.Get("choices").Exists() {
		return normalize.HTTPErrorVerbatim(p.http.Provider(), resp.Status, resp.Header, resp.Body, nil)
	}

	for _, f := range walkResponse(doc) {
		if f.image == nil {
			call.Results.AddText(f.text)
			continue
		}
		mime, data, err := p.materialize(ctx, call, *f.image)
		if err != nil {
			return err
		}
		if err := call.Results.AddImage(ctx, mime, data); err != nil {
			return core.ContextError(p.http.Provider(), err, call.Deadline)
		}
	}
	return nil
}

// materialize turns a URL image into inline base64. A failed fetch is not
// fatal: the URL is passed through. Cancellation and timeout are.
func (p *OpenRouter) materialize(ctx context.Context, call *core.Call, img extract.Image) (string, string, error) {
	if !img.IsURL() {
		return img.MimeType, img.Data, nil
	}
	resp, err := p.http.Get(ctx, call.Deadline, img.Data, nil)
	switch {
	case errors.Is(err, core.ErrCanceled), errors.Is(err, core.ErrTimeout):
		return "", "", err
	case err != nil || !resp.OK() || len(resp.Body) == 0:
		call.Logger.Warn("image fetch failed, returning url", zap.Error(err))
		return img.MimeType, img.Data, nil
	}

	mime := img.MimeType
	if ct := resp.Header.Get("Content-Type"); mime == "" && strings.HasPrefix(ct, "image/") {
		mime, _, _ = strings.Cut(ct, ";")
	}
	if mime == "" {
		mime = core.DetectMIME(resp.Body)
	}
	return mime, base64.StdEncoding.EncodeToString(resp.Body), nil
}

func (p *OpenRouter) endpoint(req *core.GenerationRequest) string {
	if req.Endpoint != "" {
		return req.Endpoint
	}
	return strings.TrimRight(p.config.BaseURL, "/") + "/chat/completions"
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *OpenRouter) buildHeaders() http.Header {
	headers := make(http.Header)
	headers.Set("Authorization", "Bearer "+p.config.APIKey.Expose())
	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	return headers
}

var (
	_ core.Adapter     = (*OpenRouter)(nil)
	_ core.ModelLister = (*OpenRouter)(nil)
)
