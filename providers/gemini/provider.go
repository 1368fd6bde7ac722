// Package gemini adapts the Gemini generateContent API to the Lumen gateway.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/internal/normalize"
	"github.com/petal-labs/lumen/providers/internal/transport"
)

// Gemini is a synchronous JSON adapter: one POST, images inline in the answer.
// Gemini is safe for concurrent use.
type Gemini struct {
	config Config
	http   *transport.Client
}

// New creates a new Gemini adapter with the given API key and options.
func New(apiKey string, opts ...Option) *Gemini {
	cfg := Config{
		APIKey:  core.NewSecret(apiKey),
		BaseURL: DefaultBaseURL,
		Logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Gemini{
		config: cfg,
		http:   transport.New(string(core.ProviderGemini), cfg.HTTPClient, transport.WithLogger(cfg.Logger)),
	}
}

// ID returns the provider tag.
func (p *Gemini) ID() core.ProviderID {
	return core.ProviderGemini
}

// Models returns the list of known image models.
func (p *Gemini) Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Generate issues exactly one generateContent request under the call deadline.
func (p *Gemini) Generate(ctx context.Context, call *core.Call) error {
	req := call.Request
	call.Enter(core.PhaseBuildingRequest)
	body := mapRequest(req)

	call.Enter(core.PhaseAwaitingSubmission)
	resp, err := p.http.PostJSON(ctx, call.Deadline, p.endpoint(req), p.buildHeaders(), body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return normalize.HTTPErrorWithOverrides(p.http.Provider(), resp.Status, resp.Header, resp.Body, statusOverrides)
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return core.DecodeError(p.http.Provider(), err)
	}
	if err := collect(ctx, &out, call.Results); err != nil {
		return core.ContextError(p.http.Provider(), err, call.Deadline)
	}
	return nil
}

func (p *Gemini) endpoint(req *core.GenerationRequest) string {
	if req.Endpoint != "" {
		return req.Endpoint
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.config.BaseURL, modelPath(req.Model))
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *Gemini) buildHeaders() http.Header {
	headers := make(http.Header)
	headers.Set("x-goog-api-key", p.config.APIKey.Expose())
	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	return headers
}

// Gemini reports unknown models as 404; surface that as a bad request.
var statusOverrides = map[int]error{
	http.StatusNotFound: core.ErrBadRequest,
}

var (
	_ core.Adapter     = (*Gemini)(nil)
	_ core.ModelLister = (*Gemini)(nil)
)
