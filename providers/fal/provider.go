// Package fal adapts FAL model endpoints to the Lumen gateway.
//
// Queue endpoints accept a submission and are polled until images appear.
// Direct endpoints answer inline. Reference images are hosted on FAL's CDN
// first and fall back to inline data URIs one by one.
package fal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petal-labs/lumen/core"
	"github.com/petal-labs/lumen/providers/internal/extract"
	"github.com/petal-labs/lumen/providers/internal/normalize"
	"github.com/petal-labs/lumen/providers/internal/poll"
	"github.com/petal-labs/lumen/providers/internal/refimage"
	"github.com/petal-labs/lumen/providers/internal/transport"
)

var jobIDPaths = []string{"request_id", "requestId", "id"}

// Fal is an asynchronous queue adapter. Fal is safe for concurrent use.
type Fal struct {
	config   Config
	http     *transport.Client
	uploader refimage.Uploader
	poller   *poll.Poller
}

// New creates a new FAL adapter with the given key and options.
func New(apiKey string, opts ...Option) *Fal {
	cfg := Config{
		APIKey:       core.NewSecret(apiKey),
		BaseURL:      DefaultBaseURL,
		UploadURL:    DefaultUploadURL,
		PollInterval: poll.DefaultInterval,
		Logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Fal{config: cfg}
	p.http = transport.New(string(core.ProviderFal), cfg.HTTPClient, transport.WithLogger(cfg.Logger))
	if cfg.UploadURL != "" {
		p.uploader = NewCDNUploader(p.http, cfg.UploadURL, p.buildHeaders())
	}
	p.poller = poll.New(p.http,
		poll.WithInterval(cfg.PollInterval),
		poll.WithHeader(p.buildHeaders()),
		poll.WithLogger(cfg.Logger),
	)
	return p
}

// ID returns the provider tag.
func (p *Fal) ID() core.ProviderID {
	return core.ProviderFal
}

// Models returns the list of known image models.
func (p *Fal) Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Generate uploads references, submits the job and, for queue endpoints,
// polls until the images are ready.
func (p *Fal) Generate(ctx context.Context, call *core.Call) error {
	req := call.Request
	provider := p.http.Provider()
	endpoint := p.endpoint(req)
	family := familyFor(p.config.Family, endpoint)

	call.Enter(core.PhaseBuildingRequest)
	var refs []string
	if len(req.ReferenceImages) > 0 {
		call.Enter(core.PhaseUploading)
		resolver := refimage.Resolver{Uploader: p.uploader, Progress: req.Progress, Logger: call.Logger}
		var err error
		refs, err = resolver.Resolve(ctx, call.Deadline, provider, req.ReferenceImages)
		if err != nil {
			return err
		}
	}

	call.Enter(core.PhaseAwaitingSubmission)
	resp, err := p.http.PostJSON(ctx, call.Deadline, endpoint, p.buildHeaders(), body(family, mapParams(req, refs)))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return normalize.HTTPError(provider, resp.Status, resp.Header, resp.Body)
	}
	doc, ok := extract.Parse(resp.Body)
	if !ok {
		return core.DecodeError(provider, errors.New("submission response is not JSON"))
	}

	jobID := extract.FirstString(doc, jobIDPaths...)
	if status := extract.FirstString(doc, "status"); poll.IsFailedStatus(status) {
		return core.JobFailedError(provider, jobID, status)
	}
	if imgs := extract.ImagesAt(poll.DefaultImagePaths...)(doc); len(imgs) > 0 {
		return p.emit(ctx, call, imgs)
	}
	if family != FamilyQueue || jobID == "" {
		call.Results.AddText(extract.FirstString(doc, "detail", "message"))
		return nil
	}

	call.SetJob(jobID)
	var advertised []string
	for _, path := range poll.AdvertisedURLPaths {
		if u := extract.FirstString(doc, path); u != "" {
			advertised = append(advertised, u)
		}
	}
	job := &poll.Job{
		ID:          jobID,
		SubmittedAt: time.Now(),
		Candidates:  poll.Candidates(endpoint, jobID, advertised...),
	}

	call.Enter(core.PhasePolling)
	imgs, err := p.poller.Poll(ctx, call.Deadline, job)
	if err != nil {
		return err
	}
	return p.emit(ctx, call, imgs)
}

func (p *Fal) emit(ctx context.Context, call *core.Call, imgs []extract.Image) error {
	for _, img := range imgs {
		if err := call.Results.AddImage(ctx, img.MimeType, img.Data); err != nil {
			return core.ContextError(p.http.Provider(), err, call.Deadline)
		}
	}
	return nil
}

func (p *Fal) endpoint(req *core.GenerationRequest) string {
	if req.Endpoint != "" {
		return req.Endpoint
	}
	return strings.TrimRight(p.config.BaseURL, "/") + "/" + strings.Trim(string(req.Model), "/")
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *Fal) buildHeaders() http.Header {
	headers := make(http.Header)
	headers.Set("Authorization", "Key "+p.config.APIKey.Expose())
	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}
	return headers
}

var (
	_ core.Adapter      = (*Fal)(nil)
	_ core.ModelLister  = (*Fal)(nil)
	_ refimage.Uploader = (*CDNUploader)(nil)
)
