package core

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a call whose request leaves Timeout at zero.
const DefaultTimeout = 120 * time.Second

// Gateway is the single entry point for generating images.
// It validates requests, creates the call's deadline and dispatches to the
// adapter registered for the request's provider tag.
// Gateway holds no per-call state and is safe for concurrent use.
type Gateway struct {
	adapters       map[ProviderID]Adapter
	telemetry      TelemetryHook
	logger         *zap.Logger
	defaultTimeout time.Duration
	streamBuffer   int
	validate       *validator.Validate
	newID          func() string
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// NewGateway creates a gateway with the given options.
func NewGateway(opts ...GatewayOption) *Gateway {
	g := &Gateway{
		adapters:       make(map[ProviderID]Adapter),
		telemetry:      NoopTelemetryHook{},
		logger:         zap.NewNop(),
		defaultTimeout: DefaultTimeout,
		streamBuffer:   4,
		validate:       defaultValidator,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithAdapter registers an adapter under its provider tag.
// A later adapter with the same tag replaces an earlier one.
func WithAdapter(a Adapter) GatewayOption {
	return func(g *Gateway) {
		if a != nil {
			g.adapters[a.ID()] = a
		}
	}
}

// WithTelemetry sets the telemetry hook for the gateway.
func WithTelemetry(h TelemetryHook) GatewayOption {
	return func(g *Gateway) {
		if h != nil {
			g.telemetry = h
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithDefaultTimeout sets the budget used when a request has none.
func WithDefaultTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.defaultTimeout = d
		}
	}
}

// WithStreamBuffer sets the capacity of the image channel returned by Stream.
func WithStreamBuffer(n int) GatewayOption {
	return func(g *Gateway) {
		if n >= 0 {
			g.streamBuffer = n
		}
	}
}

// Providers returns the tags of the registered adapters, sorted.
func (g *Gateway) Providers() []ProviderID {
	ids := make([]ProviderID, 0, len(g.adapters))
	for id := range g.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Generate runs one call to completion.
//
// Validation failures return before any network activity. A ctx that is
// already done fails fast with ErrCanceled. Otherwise a single deadline of
// req.Timeout (or the gateway default) bounds every step of the call.
func (g *Gateway) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	adapter, err := g.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return g.execute(ctx, req, adapter, nil)
}

// Stream runs a call in the background, sending each image as it is found.
// Validation and early cancellation are reported synchronously.
func (g *Gateway) Stream(ctx context.Context, req *GenerationRequest) (*ImageStream, error) {
	adapter, err := g.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan GeneratedImage, g.streamBuffer)
	errCh := make(chan error, 1)
	final := make(chan *GenerationResult, 1)

	go func() {
		defer close(ch)
		defer close(errCh)
		defer close(final)

		res, err := g.execute(ctx, req, adapter, ch)
		if err != nil {
			errCh <- err
			return
		}
		final <- res
	}()

	return &ImageStream{Ch: ch, Err: errCh, Final: final}, nil
}

func (g *Gateway) prepare(ctx context.Context, req *GenerationRequest) (Adapter, error) {
	locale := ""
	if req != nil {
		locale = req.Locale
	}
	if err := validateWith(g.validate, req); err != nil {
		return nil, localize(err, locale)
	}
	adapter, ok := g.adapters[req.Provider]
	if !ok {
		return nil, localize(ValidationError("provider "+string(req.Provider)+" is not configured"), locale)
	}
	if ctx.Err() != nil {
		return nil, localize(CanceledError(string(req.Provider)), locale)
	}
	return adapter, nil
}

func (g *Gateway) execute(ctx context.Context, req *GenerationRequest, adapter Adapter, sink chan<- GeneratedImage) (*GenerationResult, error) {
	budget := req.Timeout
	if budget <= 0 {
		budget = g.defaultTimeout
	}
	dl := NewDeadline(budget)
	provider := string(req.Provider)

	call := &Call{
		ID:        g.newID(),
		Request:   req,
		Deadline:  dl,
		Results:   NewAssembler(req.Label(), req.SlotIndex, sink),
		telemetry: g.telemetry,
	}
	call.Logger = g.logger.With(
		zap.String("call_id", call.ID),
		zap.String("provider", provider),
		zap.String("model", string(req.Model)),
	)

	start := time.Now()
	g.telemetry.OnGenerateStart(GenerateStartEvent{
		CallID:     call.ID,
		Provider:   req.Provider,
		Model:      req.Model,
		References: len(req.ReferenceImages),
		Budget:     budget,
		Start:      start,
	})
	call.Logger.Debug("generate start",
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("references", len(req.ReferenceImages)),
		zap.Duration("budget", budget),
	)

	callCtx, cancel := dl.Bind(ctx)
	err := adapter.Generate(callCtx, call)
	cancel()

	if err == nil && call.Results.Len() == 0 {
		err = EmptyResultError(provider, call.Results.Text())
	}

	var res *GenerationResult
	if err != nil {
		err = localize(classify(provider, err, dl), req.Locale)
	} else {
		res = call.Results.Result()
		call.Enter(PhaseDone)
	}

	end := time.Now()
	g.telemetry.OnGenerateEnd(GenerateEndEvent{
		CallID:   call.ID,
		Provider: req.Provider,
		Model:    req.Model,
		Start:    start,
		End:      end,
		Images:   call.Results.Len(),
		Err:      err,
	})
	if err != nil {
		call.Logger.Info("generate failed",
			zap.String("kind", KindName(err)),
			zap.Duration("duration", end.Sub(start)),
			zap.Error(err),
		)
		return nil, err
	}
	call.Logger.Info("generate done",
		zap.Int("images", len(res.Images)),
		zap.Duration("duration", end.Sub(start)),
	)
	return res, nil
}

// classify guarantees every returned error carries one of the kind sentinels.
func classify(provider string, err error, dl Deadline) error {
	if Kind(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ContextError(provider, err, dl)
	}
	return NetworkError(provider, err)
}

func localize(err error, locale string) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		pe.Localize(locale)
	}
	return err
}
