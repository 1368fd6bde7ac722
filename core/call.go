package core

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Adapter turns a canonical request into one provider's wire protocol.
// The gateway selects an adapter by the request's provider tag.
//
// Generate must honor ctx and the call's deadline for every network step,
// append what it finds to call.Results and return only errors built by
// this package's constructors. Adapters must not retry.
type Adapter interface {
	ID() ProviderID
	Generate(ctx context.Context, call *Call) error
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc struct {
	Provider ProviderID
	Fn       func(ctx context.Context, call *Call) error
}

// ID returns the provider tag.
func (a AdapterFunc) ID() ProviderID { return a.Provider }

// Generate calls Fn.
func (a AdapterFunc) Generate(ctx context.Context, call *Call) error { return a.Fn(ctx, call) }

// Call is the per-invocation state handed to an adapter.
// It lives for a single Generate and is never shared.
type Call struct {
	ID       string
	Request  *GenerationRequest
	Deadline Deadline
	Results  *Assembler
	Logger   *zap.Logger

	telemetry TelemetryHook
	phase     Phase
	jobID     string
}

// NewCall builds a call outside the gateway, mainly for adapter tests.
func NewCall(req *GenerationRequest, dl Deadline) *Call {
	return &Call{
		Request:   req,
		Deadline:  dl,
		Results:   NewAssembler(req.Label(), req.SlotIndex, nil),
		Logger:    zap.NewNop(),
		telemetry: NoopTelemetryHook{},
	}
}

// Enter records a phase transition.
func (c *Call) Enter(p Phase) {
	if c.phase == p {
		return
	}
	c.phase = p
	c.Logger.Debug("phase", zap.String("phase", string(p)), zap.Duration("elapsed", c.Deadline.Elapsed()))
	if c.telemetry != nil {
		c.telemetry.OnPhase(PhaseEvent{
			CallID:   c.ID,
			Provider: c.Request.Provider,
			Phase:    p,
			Elapsed:  c.Deadline.Elapsed(),
			JobID:    c.jobID,
		})
	}
}

// Phase returns the phase the call is currently in.
func (c *Call) Phase() Phase {
	return c.phase
}

// SetJob records the queued job id for telemetry.
func (c *Call) SetJob(id string) {
	c.jobID = id
	c.Logger.Debug("job submitted", zap.String("job_id", id))
}

// ContextError classifies a context failure against the call's deadline:
// caller cancellation becomes ErrCanceled, anything else ErrTimeout.
func ContextError(provider string, err error, dl Deadline) *ProviderError {
	if errors.Is(err, context.Canceled) && !dl.Expired() {
		return CanceledError(provider)
	}
	return TimeoutError(provider, dl.Budget())
}
