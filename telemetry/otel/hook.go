// Package otel records each gateway call as an OpenTelemetry span.
//
// The span starts at OnGenerateStart, gets one event per phase and ends
// at OnGenerateEnd with the outcome as its status:
//
//	tp := sdktrace.NewTracerProvider(...)
//	gw := core.NewGateway(
//	    core.WithTelemetry(otel.New(tp.Tracer("lumen"))),
//	)
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/lumen/core"
)

// SpanName is the name given to every call span.
const SpanName = "lumen.generate"

// Hook implements core.TelemetryHook. It is safe for concurrent use.
type Hook struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// New returns a hook that starts spans on tracer.
func New(tracer trace.Tracer) *Hook {
	return &Hook{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

// OnGenerateStart opens the call span.
func (h *Hook) OnGenerateStart(e core.GenerateStartEvent) {
	_, span := h.tracer.Start(context.Background(), SpanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			attribute.String("lumen.call_id", e.CallID),
			attribute.String("lumen.provider", string(e.Provider)),
			attribute.String("lumen.model", string(e.Model)),
			attribute.Int("lumen.references", e.References),
			attribute.Int64("lumen.budget_ms", e.Budget.Milliseconds()),
		),
	)
	h.mu.Lock()
	h.spans[e.CallID] = span
	h.mu.Unlock()
}

// OnPhase adds a span event named after the phase.
func (h *Hook) OnPhase(e core.PhaseEvent) {
	span := h.lookup(e.CallID, false)
	if span == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.Int64("lumen.elapsed_ms", e.Elapsed.Milliseconds())}
	if e.JobID != "" {
		attrs = append(attrs, attribute.String("lumen.job_id", e.JobID))
	}
	span.AddEvent(string(e.Phase), trace.WithAttributes(attrs...))
}

// OnGenerateEnd closes the span.
func (h *Hook) OnGenerateEnd(e core.GenerateEndEvent) {
	span := h.lookup(e.CallID, true)
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("lumen.images", e.Images),
		attribute.String("lumen.outcome", core.KindName(e.Err)),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, core.KindName(e.Err))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if e.End.IsZero() {
		span.End()
		return
	}
	span.End(trace.WithTimestamp(e.End))
}

func (h *Hook) lookup(id string, remove bool) trace.Span {
	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.spans[id]
	if !ok {
		return nil
	}
	if remove {
		delete(h.spans, id)
	}
	return span
}

var _ core.TelemetryHook = (*Hook)(nil)
