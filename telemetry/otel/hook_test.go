package otel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petal-labs/lumen/core"
)

func newHook(t *testing.T) (*Hook, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	return New(tp.Tracer("lumen-test")), rec
}

func attr(kvs []attribute.KeyValue, key string) attribute.Value {
	for _, kv := range kvs {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestSpanPerCall(t *testing.T) {
	h, rec := newHook(t)
	start := time.Now()

	h.OnGenerateStart(core.GenerateStartEvent{CallID: "a", Provider: core.ProviderFal, Model: "fal-ai/flux/dev", Start: start})
	h.OnPhase(core.PhaseEvent{CallID: "a", Phase: core.PhaseAwaitingSubmission})
	h.OnPhase(core.PhaseEvent{CallID: "a", Phase: core.PhasePolling, JobID: "j1"})
	h.OnGenerateEnd(core.GenerateEndEvent{CallID: "a", Start: start, End: start.Add(time.Second), Images: 1})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, SpanName, span.Name())
	assert.Equal(t, "fal", attr(span.Attributes(), "lumen.provider").AsString())
	assert.Equal(t, int64(1), attr(span.Attributes(), "lumen.images").AsInt64())
	assert.Equal(t, codes.Ok, span.Status().Code)
	assert.True(t, span.EndTime().Equal(start.Add(time.Second)))

	events := span.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "awaiting_submission", events[0].Name)
	assert.Equal(t, "polling", events[1].Name)
	assert.Equal(t, "j1", attr(events[1].Attributes, "lumen.job_id").AsString())
}

func TestSpanRecordsError(t *testing.T) {
	h, rec := newHook(t)

	h.OnGenerateStart(core.GenerateStartEvent{CallID: "b", Provider: core.ProviderGemini, Start: time.Now()})
	h.OnGenerateEnd(core.GenerateEndEvent{CallID: "b", Err: core.EmptyResultError("gemini", "")})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "empty_result", spans[0].Status().Description)
	assert.Equal(t, "empty_result", attr(spans[0].Attributes(), "lumen.outcome").AsString())
}

func TestUnknownCallIgnored(t *testing.T) {
	h, rec := newHook(t)
	h.OnPhase(core.PhaseEvent{CallID: "missing"})
	h.OnGenerateEnd(core.GenerateEndEvent{CallID: "missing"})
	assert.Empty(t, rec.Ended())
}
