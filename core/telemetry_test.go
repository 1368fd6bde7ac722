package core

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMultiTelemetryHookFansOut(t *testing.T) {
	a, b := &recordingHook{}, &recordingHook{}
	m := MultiTelemetryHook{a, b}

	m.OnGenerateStart(GenerateStartEvent{CallID: "c1"})
	m.OnPhase(PhaseEvent{CallID: "c1", Phase: PhasePolling})
	m.OnGenerateEnd(GenerateEndEvent{CallID: "c1"})

	for _, h := range []*recordingHook{a, b} {
		if len(h.starts) != 1 || len(h.phases) != 1 || len(h.ends) != 1 {
			t.Errorf("hook got %d/%d/%d events, want 1/1/1", len(h.starts), len(h.phases), len(h.ends))
		}
	}
}

func TestGenerateEndEventDuration(t *testing.T) {
	start := time.Now()
	e := GenerateEndEvent{Start: start, End: start.Add(1500 * time.Millisecond)}
	if e.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %v", e.Duration())
	}
}

func TestNoopTelemetryHookDoesNotPanic(t *testing.T) {
	var h TelemetryHook = NoopTelemetryHook{}
	h.OnGenerateStart(GenerateStartEvent{})
	h.OnPhase(PhaseEvent{})
	h.OnGenerateEnd(GenerateEndEvent{})
}

func TestEventStructsHaveNoSensitiveFields(t *testing.T) {
	banned := []string{"key", "secret", "token", "prompt", "data", "base64"}
	for _, v := range []any{GenerateStartEvent{}, PhaseEvent{}, GenerateEndEvent{}} {
		typ := reflect.TypeOf(v)
		for i := 0; i < typ.NumField(); i++ {
			name := strings.ToLower(typ.Field(i).Name)
			for _, b := range banned {
				if strings.Contains(name, b) {
					t.Errorf("%s.%s looks sensitive", typ.Name(), typ.Field(i).Name)
				}
			}
		}
	}
}
