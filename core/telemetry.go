package core

import "time"

// Phase is a step of a generation call.
type Phase string

const (
	PhaseBuildingRequest    Phase = "building_request"
	PhaseUploading          Phase = "uploading"
	PhaseAwaitingSubmission Phase = "awaiting_submission"
	PhasePolling            Phase = "polling"
	PhaseDone               Phase = "done"
)

// TelemetryHook receives notifications about the lifecycle of a call.
// Implementations can use this for logging, metrics, tracing, etc.
//
// Events never carry API keys, prompt text or image payloads; only
// operational metadata is exposed. Keep it that way when adding fields.
type TelemetryHook interface {
	// OnGenerateStart is called after validation, before any network activity.
	OnGenerateStart(e GenerateStartEvent)

	// OnPhase is called each time the call enters a new phase.
	OnPhase(e PhaseEvent)

	// OnGenerateEnd is called exactly once per started call.
	OnGenerateEnd(e GenerateEndEvent)
}

// GenerateStartEvent contains metadata about a starting call.
type GenerateStartEvent struct {
	CallID     string
	Provider   ProviderID
	Model      ModelID
	References int
	Budget     time.Duration
	Start      time.Time
}

// PhaseEvent reports a phase transition.
type PhaseEvent struct {
	CallID   string
	Provider ProviderID
	Phase    Phase
	Elapsed  time.Duration
	JobID    string // set once a queued job id is known
}

// GenerateEndEvent contains metadata about a finished call.
type GenerateEndEvent struct {
	CallID   string
	Provider ProviderID
	Model    ModelID
	Start    time.Time
	End      time.Time
	Images   int
	Err      error
}

// Duration returns the elapsed time for the call.
func (e GenerateEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
type NoopTelemetryHook struct{}

// OnGenerateStart does nothing.
func (NoopTelemetryHook) OnGenerateStart(GenerateStartEvent) {}

// OnPhase does nothing.
func (NoopTelemetryHook) OnPhase(PhaseEvent) {}

// OnGenerateEnd does nothing.
func (NoopTelemetryHook) OnGenerateEnd(GenerateEndEvent) {}

var _ TelemetryHook = NoopTelemetryHook{}

// MultiTelemetryHook fans events out to several hooks in order.
type MultiTelemetryHook []TelemetryHook

// OnGenerateStart forwards to every hook.
func (m MultiTelemetryHook) OnGenerateStart(e GenerateStartEvent) {
	for _, h := range m {
		h.OnGenerateStart(e)
	}
}

// OnPhase forwards to every hook.
func (m MultiTelemetryHook) OnPhase(e PhaseEvent) {
	for _, h := range m {
		h.OnPhase(e)
	}
}

// OnGenerateEnd forwards to every hook.
func (m MultiTelemetryHook) OnGenerateEnd(e GenerateEndEvent) {
	for _, h := range m {
		h.OnGenerateEnd(e)
	}
}
