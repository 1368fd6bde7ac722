// Package zaplog logs gateway calls through zap.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/petal-labs/lumen/core"
)

// Hook writes one line per call start, phase and end.
type Hook struct {
	logger     *zap.Logger
	phaseLevel zapcore.Level
}

// Option configures a Hook.
type Option func(*Hook)

// WithPhaseLevel sets the level used for phase transitions. Default is Debug.
func WithPhaseLevel(l zapcore.Level) Option {
	return func(h *Hook) {
		h.phaseLevel = l
	}
}

// New returns a hook that logs to logger. A nil logger discards output.
func New(logger *zap.Logger, opts ...Option) *Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hook{
		logger:     logger.With(zap.String("component", "lumen")),
		phaseLevel: zapcore.DebugLevel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnGenerateStart logs the call parameters.
func (h *Hook) OnGenerateStart(e core.GenerateStartEvent) {
	h.logger.Info("generate started",
		zap.String("call_id", e.CallID),
		zap.String("provider", string(e.Provider)),
		zap.String("model", string(e.Model)),
		zap.Int("references", e.References),
		zap.Duration("budget", e.Budget),
	)
}

// OnPhase logs the transition at the configured level.
func (h *Hook) OnPhase(e core.PhaseEvent) {
	if ce := h.logger.Check(h.phaseLevel, "generate phase"); ce != nil {
		fields := []zap.Field{
			zap.String("call_id", e.CallID),
			zap.String("provider", string(e.Provider)),
			zap.String("phase", string(e.Phase)),
			zap.Duration("elapsed", e.Elapsed),
		}
		if e.JobID != "" {
			fields = append(fields, zap.String("job_id", e.JobID))
		}
		ce.Write(fields...)
	}
}

// OnGenerateEnd logs the outcome. Failures are logged at Warn.
func (h *Hook) OnGenerateEnd(e core.GenerateEndEvent) {
	fields := []zap.Field{
		zap.String("call_id", e.CallID),
		zap.String("provider", string(e.Provider)),
		zap.String("model", string(e.Model)),
		zap.Duration("duration", e.Duration()),
		zap.Int("images", e.Images),
		zap.String("outcome", core.KindName(e.Err)),
	}
	if e.Err != nil {
		h.logger.Warn("generate failed", append(fields, zap.Error(e.Err))...)
		return
	}
	h.logger.Info("generate finished", fields...)
}

var _ core.TelemetryHook = (*Hook)(nil)
