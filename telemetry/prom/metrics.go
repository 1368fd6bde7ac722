// Package prom exports gateway calls as Prometheus metrics.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/petal-labs/lumen/core"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "lumen"

// Hook records call counts, durations, image counts and phase transitions.
type Hook struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	images   *prometheus.CounterVec
	phases   *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses a fresh registry, available through Registry.
func New(namespace string, reg prometheus.Registerer) (*Hook, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	h := &Hook{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generate_calls_total",
				Help:      "Total number of image generation calls by outcome",
			},
			[]string{"provider", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generate_duration_seconds",
				Help:      "Image generation call duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),
		images: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generate_images_total",
				Help:      "Total number of images produced",
			},
			[]string{"provider"},
		),
		phases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generate_phase_transitions_total",
				Help:      "Total number of phase transitions",
			},
			[]string{"provider", "phase"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "generate_in_flight",
				Help:      "Number of generation calls currently running",
			},
			[]string{"provider"},
		),
	}

	for _, c := range []prometheus.Collector{h.calls, h.duration, h.images, h.phases, h.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// OnGenerateStart counts the call as in flight.
func (h *Hook) OnGenerateStart(e core.GenerateStartEvent) {
	h.inFlight.WithLabelValues(string(e.Provider)).Inc()
}

// OnPhase counts the transition.
func (h *Hook) OnPhase(e core.PhaseEvent) {
	h.phases.WithLabelValues(string(e.Provider), string(e.Phase)).Inc()
}

// OnGenerateEnd records the outcome.
func (h *Hook) OnGenerateEnd(e core.GenerateEndEvent) {
	p := string(e.Provider)
	h.inFlight.WithLabelValues(p).Dec()
	h.calls.WithLabelValues(p, core.KindName(e.Err)).Inc()
	h.duration.WithLabelValues(p).Observe(e.Duration().Seconds())
	if e.Images > 0 {
		h.images.WithLabelValues(p).Add(float64(e.Images))
	}
}

var _ core.TelemetryHook = (*Hook)(nil)
