package prom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/lumen/core"
)

func TestHookCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New("", reg)
	require.NoError(t, err)

	start := time.Now()
	h.OnGenerateStart(core.GenerateStartEvent{Provider: core.ProviderFal})
	h.OnPhase(core.PhaseEvent{Provider: core.ProviderFal, Phase: core.PhasePolling})
	h.OnPhase(core.PhaseEvent{Provider: core.ProviderFal, Phase: core.PhasePolling})
	h.OnGenerateEnd(core.GenerateEndEvent{Provider: core.ProviderFal, Start: start, End: start.Add(3 * time.Second), Images: 2})

	h.OnGenerateStart(core.GenerateStartEvent{Provider: core.ProviderFal})
	h.OnGenerateEnd(core.GenerateEndEvent{Provider: core.ProviderFal, Err: core.JobNotFoundError("fal", "j")})

	assert.Equal(t, 1.0, testutil.ToFloat64(h.calls.WithLabelValues("fal", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.calls.WithLabelValues("fal", "job_not_found")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.images.WithLabelValues("fal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.phases.WithLabelValues("fal", "polling")))
	assert.Equal(t, 0.0, testutil.ToFloat64(h.inFlight.WithLabelValues("fal")))
	assert.Equal(t, 1, testutil.CollectAndCount(h.duration))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("lumen", reg)
	require.NoError(t, err)
	_, err = New("lumen", reg)
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New("lumen", reg)
	require.NoError(t, err)
	h.OnGenerateEnd(core.GenerateEndEvent{Provider: core.ProviderGemini, Images: 1})

	path := filepath.Join(t.TempDir(), "lumen.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `lumen_generate_calls_total{outcome="ok",provider="gemini"} 1`))
}
