package rmge

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectorsOnProvidedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NotNil(t, m)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_NilRegistererIsSafe(t *testing.T) {
	m := NewMetrics(nil)
	assert.NotPanics(t, func() { m.RecordStage("retrieve", 5 * time.Millisecond) })
}

func TestMetrics_RecordOutcome_TracksTotalsByResult(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordOutcome("ok")
	m.RecordOutcome("ok")
	m.RecordOutcome("validation_error")

	total, ok, fail := m.Totals()
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(2), ok)
	assert.Equal(t, int64(1), fail)
}

func TestMetrics_Percentile_NoSamplesReturnsZero(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	assert.Equal(t, time.Duration(0), m.Percentile("retrieve", 50))
}

func TestMetrics_Percentile_P100IsMaxSample(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	durations := []time.Duration{10 * time.Millisecond, 50 * time.Millisecond, 5 * time.Millisecond}
	for _, d := range durations {
		m.RecordStage("rerank", d)
	}

	got := m.Percentile("rerank", 99)
	assert.Equal(t, 50*time.Millisecond, got)
}

func TestMetrics_Percentile_P0IsMinSample(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	for _, d := range []time.Duration{10 * time.Millisecond, 50 * time.Millisecond, 5 * time.Millisecond} {
		m.RecordStage("rerank", d)
	}

	got := m.Percentile("rerank", 0)
	assert.Equal(t, 5*time.Millisecond, got)
}

func TestMetrics_RecordStage_WrapsAroundWindowWithoutPanicking(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	assert.NotPanics(t, func() {
		for i := 0; i < maxWindowSamples+10; i++ {
			m.RecordStage("retrieve", time.Duration(i) * time.Microsecond)
		}
	})
	assert.Greater(t, m.Percentile("retrieve", 50), time.Duration(0))
}

func TestMetrics_Percentile_UnknownStageReturnsZero(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordStage("retrieve", time.Millisecond)

	assert.Equal(t, time.Duration(0), m.Percentile("nonexistent", 50))
}
