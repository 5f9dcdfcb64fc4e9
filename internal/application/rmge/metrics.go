package rmge

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks per-stage durations and outcome counters for one
// Orchestrator instance. Counters are simple atomics; percentile state is
// recomputed from a bounded rolling window under a short-held lock, per
// SPEC_FULL.md's concurrency model.
type Metrics struct {
	stageDuration *prometheus.HistogramVec
	outcomeTotal  *prometheus.CounterVec

	mu      sync.Mutex
	windows map[string]*durationWindow

	requestsTotal int64
	requestsOK    int64
	requestsFail  int64
}

const maxWindowSamples = 500

type durationWindow struct {
	samples []time.Duration
	next    int
	full    bool
}

// NewMetrics registers the Prometheus collectors on reg (pass
// prometheus.DefaultRegisterer from the composition root) and returns a
// ready Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rmge",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each meal-plan generation stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		outcomeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rmge",
			Name:      "generation_outcomes_total",
			Help:      "Count of meal-plan generation outcomes by result.",
		}, []string{"outcome"}),
		windows: make(map[string]*durationWindow),
	}
	if reg != nil {
		reg.MustRegister(m.stageDuration, m.outcomeTotal)
	}
	return m
}

// RecordStage records how long a named stage took.
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())

	m.mu.Lock()
	w, ok := m.windows[stage]
	if !ok {
		w = &durationWindow{samples: make([]time.Duration, maxWindowSamples)}
		m.windows[stage] = w
	}
	w.samples[w.next] = d
	w.next = (w.next + 1) % maxWindowSamples
	if w.next == 0 {
		w.full = true
	}
	m.mu.Unlock()
}

// RecordOutcome increments the counter for a terminal generation outcome
// ("ok", "quota_exceeded", "validation_error", "generation_failed",
// "cancelled").
func (m *Metrics) RecordOutcome(outcome string) {
	m.outcomeTotal.WithLabelValues(outcome).Inc()
	atomic.AddInt64(&m.requestsTotal, 1)
	if outcome == "ok" {
		atomic.AddInt64(&m.requestsOK, 1)
	} else {
		atomic.AddInt64(&m.requestsFail, 1)
	}
}

// Percentile returns the p-th percentile (0 < p < 100) of the recorded
// durations for stage, or zero if no samples exist yet.
func (m *Metrics) Percentile(stage string, p float64) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[stage]
	if !ok {
		return 0
	}

	n := w.next
	if w.full {
		n = maxWindowSamples
	}
	if n == 0 {
		return 0
	}

	samples := make([]time.Duration, n)
	copy(samples, w.samples[:n])
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	idx := int(p / 100 * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return samples[idx]
}

// Totals returns the request/ok/fail counters.
func (m *Metrics) Totals() (total, ok, fail int64) {
	return atomic.LoadInt64(&m.requestsTotal), atomic.LoadInt64(&m.requestsOK), atomic.LoadInt64(&m.requestsFail)
}
